package main

import "locindex/internal/cli"

func main() {
	cli.Execute()
}
