package cli

import (
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"locindex/internal/classify"
	"locindex/internal/graph"
	"locindex/internal/index"
	"locindex/internal/journal"
	"locindex/internal/query"
	"locindex/internal/textutil"
	"locindex/internal/tmstore"
	"locindex/internal/validate"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show translation progress per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			ws, _, err := a.openWorkspace(ctx, false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			total, translated := ws.Index.Stats()
			all := index.Counts{Total: total, Translated: translated}
			fmt.Fprintln(out, Bold.Render(fmt.Sprintf("%d / %d entries translated (%.1f%%)", translated, total, all.Percent())))

			byCategory := ws.Index.CategoryStats()
			for _, c := range index.Categories()[1:] {
				counts, ok := byCategory[c]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "  %-18s %6d / %-6d %s\n", c, counts.Translated, counts.Total,
					percentStyle(counts.Percent()).Render(fmt.Sprintf("%5.1f%%", counts.Percent())))
			}
			if n := ws.References.Duplicates(); n > 0 {
				fmt.Fprintln(out, Gray.Render(fmt.Sprintf("  %d duplicate reference keys ignored", n)))
			}
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	var (
		category     string
		untranslated bool
		sortBy       string
		descending   bool
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find entries by key or value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := query.ParseSortField(sortBy)
			if err != nil {
				return err
			}
			ctx, cancel := setupContext()
			defer cancel()

			ws, _, err := a.openWorkspace(ctx, false)
			if err != nil {
				return err
			}

			q := query.Query{
				Category:         category,
				UntranslatedOnly: untranslated,
				Sort:             field,
				Descending:       descending,
			}
			if len(args) == 1 {
				q.Text = args[0]
			}
			results := ws.Search(q)

			out := cmd.OutOrStdout()
			shown := results
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			for _, e := range shown {
				fmt.Fprintf(out, "%s %s  %s\n",
					Gray.Render(fmt.Sprintf("%s:%d", a.relPath(e.FilePath), e.LineNumber+1)),
					stateStyle(e.State).Render(e.Key),
					textutil.Truncate(e.Value, 100))
			}
			fmt.Fprintln(out, Gray.Render(fmt.Sprintf("%d of %d matches shown", len(shown), len(results))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", index.AllCategories, "category filter: "+strings.Join(index.Categories(), ", "))
	cmd.Flags().BoolVarP(&untranslated, "untranslated", "u", false, "only entries that still need translation")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by key, value, category, file or state")
	cmd.Flags().BoolVar(&descending, "desc", false, "reverse the sort order")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum results to print, 0 for all")
	return cmd
}

func showCmd(a *app) *cobra.Command {
	var (
		radius int
		withTM bool
	)

	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Show an entry with its surrounding lines, reference text and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			ws, _, err := a.openWorkspace(ctx, false)
			if err != nil {
				return err
			}
			entries := ws.Index.ByKey(args[0])
			if len(entries) == 0 {
				return fmt.Errorf("key %s not found", args[0])
			}
			if !cmd.Flags().Changed("radius") {
				radius = a.cfg.ContextRadius
			}

			var memory *tmstore.Store
			if withTM {
				pool, err := tmstore.Connect(ctx, a.cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				memory = tmstore.New(pool)
			}

			out := cmd.OutOrStdout()
			for _, h := range entries {
				e, err := ws.Index.Current(h)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, BoxStyle.Render(fmt.Sprintf("%s  %s:%d  %s  %s",
					Bold.Render(e.Key), a.relPath(e.FilePath), e.LineNumber+1, e.Category, stateStyle(e.State).Render(e.State.String()))))

				lines, err := ws.Context(h, radius)
				if err != nil {
					return err
				}
				for _, l := range lines {
					marker, style := "  ", Gray
					if l.Target {
						marker, style = "> ", BlueSky
					}
					fmt.Fprintln(out, style.Render(fmt.Sprintf("%s%5d %s", marker, l.Number, l.Text)))
				}

				ref, hasRef := ws.Reference(h)
				if hasRef {
					fmt.Fprintf(out, "%s %s\n", Bold.Render("reference:"), ref)
				}
				if memory != nil && hasRef && !e.IsTranslated() {
					suggestion, ok, err := memory.Get(ctx, ref)
					if err != nil {
						return err
					}
					if ok {
						fmt.Fprintf(out, "%s %s\n", Bold.Render("memory:"), Green.Render(suggestion))
					}
				}
				if t := ws.ReferenceTags(h); len(t) > 0 {
					fmt.Fprintf(out, "%s %s\n", Bold.Render("tags:"), strings.Join(t, "  "))
				}
				if res, err := ws.ValidateEdit(h, e.Value); err == nil && !res.OK() {
					fmt.Fprintln(out, Yellow.Render(res.Warning()))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&radius, "radius", "r", 3, "context lines before and after the entry")
	cmd.Flags().BoolVar(&withTM, "tm", false, "suggest a stored translation of the reference text (needs DATABASE_URL)")
	return cmd
}

func setCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "set <file> <line> <value>",
		Short: "Write a new value to the entry at a one-based line",
		Long: `Writes value into the entry line and rewrites the file atomically.
Tags of the reference text (or the current value, without a reference) that the
new value drops are reported and the write is refused unless --force is given.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(args[1])
			if err != nil || line < 1 {
				return fmt.Errorf("invalid line number %q", args[1])
			}
			ctx, cancel := setupContext()
			defer cancel()

			ws, j, err := a.openWorkspace(ctx, true)
			if err != nil {
				return err
			}
			defer j.Close()

			e, ok := a.lookup(ws.Index, args[0], line-1)
			if !ok {
				return fmt.Errorf("no entry at %s:%d", args[0], line)
			}

			res, err := ws.ValidateEdit(e, args[2])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.OK() {
				fmt.Fprintln(out, Yellow.Render(res.Warning()))
				if !force {
					return fmt.Errorf("refusing to drop tags of %s without --force", e.Key)
				}
			}

			if err := ws.Update(ctx, e, args[2]); err != nil {
				return err
			}
			if cur, err := ws.Index.Current(e); err == nil {
				fmt.Fprintln(out, Green.Render(fmt.Sprintf("%s updated (%s)", cur.Key, cur.State)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "write even if tags are missing")
	return cmd
}

func lintCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check headers, BOMs, entry syntax, tags and forbidden letters of every file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			ws, _, err := a.openWorkspace(ctx, false)
			if err != nil {
				return err
			}
			results, err := ws.Lint()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			errCount, warnCount := 0, 0
			for _, fi := range results {
				fmt.Fprintln(out, Bold.Render(a.relPath(fi.Path)))
				for _, issue := range fi.Issues {
					style := Yellow
					if issue.Severity == validate.SeverityError {
						style = Red
						errCount++
					} else {
						warnCount++
					}
					fmt.Fprintln(out, "  "+style.Render(issue.String()))
				}
			}

			if errCount == 0 && (warnCount == 0 || !strict) {
				fmt.Fprintln(out, Green.Render(fmt.Sprintf("%d files checked, %d warnings", len(ws.Index.Files()), warnCount)))
				return nil
			}
			return fmt.Errorf("%d errors, %d warnings", errCount, warnCount)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

func journalCmd(a *app) *cobra.Command {
	var (
		limit int
		files bool
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded edits or the files they touched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			j, err := journal.Open(a.cfg.JournalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			out := cmd.OutOrStdout()
			if files {
				paths, err := j.ModifiedFiles(ctx)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(out, p)
				}
				return nil
			}

			edits, err := j.List(ctx, limit)
			if err != nil {
				return err
			}
			for _, e := range edits {
				printEdit(out, a, e)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of edits to list, 0 for all")
	cmd.Flags().BoolVar(&files, "files", false, "list modified files only")
	return cmd
}

func printEdit(out io.Writer, a *app, e journal.Edit) {
	fmt.Fprintf(out, "%s %s %s:%d\n",
		Gray.Render(e.CreatedAt.Local().Format("2006-01-02 15:04")),
		Bold.Render(e.Key), a.relPath(e.FilePath), e.Line+1)
	fmt.Fprintln(out, Red.Render("  - "+e.OldValue))
	fmt.Fprintln(out, Green.Render("  + "+e.NewValue))
	if len(e.Missing) > 0 {
		fmt.Fprintln(out, Yellow.Render("  dropped: "+strings.Join(e.Missing, " ")))
	}
}

func exportTMCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export-tm",
		Short: "Upsert reference/translation pairs into the PostgreSQL translation memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			ws, _, err := a.openWorkspace(ctx, false)
			if err != nil {
				return err
			}
			if ws.References.Len() == 0 {
				return fmt.Errorf("translation memory needs a reference tree: set --game-dir")
			}

			pool, err := tmstore.Connect(ctx, a.cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			log.Info().Msg("Connected to PostgreSQL")

			store := tmstore.New(pool)
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := store.Preload(ctx); err != nil {
				return err
			}
			pairs := tmstore.BuildPairs(ws.Index.Entries(), ws.References.Get)
			changed := store.Changed(pairs)
			if err := store.Upsert(ctx, changed); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), Green.Render(fmt.Sprintf("%d pairs exported (%d unchanged)", len(changed), len(pairs)-len(changed))))
			return nil
		},
	}
}

func exportGraphCmd(a *app) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "export-graph",
		Short: "Write entry to concept references into Neo4j",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			ws, _, err := a.openWorkspace(ctx, false)
			if err != nil {
				return err
			}

			driver, err := graph.Connect(ctx, a.cfg.Neo4jURI, a.cfg.Neo4jUser, a.cfg.Neo4jPassword)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)
			log.Info().Msg("Connected to Neo4j")

			b := graph.NewBuilder(driver)
			if err := b.EnsureSchema(ctx); err != nil {
				return err
			}
			refs := graph.CollectReferences(ws.Index.Entries())
			if err := b.UpsertReferences(ctx, refs); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, Green.Render(fmt.Sprintf("%d concept references exported", len(refs))))
			if !check {
				return nil
			}

			variants, err := graph.NewQuerier(driver).TextVariants(ctx)
			if err != nil {
				return err
			}
			for _, concept := range slices.Sorted(maps.Keys(variants)) {
				fmt.Fprintf(out, "%s %s\n", Yellow.Render(concept), strings.Join(variants[concept], " | "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "list concepts translated with more than one display text")
	return cmd
}

func conceptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "concept <key>",
		Short: "List entries referencing a concept in the exported graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			driver, err := graph.Connect(ctx, a.cfg.Neo4jURI, a.cfg.Neo4jUser, a.cfg.Neo4jPassword)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			usages, err := graph.NewQuerier(driver).Usages(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, u := range usages {
				fmt.Fprintf(out, "%s %s  %s\n", Gray.Render(a.relPath(u.File)), Bold.Render(u.EntryKey), u.Text)
			}
			if len(usages) == 0 {
				fmt.Fprintln(out, Gray.Render("no references"))
			}
			return nil
		},
	}
}

// lookup resolves path against the working directory, then the mod dir.
func (a *app) lookup(ix *index.Index, path string, line int) (*index.Entry, bool) {
	if e, ok := ix.Lookup(path, line); ok {
		return e, true
	}
	if !filepath.IsAbs(path) {
		return ix.Lookup(filepath.Join(a.cfg.ModDir, path), line)
	}
	return nil, false
}

func (a *app) relPath(path string) string {
	root, err := filepath.Abs(a.cfg.ModDir)
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func stateStyle(s classify.State) lipgloss.Style {
	switch s {
	case classify.Translated:
		return Green
	case classify.Technical:
		return Gray
	}
	return Yellow
}

func percentStyle(p float64) lipgloss.Style {
	switch {
	case p >= 100:
		return Green
	case p >= 50:
		return BlueSky
	}
	return Red
}
