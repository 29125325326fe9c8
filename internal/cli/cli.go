package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"locindex/internal/classify"
	"locindex/internal/config"
	"locindex/internal/engine"
	"locindex/internal/journal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X locindex/internal/cli.Version=...".
var Version = "dev"

// app carries the resolved configuration to every command.
type app struct {
	cfg        *config.Config
	classifier *classify.Classifier
	verbose    bool
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	flags := struct {
		modDir, gameDir, language, refLanguage, targetLang string
	}{}

	rootCmd := &cobra.Command{
		Use:   "locindex",
		Short: "Index, search and safely edit key/value game localization files",
		Long: `locindex scans a mod's *_l_<language>.yml localization tree, classifies every entry
as translated, untranslated or technical, and writes edits back while checking that
variables, concept references and style tags of the source text survive.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if a.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}

			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			cfg, err := config.Load(wd)
			if err != nil {
				return err
			}

			pf := cmd.Flags()
			if pf.Changed("mod-dir") {
				cfg.ModDir = flags.modDir
			}
			if pf.Changed("game-dir") {
				cfg.GameDir = flags.gameDir
			}
			if pf.Changed("language") {
				cfg.Language = flags.language
			}
			if pf.Changed("reference-language") {
				cfg.ReferenceLanguage = flags.refLanguage
			}
			if pf.Changed("target-lang") {
				cfg.TargetLang = flags.targetLang
			}

			cl, err := cfg.Validate()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.classifier = cl
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.modDir, "mod-dir", "", "localization tree to edit (env LOC_MOD_DIR)")
	pf.StringVar(&flags.gameDir, "game-dir", "", "reference localization tree (env LOC_GAME_DIR)")
	pf.StringVar(&flags.language, "language", "", "language segment of edited files (default english)")
	pf.StringVar(&flags.refLanguage, "reference-language", "", "language segment of reference files (default english)")
	pf.StringVar(&flags.targetLang, "target-lang", "", "BCP 47 tag of the translation language (default uk)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(
		statsCmd(a),
		searchCmd(a),
		showCmd(a),
		setCmd(a),
		lintCmd(a),
		journalCmd(a),
		exportTMCmd(a),
		exportGraphCmd(a),
		conceptCmd(a),
		versionCmd(),
	)
	return rootCmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openWorkspace builds a workspace and scans both trees. The journal is
// opened when withJournal is set; the caller closes it.
func (a *app) openWorkspace(ctx context.Context, withJournal bool) (*engine.Workspace, *journal.Journal, error) {
	if a.cfg.ModDir == "" {
		return nil, nil, fmt.Errorf("no localization directory: set --mod-dir, LOC_MOD_DIR or mod_dir in %s", config.ProjectFileName)
	}

	var j *journal.Journal
	if withJournal {
		var err error
		if j, err = journal.Open(a.cfg.JournalPath); err != nil {
			return nil, nil, err
		}
	}

	ws := engine.New(engine.Options{
		Language:          a.cfg.Language,
		ReferenceLanguage: a.cfg.ReferenceLanguage,
		Workers:           a.cfg.Workers,
		Classifier:        a.classifier,
		Journal:           j,
	})

	report, err := ws.Scan(ctx, a.cfg.ModDir, a.cfg.GameDir, a.progress())
	if err != nil {
		if j != nil {
			j.Close()
		}
		return nil, nil, err
	}

	for _, e := range report.Entries.Errors {
		fmt.Fprintln(os.Stderr, Yellow.Render("skipped: "+e.Error()))
	}
	if report.Reference != nil {
		for _, e := range report.Reference.Errors {
			fmt.Fprintln(os.Stderr, Yellow.Render("skipped reference: "+e.Error()))
		}
	} else {
		log.Warn().Msg("No reference directory configured, edits are checked against current values")
	}
	return ws, j, nil
}

// progress renders scan progress on stderr. A new bar starts for every pass
// (reference tree, then edited tree). Disabled in verbose mode, where the
// log already shows each step.
func (a *app) progress() func(current, total int, name string) {
	if a.verbose {
		return nil
	}
	var bar *progressbar.ProgressBar
	return func(current, total int, name string) {
		if bar == nil || current == 1 {
			if bar != nil {
				bar.Finish()
			}
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionClearOnFinish(),
				progressbar.OptionSetDescription("[cyan]scanning[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}))
		}
		bar.Set(current)
		if current == total {
			bar.Finish()
		}
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// the version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "locindex", Version)
		},
	}
}
