package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"nestdo/internal/config"
	"nestdo/internal/format"
	"nestdo/internal/history"
	"nestdo/internal/logging"
	"nestdo/internal/mutate"
	"nestdo/internal/store"
	"nestdo/internal/tui"
	"nestdo/internal/watcher"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath   string
	TasksFile    string
	SettingsFile string
	PrettyJSON   bool
	Format       string
	LogLevel     string

	cfg      *config.Config
	log      *slog.Logger
	logClose io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "nestdo",
		Short:        "Nested todo list (TUI + scriptable CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive outliner
  nestdo

  # Scriptable commands
  nestdo add "Buy milk"
  nestdo add --at 1 --placement child "Whole milk"
  nestdo move 3 --to 1 --position before
  nestdo list --format yaml

  # Direct task lookup (shortcut for: nestdo show <id>)
  nestdo 3
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.close()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("NESTDO_CONFIG", ""), "Path to config.toml (default: $XDG_CONFIG_HOME/nestdo/config.toml)")
	cmd.PersistentFlags().StringVar(&app.TasksFile, "file", envOr("NESTDO_FILE", ""), "Path to the task file (overrides tasks_file)")
	cmd.PersistentFlags().StringVar(&app.SettingsFile, "settings", envOr("NESTDO_SETTINGS", ""), "Path to the settings file (overrides settings_file)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON/EDN output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("NESTDO_FORMAT", "json"), "Output format ("+strings.Join(format.Formats, "|")+")")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error; overrides log_level)")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newCollapseCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newOutlineCmds(app)...)
	cmd.AddCommand(newSettingsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup resolves the config (flag > env > file > defaults) and opens the log.
func (app *App) setup() error {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return err
	}
	if app.TasksFile != "" {
		cfg.TasksFile = app.TasksFile
	}
	if app.SettingsFile != "" {
		cfg.SettingsFile = app.SettingsFile
	}
	if app.LogLevel != "" {
		cfg.LogLevel = app.LogLevel
	}
	log, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	app.cfg, app.log, app.logClose = cfg, log, closer
	return nil
}

func (app *App) close() error {
	if app.logClose == nil {
		return nil
	}
	err := app.logClose.Close()
	app.logClose = nil
	return err
}

func (app *App) store() store.Store {
	return store.Store{
		Path:         app.cfg.TasksFile,
		SettingsPath: app.cfg.SettingsFile,
		Backup:       app.cfg.Backup,
	}
}

// openEngine loads the task file and its settings into a fresh engine.
func openEngine(app *App) (*mutate.Engine, store.Store, error) {
	st := app.store()
	doc, rep, err := st.Load()
	if err != nil {
		return nil, st, fmt.Errorf("load %s: %w", st.Path, err)
	}
	for _, sk := range rep.Skipped {
		app.log.Debug("skipped line", "path", st.Path, "line", sk.Line, "reason", sk.Reason)
	}
	settings, err := st.LoadSettings()
	if err != nil {
		return nil, st, fmt.Errorf("load %s: %w", st.SettingsPath, err)
	}
	eng := mutate.New(doc, settings,
		mutate.WithLogger(app.log),
		mutate.WithHistory(history.New(app.cfg.HistoryDepth)),
	)
	return eng, st, nil
}

func saveEngine(app *App, eng *mutate.Engine, st store.Store) error {
	if !eng.Dirty() {
		return nil
	}
	if err := st.Save(eng.Document()); err != nil {
		return fmt.Errorf("save %s: %w", st.Path, err)
	}
	eng.MarkSaved()
	app.log.Info("saved", "path", st.Path, "tasks", eng.Document().Len())
	return nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	eng, st, err := openEngine(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	w, err := watcher.New(st.Path, watcher.WithOnError(func(err error) {
		app.log.Warn("watch", "path", st.Path, "error", err)
	}))
	if err != nil {
		return writeErr(cmd, err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return tui.Run(ctx, tui.Options{
		Engine:        eng,
		Store:         st,
		Watcher:       w,
		Logger:        app.log,
		DropThreshold: app.cfg.DropThreshold,
		RowHeight:     app.cfg.RowHeight,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
