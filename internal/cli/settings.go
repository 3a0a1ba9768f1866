package cli

import (
	"nestdo/internal/store"

	"github.com/spf13/cobra"
)

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change display settings (show_completed, sort_mode)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.store().LoadSettings()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": s.Map(),
				"meta": map[string]any{"path": app.cfg.SettingsFile},
			})
		},
	}
	cmd.AddCommand(newSettingsGetCmd(app))
	cmd.AddCommand(newSettingsSetCmd(app))
	return cmd
}

func newSettingsGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.store().LoadSettings()
			if err != nil {
				return writeErr(cmd, err)
			}
			v, ok := s.Get(args[0])
			if !ok {
				return writeErr(cmd, errNotFound("setting", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]string{"key": args[0], "value": v},
			})
		},
	}
}

func newSettingsSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change " + store.SettingShowCompleted + " or " + store.SettingSortMode,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := app.store()
			s, err := st.LoadSettings()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := st.SaveSettings(s); err != nil {
				return writeErr(cmd, err)
			}
			v, _ := s.Get(args[0])
			return writeOut(cmd, app, map[string]any{
				"data": map[string]string{"key": args[0], "value": v},
			})
		},
	}
}
