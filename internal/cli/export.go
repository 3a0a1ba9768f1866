package cli

import (
	"errors"
	"fmt"

	"nestdo/internal/publish"
	"nestdo/internal/store"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the task tree",
	}
	cmd.AddCommand(newExportMarkdownCmd(app))
	cmd.AddCommand(&cobra.Command{
		Use:   "sqlite <path>",
		Short: "Write every task into a SQLite database (replacing its tasks)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := app.store().Load()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.ExportSQLite(cmd.Context(), args[0], doc); err != nil {
				return writeErr(cmd, fmt.Errorf("export %s: %w", args[0], err))
			}
			app.log.Info("exported", "path", args[0], "tasks", doc.Len())
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"path": args[0], "tasks": doc.Len()},
			})
		},
	})
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the task file from another source",
	}
	sqliteCmd := &cobra.Command{
		Use:   "sqlite <path>",
		Short: "Load tasks from a SQLite database written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := app.store()
			cur, _, err := st.Load()
			if err != nil {
				return writeErr(cmd, err)
			}
			if cur.Len() > 0 && !force {
				return writeErr(cmd, errors.New("task file is not empty; pass --force to replace it"))
			}
			doc, err := store.ImportSQLite(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("import %s: %w", args[0], err))
			}
			if err := st.Save(doc); err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("imported", "path", args[0], "tasks", doc.Len())
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"path": args[0], "tasks": doc.Len()},
				"meta": map[string]any{"replaced": cur.Len()},
			})
		},
	}
	sqliteCmd.Flags().BoolVar(&force, "force", false, "Replace a non-empty task file")
	cmd.AddCommand(sqliteCmd)
	return cmd
}

func newExportMarkdownCmd(app *App) *cobra.Command {
	var to string
	var root string
	var title string
	var skipDone bool
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "markdown",
		Short: "Render tasks as a markdown checklist (stdout, or --to a file)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := app.store().Load()
			if err != nil {
				return writeErr(cmd, err)
			}
			opt := publish.RenderOptions{Title: title, SkipDone: skipDone}
			if root != "" {
				id, err := parseTaskID(root)
				if err != nil {
					return writeErr(cmd, err)
				}
				opt.Root = id
			}
			if to == "" {
				md, err := publish.RenderMarkdown(doc, opt)
				if err != nil {
					return writeErr(cmd, err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			res, err := publish.WriteMarkdown(doc, to, publish.WriteOptions{RenderOptions: opt, Overwrite: overwrite})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": res})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&root, "id", "", "Only this task and its subtree")
	cmd.Flags().StringVar(&title, "title", "", "Heading for the document")
	cmd.Flags().BoolVar(&skipDone, "skip-done", false, "Leave completed tasks out")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing --to file")
	return cmd
}
