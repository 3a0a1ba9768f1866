package cli

import (
	"strings"

	"nestdo/internal/model"
	"nestdo/internal/mutate"

	"github.com/spf13/cobra"
)

// taskView is a task as printed by the CLI, with its display depth.
type taskView struct {
	*model.Task
	Depth int `json:"depth"`
}

func viewOf(eng *mutate.Engine, id model.TaskID) (taskView, bool) {
	t, ok := eng.Task(id)
	if !ok {
		return taskView{}, false
	}
	return taskView{Task: t, Depth: len(eng.Document().Ancestors(id))}, true
}

func newListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List visible tasks in display order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := openEngine(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			doc := eng.Document()
			out := []taskView{}
			if all {
				for _, root := range doc.Roots {
					for _, id := range doc.Subtree(root) {
						if v, ok := viewOf(eng, id); ok {
							out = append(out, v)
						}
					}
				}
			} else {
				for _, r := range eng.Rows() {
					if t, ok := eng.Task(r.ID); ok {
						out = append(out, taskView{Task: t, Depth: r.Depth})
					}
				}
			}
			s := eng.Settings()
			return writeOut(cmd, app, map[string]any{
				"data": out,
				"meta": map[string]any{
					"count":         len(out),
					"total":         doc.Len(),
					"showCompleted": s.ShowCompleted,
					"sortMode":      s.SortMode,
				},
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include collapsed and completed tasks, in stored order")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			eng, _, err := openEngine(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			v, ok := viewOf(eng, id)
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			return writeOut(cmd, app, map[string]any{
				"data": v,
				"meta": map[string]any{
					"ancestors": eng.Document().Ancestors(id),
					"subtree":   len(eng.Document().Subtree(id)),
				},
			})
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	var at string
	var placement string

	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a task (as last root, or next to --at)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return writeErr(cmd, errTextRequired)
			}
			p, ok := model.ParsePlacement(placement)
			if !ok {
				return writeErr(cmd, errInvalid("placement", placement, "sibling|child|parent-level"))
			}
			eng, st, err := openEngine(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			eng.Select(model.NoTask)
			if strings.TrimSpace(at) != "" {
				anchor, err := parseTaskID(at)
				if err != nil {
					return writeErr(cmd, err)
				}
				if !eng.Select(anchor) {
					return writeErr(cmd, errNotFound("task", at))
				}
			}
			id := eng.Add(text, p)
			if err := saveEngine(app, eng, st); err != nil {
				return writeErr(cmd, err)
			}
			v, _ := viewOf(eng, id)
			return writeOut(cmd, app, map[string]any{
				"data": v,
				"meta": map[string]any{"placement": p.String()},
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Anchor task id (the selection the task is added next to)")
	cmd.Flags().StringVar(&placement, "placement", "sibling", "Placement relative to --at (sibling|child|parent-level)")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <task-id> <text>...",
		Short: "Replace a task's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if text == "" {
				return writeErr(cmd, errTextRequired)
			}
			return runTaskOp(cmd, app, args[0], func(eng *mutate.Engine, id model.TaskID) (bool, error) {
				return eng.SetText(id, text), nil
			})
		},
	}
}

func newDoneCmd(app *App) *cobra.Command {
	return newTaskOpCmd(app, "done <task-id>", "Toggle a task's completion", func(eng *mutate.Engine, id model.TaskID) (bool, error) {
		return eng.ToggleDone(id), nil
	})
}

func newCollapseCmd(app *App) *cobra.Command {
	return newTaskOpCmd(app, "collapse <task-id>", "Toggle whether a task's children are shown", func(eng *mutate.Engine, id model.TaskID) (bool, error) {
		return eng.ToggleCollapsed(id), nil
	})
}

func newRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <task-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its subtree",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			eng, st, err := openEngine(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			removed := eng.Document().Subtree(id)
			if !eng.Delete(id) {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			if err := saveEngine(app, eng, st); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": id, "removed": removed},
				"meta": map[string]any{"count": len(removed)},
			})
		},
	}
	return cmd
}

func newMoveCmd(app *App) *cobra.Command {
	var to string
	var position string

	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task before, after or into another task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, ok := model.ParsePosition(position)
			if !ok {
				return writeErr(cmd, errInvalid("position", position, "before|after|child"))
			}
			target, err := parseTaskID(to)
			if err != nil {
				return writeErr(cmd, err)
			}
			return runTaskOp(cmd, app, args[0], func(eng *mutate.Engine, id model.TaskID) (bool, error) {
				if !eng.Document().Has(target) {
					return false, errNotFound("task", to)
				}
				return eng.Move(id, target, pos)
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target task id")
	cmd.Flags().StringVar(&position, "position", "child", "Position relative to --to (before|after|child)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// newOutlineCmds are keyboard-style reorders: indent, outdent, up, down.
func newOutlineCmds(app *App) []*cobra.Command {
	return []*cobra.Command{
		newTaskOpCmd(app, "indent <task-id>", "Make a task the last child of its previous sibling", (*mutate.Engine).Indent),
		newTaskOpCmd(app, "outdent <task-id>", "Move a task right after its parent", (*mutate.Engine).Outdent),
		newTaskOpCmd(app, "up <task-id>", "Move a task before its previous sibling", (*mutate.Engine).MoveUp),
		newTaskOpCmd(app, "down <task-id>", "Move a task after its next sibling", (*mutate.Engine).MoveDown),
	}
}

type taskOp func(eng *mutate.Engine, id model.TaskID) (bool, error)

func newTaskOpCmd(app *App, use, short string, op taskOp) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskOp(cmd, app, args[0], op)
		},
	}
}

// runTaskOp loads the file, applies op to one task, saves if anything
// changed and prints the task.
func runTaskOp(cmd *cobra.Command, app *App, rawID string, op taskOp) error {
	id, err := parseTaskID(rawID)
	if err != nil {
		return writeErr(cmd, err)
	}
	eng, st, err := openEngine(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	if !eng.Document().Has(id) {
		return writeErr(cmd, errNotFound("task", rawID))
	}
	changed, err := op(eng, id)
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := saveEngine(app, eng, st); err != nil {
		return writeErr(cmd, err)
	}
	v, _ := viewOf(eng, id)
	return writeOut(cmd, app, map[string]any{
		"data": v,
		"meta": map[string]any{"changed": changed},
	})
}
