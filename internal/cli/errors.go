package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nestdo/internal/model"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

var errTextRequired = errors.New("task text is required")

// parseTaskID accepts "12" or "#12".
func parseTaskID(s string) (model.TaskID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return model.NoTask, fmt.Errorf("invalid task id: %q", s)
	}
	return model.TaskID(n), nil
}

func errInvalid(flag, value, want string) error {
	return fmt.Errorf("invalid --%s %q (want %s)", flag, value, want)
}
