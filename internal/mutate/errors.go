package mutate

import (
	"errors"
	"fmt"

	"nestdo/internal/model"
)

type RejectReason string

const (
	RejectSelf     RejectReason = "self"
	RejectCycle    RejectReason = "cycle"
	RejectPosition RejectReason = "position"
)

// MoveRejectedError reports a move that was refused before touching any
// state. It is a validation outcome, not a failure.
type MoveRejectedError struct {
	ID       model.TaskID
	Target   model.TaskID
	Position model.Position
	Reason   RejectReason
}

func (e MoveRejectedError) Error() string {
	switch e.Reason {
	case RejectSelf:
		return fmt.Sprintf("cannot move task %d relative to itself", e.ID)
	case RejectCycle:
		return fmt.Sprintf("cannot move task %d %s %d: target is inside its subtree", e.ID, e.Position, e.Target)
	default:
		return fmt.Sprintf("cannot move task %d: invalid position", e.ID)
	}
}

// IsMoveRejected reports whether err is a MoveRejectedError.
func IsMoveRejected(err error) bool {
	var r MoveRejectedError
	return errors.As(err, &r)
}
