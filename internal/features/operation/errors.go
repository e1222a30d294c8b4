package operation

import (
	"errors"
	"fmt"
)

// InvalidTransition is returned when an API call requests a lifecycle
// transition not permitted from the operation's current state. The operation
// is left unchanged.
type InvalidTransition struct {
	From  OperationStatus
	Event string
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("cannot %s an operation in status %q", e.Event, e.From)
}

// IsInvalidTransition reports whether err is a rejected lifecycle transition.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransition
	return errors.As(err, &it)
}
