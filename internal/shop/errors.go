package shop

import (
	"errors"
	"fmt"
)

// Reject is a user-facing refusal: bad input or a policy violation. A
// rejected request leaves all shop state untouched.
type Reject struct {
	Code    string
	Message string
}

func (e *Reject) Error() string { return e.Message }

func rejectf(code, format string, args ...any) *Reject {
	return &Reject{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsReject unwraps an error into a Reject, if it is one.
func AsReject(err error) (*Reject, bool) {
	var r *Reject
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ErrConfirmRequired gates populate behind an explicit operator flag.
var ErrConfirmRequired = errors.New("confirmation required")
