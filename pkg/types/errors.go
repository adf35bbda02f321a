package types

import "strings"

// FieldError is a single form-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned instead of a hard fault so callers can render inline errors
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns the bare messages in order
func (v ValidationErrors) Messages() []string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return msgs
}

// Has reports whether a failure was recorded for field
func (v ValidationErrors) Has(field string) bool {
	for _, fe := range v {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// ErrorKind classifies a failed operation
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindDecode     ErrorKind = "decode"
	KindDispatch   ErrorKind = "dispatch"
	KindNotFound   ErrorKind = "not_found"
)

// Result is the outcome of a dispatch: either Ok with the updated request or Err with a kind and message
type Result struct {
	Payment *PaymentRequest `json:"payment,omitempty"`
	Kind    ErrorKind       `json:"kind,omitempty"`
	Message string          `json:"message,omitempty"`
	Err     error           `json:"-"`
}

// Ok builds a successful Result
func Ok(p *PaymentRequest) Result {
	return Result{Payment: p}
}

// Err builds a failed Result
func Err(kind ErrorKind, message string, cause error) Result {
	return Result{Kind: kind, Message: message, Err: cause}
}

func (r Result) IsOk() bool {
	return r.Kind == ""
}

// AsError returns the failure as an error, nil on success
func (r Result) AsError() error {
	if r.IsOk() {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return &resultError{kind: r.Kind, message: r.Message}
}

type resultError struct {
	kind    ErrorKind
	message string
}

func (e *resultError) Error() string {
	return string(e.kind) + ": " + e.message
}
