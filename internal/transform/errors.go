package transform

import "fmt"

// Field names the part of a card that could not be parsed
type Field string

const (
	FieldSource   Field = "source"
	FieldMetadata Field = "metadata"
)

// ValidationError reports a card that cannot be turned into a payload
type ValidationError struct {
	Field  Field
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field Field, reason string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: err}
}
