package resolve

import "fmt"

// ResolveError reports an invalid explicit relationship declaration.
type ResolveError struct {
	Model   string
	Field   string
	Message string
}

func (e *ResolveError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("model %s, field %s: %s", e.Model, e.Field, e.Message)
	}
	return fmt.Sprintf("model %s: %s", e.Model, e.Message)
}

// LinkTableError reports a malformed many-to-many link table. Any such
// error aborts the run before artifacts are written.
type LinkTableError struct {
	Model   string
	Message string
}

func (e *LinkTableError) Error() string {
	return fmt.Sprintf("link table %s: %s", e.Model, e.Message)
}
