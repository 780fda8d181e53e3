package loader

import "fmt"

// LoadError is a fatal model-loading error: duplicate model names, primary
// key violations, unmappable field types, or malformed site props. Sync
// aborts before any write when the loader reports one.
type LoadError struct {
	Model   string
	Field   string
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface
func (e *LoadError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s:%d:%d: model %s, field %s: %s", e.File, e.Line, e.Column, e.Model, e.Field, e.Message)
	case e.Model != "":
		return fmt.Sprintf("%s:%d:%d: model %s: %s", e.File, e.Line, e.Column, e.Model, e.Message)
	default:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
}
