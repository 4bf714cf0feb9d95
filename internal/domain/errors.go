package domain

import "fmt"

// PathError reports a source root that is missing or unusable.
// It is fatal and raised before any mutation.
type PathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("path %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("path %s: %s", e.Path, e.Reason)
}

func (e *PathError) Unwrap() error { return e.Err }

// NotFoundError reports a requested old identifier absent from the scanned tree
type NotFoundError struct {
	Kind  Kind
	Name  string
	Scope string
}

func (e *NotFoundError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s %q not found in %s", e.Kind, e.Name, e.Scope)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ValidationError reports malformed mapping parameters
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid mapping: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IOError is a failure renaming, merging, reading or writing one path.
// It is recorded against a single action and does not abort the run.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
