package week

import "fmt"

// SchemaError reports malformed or structurally invalid configuration.
// Path points at the offending node using the config's own notation,
// e.g. stories[1].charts[0].data.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("week config: %s", e.Reason)
	}
	return fmt.Sprintf("week config: %s: %s", e.Path, e.Reason)
}

func schemaErrorf(path, format string, args ...any) error {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// ReelStructureError reports a reel whose animated_charts sequence does
// not match the required shape: exactly one cover_animate entry followed
// by at least one chart animation.
type ReelStructureError struct {
	Path   string
	Reason string
}

func (e *ReelStructureError) Error() string {
	return fmt.Sprintf("week config: %s: %s", e.Path, e.Reason)
}

func reelErrorf(path, format string, args ...any) error {
	return &ReelStructureError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Warning flags a content-quality issue that does not block rendering.
// Warnings are surfaced for human review and never auto-fixed.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}
