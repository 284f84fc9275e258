// Package validation checks attribute path syntax before aliasing.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// PathError represents a path validation error
type PathError struct {
	Type   string
	Detail string
}

func (e *PathError) Error() string {
	// Paths can carry user-supplied attribute names; report only the error type.
	return fmt.Sprintf("path validation failed: %s", e.Type)
}

// Path validation constants
const (
	MaxPathLength    = 255
	MaxNestedDepth   = 32
	MaxSegmentLength = 255
)

// ValidatePath validates a dotted attribute path such as "a.b[2].c".
// Each dot-separated segment must be a non-empty attribute name, optionally
// carrying one trailing numeric [i] index.
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Type: "EmptyPath", Detail: "path cannot be empty"}
	}
	if len(path) > MaxPathLength {
		return &PathError{Type: "PathTooLong", Detail: "path exceeds maximum length"}
	}

	segments := strings.Split(path, ".")
	if len(segments) > MaxNestedDepth {
		return &PathError{Type: "PathTooDeep", Detail: "path exceeds maximum nesting depth"}
	}

	for _, segment := range segments {
		if err := validateSegment(segment); err != nil {
			return err
		}
	}
	return nil
}

// SplitIndex splits a trailing [i] list index off a path segment. The second
// return is the verbatim suffix including brackets, or "" when absent.
func SplitIndex(segment string) (name, suffix string, err error) {
	open := strings.LastIndex(segment, "[")
	if open < 0 {
		return segment, "", nil
	}
	if !strings.HasSuffix(segment, "]") || open == 0 {
		return "", "", &PathError{Type: "InvalidIndex", Detail: "malformed list index"}
	}

	indexPart := segment[open+1 : len(segment)-1]
	if indexPart == "" {
		return "", "", &PathError{Type: "InvalidIndex", Detail: "list index cannot be empty"}
	}
	if n, convErr := strconv.Atoi(indexPart); convErr != nil || n < 0 {
		return "", "", &PathError{Type: "InvalidIndex", Detail: "list index must be a non-negative integer"}
	}
	return segment[:open], segment[open:], nil
}

func validateSegment(segment string) error {
	name, _, err := SplitIndex(segment)
	if err != nil {
		return err
	}
	if name == "" {
		return &PathError{Type: "EmptySegment", Detail: "path segment cannot be empty"}
	}
	if len(name) > MaxSegmentLength {
		return &PathError{Type: "SegmentTooLong", Detail: "path segment exceeds maximum length"}
	}
	if strings.ContainsAny(name, "[]") {
		return &PathError{Type: "InvalidIndex", Detail: "brackets allowed only as one trailing index"}
	}
	if containsControlCharacters(name) {
		return &PathError{Type: "InvalidSegment", Detail: "path segment contains control characters"}
	}
	return nil
}

func containsControlCharacters(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
