// Package update compiles structured update bodies into DynamoDB
// update-expression strings with alias maps.
package update

import (
	"sort"

	"github.com/tablescribe/tablescribe/internal/numutil"
)

// Body is a structured update request. Paths may be dotted and segments may
// carry one trailing [i] list index. A path must not appear in more than one
// section; Compile rejects bodies that do.
type Body struct {
	Set     map[string]any
	Remove  []string
	Append  map[string][]any
	Prepend map[string][]any
}

// Clone returns a deep-enough copy so compilation never mutates the caller's body.
func (b Body) Clone() Body {
	out := Body{}
	if b.Set != nil {
		out.Set = make(map[string]any, len(b.Set))
		for k, v := range b.Set {
			out.Set[k] = v
		}
	}
	if b.Remove != nil {
		out.Remove = append([]string(nil), b.Remove...)
	}
	if b.Append != nil {
		out.Append = make(map[string][]any, len(b.Append))
		for k, v := range b.Append {
			out.Append[k] = v
		}
	}
	if b.Prepend != nil {
		out.Prepend = make(map[string][]any, len(b.Prepend))
		for k, v := range b.Prepend {
			out.Prepend[k] = v
		}
	}
	return out
}

// TransferUndefinedToRemove reclassifies set entries whose value cannot be
// stored: nil, the empty string, and NaN move to the remove list. Boolean
// false and numeric zero (including negative zero) are legitimate stored
// values and stay in place. Paths already listed in remove are not re-added.
func (b *Body) TransferUndefinedToRemove() {
	if len(b.Set) == 0 {
		return
	}

	removed := make(map[string]bool, len(b.Remove))
	for _, path := range b.Remove {
		removed[path] = true
	}

	// Sorted so the transferred remove order is a pure function of the body.
	paths := make([]string, 0, len(b.Set))
	for path := range b.Set {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if keepInSet(b.Set[path]) {
			continue
		}
		delete(b.Set, path)
		if !removed[path] {
			b.Remove = append(b.Remove, path)
			removed[path] = true
		}
	}
}

func keepInSet(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return true
	}
	if numutil.IsNaN(value) {
		return false
	}
	return true
}
