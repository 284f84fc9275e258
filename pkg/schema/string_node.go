package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	tserrors "github.com/tablescribe/tablescribe/pkg/errors"
)

// formatUUID is the one named format; anything else compiles as a regular
// expression.
const formatUUID = "uuid"

// newStringNode builds the String variant: a string leaf with format, banned
// character, and enum validators, plus an optional irreversible slug
// normalizer that runs before the user-declared converters.
func newStringNode(name string, ks *KeySchema) (node, error) {
	n := newLeafNode(name, ks, TypeString)

	if ks.Format == formatUUID {
		n.validators = append(n.validators, func(value any) []string {
			s, _ := value.(string)
			if _, err := uuid.Parse(s); err != nil {
				return []string{fmt.Sprintf("column %s is not a valid uuid", name)}
			}
			return nil
		})
	} else if ks.Format != "" {
		re, err := regexp.Compile(ks.Format)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s format: %v", tserrors.ErrInvalidSchema, name, err)
		}
		n.validators = append(n.validators, func(value any) []string {
			s, _ := value.(string)
			if !re.MatchString(s) {
				return []string{fmt.Sprintf("column %s does not match format %s", name, ks.Format)}
			}
			return nil
		})
	}

	if ks.InvalidCharacters != "" {
		n.validators = append(n.validators, func(value any) []string {
			s, _ := value.(string)
			if strings.ContainsAny(s, ks.InvalidCharacters) {
				return []string{fmt.Sprintf("column %s contains invalid characters", name)}
			}
			return nil
		})
	}

	if len(ks.Enum) > 0 {
		allowed := make(map[string]bool, len(ks.Enum))
		for _, v := range ks.Enum {
			allowed[v] = true
		}
		n.validators = append(n.validators, func(value any) []string {
			s, _ := value.(string)
			if !allowed[s] {
				return []string{fmt.Sprintf("column %s must be one of %s", name, strings.Join(ks.Enum, ", "))}
			}
			return nil
		})
	}

	if ks.Slugify {
		slugify := ks.slugger()
		slugConverter := ToStorageOnly(func(value any) (any, error) {
			s, ok := value.(string)
			if !ok {
				return value, nil
			}
			return slugify(s), nil
		})
		n.processors = append([]Converter{slugConverter}, ks.Process...)
	}

	return n, nil
}
