package gpu

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// MissingNames returns the entries of required that are absent from
// available, in the order they appear in required.
func MissingNames(available map[string]struct{}, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// RequireNames fails if any required extension or layer is unavailable.
// kind names what is being checked, e.g. "instance extension".
func RequireNames(kind string, available map[string]struct{}, required []string) error {
	missing := MissingNames(available, required)
	if len(missing) == 0 {
		return nil
	}
	return errors.Newf("%s not available: %v", kind, missing)
}

// NameSet builds a set from a list of names.
func NameSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// SortedNames returns the names of a set in lexical order.
func SortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
