package metrics

import "strings"

// Filter decides if the metric registered under the given name should be reported
type Filter func(name string, metric interface{}) bool

// AllowAll is the filter accepting every metric
func AllowAll(_ string, _ interface{}) bool { return true }

// NewPrefixFilter returns a filter accepting the names starting with any of the
// include prefixes (or all of them, if include is empty) and not starting with any
// of the exclude prefixes
func NewPrefixFilter(include, exclude []string) Filter {
	if len(include) == 0 && len(exclude) == 0 {
		return AllowAll
	}
	return func(name string, _ interface{}) bool {
		for _, p := range exclude {
			if strings.HasPrefix(name, p) {
				return false
			}
		}
		if len(include) == 0 {
			return true
		}
		for _, p := range include {
			if strings.HasPrefix(name, p) {
				return true
			}
		}
		return false
	}
}
