package pipeline

import (
	"fmt"
	"strings"
)

// TitleFilter drops search results before any model call. Matching is a
// case-insensitive substring test.
type TitleFilter struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// Match reports whether title is filtered out and why.
func (f TitleFilter) Match(title string) (bool, string) {
	for _, exclude := range f.Excludes {
		if containsFold(title, exclude) {
			return true, fmt.Sprintf("title contains '%s'", exclude)
		}
	}

	if len(f.Includes) == 0 {
		return false, ""
	}

	for _, include := range f.Includes {
		if containsFold(title, include) {
			return false, ""
		}
	}

	return true, fmt.Sprintf("title does not contain any of %v", f.Includes)
}

func containsFold(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}
