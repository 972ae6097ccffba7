// Package naming validates names used for generated migration and seed files.
package naming

import "regexp"

var pascalCase = regexp.MustCompile(`^[A-Z][A-Za-z0-9]+$`)

// IsPascalCase reports whether name starts with an uppercase letter followed by
// at least one letter or digit.
func IsPascalCase(name string) bool {
	return pascalCase.MatchString(name)
}
