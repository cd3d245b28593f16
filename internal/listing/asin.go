package listing

import (
	"regexp"
	"strings"
)

var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// NormalizeASIN trims and uppercases an identifier.
func NormalizeASIN(asin string) string {
	return strings.ToUpper(strings.TrimSpace(asin))
}

// ValidateASIN reports whether asin is a 10 character alphanumeric identifier.
// Case and surrounding whitespace are ignored.
func ValidateASIN(asin string) bool {
	return asinPattern.MatchString(NormalizeASIN(asin))
}

// ParseASINList splits batch input on newlines and commas. Blank entries are dropped,
// identifiers are normalized and de-duplicated keeping the first occurrence.
func ParseASINList(text string) (valid []string, invalid []string) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		asin := NormalizeASIN(field)
		if asin == "" {
			continue
		}
		if _, ok := seen[asin]; ok {
			continue
		}
		seen[asin] = struct{}{}
		if asinPattern.MatchString(asin) {
			valid = append(valid, asin)
		} else {
			invalid = append(invalid, asin)
		}
	}
	return valid, invalid
}
