package types

import (
	"fmt"
	"strings"
)

// byName holds the closed set of primitive types addressable by their
// base name, used by ParseTypeName: one flat lookup table for the whole
// closed vocabulary.
var byName = map[string]Type{
	"bool":      Bool,
	"int16":     Int16,
	"int32":     Int32,
	"uint16":    UInt16,
	"uint32":    UInt32,
	"float":     Float,
	"string":    String,
	"date":      Date,
	"timestamp": Timestamp,
	"uuid":      UUID,
	"json":      JSON,
	"blob":      Blob,
	"serial":    Serial,
}

// ParseTypeName parses a type descriptor string such as "int32",
// "string?" or "uuid[]?". Suffixes "?" (nullable) and "[]" (array) are
// recognized in the order they appear scanning left-to-right past the
// base name, each wrapping the type built so far — so "int32?[]"
// produces array(nullable(int32)).
func ParseTypeName(s string) (Type, error) {
	base, suffixes, err := splitSuffixes(s)
	if err != nil {
		return nil, err
	}
	t, ok := byName[base]
	if !ok {
		return nil, fmt.Errorf("types: unknown base type %q", base)
	}
	for _, suf := range suffixes {
		switch suf {
		case "?":
			t = t.Nullable()
		case "[]":
			t = t.Array()
		}
	}
	return t, nil
}

// splitSuffixes separates the base type name from its trailing "?" and
// "[]" tokens, returning the tokens in left-to-right order.
func splitSuffixes(s string) (base string, suffixes []string, err error) {
	rest := strings.TrimSpace(s)
	var tokens []string
	for {
		switch {
		case strings.HasSuffix(rest, "?"):
			tokens = append([]string{"?"}, tokens...)
			rest = rest[:len(rest)-1]
		case strings.HasSuffix(rest, "[]"):
			tokens = append([]string{"[]"}, tokens...)
			rest = rest[:len(rest)-2]
		default:
			if rest == "" {
				return "", nil, fmt.Errorf("types: empty type name in %q", s)
			}
			return rest, tokens, nil
		}
	}
}
