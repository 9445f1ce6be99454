package parser

import (
	"reflect"
	"strings"
)

// TagFilter marks a field as initialized elsewhere when the struct tag value
// under Key contains Value.
type TagFilter struct {
	Key   string
	Value string
}

// Tag options understood under the configured tag key.
const (
	tagSkip     = "-"  // field is initialized elsewhere
	tagReadOnly = "ro" // exported field assigned only by the constructor
)

// fieldTagOptions returns the comma separated options under key.
func fieldTagOptions(tag reflect.StructTag, key string) []string {
	v, ok := tag.Lookup(key)
	if !ok || v == "" {
		return nil
	}
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ';' || r == ','
	})
}

func hasTagOption(tag reflect.StructTag, key, option string) bool {
	for _, o := range fieldTagOptions(tag, key) {
		if strings.TrimSpace(o) == option {
			return true
		}
	}
	return false
}

// structTagToMap converts a reflect.StructTag into a key/value map.
func structTagToMap(tag reflect.StructTag) map[string]string {
	m := map[string]string{}
	if tag == "" {
		return m
	}

	raw := string(tag)
	for raw != "" {
		parts := strings.SplitN(raw, ":\"", 2)
		if len(parts) != 2 {
			break
		}

		key := strings.TrimSpace(parts[0])
		rest := parts[1]
		end := strings.Index(rest, "\"")
		if end < 0 {
			break
		}

		m[key] = rest[:end]
		raw = strings.TrimSpace(rest[end+1:])
	}

	return m
}

// containsTagPart splits a tag value on common delimiters and reports whether
// any fragment matches the expected value.
func containsTagPart(tagVal, expected string) bool {
	if tagVal == "" {
		return false
	}

	for _, part := range strings.FieldsFunc(tagVal, func(r rune) bool {
		return r == ';' || r == ','
	}) {
		if part == expected {
			return true
		}
	}

	return false
}

// excludedByFilters reports whether any configured filter matches the tag.
func excludedByFilters(tag reflect.StructTag, filters []TagFilter) bool {
	if len(filters) == 0 || tag == "" {
		return false
	}
	tagMap := structTagToMap(tag)
	for _, f := range filters {
		v, ok := tagMap[f.Key]
		if !ok {
			continue
		}
		if containsTagPart(v, f.Value) {
			return true
		}
	}
	return false
}
