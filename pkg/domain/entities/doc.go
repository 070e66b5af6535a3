// Package entities models the normalised source documents and the
// materialised aggregation documents the service maintains.
//
// Source documents flow through the core as raw bson.M maps: facet
// resolvers are parameterised by field names, so a fixed struct per entity
// type would buy nothing. The helpers in this file absorb the driver's
// habit of decoding nested values as bson.D or bson.A.
package entities

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Doc is a raw document as returned by the store port.
type Doc = bson.M

// AsDoc coerces a nested value into a Doc. Returns nil for non-documents.
func AsDoc(v any) Doc {
	switch d := v.(type) {
	case bson.M:
		return d
	case map[string]any:
		return d
	case map[string]string:
		m := make(Doc, len(d))
		for k, s := range d {
			m[k] = s
		}
		return m
	case bson.D:
		m := make(Doc, len(d))
		for _, e := range d {
			m[e.Key] = e.Value
		}
		return m
	}
	return nil
}

// AsArray coerces a nested value into a slice. Returns nil for non-arrays.
func AsArray(v any) []any {
	switch a := v.(type) {
	case bson.A:
		return a
	case []any:
		return a
	}
	return nil
}

// GetString reads a string field, returning "" when absent or non-string.
func GetString(doc Doc, field string) string {
	if doc == nil {
		return ""
	}
	s, _ := doc[field].(string)
	return s
}

// GetInt reads a numeric field as int, absorbing the BSON integer widths.
func GetInt(doc Doc, field string) int {
	switch n := doc[field].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// GetDocs reads an embedded document array, skipping non-document entries.
func GetDocs(doc Doc, field string) []Doc {
	raw := AsArray(doc[field])
	if raw == nil {
		return nil
	}
	out := make([]Doc, 0, len(raw))
	for _, v := range raw {
		if d := AsDoc(v); d != nil {
			out = append(out, d)
		}
	}
	return out
}

// GetStrings reads a string array field.
func GetStrings(doc Doc, field string) []string {
	if ss, ok := doc[field].([]string); ok {
		return ss
	}
	raw := AsArray(doc[field])
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetStringMap reads an embedded document of string values.
func GetStringMap(doc Doc, field string) map[string]string {
	sub := AsDoc(doc[field])
	if sub == nil {
		return nil
	}
	out := make(map[string]string, len(sub))
	for k, v := range sub {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// DisplayName resolves doc.name[doc.defaultLanguage]; empty when either
// side is missing.
func DisplayName(doc Doc) string {
	lang := GetString(doc, "defaultLanguage")
	if lang == "" {
		return ""
	}
	names := GetStringMap(doc, "name")
	return names[lang]
}
