package ingest

import (
	"strings"

	"github.com/tidwall/gjson"
)

// KeyStrategy extracts a candidate EPC from one payload item. Extract returns
// "" when the item does not have the shape the strategy understands.
type KeyStrategy struct {
	Name    string
	Extract func(item gjson.Result) string
}

// DefaultKeyStrategies is the order in which historical payload shapes are tried.
var DefaultKeyStrategies = []KeyStrategy{
	FieldKey("epc"),
	FieldKey("tag_uid"),
	FieldKey("uid"),
	FieldKey("tag"),
	FormDataKey(),
	BareValueKey(),
}

// ExtractKey returns the first non-empty trimmed key produced by strategies.
func ExtractKey(item gjson.Result, strategies []KeyStrategy) string {
	for _, s := range strategies {
		if key := strings.TrimSpace(s.Extract(item)); key != "" {
			return key
		}
	}
	return ""
}

// FieldKey reads a top-level string or number field of an object item.
func FieldKey(field string) KeyStrategy {
	return KeyStrategy{
		Name: field,
		Extract: func(item gjson.Result) string {
			if !item.IsObject() {
				return ""
			}
			return scalarString(item.Get(gjson.Escape(field)))
		},
	}
}

// FormDataKey reads the second element of a form_data field. form_data may be
// a JSON array, a JSON-encoded array string or a comma-delimited string.
func FormDataKey() KeyStrategy {
	return KeyStrategy{
		Name: "form_data",
		Extract: func(item gjson.Result) string {
			if !item.IsObject() {
				return ""
			}
			elems := formDataElements(item.Get("form_data"))
			if len(elems) < 2 {
				return ""
			}
			return elems[1]
		},
	}
}

// BareValueKey treats an item that is itself a string or number as the key.
func BareValueKey() KeyStrategy {
	return KeyStrategy{
		Name:    "bare_value",
		Extract: scalarString,
	}
}

func formDataElements(v gjson.Result) []string {
	switch {
	case !v.Exists():
		return nil
	case v.IsArray():
		return scalarStrings(v.Array())
	case v.Type == gjson.String:
		s := strings.TrimSpace(v.String())
		if gjson.Valid(s) {
			if inner := gjson.Parse(s); inner.IsArray() {
				return scalarStrings(inner.Array())
			}
		}
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		parts := strings.Split(s, ",")
		out := make([]string, len(parts))
		for i, p := range parts {
			out[i] = strings.Trim(strings.TrimSpace(p), `"'`)
		}
		return out
	}
	return nil
}

func scalarStrings(rs []gjson.Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = scalarString(r)
	}
	return out
}

// scalarString returns the string form of a string or number result and ""
// for anything else.
func scalarString(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number:
		return r.String()
	}
	return ""
}

// firstString returns the first present scalar among fields, as a pointer, or nil.
func firstString(item gjson.Result, fields ...string) *string {
	for _, f := range fields {
		if s := strings.TrimSpace(scalarString(item.Get(gjson.Escape(f)))); s != "" {
			return &s
		}
	}
	return nil
}
