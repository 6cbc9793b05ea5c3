package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Property types understood by Schema
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Schema is the JSON-schema subset attached to a settings entry
type Schema struct {
	Type       string              `json:"type,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one field of a settings entry
type Property struct {
	Type        string   `json:"type,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Enum        []Value  `json:"enum,omitempty"`
	Default     *Value   `json:"default,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Format      string   `json:"format,omitempty"`
}

// ValidationErrors maps a field name to a human readable message
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid settings: " + strings.Join(parts, "; ")
}

// HasProperties reports whether s describes any fields
func (s *Schema) HasProperties() bool {
	return s != nil && len(s.Properties) > 0
}

// PropertyNames returns property names in sorted order
func (s *Schema) PropertyNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (s *Schema) isRequired(key string) bool {
	for _, r := range s.Required {
		if r == key {
			return true
		}
	}
	return false
}

func (p Property) label(key string) string {
	if p.Title != "" {
		return p.Title
	}
	return key
}

// Validate checks data against the schema. A nil error means data is valid.
// When several rules fail for a field the last one wins: type, then enum,
// then range.
func (s *Schema) Validate(data Object) error {
	if !s.HasProperties() {
		return nil
	}

	errs := ValidationErrors{}
	for _, key := range s.PropertyNames() {
		prop := s.Properties[key]
		label := prop.label(key)
		value, present := data[key]

		if !present || value.IsEmpty() {
			if s.isRequired(key) {
				errs[key] = label + " is required"
			}
			continue
		}

		switch prop.Type {
		case TypeInteger:
			if !value.IsInteger() {
				errs[key] = label + " must be an integer"
			}
		case TypeNumber:
			if value.Kind() != KindNumber {
				errs[key] = label + " must be a number"
			}
		case TypeBoolean:
			if value.Kind() != KindBool {
				errs[key] = label + " must be a boolean"
			}
		case TypeArray:
			if value.Kind() != KindArray {
				errs[key] = label + " must be an array"
			}
		case TypeObject:
			if value.Kind() != KindObject {
				errs[key] = label + " must be an object"
			}
		}

		if len(prop.Enum) > 0 && !containsValue(prop.Enum, value) {
			opts := make([]string, len(prop.Enum))
			for i, e := range prop.Enum {
				opts[i] = e.String()
			}
			errs[key] = fmt.Sprintf("%s must be one of: %s", label, strings.Join(opts, ", "))
		}

		if n, ok := value.AsNumber(); ok && (prop.Type == TypeNumber || prop.Type == TypeInteger) {
			if prop.Minimum != nil && n < *prop.Minimum {
				errs[key] = fmt.Sprintf("%s must be at least %s", label, formatNumber(*prop.Minimum))
			}
			if prop.Maximum != nil && n > *prop.Maximum {
				errs[key] = fmt.Sprintf("%s must be at most %s", label, formatNumber(*prop.Maximum))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Defaults returns the default value of every property that declares one
func (s *Schema) Defaults() Object {
	out := Object{}
	if s == nil {
		return out
	}
	for key, prop := range s.Properties {
		if prop.Default != nil {
			out[key] = *prop.Default
		}
	}
	return out
}

// ApplyInput merges string input (from flags or a form) into existing data.
//
// With a schema each key must be a declared property and is converted to the
// property's type. Without one, only keys already present in existing may be
// set and the existing value's kind decides the conversion. The merged
// object is validated before it is returned.
func (s *Schema) ApplyInput(existing Object, input map[string]string) (Object, error) {
	out := existing.Clone()
	if s.HasProperties() {
		for k, v := range s.Defaults() {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}

	errs := ValidationErrors{}
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := input[key]
		var (
			kind  string
			label = key
		)
		if s.HasProperties() {
			prop, ok := s.Properties[key]
			if !ok {
				errs[key] = "unknown setting " + key
				continue
			}
			kind = prop.Type
			label = prop.label(key)
		} else {
			cur, ok := existing[key]
			if !ok {
				errs[key] = "unknown setting " + key
				continue
			}
			kind = kindToType(cur.Kind())
		}

		v, msg := convert(kind, raw)
		if msg != "" {
			errs[key] = label + " " + msg
			continue
		}
		out[key] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	if err := s.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func kindToType(k Kind) string {
	switch k {
	case KindNumber:
		return TypeNumber
	case KindBool:
		return TypeBoolean
	case KindArray:
		return TypeArray
	case KindObject:
		return TypeObject
	default:
		return TypeString
	}
}

// convert parses raw according to a property type. Empty input becomes the
// empty string so that required checks report it.
func convert(typ, raw string) (Value, string) {
	if raw == "" {
		return String(""), ""
	}
	switch typ {
	case TypeInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return Value{}, "must be an integer"
		}
		return Int(i), ""
	case TypeNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, "must be a number"
		}
		return Number(f), ""
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, "must be a boolean"
		}
		return Bool(b), ""
	case TypeArray, TypeObject:
		var v Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return Value{}, "must be valid JSON"
		}
		if typ == TypeArray && v.Kind() != KindArray {
			return Value{}, "must be an array"
		}
		if typ == TypeObject && v.Kind() != KindObject {
			return Value{}, "must be an object"
		}
		return v, ""
	default:
		return String(raw), ""
	}
}

func containsValue(vs []Value, v Value) bool {
	for _, e := range vs {
		if e.Equal(v) {
			return true
		}
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
