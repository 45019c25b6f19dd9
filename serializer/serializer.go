// Package serializer converts arbitrary script values — including tagged
// expression/template nodes — to a self-describing JSON form and back.
//
// Grounded on the teacher's builtins/json.go value<->JSON conversion
// routines, built on encoding/json (no third-party serialization library
// appears anywhere in the pack).
package serializer

import (
	"encoding/json"
	"fmt"
)

// classTag is the discriminant property name stamped onto serialized
// tagged values.
const classTag = "__class"

// Tagged is implemented by values that must round-trip through a
// `__class` discriminant: ExprNode and FmtNode wrappers in this engine.
type Tagged interface {
	// ClassName returns the discriminant used when serializing.
	ClassName() string
	// ToJSON returns this value's own JSON-able form, without the
	// discriminant (the Codec merges it in).
	ToJSON() map[string]any
}

// Reviver rebuilds a Tagged value from its decoded own-JSON-form fields.
type Reviver func(fields map[string]any) (any, error)

// Codec stringifies and parses values, reviving any object carrying a
// `__class` tag via its registered Reviver.
type Codec struct {
	classOf  func(v any) (string, map[string]any, bool)
	revivers map[string]Reviver
}

// New constructs a Codec. classOf inspects an arbitrary value and, if it is
// a registered tagged class, returns its class name and own-JSON-form
// fields. revivers maps class name back to a constructor.
func New(classOf func(v any) (string, map[string]any, bool), revivers map[string]Reviver) *Codec {
	if revivers == nil {
		revivers = make(map[string]Reviver)
	}
	return &Codec{classOf: classOf, revivers: revivers}
}

// Stringify walks v and serializes it to a JSON string. Any value matching
// a registered tagged class is emitted as a plain object merging
// {"__class": NAME} with the value's own JSON form. Values with an unknown
// non-plain shape cause an error naming the offending value's type.
func (c *Codec) Stringify(v any) (string, error) {
	encoded, err := c.encode(v)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(encoded)
	if err != nil {
		return "", fmt.Errorf("serializer: marshal: %w", err)
	}
	return string(b), nil
}

func (c *Codec) encode(v any) (any, error) {
	if name, fields, ok := c.classOf(v); ok {
		out := make(map[string]any, len(fields)+1)
		for k, fv := range fields {
			encoded, err := c.encode(fv)
			if err != nil {
				return nil, err
			}
			out[k] = encoded
		}
		out[classTag] = name
		return out, nil
	}

	switch val := v.(type) {
	case nil, bool, float64, string:
		return val, nil
	case int:
		return float64(val), nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			encoded, err := c.encode(item)
			if err != nil {
				return nil, err
			}
			out[i] = encoded
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			encoded, err := c.encode(item)
			if err != nil {
				return nil, err
			}
			out[k] = encoded
		}
		return out, nil
	default:
		return nil, fmt.Errorf("serializer: cannot stringify value of type %T (not a registered class and not a plain JSON value)", v)
	}
}

// Parse decodes s and revives any object carrying a `__class` discriminant
// via its registered Reviver. Unknown tags cause an error naming the class.
func (c *Codec) Parse(s string) (any, error) {
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, fmt.Errorf("serializer: unmarshal: %w", err)
	}
	return c.decode(decoded)
}

func (c *Codec) decode(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if tag, ok := val[classTag]; ok {
			name, isStr := tag.(string)
			if !isStr {
				return nil, fmt.Errorf("serializer: __class tag is not a string: %v", tag)
			}
			reviver, ok := c.revivers[name]
			if !ok {
				return nil, fmt.Errorf("serializer: unknown class %q", name)
			}
			fields := make(map[string]any, len(val)-1)
			for k, fv := range val {
				if k == classTag {
					continue
				}
				decoded, err := c.decode(fv)
				if err != nil {
					return nil, err
				}
				fields[k] = decoded
			}
			return reviver(fields)
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			decoded, err := c.decode(item)
			if err != nil {
				return nil, err
			}
			out[k] = decoded
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			decoded, err := c.decode(item)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	default:
		return val, nil
	}
}
