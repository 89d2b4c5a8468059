package snapconfig

import (
	"log/slog"
	"time"

	"github.com/BurntSushi/toml"
)

//============================================= TOML Parser

// parseTOML implements the TOML leaf parser per spec.md §6: TOML 1.0.0,
// with tables and arrays-of-tables becoming Objects and Arrays. Decoding
// into a dynamic map[string]any (rather than a fixed struct) loses TOML's
// source key order, but that is harmless here since the Writer re-sorts
// every object's keys at compile time regardless of parser-emitted order.
func parseTOML(data []byte) (Node, error) {
	var root map[string]any
	if _, err := toml.Decode(string(data), &root); err != nil {
		return Node{}, wrapError(KindParseError, err, "parsing TOML")
	}

	return tomlValue(root)
}

func tomlValue(v any) (Node, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case int64:
		return Int(t), nil
	case int:
		return Int(int64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case time.Time:
		// The abstract tree has no datetime variant; stringify, matching
		// the YAML parser's handling of timestamps.
		return String(t.Format(time.RFC3339Nano)), nil

	case []map[string]any:
		elems := make([]Node, len(t))
		for i, e := range t {
			node, err := tomlValue(e)
			if err != nil {
				return Node{}, err
			}
			elems[i] = node
		}
		return Array(elems...), nil

	case []any:
		elems := make([]Node, len(t))
		for i, e := range t {
			node, err := tomlValue(e)
			if err != nil {
				return Node{}, err
			}
			elems[i] = node
		}
		return Array(elems...), nil

	case map[string]any:
		fields := make([]Field, 0, len(t))
		for k, val := range t {
			node, err := tomlValue(val)
			if err != nil {
				return Node{}, err
			}
			fields = append(fields, Field{Key: k, Value: node})
		}
		return Object(fields, slog.Default()), nil

	default:
		return Node{}, newError(KindParseError, "unsupported TOML value of type %T", v)
	}
}
