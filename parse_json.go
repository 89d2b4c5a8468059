package snapconfig

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strconv"
)

//============================================= JSON Parser

// parseJSON implements the JSON leaf parser per spec.md §6: RFC 8259,
// integers that fit signed 64-bit stay Int, everything else numeric
// becomes Float, and the root may be an Object or an Array (or, since
// encoding/json imposes no such restriction, any scalar — callers that
// need the stricter root-shape rule enforce it above this layer).
//
// Token-based decoding (rather than Unmarshal into map[string]any) is used
// deliberately so duplicate object keys can be detected and routed through
// the warning channel hook spec.md §3 requires; Unmarshal would silently
// keep the last value with no signal.
func parseJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	node, err := decodeJSONValue(dec)
	if err != nil {
		return Node{}, wrapError(KindParseError, err, "parsing JSON")
	}
	return node, nil
}

func decodeJSONValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, err
	}
	return jsonNodeFromToken(dec, tok)
}

func jsonNodeFromToken(dec *json.Decoder, tok json.Token) (Node, error) {
	switch v := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		return jsonNumberNode(v), nil
	case json.Delim:
		switch v {
		case '{':
			return decodeJSONObject(dec)
		case '[':
			return decodeJSONArray(dec)
		default:
			return Node{}, newError(KindParseError, "unexpected JSON delimiter %q", v)
		}
	default:
		return Node{}, newError(KindParseError, "unexpected JSON token %v", tok)
	}
}

func jsonNumberNode(n json.Number) Node {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return Int(i)
	}
	f, _ := n.Float64()
	return Float(f)
}

func decodeJSONObject(dec *json.Decoder) (Node, error) {
	var fields []Field

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Node{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Node{}, newError(KindParseError, "expected JSON object key, found %v", keyTok)
		}

		value, err := decodeJSONValue(dec)
		if err != nil {
			return Node{}, err
		}

		fields = append(fields, Field{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil { // consume closing '}'
		return Node{}, err
	}

	return Object(fields, slog.Default()), nil
}

func decodeJSONArray(dec *json.Decoder) (Node, error) {
	var elems []Node

	for dec.More() {
		value, err := decodeJSONValue(dec)
		if err != nil {
			return Node{}, err
		}
		elems = append(elems, value)
	}

	if _, err := dec.Token(); err != nil { // consume closing ']'
		return Node{}, err
	}

	return Array(elems...), nil
}
