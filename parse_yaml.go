package snapconfig

import (
	"log/slog"
	"strconv"

	"gopkg.in/yaml.v3"
)

//============================================= YAML Parser

// parseYAML implements the YAML leaf parser per spec.md §6: the safe
// subset only (yaml.v3's default Unmarshal never executes custom tags or
// arbitrary code), scalars follow YAML's own type resolution via the
// decoded node's Tag, and dates are stringified rather than turned into a
// date/time node type the abstract tree has no variant for.
func parseYAML(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Node{}, wrapError(KindParseError, err, "parsing YAML")
	}

	if len(doc.Content) == 0 {
		return Null(), nil
	}

	return yamlNode(doc.Content[0])
}

func yamlNode(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.MappingNode:
		return yamlMapping(n)
	case yaml.SequenceNode:
		return yamlSequence(n)
	case yaml.ScalarNode:
		return yamlScalar(n), nil
	case yaml.AliasNode:
		return yamlNode(n.Alias)
	default:
		return Node{}, newError(KindParseError, "unsupported YAML node kind %d", n.Kind)
	}
}

func yamlMapping(n *yaml.Node) (Node, error) {
	fields := make([]Field, 0, len(n.Content)/2)

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valNode := n.Content[i], n.Content[i+1]

		value, err := yamlNode(valNode)
		if err != nil {
			return Node{}, err
		}

		fields = append(fields, Field{Key: keyNode.Value, Value: value})
	}

	return Object(fields, slog.Default()), nil
}

func yamlSequence(n *yaml.Node) (Node, error) {
	elems := make([]Node, 0, len(n.Content))

	for _, c := range n.Content {
		value, err := yamlNode(c)
		if err != nil {
			return Node{}, err
		}
		elems = append(elems, value)
	}

	return Array(elems...), nil
}

func yamlScalar(n *yaml.Node) Node {
	switch n.Tag {
	case "!!null":
		return Null()
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return String(n.Value)
		}
		return Bool(b)
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return String(n.Value)
		}
		return Int(i)
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if i := len(n.Value) - 4; err != nil && i >= 0 && n.Value[i] == '.' {
			// YAML spells infinity and NaN with a dot (.inf, -.inf, .nan);
			// strconv accepts the same words once the dot is dropped.
			f, err = strconv.ParseFloat(n.Value[:i]+n.Value[i+1:], 64)
		}
		if err != nil {
			return String(n.Value)
		}
		return Float(f)
	default:
		// Includes "!!str", "!!timestamp", and any other resolved tag:
		// dates and anything else unrecognized are stringified per spec.
		return String(n.Value)
	}
}
