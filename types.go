package snapconfig

import "log/slog"

//============================================= Abstract Tree

// The variant of an abstract tree Node is a NodeTag, since the in-memory
// tree and the wire format share one tag space: a parser's Node and the
// Writer's encoded byte are tagged with the same value. (Kind, in errors.go,
// is the error category type.)
const (
	KindNull   = TagNull
	KindBool   = TagBool
	KindInt    = TagInt
	KindFloat  = TagFloat
	KindString = TagString
	KindArray  = TagArray
	KindObject = TagObject
)

// Field is one key-value pair within an Object node, in parser-emitted
// (not yet sorted or deduplicated) order.
type Field struct {
	Key   string
	Value Node
}

// Node is the abstract tree a parser emits and a Writer consumes. Exactly
// one of the payload fields is meaningful, selected by Kind.
type Node struct {
	Kind   NodeTag
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Elems  []Node
	Fields []Field
}

func Null() Node                  { return Node{Kind: KindNull} }
func Bool(v bool) Node            { return Node{Kind: KindBool, Bool: v} }
func Int(v int64) Node            { return Node{Kind: KindInt, Int: v} }
func Float(v float64) Node        { return Node{Kind: KindFloat, Float: v} }
func String(v string) Node        { return Node{Kind: KindString, Str: v} }
func Array(elems ...Node) Node    { return Node{Kind: KindArray, Elems: elems} }

// Object builds an Object node from fields, applying the spec's duplicate-key
// policy: last write wins, with a warning logged for every clobbered key via
// logger (nil disables the warning channel hook spec.md §3 makes available
// to the parser layer).
func Object(fields []Field, logger *slog.Logger) Node {
	seen := make(map[string]int, len(fields))
	out := make([]Field, 0, len(fields))

	for _, f := range fields {
		if idx, dup := seen[f.Key]; dup {
			if logger != nil {
				logger.Warn("duplicate key in object, last write wins", "key", f.Key)
			}
			out[idx] = f
			continue
		}
		seen[f.Key] = len(out)
		out = append(out, f)
	}

	return Node{Kind: KindObject, Fields: out}
}

// Len returns the element count for Array/Object or the UTF-8 byte length
// for String. Scalars return a TypeMismatch error.
func (n Node) Len() (int, error) {
	switch n.Kind {
	case KindArray:
		return len(n.Elems), nil
	case KindObject:
		return len(n.Fields), nil
	case KindString:
		return len(n.Str), nil
	default:
		return 0, newError(KindTypeMismatch, "len() not defined for %s", n.Kind)
	}
}
