package snapconfig

import "strings"

//============================================= Dotted Path

// Get traverses path, a dot-separated sequence of object keys and array
// indices, and returns a sub-Reader positioned at the result. Per spec.md
// §4.5, each segment is matched against the current node's tag explicitly:
// Object segments are keys, Array segments that parse as non-negative
// integers are indices, anything else is PathTypeMismatch.
func (r Reader) Get(path string) (Reader, error) {
	if path == "" {
		return r, nil
	}

	cur := r
	for _, segment := range strings.Split(path, ".") {
		next, err := cur.descend(segment)
		if err != nil {
			return Reader{}, err
		}
		cur = next
	}
	return cur, nil
}

// MustGet is the bracket-style counterpart to Get: it panics on any error.
// Intended for callers who have already validated the document shape (e.g.
// after a successful Contains check) and want terse call sites.
func (r Reader) MustGet(path string) Reader {
	res, err := r.Get(path)
	if err != nil {
		panic(err)
	}
	return res
}

func (r Reader) descend(segment string) (Reader, error) {
	tag, _, err := r.tag()
	if err != nil {
		return Reader{}, err
	}

	switch tag {
	case TagObject:
		return r.Key(segment)

	case TagArray:
		idx, ok := parseNonNegativeInt(segment)
		if !ok {
			return Reader{}, newError(KindPathTypeMismatch, "path segment %q is not a valid array index", segment)
		}
		return r.Index(idx)

	default:
		return Reader{}, newError(KindPathTypeMismatch, "cannot descend into %s with segment %q", tag, segment)
	}
}

// parseNonNegativeInt parses s as a base-10 non-negative integer without
// pulling in strconv's full surface (sign handling, bases) that this single
// use case doesn't need.
func parseNonNegativeInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
