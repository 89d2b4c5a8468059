package snapconfig

//============================================= Native Materialization

// ToNative walks the current subtree and materializes it into plain Go
// values: nil, bool, int64, float64, string, []any, or map[string]any.
// Used when a caller needs an owned copy instead of a view into the
// mapping, per spec.md §4.5.
func (r Reader) ToNative() (any, error) {
	tag, _, err := r.tag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagNull:
		return nil, nil
	case TagBool:
		return r.AsBool()
	case TagInt:
		return r.AsInt()
	case TagFloat:
		return r.AsFloat()
	case TagString:
		return r.AsString()

	case TagArray:
		n, err := r.Len()
		if err != nil {
			return nil, err
		}
		out := make([]any, n)
		for i := 0; i < n; i++ {
			elem, err := r.Index(i)
			if err != nil {
				return nil, err
			}
			v, err := elem.ToNative()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case TagObject:
		out := make(map[string]any)
		var iterErr error
		err := r.EachEntry(func(key []byte, value Reader) bool {
			v, err := value.ToNative()
			if err != nil {
				iterErr = err
				return false
			}
			out[string(key)] = v
			return true
		})
		if err != nil {
			return nil, err
		}
		if iterErr != nil {
			return nil, iterErr
		}
		return out, nil

	default:
		return nil, newError(KindTypeMismatch, "unknown tag %s", tag)
	}
}
