package snapconfig

import (
	"encoding/binary"
	"math"
	"sort"
)

//============================================= Reader

// Reader is a lightweight value holding a reference to a Mapping plus a
// current node offset. Sub-readers returned by Key/Index/Get share the same
// Mapping and must not be used after it is closed, per spec.md §4.5's
// lifetime-coupling rule.
type Reader struct {
	mapping *Mapping
	offset  uint32
}

// NewReader wraps an already-validated Mapping at its recorded root offset.
func NewReader(m *Mapping) Reader {
	return Reader{mapping: m, offset: m.Header.RootOffset}
}

// Close releases the underlying mapping. Only the top-level Reader returned
// by Load/LoadCompiled should call this; sub-readers borrow the same
// mapping and do not own its lifetime.
func (r Reader) Close() error {
	return r.mapping.Close()
}

func (r Reader) payload() []byte { return r.mapping.Payload }

func (r Reader) tag() (NodeTag, uint32, error) {
	return DecodeNodeHeader(r.payload(), r.offset)
}

// RootType returns the symbolic tag name of the node this Reader is
// currently positioned at.
func (r Reader) RootType() (string, error) {
	tag, _, err := r.tag()
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

func checkBounds(payload []byte, start, length uint32) error {
	end := uint64(start) + uint64(length)
	if end > uint64(len(payload)) {
		return newError(KindCorruptImage, "read of %d bytes at offset %d overruns payload of %d bytes", length, start, len(payload))
	}
	return nil
}

// AsBool type-checks the current node and returns its boolean value.
func (r Reader) AsBool() (bool, error) {
	tag, data, err := r.tag()
	if err != nil {
		return false, err
	}
	if tag != TagBool {
		return false, newError(KindTypeMismatch, "expected bool, found %s", tag)
	}
	if err := checkBounds(r.payload(), data, 1); err != nil {
		return false, err
	}
	return r.payload()[data] != 0, nil
}

// AsInt type-checks the current node and returns its signed 64-bit value.
func (r Reader) AsInt() (int64, error) {
	tag, data, err := r.tag()
	if err != nil {
		return 0, err
	}
	if tag != TagInt {
		return 0, newError(KindTypeMismatch, "expected int, found %s", tag)
	}
	if err := checkBounds(r.payload(), data, 8); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(r.payload()[data : data+8])), nil
}

// AsFloat type-checks the current node and returns its binary64 value.
func (r Reader) AsFloat() (float64, error) {
	tag, data, err := r.tag()
	if err != nil {
		return 0, err
	}
	if tag != TagFloat {
		return 0, newError(KindTypeMismatch, "expected float, found %s", tag)
	}
	if err := checkBounds(r.payload(), data, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.payload()[data : data+8])), nil
}

// AsString type-checks the current node and returns its UTF-8 content.
// The returned string is a copy of the mapped bytes, not an alias of them:
// Go strings must own their bytes, so this is the one unavoidable
// allocation on the string read path.
func (r Reader) AsString() (string, error) {
	tag, data, err := r.tag()
	if err != nil {
		return "", err
	}
	if tag != TagString {
		return "", newError(KindTypeMismatch, "expected string, found %s", tag)
	}

	raw, err := readLengthPrefixed(r.payload(), data)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// readLengthPrefixed reads a 4-byte length followed by that many bytes,
// starting at off, bounds-checking both the length field and the payload.
func readLengthPrefixed(payload []byte, off uint32) ([]byte, error) {
	if err := checkBounds(payload, off, 4); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(payload[off : off+4])
	if err := checkBounds(payload, off+4, n); err != nil {
		return nil, err
	}
	return payload[off+4 : off+4+n], nil
}

// Len returns the element count for Array/Object nodes or the UTF-8 byte
// length for String nodes.
func (r Reader) Len() (int, error) {
	tag, data, err := r.tag()
	if err != nil {
		return 0, err
	}

	switch tag {
	case TagArray, TagObject:
		if err := checkBounds(r.payload(), data, 4); err != nil {
			return 0, err
		}
		return int(binary.LittleEndian.Uint32(r.payload()[data : data+4])), nil
	case TagString:
		raw, err := readLengthPrefixed(r.payload(), data)
		if err != nil {
			return 0, err
		}
		return len(raw), nil
	default:
		return 0, newError(KindTypeMismatch, "len() not defined for %s", tag)
	}
}

// Index returns a sub-Reader for the i'th element of an Array node, bounds
// checked against [0, len).
func (r Reader) Index(i int) (Reader, error) {
	tag, data, err := r.tag()
	if err != nil {
		return Reader{}, err
	}
	if tag != TagArray {
		return Reader{}, newError(KindTypeMismatch, "index() requires array, found %s", tag)
	}

	if err := checkBounds(r.payload(), data, 4); err != nil {
		return Reader{}, err
	}
	count := binary.LittleEndian.Uint32(r.payload()[data : data+4])
	if i < 0 || uint32(i) >= count {
		return Reader{}, newError(KindIndexOutOfRange, "index %d out of range [0, %d)", i, count)
	}

	tableStart := data + 4
	entryOff := tableStart + uint32(4*i)
	if err := checkBounds(r.payload(), entryOff, 4); err != nil {
		return Reader{}, err
	}

	childOffset := binary.LittleEndian.Uint32(r.payload()[entryOff : entryOff+4])
	return Reader{mapping: r.mapping, offset: childOffset}, nil
}

// objectTable returns the count and the byte offset of the key/value offset
// table for the current Object node.
func (r Reader) objectTable() (count, tableStart uint32, err error) {
	tag, data, tagErr := r.tag()
	if tagErr != nil {
		return 0, 0, tagErr
	}
	if tag != TagObject {
		return 0, 0, newError(KindTypeMismatch, "key lookup requires object, found %s", tag)
	}

	if err := checkBounds(r.payload(), data, 4); err != nil {
		return 0, 0, err
	}
	count = binary.LittleEndian.Uint32(r.payload()[data : data+4])
	return count, data + 4, nil
}

// keyAt returns the raw UTF-8 bytes of the key at table row i (0-indexed).
func (r Reader) keyAt(tableStart uint32, i uint32) ([]byte, error) {
	row := tableStart + i*8
	if err := checkBounds(r.payload(), row, 4); err != nil {
		return nil, err
	}
	keyOffset := binary.LittleEndian.Uint32(r.payload()[row : row+4])
	return readLengthPrefixed(r.payload(), keyOffset)
}

// Key performs a binary search over the sorted key-offset table and
// returns a sub-Reader for the matching value, or KeyMissing.
func (r Reader) Key(k string) (Reader, error) {
	count, tableStart, err := r.objectTable()
	if err != nil {
		return Reader{}, err
	}

	pos, found, err := r.searchKey(tableStart, count, k)
	if err != nil {
		return Reader{}, err
	}
	if !found {
		return Reader{}, newError(KindKeyMissing, "key %q not present", k)
	}

	row := tableStart + pos*8
	valueOffset := binary.LittleEndian.Uint32(r.payload()[row+4 : row+8])
	return Reader{mapping: r.mapping, offset: valueOffset}, nil
}

// Contains performs the same binary search as Key without materializing a
// sub-Reader.
func (r Reader) Contains(k string) (bool, error) {
	count, tableStart, err := r.objectTable()
	if err != nil {
		return false, err
	}
	_, found, err := r.searchKey(tableStart, count, k)
	return found, err
}

// searchKey binary-searches the key-offset table for k, returning the row
// index and whether it was found.
func (r Reader) searchKey(tableStart, count uint32, k string) (uint32, bool, error) {
	var searchErr error

	idx := sort.Search(int(count), func(i int) bool {
		if searchErr != nil {
			return true
		}
		key, err := r.keyAt(tableStart, uint32(i))
		if err != nil {
			searchErr = err
			return true
		}
		return string(key) >= k
	})

	if searchErr != nil {
		return 0, false, searchErr
	}
	if idx >= int(count) {
		return 0, false, nil
	}

	key, err := r.keyAt(tableStart, uint32(idx))
	if err != nil {
		return 0, false, err
	}
	if string(key) != k {
		return 0, false, nil
	}

	return uint32(idx), true, nil
}

// Keys is a lazy iterator over the Object's keys in stored (sorted) order,
// per spec.md §4.5: it walks the key-offset table one row at a time and
// hands each caller a slice that aliases the mapped payload directly,
// rather than materializing the whole key table up front. Iteration stops
// as soon as yield returns false.
func (r Reader) Keys(yield func(key []byte) bool) error {
	count, tableStart, err := r.objectTable()
	if err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		key, err := r.keyAt(tableStart, i)
		if err != nil {
			return err
		}
		if !yield(key) {
			return nil
		}
	}
	return nil
}

// EachEntry is Keys extended to also hand back a sub-Reader for the
// corresponding value, reading the value offset straight out of the same
// table row instead of re-running the binary search Key would need to
// look it up by name. Iteration stops as soon as yield returns false.
func (r Reader) EachEntry(yield func(key []byte, value Reader) bool) error {
	count, tableStart, err := r.objectTable()
	if err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		row := tableStart + i*8
		key, err := r.keyAt(tableStart, i)
		if err != nil {
			return err
		}
		if err := checkBounds(r.payload(), row+4, 4); err != nil {
			return err
		}
		valueOffset := binary.LittleEndian.Uint32(r.payload()[row+4 : row+8])
		if !yield(key, Reader{mapping: r.mapping, offset: valueOffset}) {
			return nil
		}
	}
	return nil
}

// KeyStrings is a convenience wrapper over Keys that copies every key out
// into an owned string, for callers that want the whole set rather than a
// lazy walk.
func (r Reader) KeyStrings() ([]string, error) {
	var out []string
	err := r.Keys(func(k []byte) bool {
		out = append(out, string(k))
		return true
	})
	return out, err
}
