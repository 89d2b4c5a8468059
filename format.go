package snapconfig

import "encoding/binary"

//============================================= Format

// Magic identifies a compiled snapconfig image. Four ASCII bytes, constant
// across the lifetime of format version 1.
var Magic = [4]byte{'S', 'N', 'A', 'P'}

// FormatVersion is the current on-disk layout version. See Header.Version.
const FormatVersion uint16 = 1

const (
	// HeaderSize is the fixed size in bytes of the image header.
	HeaderSize = 32
	// Alignment is the byte boundary every node offset must fall on.
	Alignment = 4
	// MaxPayloadSize is the largest payload format version 1's 32-bit
	// offsets can address.
	MaxPayloadSize = 1<<32 - 1
	// MaxContainerCount is the largest number of entries a single Array
	// or Object may hold in format version 1.
	MaxContainerCount = 1<<32 - 1
)

// Header offsets, named the way the teacher names its serialized-field
// indices in Types.go.
const (
	HeaderMagicIdx      = 0
	HeaderVersionIdx     = 4
	HeaderFlagsIdx       = 6
	HeaderSourceSizeIdx  = 8
	HeaderSourceMTimeIdx = 16
	HeaderRootOffsetIdx  = 24
	HeaderPayloadLenIdx  = 28
)

// NodeTag identifies the variant of a payload node.
type NodeTag byte

const (
	TagNull NodeTag = iota
	TagBool
	TagInt
	TagFloat
	TagString
	TagArray
	TagObject
)

func (t NodeTag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	default:
		return "unknown"
	}
}

// Header is the 32-byte fixed image header, decoded/encoded little-endian.
type Header struct {
	Version      uint16
	Flags        uint16
	SourceSize   uint64
	SourceMTime  uint64
	RootOffset   uint32
	PayloadLen   uint32
}

// EncodeHeader serializes a Header into a fresh 32-byte slice.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[HeaderMagicIdx:HeaderVersionIdx], Magic[:])
	binary.LittleEndian.PutUint16(buf[HeaderVersionIdx:HeaderFlagsIdx], h.Version)
	binary.LittleEndian.PutUint16(buf[HeaderFlagsIdx:HeaderSourceSizeIdx], h.Flags)
	binary.LittleEndian.PutUint64(buf[HeaderSourceSizeIdx:HeaderSourceMTimeIdx], h.SourceSize)
	binary.LittleEndian.PutUint64(buf[HeaderSourceMTimeIdx:HeaderRootOffsetIdx], h.SourceMTime)
	binary.LittleEndian.PutUint32(buf[HeaderRootOffsetIdx:HeaderPayloadLenIdx], h.RootOffset)
	binary.LittleEndian.PutUint32(buf[HeaderPayloadLenIdx:HeaderSize], h.PayloadLen)
	return buf
}

// DecodeHeader parses a Header from the first HeaderSize bytes of buf.
// It does not validate magic/version; callers check those explicitly so
// that a mismatch can be reported as CorruptImage with context.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, newError(KindCorruptImage, "header truncated: have %d bytes, need %d", len(buf), HeaderSize)
	}

	var h Header
	h.Version = binary.LittleEndian.Uint16(buf[HeaderVersionIdx:HeaderFlagsIdx])
	h.Flags = binary.LittleEndian.Uint16(buf[HeaderFlagsIdx:HeaderSourceSizeIdx])
	h.SourceSize = binary.LittleEndian.Uint64(buf[HeaderSourceSizeIdx:HeaderSourceMTimeIdx])
	h.SourceMTime = binary.LittleEndian.Uint64(buf[HeaderSourceMTimeIdx:HeaderRootOffsetIdx])
	h.RootOffset = binary.LittleEndian.Uint32(buf[HeaderRootOffsetIdx:HeaderPayloadLenIdx])
	h.PayloadLen = binary.LittleEndian.Uint32(buf[HeaderPayloadLenIdx:HeaderSize])
	return h, nil
}

// HasMagic reports whether buf begins with the current magic bytes.
func HasMagic(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == Magic[0] && buf[1] == Magic[1] && buf[2] == Magic[2] && buf[3] == Magic[3]
}

// align4 rounds n up to the next multiple of Alignment.
func align4(n uint32) uint32 {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// alignExtent is align4 over the wider accumulator the sizing pass uses,
// so a payload that would overflow uint32 is caught by comparison against
// MaxPayloadSize before anything gets downcast.
func alignExtent(n uint64) uint64 {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// NodeSizeFields carries the variable-length data a node's unaligned byte
// extent depends on. Only the fields relevant to tag are read. ChildExtents
// and ValueExtents must already be alignExtent-rounded, since a container's
// size is the sum of its already-aligned children, per writer.go's
// bottom-up sizing pass.
type NodeSizeFields struct {
	StrLen       int      // TagString: UTF-8 byte length of the value
	ElemCount    int      // TagArray: number of elements
	ChildExtents []uint64 // TagArray: each element's aligned extent
	EntryCount   int      // TagObject: number of key/value entries
	KeyLens      []int    // TagObject: each entry's UTF-8 key length
	ValueExtents []uint64 // TagObject: each entry's aligned value extent
}

// containerHeaderSize returns the aligned size of an Array or Object's own
// tag+count+offset-table, before any child/entry bytes. Array rows are one
// 4-byte child offset; Object rows are a 4-byte key offset plus a 4-byte
// value offset. Shared by NodeSize and the Writer's offset-assignment pass
// so the two never compute this independently.
func containerHeaderSize(tag NodeTag, count int) uint64 {
	switch tag {
	case TagArray:
		return alignExtent(uint64(1 + 4 + 4*count))
	case TagObject:
		return alignExtent(uint64(1 + 4 + 8*count))
	default:
		return 0
	}
}

// NodeSize computes the unaligned byte extent of a node given its tag and
// whatever variable-length fields it carries, per spec.md §4.1/§3's node
// layout. Callers needing an offset-aligned size call alignExtent on the
// result themselves, matching the Writer's two-phase sizing/emit split.
func NodeSize(tag NodeTag, f NodeSizeFields) uint64 {
	switch tag {
	case TagNull:
		return 1
	case TagBool:
		return 2
	case TagInt, TagFloat:
		return 9
	case TagString:
		return uint64(1 + 4 + f.StrLen)

	case TagArray:
		size := containerHeaderSize(TagArray, f.ElemCount)
		for _, c := range f.ChildExtents {
			size += c
		}
		return size

	case TagObject:
		size := containerHeaderSize(TagObject, f.EntryCount)
		for i, kl := range f.KeyLens {
			size += alignExtent(uint64(4+kl)) + f.ValueExtents[i]
		}
		return size

	default:
		return 0
	}
}

// DecodeNodeHeader reads the tag at payload offset off and returns the tag
// plus the offset immediately following it, where variant-specific data
// begins. It bounds-checks against the payload length before touching the
// byte.
func DecodeNodeHeader(payload []byte, off uint32) (tag NodeTag, dataStart uint32, err error) {
	if int64(off)+1 > int64(len(payload)) {
		return 0, 0, newError(KindCorruptImage, "node offset %d out of bounds (payload length %d)", off, len(payload))
	}

	tag = NodeTag(payload[off])
	if tag > TagObject {
		return 0, 0, newError(KindCorruptImage, "unknown node tag %d at offset %d", tag, off)
	}

	return tag, off + 1, nil
}
