package snapconfig

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"unicode/utf8"
)

//============================================= Writer

// SourceMeta is the source file metadata a compiled image records in its
// header, per spec.md §3.
type SourceMeta struct {
	Size  int64
	MTime int64 // nanoseconds since epoch
}

// planNode is the intermediate layout tree built by the sizing pass and
// consumed by the emit pass. Mirrors the teacher's practice (Node.go's
// determineEndOffsetINode/determineEndOffsetLNode) of computing a node's
// size before a single byte of it is written.
type planNode struct {
	tag       NodeTag
	extent    uint64 // total unaligned bytes this node and its subtree occupy
	offset    uint32 // assigned by the offset pass
	dataBytes []byte // ready-to-copy payload for scalar/string nodes
	children  []*planNode
	entries   []*planEntry
}

type planEntry struct {
	keyBytes  []byte // 4-byte length + UTF-8 key, ready to copy
	keyOffset uint32
	value     *planNode
}

// WriteImage compiles tree into a fresh image at destPath, atomically
// replacing any existing file there. destPath's directory must already
// exist.
func WriteImage(tree Node, meta SourceMeta, destPath string) error {
	plan, err := buildPlan(tree)
	if err != nil {
		return err
	}

	var cursor uint64
	if err := assignOffsets(plan, &cursor); err != nil {
		return err
	}
	if cursor > MaxPayloadSize {
		return newError(KindCapacityExceeded, "payload size %d exceeds format version %d limit of %d bytes", cursor, FormatVersion, MaxPayloadSize)
	}

	payload := make([]byte, cursor)
	emit(payload, plan)

	header := Header{
		Version:     FormatVersion,
		Flags:       0,
		SourceSize:  uint64(meta.Size),
		SourceMTime: uint64(meta.MTime),
		RootOffset:  plan.offset,
		PayloadLen:  uint32(cursor),
	}

	image := make([]byte, 0, HeaderSize+len(payload)+Alignment)
	image = append(image, EncodeHeader(header)...)
	image = append(image, payload...)
	if pad := trailerPadding(len(image)); pad > 0 {
		image = append(image, make([]byte, pad)...)
	}

	return atomicWrite(destPath, image)
}

// trailerPadding returns how many zero bytes to append so the image length
// lands on a 16-byte boundary, per spec.md §3's optional trailer zone.
func trailerPadding(n int) int {
	const boundary = 16
	rem := n % boundary
	if rem == 0 {
		return 0
	}
	return boundary - rem
}

// buildPlan walks the abstract tree bottom-up, assigning each node its
// unaligned byte extent. No offsets are assigned here.
func buildPlan(n Node) (*planNode, error) {
	switch n.Kind {
	case KindNull:
		return &planNode{tag: TagNull, extent: NodeSize(TagNull, NodeSizeFields{})}, nil

	case KindBool:
		v := byte(0)
		if n.Bool {
			v = 1
		}
		return &planNode{tag: TagBool, extent: NodeSize(TagBool, NodeSizeFields{}), dataBytes: []byte{v}}, nil

	case KindInt:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(n.Int))
		return &planNode{tag: TagInt, extent: NodeSize(TagInt, NodeSizeFields{}), dataBytes: buf}, nil

	case KindFloat:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(n.Float))
		return &planNode{tag: TagFloat, extent: NodeSize(TagFloat, NodeSizeFields{}), dataBytes: buf}, nil

	case KindString:
		return buildStringPlan(n.Str)

	case KindArray:
		return buildArrayPlan(n.Elems)

	case KindObject:
		return buildObjectPlan(n.Fields)

	default:
		return nil, newError(KindEncodingError, "unknown node kind %d", n.Kind)
	}
}

func buildStringPlan(s string) (*planNode, error) {
	if !utf8.ValidString(s) {
		return nil, newError(KindEncodingError, "string value is not valid UTF-8")
	}

	buf := make([]byte, 4+len(s))
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(s)))
	copy(buf[4:], s)

	return &planNode{tag: TagString, extent: NodeSize(TagString, NodeSizeFields{StrLen: len(s)}), dataBytes: buf}, nil
}

func buildArrayPlan(elems []Node) (*planNode, error) {
	if uint64(len(elems)) > MaxContainerCount {
		return nil, newError(KindCapacityExceeded, "array has %d elements, exceeds format version %d limit", len(elems), FormatVersion)
	}

	children := make([]*planNode, len(elems))
	childExtents := make([]uint64, len(elems))

	for i, e := range elems {
		child, err := buildPlan(e)
		if err != nil {
			return nil, err
		}
		children[i] = child
		childExtents[i] = alignExtent(child.extent)
	}

	extent := NodeSize(TagArray, NodeSizeFields{ElemCount: len(elems), ChildExtents: childExtents})
	return &planNode{tag: TagArray, extent: extent, children: children}, nil
}

func buildObjectPlan(fields []Field) (*planNode, error) {
	sorted := dedupeAndSortFields(fields)
	if uint64(len(sorted)) > MaxContainerCount {
		return nil, newError(KindCapacityExceeded, "object has %d keys, exceeds format version %d limit", len(sorted), FormatVersion)
	}

	entries := make([]*planEntry, len(sorted))
	keyLens := make([]int, len(sorted))
	valueExtents := make([]uint64, len(sorted))

	for i, f := range sorted {
		if !utf8.ValidString(f.Key) {
			return nil, newError(KindEncodingError, "object key is not valid UTF-8")
		}

		keyBuf := make([]byte, 4+len(f.Key))
		binary.LittleEndian.PutUint32(keyBuf[:4], uint32(len(f.Key)))
		copy(keyBuf[4:], f.Key)

		value, err := buildPlan(f.Value)
		if err != nil {
			return nil, err
		}

		entries[i] = &planEntry{keyBytes: keyBuf, value: value}
		keyLens[i] = len(f.Key)
		valueExtents[i] = alignExtent(value.extent)
	}

	extent := NodeSize(TagObject, NodeSizeFields{EntryCount: len(sorted), KeyLens: keyLens, ValueExtents: valueExtents})
	return &planNode{tag: TagObject, extent: extent, entries: entries}, nil
}

// dedupeAndSortFields applies last-write-wins to duplicate keys and sorts
// the result by byte order, per spec.md §3's object invariant. Fields built
// via the Object() constructor have already been deduplicated with a
// warning hook; this is a second, silent pass so WriteImage is correct even
// when callers assemble a Node by hand.
func dedupeAndSortFields(fields []Field) []Field {
	seen := make(map[string]int, len(fields))
	out := make([]Field, 0, len(fields))

	for _, f := range fields {
		if idx, dup := seen[f.Key]; dup {
			out[idx] = f
			continue
		}
		seen[f.Key] = len(out)
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// assignOffsets walks the plan top-down, handing out payload-relative
// offsets in the order nodes will be written, and fails with
// CapacityExceeded the moment an offset would not fit in 32 bits.
func assignOffsets(p *planNode, cursor *uint64) error {
	if *cursor > MaxPayloadSize {
		return newError(KindCapacityExceeded, "payload offset %d exceeds format version %d limit", *cursor, FormatVersion)
	}
	p.offset = uint32(*cursor)

	switch p.tag {
	case TagArray:
		*cursor += containerHeaderSize(TagArray, len(p.children))
		for _, c := range p.children {
			if err := assignOffsets(c, cursor); err != nil {
				return err
			}
			*cursor += alignExtent(c.extent) - c.extent
		}

	case TagObject:
		*cursor += containerHeaderSize(TagObject, len(p.entries))
		for _, e := range p.entries {
			e.keyOffset = uint32(*cursor)
			*cursor += alignExtent(uint64(len(e.keyBytes)))

			if err := assignOffsets(e.value, cursor); err != nil {
				return err
			}
			*cursor += alignExtent(e.value.extent) - e.value.extent
		}

	default:
		*cursor += p.extent
	}

	return nil
}

// emit writes the planned node (and its subtree) into buf at the offsets
// assignOffsets computed.
func emit(buf []byte, p *planNode) {
	buf[p.offset] = byte(p.tag)

	switch p.tag {
	case TagNull:
		// tag only

	case TagBool, TagInt, TagFloat, TagString:
		copy(buf[p.offset+1:], p.dataBytes)

	case TagArray:
		binary.LittleEndian.PutUint32(buf[p.offset+1:p.offset+5], uint32(len(p.children)))
		table := p.offset + 5
		for i, c := range p.children {
			binary.LittleEndian.PutUint32(buf[table+uint32(4*i):table+uint32(4*i)+4], c.offset)
			emit(buf, c)
		}

	case TagObject:
		binary.LittleEndian.PutUint32(buf[p.offset+1:p.offset+5], uint32(len(p.entries)))
		table := p.offset + 5
		for i, e := range p.entries {
			row := table + uint32(8*i)
			binary.LittleEndian.PutUint32(buf[row:row+4], e.keyOffset)
			binary.LittleEndian.PutUint32(buf[row+4:row+8], e.value.offset)
			copy(buf[e.keyOffset:], e.keyBytes)
			emit(buf, e.value)
		}
	}
}

// atomicWrite writes data to a unique temp file beside destPath and renames
// it into place, following the teacher's temp-file-then-rename discipline
// in Compact.go/CompactUtils.go generalized from "compaction snapshot" to
// "every compile."
func atomicWrite(destPath string, data []byte) (err error) {
	dir := filepath.Dir(destPath)

	var nonce [8]byte
	if _, randErr := rand.Read(nonce[:]); randErr != nil {
		return wrapError(KindIoError, randErr, "generating temp file nonce")
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf("%s.tmp.%d.%s", filepath.Base(destPath), os.Getpid(), hex.EncodeToString(nonce[:])))

	f, openErr := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if openErr != nil {
		return wrapError(KindIoError, openErr, "creating temp file %s", tmpPath)
	}

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, writeErr := f.Write(data); writeErr != nil {
		f.Close()
		return wrapError(KindIoError, writeErr, "writing temp file %s", tmpPath)
	}

	if syncErr := f.Sync(); syncErr != nil {
		f.Close()
		return wrapError(KindIoError, syncErr, "syncing temp file %s", tmpPath)
	}

	if closeErr := f.Close(); closeErr != nil {
		return wrapError(KindIoError, closeErr, "closing temp file %s", tmpPath)
	}

	renameErr := os.Rename(tmpPath, destPath)
	if renameErr != nil && runtime.GOOS == "windows" {
		// Windows rename-over-existing-file can fail; on that failure the
		// target is removed and the rename retried once. Whether the target
		// is still mapped by this process is not checked first.
		if removeErr := os.Remove(destPath); removeErr == nil {
			renameErr = os.Rename(tmpPath, destPath)
		}
	}
	if renameErr != nil {
		return wrapError(KindIoError, renameErr, "renaming %s to %s", tmpPath, destPath)
	}

	return nil
}
