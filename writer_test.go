package snapconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAndMap(t *testing.T, tree Node) *Mapping {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "image.snapconfig")
	meta := SourceMeta{Size: 42, MTime: 123}
	require.NoError(t, WriteImage(tree, meta, dest))

	m, err := OpenMapping(dest)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestWriteImageRoundTripsScalars(t *testing.T) {
	tree := Object([]Field{
		{Key: "string", Value: String("hello")},
		{Key: "integer", Value: Int(42)},
		{Key: "float", Value: Float(3.14)},
		{Key: "boolean", Value: Bool(true)},
		{Key: "null", Value: Null()},
		{Key: "array", Value: Array(Int(1), Int(2), Int(3))},
		{Key: "nested", Value: Object([]Field{
			{Key: "key", Value: String("value")},
			{Key: "deep", Value: Object([]Field{{Key: "level", Value: Int(3)}}, nil)},
		}, nil)},
	}, nil)

	m := writeAndMap(t, tree)
	r := NewReader(m)

	deep, err := r.Get("nested.deep.level")
	require.NoError(t, err)
	v, err := deep.AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)

	keys, err := r.KeyStrings()
	require.NoError(t, err)
	assert.Equal(t, []string{"array", "boolean", "float", "integer", "nested", "null", "string"}, keys)
}

func TestWriteImageHeaderReflectsSourceMeta(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "image.snapconfig")
	require.NoError(t, WriteImage(String("x"), SourceMeta{Size: 99, MTime: 555}, dest))

	m, err := OpenMapping(dest)
	require.NoError(t, err)
	defer m.Close()

	assert.EqualValues(t, 99, m.Header.SourceSize)
	assert.EqualValues(t, 555, m.Header.SourceMTime)
	assert.Equal(t, FormatVersion, m.Header.Version)
}

func TestWriteImageRejectsNonUTF8Key(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "image.snapconfig")
	bad := Object([]Field{{Key: string([]byte{0xff, 0xfe}), Value: Int(1)}}, nil)
	err := WriteImage(bad, SourceMeta{}, dest)
	requireKind(t, err, KindEncodingError)
}

func TestWriteImageDuplicateKeysLastWriteWins(t *testing.T) {
	tree := Object([]Field{
		{Key: "a", Value: Int(1)},
		{Key: "a", Value: Int(2)},
	}, nil)

	m := writeAndMap(t, tree)
	r := NewReader(m)

	val, err := r.Get("a")
	require.NoError(t, err)
	i, err := val.AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 2, i)
}

func TestWriteImageOffsetsAreFourByteAligned(t *testing.T) {
	// Three keys produce an object header of 1+4+8*3=29 bytes, not itself a
	// multiple of 4, exercising the alignment padding between the table and
	// the first key/value bytes.
	tree := Object([]Field{
		{Key: "a", Value: Int(1)},
		{Key: "bb", Value: Int(2)},
		{Key: "ccc", Value: Int(3)},
	}, nil)

	dest := filepath.Join(t.TempDir(), "image.snapconfig")
	require.NoError(t, WriteImage(tree, SourceMeta{}, dest))

	m, err := OpenMapping(dest)
	require.NoError(t, err)
	defer m.Close()

	assert.Zero(t, m.Header.RootOffset%Alignment)

	r := NewReader(m)
	for _, k := range []string{"a", "bb", "ccc"} {
		child, err := r.Key(k)
		require.NoError(t, err)
		assert.Zero(t, child.offset%Alignment, "key %s offset not aligned", k)
	}
}

func TestAtomicWriteReplacesExistingFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "image.snapconfig")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o600))

	require.NoError(t, WriteImage(Int(7), SourceMeta{}, dest))

	m, err := OpenMapping(dest)
	require.NoError(t, err)
	defer m.Close()

	v, err := NewReader(m).AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "image.snapconfig")
	require.NoError(t, WriteImage(Int(1), SourceMeta{}, dest))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "image.snapconfig", entries[0].Name())
}
