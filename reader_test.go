package snapconfig

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderScalarAccessors(t *testing.T) {
	tree := Object([]Field{
		{Key: "b", Value: Bool(true)},
		{Key: "i", Value: Int(-7)},
		{Key: "f", Value: Float(2.5)},
		{Key: "s", Value: String("text")},
		{Key: "n", Value: Null()},
	}, nil)

	m := writeAndMap(t, tree)
	r := NewReader(m)

	b, err := must(r, "b").AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	i, err := must(r, "i").AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, -7, i)

	f, err := must(r, "f").AsFloat()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 0.0001)

	s, err := must(r, "s").AsString()
	require.NoError(t, err)
	assert.Equal(t, "text", s)

	typ, err := must(r, "n").RootType()
	require.NoError(t, err)
	assert.Equal(t, "null", typ)
}

func must(r Reader, key string) Reader {
	sub, err := r.Key(key)
	if err != nil {
		panic(err)
	}
	return sub
}

func TestReaderTypeMismatch(t *testing.T) {
	m := writeAndMap(t, Int(1))
	r := NewReader(m)

	_, err := r.AsString()
	requireKind(t, err, KindTypeMismatch)

	_, err = r.Key("x")
	requireKind(t, err, KindTypeMismatch)

	_, err = r.Index(0)
	requireKind(t, err, KindTypeMismatch)
}

func TestReaderKeyMissing(t *testing.T) {
	m := writeAndMap(t, Object([]Field{{Key: "a", Value: Int(1)}}, nil))
	r := NewReader(m)

	_, err := r.Key("missing")
	requireKind(t, err, KindKeyMissing)

	ok, err := r.Contains("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Contains("a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReaderIndexOutOfRange(t *testing.T) {
	m := writeAndMap(t, Array(Int(1), Int(2)))
	r := NewReader(m)

	_, err := r.Index(2)
	requireKind(t, err, KindIndexOutOfRange)

	_, err = r.Index(-1)
	requireKind(t, err, KindIndexOutOfRange)
}

// TestReaderBinarySearchAgreesWithLinearScan is the package's binary-search
// correctness property: key() must agree with a linear scan for every key
// in and out of the set, across a key set large enough to exercise more
// than one sort.Search probe.
func TestReaderBinarySearchAgreesWithLinearScan(t *testing.T) {
	var fields []Field
	want := make(map[string]int64)
	for i := 0; i < 200; i++ {
		k := randomLikeKey(i)
		fields = append(fields, Field{Key: k, Value: Int(int64(i))})
		want[k] = int64(i)
	}

	m := writeAndMap(t, Object(fields, nil))
	r := NewReader(m)

	keys, err := r.KeyStrings()
	require.NoError(t, err)
	assert.True(t, sort.StringsAreSorted(keys))

	for k, expect := range want {
		sub, err := r.Key(k)
		require.NoError(t, err)
		v, err := sub.AsInt()
		require.NoError(t, err)
		assert.Equal(t, expect, v)
	}

	for _, miss := range []string{"zzz-not-present", "-before-everything"} {
		if _, present := want[miss]; present {
			continue
		}
		_, err := r.Key(miss)
		requireKind(t, err, KindKeyMissing)
	}
}

// TestReaderKeysIsLazy confirms Keys stops walking the table the moment
// yield returns false, instead of materializing every key up front.
func TestReaderKeysIsLazy(t *testing.T) {
	tree := Object([]Field{
		{Key: "a", Value: Int(1)},
		{Key: "b", Value: Int(2)},
		{Key: "c", Value: Int(3)},
	}, nil)
	m := writeAndMap(t, tree)
	r := NewReader(m)

	var seen []string
	err := r.Keys(func(k []byte) bool {
		seen = append(seen, string(k))
		return len(seen) < 2
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestReaderEachEntryYieldsSortedKeyValuePairs(t *testing.T) {
	tree := Object([]Field{
		{Key: "b", Value: Int(2)},
		{Key: "a", Value: Int(1)},
	}, nil)
	m := writeAndMap(t, tree)
	r := NewReader(m)

	var keys []string
	var values []int64
	err := r.EachEntry(func(key []byte, value Reader) bool {
		keys = append(keys, string(key))
		v, verr := value.AsInt()
		require.NoError(t, verr)
		values = append(values, v)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, []int64{1, 2}, values)
}

func randomLikeKey(i int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	return string(alphabet[i%26]) + string(alphabet[(i/26)%26]) + string(rune('0'+i%10))
}

func TestReaderConcurrentReadsAgree(t *testing.T) {
	tree := Object([]Field{
		{Key: "array", Value: Array(Int(1), Int(2), Int(3), Int(4), Int(5))},
	}, nil)
	m := writeAndMap(t, tree)
	r := NewReader(m)

	const workers = 16
	results := make(chan int64, workers)
	for w := 0; w < workers; w++ {
		go func() {
			arr, err := r.Get("array")
			if err != nil {
				results <- -1
				return
			}
			var sum int64
			n, _ := arr.Len()
			for i := 0; i < n; i++ {
				elem, _ := arr.Index(i)
				v, _ := elem.AsInt()
				sum += v
			}
			results <- sum
		}()
	}

	for w := 0; w < workers; w++ {
		assert.EqualValues(t, 15, <-results)
	}
}
