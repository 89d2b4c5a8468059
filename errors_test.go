package snapconfig

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesOnKind(t *testing.T) {
	err := newError(KindKeyMissing, "key %q not present", "foo")
	assert.True(t, errors.Is(err, KeyMissing))
	assert.False(t, errors.Is(err, IndexOutOfRange))
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := errors.New("disk on fire")
	err := wrapError(KindIoError, cause, "writing image")
	assert.Same(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Contains(t, err.Error(), "writing image")
}

func TestKindStringCoversAllKinds(t *testing.T) {
	kinds := []Kind{
		KindSourceMissing, KindParseError, KindIoError, KindCorruptImage,
		KindCapacityExceeded, KindEncodingError, KindKeyMissing,
		KindIndexOutOfRange, KindTypeMismatch, KindPathTypeMismatch,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "Unknown", k.String())
	}
}
