package snapconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceScalar(t *testing.T) {
	cases := []struct {
		in   string
		kind NodeTag
	}{
		{"", KindString},
		{"nil", KindNull},
		{"NULL", KindNull},
		{"None", KindNull},
		{"true", KindBool},
		{"FALSE", KindBool},
		{"42", KindInt},
		{"-7", KindInt},
		{"3.14", KindString},
		{"\"quoted\"", KindString},
		{"plain", KindString},
	}

	for _, c := range cases {
		got := coerceScalar(c.in)
		assert.Equal(t, c.kind, got.Kind, "coerceScalar(%q)", c.in)
	}
}

func TestCoerceScalarStripsQuotes(t *testing.T) {
	assert.Equal(t, "hello", coerceScalar(`"hello"`).Str)
	assert.Equal(t, "hello", coerceScalar("'hello'").Str)
}

func TestIsPureDecimalInt(t *testing.T) {
	assert.True(t, isPureDecimalInt("123"))
	assert.True(t, isPureDecimalInt("-123"))
	assert.True(t, isPureDecimalInt("+123"))
	assert.False(t, isPureDecimalInt("12.3"))
	assert.False(t, isPureDecimalInt(""))
	assert.False(t, isPureDecimalInt("-"))
	assert.False(t, isPureDecimalInt("12a"))
}
