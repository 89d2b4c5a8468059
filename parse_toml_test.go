package snapconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTOMLTableAndArray(t *testing.T) {
	src := "title = \"example\"\n\n[owner]\nname = \"tom\"\nage = 30\n\n[[servers]]\nip = \"10.0.0.1\"\n\n[[servers]]\nip = \"10.0.0.2\"\n"

	tree, err := parseTOML([]byte(src))
	require.NoError(t, err)
	require.Equal(t, KindObject, tree.Kind)

	byKey := fieldMap(tree.Fields)
	assert.Equal(t, "example", byKey["title"].Str)

	owner := fieldMap(byKey["owner"].Fields)
	assert.Equal(t, "tom", owner["name"].Str)
	assert.EqualValues(t, 30, owner["age"].Int)

	servers := byKey["servers"]
	assert.Equal(t, KindArray, servers.Kind)
	require.Len(t, servers.Elems, 2)
}

func TestParseTOMLMalformed(t *testing.T) {
	_, err := parseTOML([]byte("not = [valid"))
	requireKind(t, err, KindParseError)
}
