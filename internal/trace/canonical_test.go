package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsObjectKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"b": int64(1),
		"a": "x",
		"c": true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":true}`, string(out))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical("<tag> & more")
	require.NoError(t, err)
	assert.Equal(t, `"<tag> & more"`, string(out))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// Decomposed e + combining acute normalizes to composed é.
	decomposed := "é"
	composed := "é"

	out, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, `"`+composed+`"`, string(out))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogate pair D83D DE00; U+FF01 is a single
	// unit FF01. UTF-16 order puts the emoji first, UTF-8 order would
	// put it last.
	out, err := MarshalCanonical(map[string]any{
		"！":     int64(2),
		"\U0001F600": int64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"😀":1,"！":2}`, string(out))
}

func TestMarshalCanonical_LineSeparatorsUnescaped(t *testing.T) {
	out, err := MarshalCanonical("a b c")
	require.NoError(t, err)
	assert.Equal(t, "\"a b c\"", string(out))
}

func TestMarshalCanonical_LiteralBackslashU2028StaysEscaped(t *testing.T) {
	// The six characters \u2028 (backslash, u, 2, 0, 2, 8) are text,
	// not a line separator; the backslash itself must stay escaped.
	out, err := MarshalCanonical(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(out))
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"k": nil})
	require.Error(t, err)
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	require.Error(t, err)

	_, err = MarshalCanonical([]any{float64(1)})
	require.Error(t, err)
}

func TestMarshalCanonical_RejectsUnsupportedTypes(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
}

func TestMarshalCanonical_NestedStructures(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"list": []any{int64(1), "two", map[string]any{"z": false, "a": int64(3)}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"list":[1,"two",{"a":3,"z":false}]}`, string(out))
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	obj := map[string]any{
		"delta": int64(4),
		"alpha": "a",
		"beta":  true,
		"gamma": []any{"x", "y"},
	}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
