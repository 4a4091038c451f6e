package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCollectsPlaceholders(t *testing.T) {
	tmpl, err := Parse("zebra", "^XA^FO{shipToName}^FS^XZ")
	require.NoError(t, err)
	_, ok := tmpl.Placeholders["shipToName"]
	assert.True(t, ok)
}

func TestParseRejectsUnclosedBrace(t *testing.T) {
	_, err := Parse("bad", "^XA^FO{shipToName^FS^XZ")
	require.Error(t, err)
}

func TestParseRejectsEmptyPlaceholder(t *testing.T) {
	_, err := Parse("bad", "^XA^FO{}^FS^XZ")
	require.Error(t, err)
}

func TestParseRejectsInvalidPlaceholderName(t *testing.T) {
	_, err := Parse("bad", "^XA^FO{1name}^FS^XZ")
	require.Error(t, err)
}

func TestRenderIsDeterministic(t *testing.T) {
	tmpl, err := Parse("t", "^XA^FO{a}^FO{b}^XZ")
	require.NoError(t, err)
	fields := map[string]string{"a": "hello", "b": "world"}

	out1, err := Render(tmpl, fields)
	require.NoError(t, err)
	out2, err := Render(tmpl, fields)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
	assert.Equal(t, "^XA^FOhello^FOworld^XZ", out1)
}

func TestRenderFailsOnMissingField(t *testing.T) {
	tmpl, err := Parse("t", "^XA{a}^XZ")
	require.NoError(t, err)
	_, err = Render(tmpl, map[string]string{})
	require.Error(t, err)
}

func TestRenderFailsOnEmptyField(t *testing.T) {
	tmpl, err := Parse("t", "^XA{a}^XZ")
	require.NoError(t, err)
	_, err = Render(tmpl, map[string]string{"a": ""})
	require.Error(t, err)
}

func TestRenderAcceptsSingleSpaceSentinel(t *testing.T) {
	// The Label Data Builder substitutes " " for absent optional
	// fields; the renderer must not reject it.
	tmpl, err := Parse("t", "^XA{a}^XZ")
	require.NoError(t, err)
	out, err := Render(tmpl, map[string]string{"a": " "})
	require.NoError(t, err)
	assert.Equal(t, "^XA ^XZ", out)
}

func TestRenderFailsOnFieldTooLong(t *testing.T) {
	tmpl, err := Parse("t", "^XA{a}^XZ")
	require.NoError(t, err)
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}
	_, err = Render(tmpl, map[string]string{"a": string(long)})
	require.Error(t, err)
}

func TestRenderNeverLeavesUnresolvedPlaceholder(t *testing.T) {
	tmpl, err := Parse("t", "^XA{a}{b}^XZ")
	require.NoError(t, err)
	out, err := Render(tmpl, map[string]string{"a": "1", "b": "2"})
	require.NoError(t, err)
	assert.True(t, IsValidZpl(out))
}

func TestEscapeOrderTildeBeforeCaret(t *testing.T) {
	// Tilde first, then caret, then braces. A literal
	// caret becomes "~~^" (not double-expanded) and a literal tilde
	// becomes "~~".
	assert.Equal(t, "~~^", Escape("^"))
	assert.Equal(t, "~~", Escape("~"))
	assert.Equal(t, "{{", Escape("{"))
	assert.Equal(t, "}}", Escape("}"))
}

func TestEscapeCompoundValue(t *testing.T) {
	assert.Equal(t, "a~~~~^b{{c}}", Escape("a~^b{c}"))
}

func TestIsValidZplRequiresHeaderAndTrailer(t *testing.T) {
	assert.True(t, IsValidZpl("^XA^FO0,0^XZ"))
	assert.False(t, IsValidZpl("^FO0,0^XZ"))
	assert.False(t, IsValidZpl("^XA^FO0,0"))
}

func TestIsValidZplRejectsUnresolvedPlaceholder(t *testing.T) {
	assert.False(t, IsValidZpl("^XA{name}^XZ"))
}
