package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeStripsMarkup(t *testing.T) {
	assert.Equal(t, "hello world", Sanitize("<b>hello</b> <script>world</script>"))
	assert.Equal(t, "plain", Sanitize("plain"))
}

func TestSanitizeCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Sanitize("  a \t b \n\n c  "))
}

func TestValidateRejectsEmpty(t *testing.T) {
	_, err := Validate("")
	require.ErrorIs(t, err, ErrInvalidContent)

	_, err = Validate("   \n\t  ")
	require.ErrorIs(t, err, ErrInvalidContent)

	_, err = Validate("<p></p>")
	require.ErrorIs(t, err, ErrInvalidContent)
}

func TestValidateRejectsOversized(t *testing.T) {
	_, err := Validate(strings.Repeat("a", MaxMessageLength+1))
	require.ErrorIs(t, err, ErrInvalidContent)

	clean, err := Validate(strings.Repeat("a", MaxMessageLength))
	require.NoError(t, err)
	assert.Len(t, clean, MaxMessageLength)
}

func TestValidateKeepsValidTextIntact(t *testing.T) {
	clean, err := Validate("  is this still available?  ")
	require.NoError(t, err)
	assert.Equal(t, "is this still available?", clean)
}
