package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLikeNeutralizesMetacharacters(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\temp`, escapeLike(`c:\temp`))
	assert.Equal(t, `\%\_\\`, escapeLike(`%_\`))
	assert.Equal(t, "plain keyword", escapeLike("plain keyword"))
}
