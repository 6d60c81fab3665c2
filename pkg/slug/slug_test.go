package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Crème Brûlée: a recipe!  ", "creme-brulee-a-recipe"},
		{"Go 1.23 -- released", "go-1-23-released"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("hello-world"))
	assert.True(t, Valid("a1"))
	assert.False(t, Valid("Hello"))
	assert.False(t, Valid("a--b"))
	assert.False(t, Valid("-a"))
	assert.False(t, Valid(""))
}

func TestNewShortID(t *testing.T) {
	id, err := NewShortID(8)
	require.NoError(t, err)
	assert.Len(t, id, 8)
	assert.True(t, ValidShortID(id))

	id, err = NewShortID(42)
	require.NoError(t, err)
	assert.Len(t, id, ShortIDDefaultLen)

	assert.False(t, ValidShortID("abc"))
	assert.False(t, ValidShortID("abcdefghi"))
	assert.False(t, ValidShortID("ab_d"))
}
