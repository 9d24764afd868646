package main

import (
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTile(t *testing.T) {
	tile, err := parseTile("12/3294/1837")
	require.NoError(t, err)
	assert.Equal(t, maptile.New(3294, 1837, 12), tile)

	for _, spec := range []string{"", "12/3294", "12/3294/1837/0", "a/b/c", "12/-1/5"} {
		_, err := parseTile(spec)
		assert.Error(t, err, spec)
	}
}
