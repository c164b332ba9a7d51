package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopTCP_SortedAndUnique(t *testing.T) {
	require.NotEmpty(t, TopTCP)

	seen := make(map[uint16]struct{}, len(TopTCP))
	for i, p := range TopTCP {
		assert.NotZero(t, p, "port 0 is not scannable")
		_, dup := seen[p]
		assert.False(t, dup, "duplicate port %d", p)
		seen[p] = struct{}{}
		if i > 0 {
			assert.Less(t, TopTCP[i-1], p, "table must be ascending at index %d", i)
		}
	}
}

func TestTopTCP_TopHundred(t *testing.T) {
	assert.Len(t, TopTCP, 99)
	assert.Contains(t, TopTCP, uint16(8443))
	assert.Contains(t, TopTCP, uint16(80))
	assert.NotContains(t, TopTCP, uint16(1), "port 1 only appears in the top-1000 table")
}

func TestDefault_ReturnsCopy(t *testing.T) {
	got := Default()
	require.Equal(t, TopTCP, got)

	got[0] = 1
	assert.Equal(t, uint16(21), TopTCP[0])
}
