package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 4.0, Round(20*20.0/100))
	assert.Equal(t, 2.68, Round(2.675000001))
}

func TestWholeUnits(t *testing.T) {
	n, ok := WholeUnits(90000)
	assert.True(t, ok)
	assert.Equal(t, int64(90000), n)

	n, ok = WholeUnits(Sum(45000.4, 0.6))
	assert.True(t, ok)
	assert.Equal(t, int64(45001), n)

	_, ok = WholeUnits(12.5)
	assert.False(t, ok)
}
