package pins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnconnectedLinesAreSafe(t *testing.T) {
	var o Output
	var i Input
	assert.False(t, o.Connected())
	assert.False(t, i.Connected())
	o.High()
	o.Low()
	assert.True(t, i.Get(true))
	assert.False(t, i.Get(false))
}

func TestConnectedLines(t *testing.T) {
	var levels []bool
	o := Output(func(l bool) { levels = append(levels, l) })
	o.High()
	o.Low()
	o.Set(true)
	assert.Equal(t, []bool{true, false, true}, levels)

	i := Input(func() bool { return false })
	assert.False(t, i.Get(true))
}
