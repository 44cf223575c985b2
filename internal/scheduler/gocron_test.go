package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGocronTimers_ArmAndStop(t *testing.T) {
	g := NewGocronTimers(time.UTC)
	g.Start()
	defer g.Stop()

	h1, err := g.Arm("u1", 8, 0, func() {})
	require.NoError(t, err)
	h2, err := g.Arm("u2", 23, 59, func() {})
	require.NoError(t, err)
	assert.Len(t, g.s.Jobs(), 2)

	h1.Stop()
	h1.Stop()
	assert.Len(t, g.s.Jobs(), 1)

	h2.Stop()
	assert.Empty(t, g.s.Jobs())
}
