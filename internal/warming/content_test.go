package warming

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentGenerator_PoolMembership(t *testing.T) {
	g := NewContentGenerator(rand.New(rand.NewSource(3)))

	for i := 0; i < 50; i++ {
		assert.Contains(t, greetingPool, g.Greeting())
		assert.Contains(t, casualMessagePool, g.CasualMessage())
		assert.Contains(t, contentReactionPool, g.ReactionEmoji())
		assert.Contains(t, audioClipPool, g.AudioClipReference())
	}
}

func TestContentGenerator_VariesOutput(t *testing.T) {
	g := NewContentGenerator(rand.New(rand.NewSource(3)))

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[g.CasualMessage()] = true
	}
	assert.Greater(t, len(seen), 1)
}
