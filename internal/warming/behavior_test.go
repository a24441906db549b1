package warming

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBehavior_TypingDelay(t *testing.T) {
	b := NewBehavior(rand.New(rand.NewSource(1)))

	assert.Equal(t, time.Duration(0), b.TypingDelay(0))
	assert.Equal(t, time.Duration(0), b.TypingDelay(-3))

	// 33 chars at 3.3 chars/s is a 10s base, jittered by [0.7, 1.3).
	for i := 0; i < 200; i++ {
		d := b.TypingDelay(33)
		assert.GreaterOrEqual(t, d, 6*time.Second)
		assert.Less(t, d, 14*time.Second)
	}
}

func TestBehavior_ReadingDelayFloor(t *testing.T) {
	b := NewBehavior(rand.New(rand.NewSource(1)))

	// A couple of characters read in well under a second still gets
	// the one second floor.
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, b.ReadingDelay(2), time.Second)
	}
}

func TestBehavior_ShouldReactFrequency(t *testing.T) {
	b := NewBehavior(rand.New(rand.NewSource(42)))

	reacted := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		if b.ShouldReact() {
			reacted++
		}
	}

	assert.Greater(t, reacted, trials*25/100)
	assert.Less(t, reacted, trials*35/100)
}

func TestBehavior_PickReactionEmoji(t *testing.T) {
	b := NewBehavior(rand.New(rand.NewSource(7)))

	for i := 0; i < 50; i++ {
		assert.Contains(t, reactionEmojis, b.PickReactionEmoji())
	}
}

func TestBehavior_DelayRanges(t *testing.T) {
	b := NewBehavior(rand.New(rand.NewSource(9)))

	for i := 0; i < 100; i++ {
		d := b.InterMessageDelay()
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 10*time.Second)

		c := b.InterConversationDelay()
		assert.GreaterOrEqual(t, c, 5*time.Minute)
		assert.Less(t, c, 30*time.Minute)
	}
}
