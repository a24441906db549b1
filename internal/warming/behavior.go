package warming

import (
	"math/rand"
	"time"
)

// Tuned against observed human chat pacing: ~40 WPM typing is about
// 3.3 chars/sec, ~250 WPM reading about 20 chars/sec.
const (
	typingCharsPerSecond  = 3.3
	readingCharsPerSecond = 20.0
	reactionChance        = 0.30
)

var reactionEmojis = []string{"👍", "❤️", "😂", "😮", "😢", "🙏", "🔥", "👏"}

// Behavior produces human-plausible timing and reaction decisions.
// Pure apart from consuming entropy from the injected source, so
// tests can seed it and assert distributions.
type Behavior struct {
	rng *rand.Rand
}

func NewBehavior(rng *rand.Rand) *Behavior {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Behavior{rng: rng}
}

// TypingDelay approximates how long a human would take to type a
// message of the given length, with +/-30% jitter. Zero only for
// empty content.
func (b *Behavior) TypingDelay(length int) time.Duration {
	if length <= 0 {
		return 0
	}
	base := float64(length) / typingCharsPerSecond
	variance := 0.7 + b.rng.Float64()*0.6
	return time.Duration(base * variance * float64(time.Second))
}

// ReadingDelay approximates how long a human would spend reading a
// message before acting on it. Floored at one second regardless of
// length.
func (b *Behavior) ReadingDelay(length int) time.Duration {
	base := float64(length) / readingCharsPerSecond
	variance := 0.8 + b.rng.Float64()*0.7
	d := time.Duration(base * variance * float64(time.Second))
	if d < time.Second {
		return time.Second
	}
	return d
}

// ShouldReact reports whether to react to a message, true 30% of the
// time.
func (b *Behavior) ShouldReact() bool {
	return b.rng.Float64() < reactionChance
}

// PickReactionEmoji returns one emoji uniformly at random from the
// fixed reaction set.
func (b *Behavior) PickReactionEmoji() string {
	return reactionEmojis[b.rng.Intn(len(reactionEmojis))]
}

// InterMessageDelay is the pause between consecutive messages in one
// conversation, 2-10 seconds.
func (b *Behavior) InterMessageDelay() time.Duration {
	return b.uniformDuration(2*time.Second, 10*time.Second)
}

// InterConversationDelay is the pause between distinct conversations,
// 5-30 minutes.
func (b *Behavior) InterConversationDelay() time.Duration {
	return b.uniformDuration(5*time.Minute, 30*time.Minute)
}

func (b *Behavior) uniformDuration(min, max time.Duration) time.Duration {
	return min + time.Duration(b.rng.Float64()*float64(max-min))
}
