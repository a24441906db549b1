package warming

import (
	"math/rand"
	"time"
)

// Static content pools. Portuguese smalltalk, matching the traffic
// profile these instances warm up for.
var (
	greetingPool = []string{
		"Oi, tudo bem?", "E aí, beleza?", "Opa!", "Fala!",
		"Bom dia!", "Boa tarde!", "Boa noite!", "Olá!",
	}

	casualMessagePool = []string{
		"Viu o jogo ontem?", "Como tá o tempo aí?",
		"Trabalhando muito?", "Já almoçou?",
		"Que semana corrida!", "Finalmente sexta!",
		"Bora tomar um café?", "Saudade de vocês!",
	}

	contentReactionPool = []string{"👍", "❤️", "😂", "😮", "🔥", "👏", "🙌", "💯"}

	audioClipPool = []string{
		"/assets/audio/oi.ogg",
		"/assets/audio/tudo_bem.ogg",
		"/assets/audio/beleza.ogg",
	}
)

// ContentGenerator draws message payloads uniformly from fixed,
// categorized pools. Stateless beyond the entropy source.
type ContentGenerator struct {
	rng *rand.Rand
}

func NewContentGenerator(rng *rand.Rand) *ContentGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ContentGenerator{rng: rng}
}

func (g *ContentGenerator) Greeting() string {
	return greetingPool[g.rng.Intn(len(greetingPool))]
}

func (g *ContentGenerator) CasualMessage() string {
	return casualMessagePool[g.rng.Intn(len(casualMessagePool))]
}

func (g *ContentGenerator) ReactionEmoji() string {
	return contentReactionPool[g.rng.Intn(len(contentReactionPool))]
}

// AudioClipReference returns the path of a pre-recorded casual voice
// note.
func (g *ContentGenerator) AudioClipReference() string {
	return audioClipPool[g.rng.Intn(len(audioClipPool))]
}
