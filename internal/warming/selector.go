package warming

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
)

var (
	ErrNoPeers = errors.New("no peers to select from")
)

const (
	// Weight floor so a peer contacted moments ago keeps a small but
	// non-zero chance.
	minInteractionWeight = 60.0

	// Weight for peers never contacted: 30 days in seconds. Strongly
	// prefers spreading traffic to fresh peers.
	neverContactedWeight = 30 * 24 * 3600.0
)

// InteractionHistory is the slice of the message log the selector
// needs: the most recent interaction between two instances in either
// direction.
type InteractionHistory interface {
	LastInteraction(ctx context.Context, instanceID int64, instancePhone string, peerID int64, peerPhone string) (*time.Time, error)
}

/// PeerSelector picks one peer via recency-weighted random selection:
// the longer ago (or never) a peer was talked to, the likelier it is
// chosen.
type PeerSelector struct {
	history InteractionHistory
	rng     *rand.Rand
	now     func() time.Time
}

func NewPeerSelector(history InteractionHistory, rng *rand.Rand) *PeerSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PeerSelector{
		history: history,
		rng:     rng,
		now:     time.Now,
	}
}

// Select returns exactly one peer from the non-empty candidate set,
// sampled proportionally to time since last interaction.
func (s *PeerSelector) Select(ctx context.Context, requester *model.Instance, peers []*model.Instance) (*model.Instance, error) {
	if len(peers) == 0 {
		return nil, ErrNoPeers
	}

	now := s.now()
	weights := make([]float64, len(peers))
	var total float64

	for i, peer := range peers {
		last, err := s.history.LastInteraction(ctx, requester.ID, requester.PhoneNumber, peer.ID, peer.PhoneNumber)
		if err != nil {
			return nil, err
		}

		w := neverContactedWeight
		if last != nil {
			w = now.Sub(*last).Seconds() + minInteractionWeight
			if w < minInteractionWeight {
				w = minInteractionWeight
			}
		}
		weights[i] = w
		total += w
	}

	// Roulette wheel over cumulative weights.
	target := s.rng.Float64() * total
	var cumulative float64
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return peers[i], nil
		}
	}
	return peers[len(peers)-1], nil
}
