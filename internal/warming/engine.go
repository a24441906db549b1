package warming

import (
	"context"
	"errors"
	"math/rand"
	"time"
	"unicode/utf8"

	"github.com/heaterlabs/warming-engine/internal/gateway"
	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/internal/repository"
	"github.com/heaterlabs/warming-engine/pkg/logger"
	"github.com/heaterlabs/warming-engine/pkg/prom"
)

const (
	privateMessageWeight = 0.8
	reactionScanLimit    = 5
)

// InstanceStore is the slice of the instance repository the engine
// needs.
type InstanceStore interface {
	Get(ctx context.Context, id int64) (*model.Instance, error)
	GetForUpdate(ctx context.Context, id int64) (*model.Instance, error)
	ListEligiblePeers(ctx context.Context, excludeID int64) ([]*model.Instance, error)
	RecordActivity(ctx context.Context, id int64, now time.Time) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MessageStore appends to and queries the message log.
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) (*model.Message, error)
	RecentWithExternalID(ctx context.Context, instanceID int64, peerNumber string, limit int) ([]*model.Message, error)
}

// SessionStore tracks per-session sent counters.
type SessionStore interface {
	AddSent(ctx context.Context, instanceID int64) error
}

// Gateway is the outbound dispatch surface the engine drives.
type Gateway interface {
	SendText(ctx context.Context, instance, number, text string) ([]byte, error)
	SendReaction(ctx context.Context, instance string, key gateway.ReactionKey, emoji string) ([]byte, error)
	TrySetPresence(ctx context.Context, instance string, presence gateway.PresenceState)
}

// Locker serializes cycles per instance. Acquire returns
// ErrCycleInFlight when the instance is already being cycled.
type Locker interface {
	Acquire(instanceID int64) error
	Release(instanceID int64)
}

// Engine executes one atomic warming decision per instance per tick:
// gate, pick a peer, pick an activity, dispatch, record the outcome.
type Engine struct {
	instances InstanceStore
	messages  MessageStore
	sessions  SessionStore
	gw        Gateway
	locker    Locker

	behavior *Behavior
	content  *ContentGenerator
	selector *PeerSelector
	rng      *rand.Rand

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

type EngineOption func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithSleeper overrides how typing pauses are slept through.
func WithSleeper(sleep func(ctx context.Context, d time.Duration)) EngineOption {
	return func(e *Engine) { e.sleep = sleep }
}

// WithLocker installs a cross-process per-instance cycle lock.
func WithLocker(locker Locker) EngineOption {
	return func(e *Engine) { e.locker = locker }
}

// WithSessions installs session counter tracking.
func WithSessions(sessions SessionStore) EngineOption {
	return func(e *Engine) { e.sessions = sessions }
}

func NewEngine(
	instances InstanceStore,
	messages MessageStore,
	gw Gateway,
	selector *PeerSelector,
	behavior *Behavior,
	content *ContentGenerator,
	rng *rand.Rand,
	opts ...EngineOption,
) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{
		instances: instances,
		messages:  messages,
		gw:        gw,
		behavior:  behavior,
		content:   content,
		selector:  selector,
		rng:       rng,
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// RunCycle executes one warming cycle for the instance. Gate
// failures (disabled, out of window, limit reached, too soon, no
// peers) are silent no-ops; only infrastructure failures surface as
// errors.
func (e *Engine) RunCycle(ctx context.Context, instanceID int64) error {
	if e.locker != nil {
		if err := e.locker.Acquire(instanceID); err != nil {
			if errors.Is(err, ErrCycleInFlight) {
				logger.Debug("cycle already in flight, skipping", "instance_id", instanceID)
				return nil
			}
			return err
		}
		defer e.locker.Release(instanceID)
	}

	instance, err := e.instances.Get(ctx, instanceID)
	if err != nil {
		if errors.Is(err, repository.ErrInstanceNotFound) {
			prom.AddCycleResult("skipped")
			return nil
		}
		return err
	}

	if !e.gateCheck(instance) {
		prom.AddCycleResult("skipped")
		return nil
	}

	peers, err := e.instances.ListEligiblePeers(ctx, instance.ID)
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		prom.AddCycleResult("skipped")
		return nil
	}

	peer, err := e.selector.Select(ctx, instance, peers)
	if err != nil {
		return err
	}

	var counted bool
	if e.rng.Float64() < privateMessageWeight {
		counted = e.sendPrivateMessage(ctx, instance, peer)
	} else {
		e.sendReaction(ctx, instance, peer)
		// A reaction cycle counts as activity even when no target was
		// found or the dispatch failed; only a failed text send is
		// exempt from the stats update.
		counted = true
	}

	if !counted {
		prom.AddCycleResult("error")
		return nil
	}

	if err := e.recordActivity(ctx, instance.ID); err != nil {
		return err
	}
	prom.AddCycleResult("sent")
	return nil
}

// gateCheck runs the short-circuiting eligibility gates that need
// only the instance row.
func (e *Engine) gateCheck(instance *model.Instance) bool {
	if !instance.WarmingEnabled {
		return false
	}

	now := e.now()
	if !withinSchedule(instance.ScheduleStart, instance.ScheduleEnd, now) {
		return false
	}

	if instance.MessagesToday >= instance.DailyLimit {
		return false
	}

	if instance.LastActiveAt != nil {
		if now.Sub(*instance.LastActiveAt) < time.Duration(instance.PrivateDelayMin)*time.Second {
			return false
		}
	}

	return true
}

// withinSchedule reports whether the time of day of now falls in
// [start, end]. A start after end means the window wraps midnight.
func withinSchedule(start, end string, now time.Time) bool {
	startMin, err := model.ParseClock(start)
	if err != nil {
		logger.Warn("invalid schedule start, treating as out of window", "start", start, "error", err)
		return false
	}
	endMin, err := model.ParseClock(end)
	if err != nil {
		logger.Warn("invalid schedule end, treating as out of window", "end", end, "error", err)
		return false
	}

	nowMin := now.Hour()*60 + now.Minute()

	if startMin <= endMin {
		return startMin <= nowMin && nowMin <= endMin
	}
	return nowMin >= startMin || nowMin <= endMin
}

// sendPrivateMessage runs the text activity. Returns whether the
// dispatch succeeded; a failed send must not count toward daily
// limits or look like a completed interaction.
func (e *Engine) sendPrivateMessage(ctx context.Context, sender, receiver *model.Instance) bool {
	e.gw.TrySetPresence(ctx, sender.Name, gateway.PresenceComposing)

	content := e.content.CasualMessage()
	e.sleep(ctx, e.behavior.TypingDelay(utf8.RuneCountInString(content)))

	raw, err := e.gw.SendText(ctx, sender.Name, receiver.PhoneNumber, content)
	if err != nil {
		logger.Error("failed to send warming message",
			"instance", sender.Name,
			"peer", receiver.PhoneNumber,
			"error", err)
		prom.AddDispatchFailure("text")
		e.gw.TrySetPresence(ctx, sender.Name, gateway.PresenceAvailable)
		return false
	}

	e.gw.TrySetPresence(ctx, sender.Name, gateway.PresenceAvailable)

	var externalID *string
	if id := gateway.ExtractMessageID(raw); id != "" {
		externalID = &id
	}

	_, err = e.messages.Create(ctx, &model.Message{
		InstanceID: sender.ID,
		PeerNumber: receiver.PhoneNumber,
		Kind:       model.MessageKindText,
		Content:    content,
		ExternalID: externalID,
	})
	if err != nil {
		// The message left the building; a logging failure must not
		// undo the dispatch accounting.
		logger.Error("failed to log warming message", "instance", sender.Name, "error", err)
	}

	prom.AddMessageSent(string(model.MessageKindText))
	logger.Info("warming message sent",
		"instance", sender.Name,
		"peer", receiver.PhoneNumber,
		"length", len(content))
	return true
}

// sendReaction runs the reaction activity: react to a recent message
// exchanged with the peer, preferring one the peer sent.
func (e *Engine) sendReaction(ctx context.Context, sender, receiver *model.Instance) {
	// Messages the receiver sent toward us come first; reacting to
	// our own sent message is the fallback.
	fromMe := false
	targets, err := e.messages.RecentWithExternalID(ctx, receiver.ID, sender.PhoneNumber, reactionScanLimit)
	if err != nil {
		logger.Error("failed to load reaction targets", "instance", sender.Name, "error", err)
		return
	}
	if len(targets) == 0 {
		fromMe = true
		targets, err = e.messages.RecentWithExternalID(ctx, sender.ID, receiver.PhoneNumber, reactionScanLimit)
		if err != nil {
			logger.Error("failed to load reaction targets", "instance", sender.Name, "error", err)
			return
		}
	}
	if len(targets) == 0 {
		logger.Debug("no reactable message found", "instance", sender.Name, "peer", receiver.PhoneNumber)
		return
	}

	target := targets[e.rng.Intn(len(targets))]
	emoji := e.content.ReactionEmoji()

	key := gateway.ReactionKey{
		RemoteJid: formatJid(receiver.PhoneNumber),
		FromMe:    fromMe,
		ID:        *target.ExternalID,
	}

	if _, err := e.gw.SendReaction(ctx, sender.Name, key, emoji); err != nil {
		logger.Error("failed to send reaction",
			"instance", sender.Name,
			"peer", receiver.PhoneNumber,
			"error", err)
		prom.AddDispatchFailure("reaction")
		return
	}

	_, err = e.messages.Create(ctx, &model.Message{
		InstanceID: sender.ID,
		PeerNumber: receiver.PhoneNumber,
		Kind:       model.MessageKindReaction,
		Content:    emoji,
	})
	if err != nil {
		logger.Error("failed to log reaction", "instance", sender.Name, "error", err)
	}

	prom.AddMessageSent(string(model.MessageKindReaction))
	logger.Info("warming reaction sent",
		"instance", sender.Name,
		"peer", receiver.PhoneNumber,
		"emoji", emoji)
}

// recordActivity bumps the counters under a row lock so overlapping
// invocations cannot double-count.
func (e *Engine) recordActivity(ctx context.Context, instanceID int64) error {
	err := e.instances.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := e.instances.GetForUpdate(ctx, instanceID); err != nil {
			return err
		}
		return e.instances.RecordActivity(ctx, instanceID, e.now())
	})
	if err != nil {
		return err
	}

	if e.sessions != nil {
		if err := e.sessions.AddSent(ctx, instanceID); err != nil {
			logger.Warn("failed to bump session counter", "instance_id", instanceID, "error", err)
		}
	}
	return nil
}

func formatJid(number string) string {
	return number + "@s.whatsapp.net"
}
