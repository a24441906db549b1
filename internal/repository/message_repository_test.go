package repository

import (
	"context"
	"testing"
	"time"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMessageRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	msg := &model.Message{
		InstanceID: 1,
		PeerNumber: "5511999990002",
		Kind:       model.MessageKindText,
		Content:    "Bora tomar um café?",
		ExternalID: strPtr("3EB0ABC123"),
	}

	created, err := repo.Create(ctx, msg)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.MessageKindText, created.Kind)
	require.NotNil(t, created.ExternalID)
	assert.Equal(t, "3EB0ABC123", *created.ExternalID)
	assert.NotZero(t, created.CreatedAt)
}

func TestMessageRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	instanceID := int64(100)
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &model.Message{
			InstanceID: instanceID,
			PeerNumber: "222",
			Kind:       model.MessageKindText,
			Content:    "hey",
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	_, err := repo.Create(ctx, &model.Message{
		InstanceID: instanceID,
		PeerNumber: "333",
		Kind:       model.MessageKindReaction,
		Content:    "🔥",
	})
	require.NoError(t, err)

	t.Run("filter by instance", func(t *testing.T) {
		msgs, total, err := repo.List(ctx, model.MessageFilter{InstanceID: &instanceID, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		assert.Len(t, msgs, 6)
	})

	t.Run("filter by peer", func(t *testing.T) {
		peer := "333"
		msgs, total, err := repo.List(ctx, model.MessageFilter{InstanceID: &instanceID, PeerNumber: &peer, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, model.MessageKindReaction, msgs[0].Kind)
	})

	t.Run("filter by kind with pagination", func(t *testing.T) {
		kind := model.MessageKindText
		msgs, total, err := repo.List(ctx, model.MessageFilter{InstanceID: &instanceID, Kind: &kind, Limit: 2, Desc: true})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, msgs, 2)
	})
}

func TestMessageRepository_LastInteraction(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	const (
		meID      = int64(1)
		mePhone   = "111"
		peerID    = int64(2)
		peerPhone = "222"
	)

	t.Run("no history", func(t *testing.T) {
		ts, err := repo.LastInteraction(ctx, meID, mePhone, peerID, peerPhone)
		require.NoError(t, err)
		assert.Nil(t, ts)
	})

	// Outbound: me -> peer
	_, err := repo.Create(ctx, &model.Message{
		InstanceID: meID,
		PeerNumber: peerPhone,
		Kind:       model.MessageKindText,
		Content:    "oi",
	})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	// Inbound direction: peer -> me, more recent
	_, err = repo.Create(ctx, &model.Message{
		InstanceID: peerID,
		PeerNumber: mePhone,
		Kind:       model.MessageKindText,
		Content:    "opa",
	})
	require.NoError(t, err)

	t.Run("picks most recent across both directions", func(t *testing.T) {
		ts, err := repo.LastInteraction(ctx, meID, mePhone, peerID, peerPhone)
		require.NoError(t, err)
		require.NotNil(t, ts)

		msgs, _, err := repo.List(ctx, model.MessageFilter{Limit: 10, Desc: true})
		require.NoError(t, err)
		assert.WithinDuration(t, msgs[0].CreatedAt, *ts, time.Millisecond)
	})
}

func TestMessageRepository_RecentWithExternalID(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewMessageRepository(db)
	ctx := context.Background()

	ownerID := int64(7)
	peer := "555"

	// Three with external ids, one without, one for another peer.
	for i, ext := range []string{"EXT1", "EXT2", "EXT3"} {
		_, err := repo.Create(ctx, &model.Message{
			InstanceID: ownerID,
			PeerNumber: peer,
			Kind:       model.MessageKindText,
			Content:    "msg",
			ExternalID: strPtr(ext),
		})
		require.NoError(t, err)
		_ = i
		time.Sleep(5 * time.Millisecond)
	}
	_, err := repo.Create(ctx, &model.Message{
		InstanceID: ownerID,
		PeerNumber: peer,
		Kind:       model.MessageKindReaction,
		Content:    "👍",
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Message{
		InstanceID: ownerID,
		PeerNumber: "other",
		Kind:       model.MessageKindText,
		Content:    "msg",
		ExternalID: strPtr("EXT9"),
	})
	require.NoError(t, err)

	msgs, err := repo.RecentWithExternalID(ctx, ownerID, peer, 5)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for _, m := range msgs {
		require.NotNil(t, m.ExternalID)
		assert.Equal(t, peer, m.PeerNumber)
	}
	// Ordered newest first.
	assert.Equal(t, "EXT3", *msgs[0].ExternalID)

	t.Run("limit respected", func(t *testing.T) {
		msgs, err := repo.RecentWithExternalID(ctx, ownerID, peer, 2)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
	})
}
