package statusproc

import (
	"context"
	"testing"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/internal/queue"
	"github.com/heaterlabs/warming-engine/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusCall struct {
	name   string
	status model.InstanceStatus
}

type fakeInstanceRepo struct {
	err   error
	calls []statusCall
}

func (f *fakeInstanceRepo) SetStatus(_ context.Context, name string, status model.InstanceStatus) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, statusCall{name: name, status: status})
	return nil
}

func queueMessage(data string) *queue.Message {
	return &queue.Message{ID: "1-0", Data: []byte(data)}
}

func TestStatusUpdateProcessor_AppliesUpdate(t *testing.T) {
	repo := &fakeInstanceRepo{}
	p := NewStatusUpdateProcessor(repo)

	err := p.Process(context.Background(), queueMessage(`{"instance_name":"warm-01","status":"connected"}`))
	require.NoError(t, err)

	require.Len(t, repo.calls, 1)
	assert.Equal(t, "warm-01", repo.calls[0].name)
	assert.Equal(t, model.InstanceStatusConnected, repo.calls[0].status)
}

func TestStatusUpdateProcessor_MalformedPayloadFails(t *testing.T) {
	p := NewStatusUpdateProcessor(&fakeInstanceRepo{})

	err := p.Process(context.Background(), queueMessage(`not json`))
	assert.Error(t, err)
}

func TestStatusUpdateProcessor_IncompleteUpdateAcked(t *testing.T) {
	repo := &fakeInstanceRepo{}
	p := NewStatusUpdateProcessor(repo)

	err := p.Process(context.Background(), queueMessage(`{"instance_name":"","status":"connected"}`))
	assert.NoError(t, err)
	assert.Empty(t, repo.calls)
}

func TestStatusUpdateProcessor_UnknownInstanceAcked(t *testing.T) {
	repo := &fakeInstanceRepo{err: repository.ErrInstanceNotFound}
	p := NewStatusUpdateProcessor(repo)

	err := p.Process(context.Background(), queueMessage(`{"instance_name":"ghost","status":"connected"}`))
	assert.NoError(t, err)
}
