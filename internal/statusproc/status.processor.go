package statusproc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/internal/queue"
	"github.com/heaterlabs/warming-engine/internal/repository"
	"github.com/heaterlabs/warming-engine/pkg/logger"
	"github.com/heaterlabs/warming-engine/pkg/prom"
)

type InstanceRepository interface {
	SetStatus(ctx context.Context, name string, status model.InstanceStatus) error
}

// StatusUpdateProcessor applies connection state changes from the
// gateway webhook to the instance rows.
type StatusUpdateProcessor struct {
	instanceRepo InstanceRepository
}

func NewStatusUpdateProcessor(instanceRepo InstanceRepository) *StatusUpdateProcessor {
	return &StatusUpdateProcessor{instanceRepo: instanceRepo}
}

func (p *StatusUpdateProcessor) GetType() string {
	return "status-update"
}

// Process applies one status update. Updates are last-write-wins and
// naturally idempotent, so duplicates from queue redelivery are
// harmless.
func (p *StatusUpdateProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	var update model.StatusUpdate
	if err := json.Unmarshal(queueMessage.Data, &update); err != nil {
		logger.Error("failed to unmarshal status update", "error", err)
		return err // move toward DLQ, a malformed payload never parses on retry
	}

	if update.InstanceName == "" || update.Status == "" {
		logger.Warn("dropping incomplete status update", "instance", update.InstanceName, "status", update.Status)
		return nil // ack, nothing to apply
	}

	err := p.instanceRepo.SetStatus(ctx, update.InstanceName, update.Status)
	if err != nil {
		if errors.Is(err, repository.ErrInstanceNotFound) {
			// Webhooks can arrive for instances deleted or never
			// registered here. Retrying cannot help.
			logger.Warn("status update for unknown instance", "instance", update.InstanceName)
			return nil
		}
		logger.Error("failed to apply status update", "instance", update.InstanceName, "error", err)
		return err
	}

	prom.AddStatusUpdate(string(update.Status))
	logger.Info("instance status updated", "instance", update.InstanceName, "status", update.Status)
	return nil
}
