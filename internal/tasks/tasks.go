// Package tasks wires background work through asynq: transactional e-mail
// delivery and the periodic cleanup sweeps.
package tasks

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/hibiken/asynq"

	"github.com/ekalkan/pazaryeri/internal/email"
)

// Task type names. The queue name doubles as a routing key in monitoring.
const (
	TypeEmailDeliver = "email:deliver"
	TypeOrderSweep   = "order:sweep"
	TypeBoostSweep   = "listing:boost:sweep"
)

// NewClient creates an asynq client for enqueuing tasks.
func NewClient(opt asynq.RedisClientOpt) *asynq.Client {
	return asynq.NewClient(opt)
}

// NewEmailTask builds an e-mail delivery task from a message.
func NewEmailTask(m email.Message) (*asynq.Task, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "marshal email payload")
	}
	return asynq.NewTask(TypeEmailDeliver, payload), nil
}

// Enqueuer is the subset of asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
