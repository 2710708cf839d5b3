package tasks

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ekalkan/pazaryeri/internal/email"
)

// OrderSweeper deletes terminal orders past their retention window.
type OrderSweeper interface {
	SweepTerminal(ctx context.Context) (int64, error)
}

// BoostSweeper clears expired listing boosts.
type BoostSweeper interface {
	SweepBoosts(ctx context.Context) (int64, error)
}

// Processor holds the dependencies the task handlers need.
type Processor struct {
	sender email.Sender
	orders OrderSweeper
	boosts BoostSweeper
	lg     *zap.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(sender email.Sender, orders OrderSweeper, boosts BoostSweeper, lg *zap.Logger) *Processor {
	return &Processor{sender: sender, orders: orders, boosts: boosts, lg: lg}
}

// HandleEmailDeliver sends one e-mail. A send failure is returned so asynq
// retries with backoff.
func (p *Processor) HandleEmailDeliver(ctx context.Context, t *asynq.Task) error {
	var m email.Message
	if err := json.Unmarshal(t.Payload(), &m); err != nil {
		return errors.Wrap(err, "unmarshal email payload")
	}
	if err := p.sender.Send(ctx, m); err != nil {
		return errors.Wrap(err, "send email")
	}
	p.lg.Info("email delivered", zap.String("to", m.To), zap.String("subject", m.Subject))
	return nil
}

// HandleOrderSweep deletes stale terminal orders.
func (p *Processor) HandleOrderSweep(ctx context.Context, _ *asynq.Task) error {
	n, err := p.orders.SweepTerminal(ctx)
	if err != nil {
		return errors.Wrap(err, "sweep terminal orders")
	}
	p.lg.Info("terminal orders swept", zap.Int64("deleted", n))
	return nil
}

// HandleBoostSweep clears expired boost flags.
func (p *Processor) HandleBoostSweep(ctx context.Context, _ *asynq.Task) error {
	n, err := p.boosts.SweepBoosts(ctx)
	if err != nil {
		return errors.Wrap(err, "sweep expired boosts")
	}
	p.lg.Info("expired boosts cleared", zap.Int64("cleared", n))
	return nil
}

// Mux registers the processor's handlers.
func (p *Processor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDeliver, p.HandleEmailDeliver)
	mux.HandleFunc(TypeOrderSweep, p.HandleOrderSweep)
	mux.HandleFunc(TypeBoostSweep, p.HandleBoostSweep)
	return mux
}

// NewServer configures the asynq worker server.
func NewServer(opt asynq.RedisClientOpt, lg *zap.Logger) *asynq.Server {
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			lg.Error("task failed",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		}),
	})
}

// NewScheduler registers the periodic sweeps. Hourly is frequent enough for
// both retention windows.
func NewScheduler(opt asynq.RedisClientOpt, lg *zap.Logger) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		EnqueueErrorHandler: func(task *asynq.Task, _ []asynq.Option, err error) {
			lg.Error("periodic enqueue failed",
				zap.String("type", task.Type()),
				zap.Error(err),
			)
		},
	})

	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeOrderSweep, nil)); err != nil {
		return nil, errors.Wrap(err, "register order sweep")
	}
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeBoostSweep, nil)); err != nil {
		return nil, errors.Wrap(err, "register boost sweep")
	}
	return scheduler, nil
}
