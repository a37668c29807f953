package kafka

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/ArchIntel/internal/config"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
	ErrConsumerClosed = errors.New(errors.ErrCodeInternal, "consumer closed")
)

// Handler processes one decoded envelope.  A returned error leaves the
// message committed; the pipeline records failures in the note audit trail
// instead of redelivering poison messages forever.
type Handler func(ctx context.Context, env *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs a fetch/handle/commit loop over one consumer group.
type Consumer struct {
	reader  ReaderInterface
	logger  logging.Logger
	handler Handler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer subscribes the configured group to topics.
func NewConsumer(cfg config.KafkaConfig, topics []string, handler Handler, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka group id required")
	}
	if handler == nil {
		return nil, errors.New(errors.ErrCodeValidation, "handler required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		StartOffset: kafka.FirstOffset,
	})
	return &Consumer{reader: reader, handler: handler, logger: log.Named("kafka.consumer")}, nil
}

// NewConsumerWithReader wraps an existing reader, for tests.
func NewConsumerWithReader(r ReaderInterface, handler Handler, log logging.Logger) *Consumer {
	return &Consumer{reader: r, handler: handler, logger: log}
}

// Start launches the consume loop.  It returns immediately; Stop blocks
// until the loop drains.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.loop(ctx)
	return nil
}

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("failed to fetch message", logging.Err(err))
			continue
		}

		env, err := ParseEnvelope(msg.Value)
		if err != nil {
			c.logger.Warn("skipping undecodable message",
				logging.String("topic", msg.Topic),
				logging.Err(err),
			)
		} else if err := c.handler(ctx, env); err != nil {
			c.logger.Error("handler failed",
				logging.String("topic", msg.Topic),
				logging.String("event_type", env.EventType),
				logging.Err(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit offset", logging.Err(err))
		}
	}
}

// Stop cancels the loop and closes the reader.
func (c *Consumer) Stop() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	c.cancel()
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer stopped")
	return err
}
