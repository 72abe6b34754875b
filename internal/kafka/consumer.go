package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/ctf-scoreboard/internal/config"
	"github.com/ctf-scoreboard/internal/domain"
)

// EventHandler applies game events to the cached scoreboards
type EventHandler interface {
	HandleGameEvent(ctx context.Context, event domain.GameEvent) error
}

// applyTimeout bounds the handling of one collapsed batch
const applyTimeout = 10 * time.Second

// Consumer reads game events from a consumer group and hands them to an
// EventHandler in collapsed batches.
type Consumer struct {
	config  *config.KafkaConfig
	handler EventHandler
	logger  *slog.Logger
	group   sarama.ConsumerGroup

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ready     chan struct{}
	readyOnce sync.Once
}

// NewConsumer joins the configured consumer group
func NewConsumer(cfg *config.KafkaConfig, handler EventHandler, logger *slog.Logger) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, newSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("creating consumer group: %w", err)
	}
	return newConsumer(cfg, handler, logger, group), nil
}

// newSaramaConfig starts new groups at the newest offset: older events only
// describe writes that a rebuild from the database already covers.
func newSaramaConfig() *sarama.Config {
	sc := sarama.NewConfig()
	sc.ClientID = "ctf-scoreboard"
	sc.Version = sarama.V3_0_0_0
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategySticky()}
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Return.Errors = true
	return sc
}

func newConsumer(cfg *config.KafkaConfig, handler EventHandler, logger *slog.Logger, group sarama.ConsumerGroup) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		config:  cfg,
		handler: handler,
		logger:  logger,
		group:   group,
		ctx:     ctx,
		cancel:  cancel,
		ready:   make(chan struct{}),
	}
}

// Start runs the consume loop in the background and returns once the first
// session is set up. If that takes longer than the ready timeout the consumer
// is stopped and an error returned.
func (c *Consumer) Start() error {
	c.logger.Info("joining consumer group",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(2)
	go c.consumeLoop()
	go c.logGroupErrors()

	timeout := time.NewTimer(c.config.ReadyTimeout)
	defer timeout.Stop()

	select {
	case <-c.ready:
		c.logger.Info("Kafka consumer ready")
		return nil
	case <-timeout.C:
		_ = c.Stop()
		return fmt.Errorf("consumer group not ready after %s", c.config.ReadyTimeout)
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// consumeLoop rejoins the group after every rebalance until stopped
func (c *Consumer) consumeLoop() {
	defer c.wg.Done()
	handler := &consumerGroupHandler{consumer: c}
	for c.ctx.Err() == nil {
		err := c.group.Consume(c.ctx, []string{c.config.Topic}, handler)
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return
		}
		if err != nil {
			c.logger.Error("consume session ended", "error", err)
		}
	}
}

func (c *Consumer) logGroupErrors() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case err, ok := <-c.group.Errors():
			if !ok {
				return
			}
			c.logger.Error("consumer group error", "error", err)
		}
	}
}

// Stop leaves the group after the current batches are applied
func (c *Consumer) Stop() error {
	c.logger.Info("leaving consumer group")
	c.cancel()
	c.wg.Wait()
	return c.group.Close()
}

type consumerGroupHandler struct {
	consumer *Consumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.consumer.readyOnce.Do(func() { close(h.consumer.ready) })
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim buffers events from a partition and applies them in batches,
// one action per game per batch. Offsets are marked only after the batch
// they belong to has been applied.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	cfg := h.consumer.config
	b := &eventBatch{consumer: h.consumer, session: session}

	tick := time.NewTimer(cfg.BatchTimeout)
	defer tick.Stop()

	for {
		select {
		case <-session.Context().Done():
			b.apply()
			return nil

		case <-tick.C:
			b.apply()
			tick.Reset(cfg.BatchTimeout)

		case msg, ok := <-claim.Messages():
			if !ok {
				b.apply()
				return nil
			}
			b.add(msg)
			if len(b.events) >= cfg.BatchSize {
				b.apply()
				tick.Reset(cfg.BatchTimeout)
			}
		}
	}
}

// eventBatch collects the messages of one partition between applies
type eventBatch struct {
	consumer *Consumer
	session  sarama.ConsumerGroupSession
	messages []*sarama.ConsumerMessage
	events   []domain.GameEvent
}

func (b *eventBatch) add(msg *sarama.ConsumerMessage) {
	b.messages = append(b.messages, msg)

	event, err := decodeEvent(msg.Value)
	if err != nil {
		b.consumer.logger.Warn("skipping game event",
			"error", err,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		return
	}
	b.events = append(b.events, event)
}

func (b *eventBatch) apply() {
	if len(b.messages) == 0 {
		return
	}

	if len(b.events) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		actions := Collapse(b.events)
		for _, event := range actions {
			if err := b.consumer.handler.HandleGameEvent(ctx, event); err != nil {
				b.consumer.logger.Error("failed to apply game event",
					"game_id", event.GameID,
					"type", event.Type,
					"error", err,
				)
			}
		}
		cancel()
		b.consumer.logger.Debug("applied event batch", "events", len(b.events), "games", len(actions))
	}

	for _, msg := range b.messages {
		b.session.MarkMessage(msg, "")
	}
	b.messages = b.messages[:0]
	b.events = b.events[:0]
}

func decodeEvent(data []byte) (domain.GameEvent, error) {
	var event domain.GameEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.GameEvent{}, fmt.Errorf("unmarshaling game event: %w", err)
	}
	if !event.Valid() {
		return domain.GameEvent{}, fmt.Errorf("invalid game event type %q for game %d", event.Type, event.GameID)
	}
	return event, nil
}

// Collapse reduces a batch to one event per game, in order of each game's
// first appearance. A deletion outranks a game update, which outranks every
// other change; among equals the latest wins.
func Collapse(events []domain.GameEvent) []domain.GameEvent {
	index := make(map[int64]int)
	var out []domain.GameEvent
	for _, event := range events {
		i, seen := index[event.GameID]
		if !seen {
			index[event.GameID] = len(out)
			out = append(out, event)
			continue
		}
		if weight(event.Type) >= weight(out[i].Type) {
			out[i] = event
		}
	}
	return out
}

func weight(t domain.GameEventType) int {
	switch t {
	case domain.EventGameDeleted:
		return 2
	case domain.EventGameUpdated:
		return 1
	}
	return 0
}
