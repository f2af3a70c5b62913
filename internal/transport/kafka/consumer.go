// Package kafka is an optional ingress adapter: it consumes an external
// order.requested-style topic and turns each message into the same
// store+queue write the HTTP POST /orders handler performs, so an order
// can originate from either surface indistinguishably to the engine.
package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"dispatchsvc/internal/domain"
	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/queue"
	"dispatchsvc/internal/store"
)

// OrderRequestedEvent is the wire shape of one order.requested message.
type OrderRequestedEvent struct {
	PickupLat  float64         `json:"pickup_lat"`
	PickupLng  float64         `json:"pickup_lng"`
	DropoffLat float64         `json:"dropoff_lat"`
	DropoffLng float64         `json:"dropoff_lng"`
	Priority   domain.Priority `json:"priority"`
}

// Consumer wraps a sarama consumer group and turns each message on the
// configured topic into a store.CreateOrder + queue.Enqueue pair.
type Consumer struct {
	group  sarama.ConsumerGroup
	topic  string
	store  *store.Store
	queue  *queue.OrderQueue
	logger logx.Logger
}

// NewConsumer builds a Consumer, or returns (nil, nil) when brokers/topic/
// groupID are unset — Kafka ingestion is optional, and an unconfigured
// deployment runs on the HTTP ingress alone.
func NewConsumer(brokers []string, groupID, topic string, st *store.Store, q *queue.OrderQueue, logger logx.Logger) (*Consumer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:  group,
		topic:  topic,
		store:  st,
		queue:  q,
		logger: logger.With(logx.String("component", "kafka_consumer")),
	}, nil
}

// Run consumes until ctx is done, reconnecting the consumer group on
// transient errors.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	h := &groupHandler{c: c}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("consume error", logx.Any("err", err))
			time.Sleep(time.Second)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close releases the underlying consumer group.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var ev OrderRequestedEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			h.c.logger.Warn("bad json, skipping", logx.Any("err", err))
			sess.MarkMessage(msg, "")
			continue
		}

		o, err := h.c.store.CreateOrder(domain.OrderInput{
			Pickup:   domain.Location{Lat: ev.PickupLat, Lng: ev.PickupLng},
			Dropoff:  domain.Location{Lat: ev.DropoffLat, Lng: ev.DropoffLng},
			Priority: ev.Priority,
		}, time.Now())
		if err != nil {
			h.c.logger.Warn("invalid order, skipping", logx.Any("err", err))
			sess.MarkMessage(msg, "")
			continue
		}

		if err := h.c.queue.Enqueue(sess.Context(), o.ID); err != nil {
			h.c.logger.Error("enqueue failed, retrying message", logx.Any("err", err))
			return err
		}

		sess.MarkMessage(msg, "")
	}
	return nil
}
