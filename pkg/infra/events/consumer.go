// Package events consumes build triggers from Kafka. The topic is a
// trigger transport only: each message names one entity to rebuild, and
// the build path is identical to the HTTP one.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/app/config"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/in"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/metrics"
)

// Trigger is the message payload: one entity to rebuild.
type Trigger struct {
	ResourceType    string `json:"resourceType"`
	ExternalIDScope string `json:"externalIdScope"`
	ExternalID      string `json:"externalId"`
	RequestID       string `json:"requestId"`
}

// Consumer reads build triggers and drives the builder port.
type Consumer struct {
	reader  *kafka.Reader
	builder in.Builder
	metrics *metrics.Metrics
}

// NewConsumer builds a group consumer for the build topic.
func NewConsumer(cfg config.Config, builder in.Builder, m *metrics.Metrics) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaBuildTopic,
			GroupID: cfg.KafkaGroupID,
		}),
		builder: builder,
		metrics: m,
	}
}

// Run consumes until the context is cancelled. Malformed or failing
// messages are logged and committed; the topic is not a retry queue.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	slog.InfoContext(ctx, "build trigger consumer started",
		"topic", c.reader.Config().Topic, "groupId", c.reader.Config().GroupID)

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	status := "ok"
	defer func() {
		if c.metrics != nil {
			c.metrics.TriggersTotal.WithLabelValues(status).Inc()
		}
	}()

	var trigger Trigger
	if err := json.Unmarshal(msg.Value, &trigger); err != nil {
		status = "malformed"
		slog.ErrorContext(ctx, "malformed build trigger", "offset", msg.Offset, "err", err)
		return
	}
	t, ok := domain.ParseResourceType(trigger.ResourceType)
	if !ok {
		status = "malformed"
		slog.ErrorContext(ctx, "build trigger names unknown type",
			"resourceType", trigger.ResourceType, "requestId", trigger.RequestID)
		return
	}

	res, err := c.builder.Build(ctx, in.BuildRequest{
		Type:  t,
		Scope: trigger.ExternalIDScope,
		ID:    trigger.ExternalID,
	})
	if err != nil {
		status = string(domain.KindOf(err))
		slog.ErrorContext(ctx, "triggered build failed",
			"resourceType", string(t),
			"externalIdScope", trigger.ExternalIDScope,
			"externalId", trigger.ExternalID,
			"requestId", trigger.RequestID,
			"err", err)
		return
	}
	if res.Warning != "" {
		status = "partial"
	}
	slog.InfoContext(ctx, "triggered build done",
		"resourceType", string(t),
		"externalKey", res.Aggregation.ExternalKey,
		"reconcileOps", res.ReconcileOps,
		"requestId", trigger.RequestID)
}
