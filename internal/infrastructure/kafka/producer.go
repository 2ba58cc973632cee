package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/furniture-recs/internal/cfg"
	"github.com/DRSN-tech/furniture-recs/internal/usecase"
	"github.com/DRSN-tech/furniture-recs/pkg/e"
	"github.com/DRSN-tech/furniture-recs/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	EventChunkUpserted = "catalog.chunk_upserted"
	EventIngested      = "catalog.ingested"
)

// messageWriter — часть kafka.Writer, которой пользуется Producer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer публикует события загрузки каталога. Ключом сообщения служит id запуска,
// поэтому события одного запуска попадают в одну партицию по порядку.
type Producer struct {
	writer messageWriter
	logger logger.Logger
	cfg    *cfg.KafkaCfg
	now    func() time.Time
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (p *Producer) PublishChunkUpserted(ctx context.Context, ev *usecase.ChunkUpsertedEvent) error {
	ids := make([]any, len(ev.IDs))
	for i, id := range ev.IDs {
		ids[i] = id
	}

	return p.publish(ctx, ev.RunID, EventChunkUpserted, map[string]any{
		"run_id":    ev.RunID,
		"chunk":     ev.Chunk,
		"ids":       ids,
		"committed": ev.Committed,
	})
}

func (p *Producer) PublishIngested(ctx context.Context, ev *usecase.IngestedEvent) error {
	payload := map[string]any{
		"run_id":    ev.RunID,
		"source":    ev.Source,
		"status":    string(ev.Status),
		"total":     ev.Total,
		"committed": ev.Committed,
	}
	if ev.Error != "" {
		payload["error"] = ev.Error
	}

	return p.publish(ctx, ev.RunID, EventIngested, payload)
}

func (p *Producer) publish(ctx context.Context, key, eventType string, payload map[string]any) error {
	value, err := p.GetPayloadBytes(eventType, payload)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	p.logger.Debugf("published %s event for run %s", eventType, key)
	return nil
}

// GetPayloadBytes кодирует событие как google.protobuf.Struct.
func (p *Producer) GetPayloadBytes(eventType string, payload map[string]any) ([]byte, error) {
	body, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	envelope := &structpb.Struct{Fields: map[string]*structpb.Value{
		"event_id":        structpb.NewStringValue(uuid.NewString()),
		"event_type":      structpb.NewStringValue(eventType),
		"event_timestamp": structpb.NewNumberValue(float64(p.now().UnixMilli())),
		"payload":         structpb.NewStructValue(body),
	}}

	return proto.Marshal(envelope)
}

// EnsureTopic создаёт топик, если его ещё нет.
func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
