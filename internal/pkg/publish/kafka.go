// Package publish ships each run's output to Kafka as one batch message.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// BatchMessage is the payload written for every run.
type BatchMessage struct {
	BatchID         string                    `json:"batch_id"`
	RunID           string                    `json:"run_id"`
	Date            string                    `json:"date"`
	Timestamp       time.Time                 `json:"timestamp"`
	Recommendations []models.Recommendation   `json:"recommendations"`
	ValueBets       []models.PredictionResult `json:"value_bets"`
}

// kafkaWriter interface for Kafka writer abstraction
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes run batches to one topic.
type KafkaPublisher struct {
	writer kafkaWriter
	topic  string
}

func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 100 * time.Millisecond,
		Compression:  kafka.Snappy,
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic}, nil
}

// PublishRun writes recommendations and value-bet predictions of a run.
// Predictions without a value bet are left out. Nothing is written for an
// empty run.
func (p *KafkaPublisher) PublishRun(ctx context.Context, runID string, day time.Time, recs []models.Recommendation, preds []models.PredictionResult) error {
	if p == nil {
		return nil
	}

	msg := BatchMessage{
		BatchID:         uuid.New().String(),
		RunID:           runID,
		Date:            day.UTC().Format("2006-01-02"),
		Timestamp:       time.Now().UTC(),
		Recommendations: recs,
	}
	for _, pr := range preds {
		if pr.ValueBet != nil {
			msg.ValueBets = append(msg.ValueBets, pr)
		}
	}
	if len(msg.Recommendations) == 0 && len(msg.ValueBets) == 0 {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	kafkaMsg := kafka.Message{
		Key:   []byte(msg.Date),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "batch_id", Value: []byte(msg.BatchID)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "timestamp", Value: []byte(msg.Timestamp.Format(time.RFC3339))},
			{Key: "count", Value: []byte(strconv.Itoa(len(msg.Recommendations) + len(msg.ValueBets)))},
		},
	}
	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return fmt.Errorf("failed to write to Kafka: %w", err)
	}

	slog.Info("Published run batch",
		"topic", p.topic,
		"batch_id", msg.BatchID,
		"recommendations", len(msg.Recommendations),
		"value_bets", len(msg.ValueBets))
	return nil
}

// Close closes the Kafka writer
func (p *KafkaPublisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
