package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by the sinks.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

func newTopicWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// AlertWriter publishes push alerts for new disasters.
// It implements pipeline.PushNotifier.
type AlertWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewAlertWriter creates a producer for the alert topic.
func NewAlertWriter(brokers []string, topic string, logger *slog.Logger) *AlertWriter {
	return &AlertWriter{writer: newTopicWriter(brokers, topic), logger: logger}
}

// Notify publishes the record as a JSON alert keyed by its id.
func (w *AlertWriter) Notify(ctx context.Context, rec domain.DisasterRecord) error {
	msg, err := serializeAlert(rec)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alert %s: %w", rec.ID, err)
	}
	w.logger.Debug("alert published", "id", rec.ID)
	return nil
}

func (w *AlertWriter) Close() error {
	return w.writer.Close()
}

// serializeAlert marshals a DisasterRecord into a Kafka message.
func serializeAlert(rec domain.DisasterRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize disaster alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(rec.Type)},
			{Key: "alert_level", Value: []byte(rec.AlertLevel)},
			{Key: "status", Value: []byte(rec.Status)},
		},
	}, nil
}

// EmailRequestWriter publishes email requests for a mailer service to deliver.
// It implements pipeline.EmailSender.
type EmailRequestWriter struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewEmailRequestWriter creates a producer for the email request topic.
func NewEmailRequestWriter(brokers []string, topic string, logger *slog.Logger) *EmailRequestWriter {
	return &EmailRequestWriter{writer: newTopicWriter(brokers, topic), logger: logger, now: time.Now}
}

// Send renders and publishes an email request for the record.
func (w *EmailRequestWriter) Send(ctx context.Context, rec domain.DisasterRecord) error {
	req, err := renderEmail(rec, w.now())
	if err != nil {
		return err
	}
	msg, err := serializeEmail(req)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish email request %s: %w", rec.ID, err)
	}
	w.logger.Debug("email request published", "id", rec.ID)
	return nil
}

func (w *EmailRequestWriter) Close() error {
	return w.writer.Close()
}

func serializeEmail(req EmailRequest) (kafkago.Message, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize email request: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(req.DisasterID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_level", Value: []byte(req.AlertLevel)},
			{Key: "requested_at", Value: []byte(req.RequestedAt.Format(time.RFC3339))},
		},
	}, nil
}
