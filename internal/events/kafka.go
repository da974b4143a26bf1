package events

import (
	"context"
	"encoding/json"
	"time"

	"conecta-ongs/internal/domain"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const TypeDonationApproved = "donation.approved"

var (
	publishedCounter     = metrics.GetOrCreateCounter(`donation_events_published_total{result="ok"}`)
	publishFailedCounter = metrics.GetOrCreateCounter(`donation_events_published_total{result="error"}`)
)

// Publisher announces approved simulated donations to downstream consumers.
type Publisher interface {
	PublishApproved(ctx context.Context, r domain.Receipt) error
	Close() error
}

type DonationApproved struct {
	Type          string    `json:"type"`
	ReceiptID     string    `json:"receiptId"`
	SessionID     string    `json:"sessionId"`
	Generation    uint64    `json:"generation"`
	TransactionID string    `json:"transactionId"`
	Method        string    `json:"method"`
	Amount        string    `json:"amount"`
	CardLast4     string    `json:"cardLast4,omitempty"`
	ApprovedAt    time.Time `json:"approvedAt"`
	Simulated     bool      `json:"simulated"`
}

// NewMessage keys the message by session so every event of one session lands
// on the same partition.
func NewMessage(r domain.Receipt) (kafka.Message, error) {
	payload, err := json.Marshal(DonationApproved{
		Type:          TypeDonationApproved,
		ReceiptID:     r.ID.String(),
		SessionID:     r.SessionID.String(),
		Generation:    r.Generation,
		TransactionID: r.TransactionID,
		Method:        string(r.Method),
		Amount:        r.Amount.StringFixed(2),
		CardLast4:     r.CardLast4,
		ApprovedAt:    r.CreatedAt,
		Simulated:     true,
	})
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal donation event")
	}

	return kafka.Message{
		Key:   []byte(r.SessionID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeDonationApproved)},
		},
	}, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.ReferenceHash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           100 * time.Millisecond,
		Async:                  false,
		AllowAutoTopicCreation: false,
	}
}

// NewPublisher returns a no-op publisher when no brokers are configured.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return noopPublisher{}
	}
	return &kafkaPublisher{writer: NewWriter(brokers, topic)}
}

func (p *kafkaPublisher) PublishApproved(ctx context.Context, r domain.Receipt) error {
	msg, err := NewMessage(r)
	if err != nil {
		publishFailedCounter.Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		publishFailedCounter.Inc()
		return errors.Wrap(err, "write donation event")
	}
	publishedCounter.Inc()
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

func (noopPublisher) PublishApproved(context.Context, domain.Receipt) error { return nil }
func (noopPublisher) Close() error                                          { return nil }
