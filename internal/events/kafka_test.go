package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"conecta-ongs/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func testReceipt() domain.Receipt {
	return domain.Receipt{
		ID:            uuid.New(),
		SessionID:     uuid.New(),
		Generation:    3,
		TransactionID: "MP1700000000000",
		Method:        domain.MethodCard,
		Amount:        decimal.NewFromInt(80),
		CardLast4:     "1111",
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewMessage(t *testing.T) {
	r := testReceipt()

	msg, err := NewMessage(r)
	require.NoError(t, err)
	assert.Equal(t, r.SessionID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, TypeDonationApproved, string(msg.Headers[0].Value))

	var event DonationApproved
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "80.00", event.Amount)
	assert.Equal(t, "CARD", event.Method)
	assert.Equal(t, uint64(3), event.Generation)
	assert.True(t, event.Simulated)
}

func TestKafkaPublisher_PublishApproved(t *testing.T) {
	w := &fakeWriter{}
	p := &kafkaPublisher{writer: w}

	require.NoError(t, p.PublishApproved(context.Background(), testReceipt()))
	assert.Len(t, w.msgs, 1)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &kafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}

	err := p.PublishApproved(context.Background(), testReceipt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewPublisher_NoBrokers(t *testing.T) {
	p := NewPublisher(nil, "donation.approved")
	assert.IsType(t, noopPublisher{}, p)
	assert.NoError(t, p.PublishApproved(context.Background(), testReceipt()))
}
