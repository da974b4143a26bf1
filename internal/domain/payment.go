package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentForm       PaymentStatus = "FORM"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentApproved   PaymentStatus = "APPROVED"
)

type PaymentMethod string

const (
	MethodPix  PaymentMethod = "PIX"
	MethodCard PaymentMethod = "CARD"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodPix || m == MethodCard
}

// Receipt is the record of one approved simulation. It never refers to a
// real processor transaction.
type Receipt struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"sessionId"`
	Generation    uint64          `json:"generation"`
	TransactionID string          `json:"transactionId"`
	Method        PaymentMethod   `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	CardLast4     string          `json:"cardLast4,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
