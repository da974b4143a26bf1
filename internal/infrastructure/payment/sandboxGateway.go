package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"conecta-ongs/internal/domain"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// SandboxGateway stands in for a payment processor. It never leaves the
// process: every authorization is approved and recorded in memory.
type SandboxGateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (domain.Receipt, error)
	CheckStatus(ctx context.Context, idempotencyKey string) (domain.Receipt, bool)
	PixCharge(sessionID uuid.UUID, amount decimal.Decimal) PixCharge
	// Release drops everything kept for a closed session.
	Release(sessionID uuid.UUID)
}

type AuthorizeRequest struct {
	SessionID  uuid.UUID
	Generation uint64
	Method     domain.PaymentMethod
	Amount     decimal.Decimal
	CardLast4  string
}

// IdempotencyKey identifies one simulated payment: a session can pay more
// than once, but each pass through Approved has its own generation.
func (r AuthorizeRequest) IdempotencyKey() string {
	return fmt.Sprintf("%s:%d", r.SessionID, r.Generation)
}

type PixCharge struct {
	Key     string `json:"key"`
	Payload string `json:"payload"`
}

type sandboxGateway struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	receipts map[string]domain.Receipt
	pixIDs   map[uuid.UUID]int64
}

func NewSandboxGateway(clock clockwork.Clock) SandboxGateway {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &sandboxGateway{
		clock:    clock,
		receipts: make(map[string]domain.Receipt),
		pixIDs:   make(map[uuid.UUID]int64),
	}
}

func (g *sandboxGateway) Authorize(ctx context.Context, req AuthorizeRequest) (domain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return domain.Receipt{}, err
	}
	key := req.IdempotencyKey()

	g.mu.RLock()
	if r, exists := g.receipts[key]; exists {
		g.mu.RUnlock()
		return r, nil
	}
	g.mu.RUnlock()

	now := g.clock.Now()
	receipt := domain.Receipt{
		ID:            uuid.New(),
		SessionID:     req.SessionID,
		Generation:    req.Generation,
		TransactionID: fmt.Sprintf("MP%d", now.UnixMilli()),
		Method:        req.Method,
		Amount:        req.Amount,
		CreatedAt:     now,
	}
	if req.Method == domain.MethodCard {
		receipt.CardLast4 = req.CardLast4
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// another caller may have won the race
	if r, exists := g.receipts[key]; exists {
		return r, nil
	}
	g.receipts[key] = receipt
	return receipt, nil
}

func (g *sandboxGateway) CheckStatus(ctx context.Context, idempotencyKey string) (domain.Receipt, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, exists := g.receipts[idempotencyKey]
	return r, exists
}

// PixCharge returns the sandbox key and copy-and-paste payload for a
// session. The random part is fixed per session so the key does not change
// while the donor is looking at it.
func (g *sandboxGateway) PixCharge(sessionID uuid.UUID, amount decimal.Decimal) PixCharge {
	g.mu.Lock()
	id, ok := g.pixIDs[sessionID]
	if !ok {
		id = rand.Int64N(1_000_000_000_000)
		g.pixIDs[sessionID] = id
	}
	g.mu.Unlock()

	return PixCharge{
		Key: fmt.Sprintf("conectaongs+teste%d@sandbox.com", id),
		Payload: fmt.Sprintf(
			"00020101021226580014br.gov.bcb.pix0136%d52040000530398654%s5802BR5915CONECTA ONGS6009SAO PAULO62070503***6304",
			id, amount.StringFixed(2),
		),
	}
}

func (g *sandboxGateway) Release(sessionID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.pixIDs, sessionID)
	for key, r := range g.receipts {
		if r.SessionID == sessionID {
			delete(g.receipts, key)
		}
	}
}
