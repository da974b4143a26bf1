package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/flow"
	"conecta-ongs/internal/infrastructure/payment"
	"conecta-ongs/internal/messages"
	"conecta-ongs/internal/repo"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const EventCopyPixKey = "copy_pix_key"

var (
	sessionsCreatedCounter = metrics.GetOrCreateCounter(`donation_sessions_total{result="created"}`)
	sessionsClosedCounter  = metrics.GetOrCreateCounter(`donation_sessions_total{result="closed"}`)
	recordFailedCounter    = metrics.GetOrCreateCounter(`donation_receipts_total{result="error"}`)
	recordOKCounter        = metrics.GetOrCreateCounter(`donation_receipts_total{result="ok"}`)
)

func simulationCounter(method domain.PaymentMethod) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`donation_simulations_total{method=%q}`, method))
}

// Broadcaster fans session views out to live subscribers.
type Broadcaster interface {
	Publish(sessionID uuid.UUID, payload any)
	Disconnect(sessionID uuid.UUID)
}

// ApprovalPublisher announces approved simulations.
type ApprovalPublisher interface {
	PublishApproved(ctx context.Context, r domain.Receipt) error
}

type DonationService interface {
	Create(mode domain.Mode) flow.View
	View(id uuid.UUID) (flow.View, error)
	Dispatch(id uuid.UUID, req EventRequest) (flow.View, error)
	Close(id uuid.UUID) error
	// CloseAll closes every live session and reports how many there were.
	CloseAll() int
	// IdleSince lists sessions without user input since before the cutoff.
	IdleSince(cutoff time.Time) []uuid.UUID
	Count() int
	Receipts(ctx context.Context, limit, offset int) ([]domain.Receipt, error)
	// Wait blocks until in-flight receipt recording has finished.
	Wait()
}

type DonationConfig struct {
	Overlay flow.Delays
	Sandbox flow.Delays
	PixKey  string
}

type DonationDeps struct {
	Clock       clockwork.Clock
	Gateway     payment.SandboxGateway
	Receipts    repo.ReceiptRepo
	Publisher   ApprovalPublisher
	Broadcaster Broadcaster
	Messages    *messages.Bundle
	Logger      *slog.Logger
}

type donationService struct {
	cfg  DonationConfig
	deps DonationDeps

	mu       sync.RWMutex
	sessions map[uuid.UUID]*flow.Controller

	recorded sync.Map
	inflight sync.WaitGroup
}

func NewDonationService(cfg DonationConfig, deps DonationDeps) DonationService {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Gateway == nil {
		deps.Gateway = payment.NewSandboxGateway(deps.Clock)
	}
	if deps.Messages == nil {
		deps.Messages = messages.Default()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &donationService{
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[uuid.UUID]*flow.Controller),
	}
}

func (s *donationService) Create(mode domain.Mode) flow.View {
	if !mode.Valid() {
		mode = domain.ModeOverlay
	}
	id := uuid.New()

	opts := flow.Options{
		Mode:     mode,
		Delays:   s.cfg.Overlay,
		Clock:    s.deps.Clock,
		PixKey:   s.cfg.PixKey,
		Messages: s.deps.Messages,
		Logger:   s.deps.Logger,
		OnChange: s.onChange,
	}
	if mode == domain.ModeSandbox {
		opts.Delays = s.cfg.Sandbox
		gateway := s.deps.Gateway
		opts.PixKey = gateway.PixCharge(id, decimal.Zero).Key
		opts.PixCode = func(amount decimal.Decimal) string {
			return gateway.PixCharge(id, amount).Payload
		}
	}

	c := flow.NewController(id, opts)
	s.mu.Lock()
	s.sessions[id] = c
	s.mu.Unlock()

	sessionsCreatedCounter.Inc()
	s.deps.Logger.Info("Donation session created", "sessionId", id.String(), "mode", mode)
	return c.View()
}

func (s *donationService) get(id uuid.UUID) (*flow.Controller, error) {
	s.mu.RLock()
	c, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return c, nil
}

func (s *donationService) View(id uuid.UUID) (flow.View, error) {
	c, err := s.get(id)
	if err != nil {
		return flow.View{}, err
	}
	return c.View(), nil
}

// Dispatch applies one user action. Actions that do not apply in the
// current state leave it unchanged and are not errors.
func (s *donationService) Dispatch(id uuid.UUID, req EventRequest) (flow.View, error) {
	c, err := s.get(id)
	if err != nil {
		return flow.View{}, err
	}

	if req.Type == EventCopyPixKey {
		c.CopyPixKey()
		return c.View(), nil
	}

	e, err := req.ToEvent()
	if err != nil {
		return flow.View{}, err
	}
	if err := c.Dispatch(e); err != nil && !errors.Is(err, domain.ErrStaleTransition) {
		return flow.View{}, err
	}
	return c.View(), nil
}

func (s *donationService) Close(id uuid.UUID) error {
	s.mu.Lock()
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	c.Close()
	s.release(id)
	if s.deps.Broadcaster != nil {
		s.deps.Broadcaster.Disconnect(id)
	}
	sessionsClosedCounter.Inc()
	s.deps.Logger.Info("Donation session closed", "sessionId", id.String())
	return nil
}

func (s *donationService) CloseAll() int {
	s.mu.RLock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	closed := 0
	for _, id := range ids {
		if s.Close(id) == nil {
			closed++
		}
	}
	return closed
}

// release drops the gateway state and dedupe keys of a closed session.
func (s *donationService) release(id uuid.UUID) {
	s.deps.Gateway.Release(id)
	prefix := id.String() + ":"
	s.recorded.Range(func(k, _ any) bool {
		if key := k.(string); strings.HasPrefix(key, prefix) {
			s.recorded.Delete(key)
		}
		return true
	})
}

// releaseIfClosed repeats release for a session closed while one of its
// approvals was being recorded.
func (s *donationService) releaseIfClosed(id uuid.UUID) {
	if _, err := s.get(id); errors.Is(err, domain.ErrSessionNotFound) {
		s.release(id)
	}
}

func (s *donationService) IdleSince(cutoff time.Time) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []uuid.UUID
	for id, c := range s.sessions {
		if c.LastActivity().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *donationService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *donationService) Receipts(ctx context.Context, limit, offset int) ([]domain.Receipt, error) {
	if s.deps.Receipts == nil {
		return []domain.Receipt{}, nil
	}
	return s.deps.Receipts.List(ctx, limit, offset)
}

func (s *donationService) Wait() {
	s.inflight.Wait()
}

// onChange runs on the controller's goroutine and must not block.
func (s *donationService) onChange(v flow.View) {
	if s.deps.Broadcaster != nil {
		s.deps.Broadcaster.Publish(v.SessionID, v)
	}
	if v.Status != domain.PaymentApproved {
		return
	}

	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		s.deps.Logger.Error("Unreadable amount in view", "sessionId", v.SessionID.String(), "amount", v.Amount)
		return
	}
	// views still queued when the session closed are not recorded
	if _, err := s.get(v.SessionID); err != nil {
		return
	}
	req := payment.AuthorizeRequest{
		SessionID:  v.SessionID,
		Generation: v.Generation,
		Method:     v.Method,
		Amount:     amount,
		CardLast4:  v.CardLast4,
	}
	// the same approval can be seen again, e.g. when the copied flag expires
	if _, seen := s.recorded.LoadOrStore(req.IdempotencyKey(), struct{}{}); seen {
		return
	}
	simulationCounter(v.Method).Inc()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer s.releaseIfClosed(req.SessionID)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.recordApproval(ctx, req)
	}()
}

// recordApproval stores and announces a receipt. Failures are logged only:
// the session has already moved on.
func (s *donationService) recordApproval(ctx context.Context, req payment.AuthorizeRequest) {
	logger := s.deps.Logger.With("sessionId", req.SessionID.String(), "generation", req.Generation)

	receipt, authorized := s.deps.Gateway.CheckStatus(ctx, req.IdempotencyKey())
	if !authorized {
		var err error
		receipt, err = s.deps.Gateway.Authorize(ctx, req)
		if err != nil {
			recordFailedCounter.Inc()
			logger.Error("Sandbox authorization failed", "error", err)
			return
		}
	}

	if s.deps.Receipts != nil {
		if err := s.deps.Receipts.Save(ctx, &receipt); err != nil {
			recordFailedCounter.Inc()
			logger.Error("Failed to save receipt", "error", err)
			return
		}
	}
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishApproved(ctx, receipt); err != nil {
			logger.Error("Failed to publish approval", "error", err)
		}
	}
	recordOKCounter.Inc()
	logger.Info("Donation approved", "transactionId", receipt.TransactionID, "method", receipt.Method, "amount", receipt.Amount.StringFixed(2))
}

// EventRequest is a user action as it arrives from a client.
type EventRequest struct {
	Type   string `json:"type" binding:"required"`
	Value  string `json:"value"`
	Field  string `json:"field"`
	Method string `json:"method"`
}

func (r EventRequest) ToEvent() (domain.Event, error) {
	switch r.Type {
	case domain.SelectPreset{}.Name():
		v, err := strconv.ParseInt(r.Value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrInvalidEvent, "preset %q", r.Value)
		}
		return domain.SelectPreset{Value: v}, nil
	case domain.SetCustomAmount{}.Name():
		return domain.SetCustomAmount{Raw: r.Value}, nil
	case domain.OpenPopup{}.Name():
		return domain.OpenPopup{}, nil
	case domain.ClosePopup{}.Name():
		return domain.ClosePopup{}, nil
	case domain.ChooseMethod{}.Name():
		return domain.ChooseMethod{Method: domain.PaymentMethod(r.Method)}, nil
	case domain.GoBack{}.Name():
		return domain.GoBack{}, nil
	case domain.SimulatePayment{}.Name():
		return domain.SimulatePayment{}, nil
	case domain.ResetForm{}.Name():
		return domain.ResetForm{}, nil
	case domain.SetCardField{}.Name():
		return domain.SetCardField{Field: domain.CardField(r.Field), Value: r.Value}, nil
	}
	return nil, errors.Wrapf(domain.ErrInvalidEvent, "type %q", r.Type)
}
