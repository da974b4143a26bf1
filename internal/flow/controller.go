package flow

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/messages"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

const DefaultPixKey = "merchantx@example.com"

var staleTransitionCounter = metrics.GetOrCreateCounter(`donation_stale_transitions_total`)

func transitionCounter(event string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`donation_transitions_total{event=%q}`, event))
}

type Delays struct {
	Processing time.Duration
	Reset      time.Duration
	Copied     time.Duration
}

func DefaultDelays(mode domain.Mode) Delays {
	if mode == domain.ModeSandbox {
		return Delays{
			Processing: 3000 * time.Millisecond,
			Copied:     2000 * time.Millisecond,
		}
	}
	return Delays{
		Processing: 2000 * time.Millisecond,
		Reset:      3000 * time.Millisecond,
		Copied:     2000 * time.Millisecond,
	}
}

type Options struct {
	Mode      domain.Mode
	Delays    Delays
	Clock     clockwork.Clock
	Clipboard Clipboard
	PixKey    string
	// PixCode renders the copy-and-paste payload for an amount. Optional.
	PixCode  func(amount decimal.Decimal) string
	Messages *messages.Bundle
	Logger   *slog.Logger
	// OnChange receives every view that differs from the previous one, one
	// at a time and in the order they were produced. It is called without
	// the controller lock held and must not block.
	OnChange func(View)
}

// Controller owns one DonationSession. All inputs, user or timer, go
// through Reduce under one lock, so there is a single writer. Each delayed
// transition is a cancellable timer tagged with the session generation it
// was scheduled for.
type Controller struct {
	mu           sync.Mutex
	session      domain.DonationSession
	delays       Delays
	clock        clockwork.Clock
	clipboard    Clipboard
	pixKey       string
	pixCode      func(decimal.Decimal) string
	msgs         *messages.Bundle
	logger       *slog.Logger
	onChange     func(View)
	pending      clockwork.Timer
	copied       bool
	copyGen      uint64
	copyTimer    clockwork.Timer
	lastActivity time.Time
	closed       bool
	seq          uint64
	outbox       []View
	delivering   bool
}

func NewController(id uuid.UUID, opts Options) *Controller {
	mode := opts.Mode
	if !mode.Valid() {
		mode = domain.ModeOverlay
	}
	delays := opts.Delays
	if delays == (Delays{}) {
		delays = DefaultDelays(mode)
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	clipboard := opts.Clipboard
	if clipboard == nil {
		clipboard = NewMemoryClipboard()
	}
	pixKey := opts.PixKey
	if pixKey == "" {
		pixKey = DefaultPixKey
	}
	msgs := opts.Messages
	if msgs == nil {
		msgs = messages.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		session:      domain.NewDonationSession(id, mode),
		delays:       delays,
		clock:        clock,
		clipboard:    clipboard,
		pixKey:       pixKey,
		pixCode:      opts.PixCode,
		msgs:         msgs,
		logger:       logger.With("sessionId", id.String()),
		onChange:     opts.OnChange,
		lastActivity: clock.Now(),
	}
}

func (c *Controller) ID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ID
}

func (c *Controller) SelectPresetAmount(v int64) { c.apply(domain.SelectPreset{Value: v}) }
func (c *Controller) SetCustomAmount(raw string) { c.apply(domain.SetCustomAmount{Raw: raw}) }
func (c *Controller) OpenMethodPopup()           { c.apply(domain.OpenPopup{}) }
func (c *Controller) CloseMethodPopup()          { c.apply(domain.ClosePopup{}) }
func (c *Controller) GoBack()                    { c.apply(domain.GoBack{}) }
func (c *Controller) SimulatePayment()           { c.apply(domain.SimulatePayment{}) }
func (c *Controller) ResetForm()                 { c.apply(domain.ResetForm{}) }

func (c *Controller) ChooseMethod(m domain.PaymentMethod) {
	c.apply(domain.ChooseMethod{Method: m})
}

func (c *Controller) SetCardField(field domain.CardField, value string) {
	c.apply(domain.SetCardField{Field: field, Value: value})
}

// Dispatch applies a user event. Timer events are rejected: only the
// controller's own timers may emit them.
func (c *Controller) Dispatch(e domain.Event) error {
	switch e.(type) {
	case domain.ProcessingElapsed, domain.ApprovalElapsed:
		return domain.ErrInvalidEvent
	}
	return c.apply(e)
}

func (c *Controller) apply(e domain.Event) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}

	prev := c.session
	next, err := domain.Reduce(prev, e)
	if err != nil {
		c.mu.Unlock()
		if errors.Is(err, domain.ErrStaleTransition) {
			staleTransitionCounter.Inc()
			c.logger.Warn("Discarding stale transition",
				"event", e.Name(), "generation", prev.Generation)
		}
		return err
	}

	c.session = next
	switch e.(type) {
	case domain.ProcessingElapsed, domain.ApprovalElapsed:
	default:
		c.lastActivity = c.clock.Now()
	}

	if next.Generation != prev.Generation {
		c.stopPending()
		c.schedule(next)
		if next.Step != domain.StepPixFlow {
			c.clearCopied()
		}
	}

	if next.Equal(prev) {
		c.mu.Unlock()
		return nil
	}
	view, drain := c.emitLocked()
	c.mu.Unlock()

	transitionCounter(e.Name()).Inc()
	c.logger.Debug("Session transition", "event", e.Name(),
		"screen", view.Screen, "status", view.Status, "generation", view.Generation, "seq", view.Seq)
	if drain {
		c.deliver()
	}
	return nil
}

// emitLocked stamps the next view sequence number and queues the view for
// OnChange. When it reports true the caller must call deliver after
// releasing c.mu. Callers hold c.mu.
func (c *Controller) emitLocked() (View, bool) {
	c.seq++
	view := c.viewLocked()
	if c.onChange == nil {
		return view, false
	}
	c.outbox = append(c.outbox, view)
	if c.delivering {
		return view, false
	}
	c.delivering = true
	return view, true
}

// deliver drains the outbox. Only one goroutine delivers at a time, others
// leave their views queued behind the one being delivered.
func (c *Controller) deliver() {
	for {
		c.mu.Lock()
		if len(c.outbox) == 0 {
			c.delivering = false
			c.mu.Unlock()
			return
		}
		view := c.outbox[0]
		c.outbox[0] = View{}
		c.outbox = c.outbox[1:]
		c.mu.Unlock()

		c.onChange(view)
	}
}

// schedule arms the timer for the state just entered. Callers hold c.mu.
func (c *Controller) schedule(s domain.DonationSession) {
	gen := s.Generation
	switch {
	case s.Status == domain.PaymentProcessing:
		c.pending = c.clock.AfterFunc(c.delays.Processing, func() {
			c.apply(domain.ProcessingElapsed{Generation: gen})
		})
	case s.Status == domain.PaymentApproved && s.Mode == domain.ModeOverlay:
		c.pending = c.clock.AfterFunc(c.delays.Reset, func() {
			c.apply(domain.ApprovalElapsed{Generation: gen})
		})
	}
}

func (c *Controller) stopPending() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

// CopyPixKey writes the pix key to the clipboard and raises the copied
// flag for the configured delay. Copying again restarts the delay.
func (c *Controller) CopyPixKey() {
	c.mu.Lock()
	if c.closed || c.session.Step != domain.StepPixFlow || c.session.Status != domain.PaymentForm {
		c.mu.Unlock()
		return
	}
	if err := c.clipboard.WriteText(c.pixKey); err != nil {
		c.mu.Unlock()
		c.logger.Warn("Clipboard write failed", "error", err)
		return
	}

	c.lastActivity = c.clock.Now()
	c.clearCopied()
	c.copied = true
	gen := c.copyGen
	c.copyTimer = c.clock.AfterFunc(c.delays.Copied, func() {
		c.expireCopied(gen)
	})
	_, drain := c.emitLocked()
	c.mu.Unlock()

	transitionCounter("copy_pix_key").Inc()
	if drain {
		c.deliver()
	}
}

func (c *Controller) expireCopied(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.copyGen || !c.copied {
		c.mu.Unlock()
		return
	}
	c.copied = false
	c.copyTimer = nil
	_, drain := c.emitLocked()
	c.mu.Unlock()

	if drain {
		c.deliver()
	}
}

// clearCopied drops the flag and invalidates its timer. Callers hold c.mu.
func (c *Controller) clearCopied() {
	c.copyGen++
	c.copied = false
	if c.copyTimer != nil {
		c.copyTimer.Stop()
		c.copyTimer = nil
	}
}

// Close cancels every pending timer. Inputs after Close are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopPending()
	c.clearCopied()
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) Session() domain.DonationSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) Copied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied
}

func (c *Controller) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}
