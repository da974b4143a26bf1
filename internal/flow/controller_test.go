package flow

import (
	"errors"
	"sync"
	"testing"
	"time"

	"conecta-ongs/internal/domain"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = time.Second

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type viewRecorder struct {
	mu    sync.Mutex
	views []View
}

func (r *viewRecorder) record(v View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
}

func (r *viewRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func newTestController(mode domain.Mode) (*Controller, fakeClock, *MemoryClipboard, *viewRecorder) {
	var clock fakeClock = clockwork.NewFakeClock()
	clipboard := NewMemoryClipboard()
	rec := &viewRecorder{}
	c := NewController(uuid.New(), Options{
		Mode:      mode,
		Clock:     clock,
		Clipboard: clipboard,
		OnChange:  rec.record,
	})
	return c, clock, clipboard, rec
}

func waitStatus(t *testing.T, c *Controller, step domain.Step, status domain.PaymentStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		s := c.Session()
		return s.Step == step && s.Status == status
	}, waitFor, time.Millisecond, "waiting for %s[%s]", step, status)
}

func TestController_PresetAmounts(t *testing.T) {
	for _, v := range domain.PresetAmounts {
		c, _, _, _ := newTestController(domain.ModeOverlay)
		c.SelectPresetAmount(v)
		assert.True(t, c.Session().Amount.Equal(decimal.NewFromInt(v)))
	}
}

func TestController_CustomAmount(t *testing.T) {
	c, _, _, _ := newTestController(domain.ModeOverlay)

	c.SetCustomAmount("57.25")
	assert.Equal(t, "57.25", c.View().Amount)

	c.SetCustomAmount("3")
	assert.Equal(t, "10.00", c.View().Amount)

	c.SetCustomAmount("not a number")
	assert.Equal(t, "R$ 10.00", c.View().AmountLabel)
}

func TestController_ChoosePix(t *testing.T) {
	c, _, _, _ := newTestController(domain.ModeOverlay)

	c.OpenMethodPopup()
	assert.Equal(t, domain.StepMethodPopupOpen, c.View().Screen)

	c.ChooseMethod(domain.MethodPix)
	s := c.Session()
	assert.Equal(t, domain.StepPixFlow, s.Step)
	assert.False(t, s.PopupOpen)
	assert.Equal(t, domain.PaymentForm, s.Status)

	v := c.View()
	assert.Equal(t, DefaultPixKey, v.PixKey)
	assert.Equal(t, domain.MethodPix, v.Method)
	assert.Equal(t, "Clique para copiar", v.CopyLabel)
}

func TestController_ProcessingDelay(t *testing.T) {
	c, clock, _, _ := newTestController(domain.ModeOverlay)
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodPix)

	c.SimulatePayment()
	assert.Equal(t, domain.PaymentProcessing, c.Session().Status)

	clock.Advance(1999 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, domain.PaymentProcessing, c.Session().Status)

	clock.Advance(time.Millisecond)
	waitStatus(t, c, domain.StepPixFlow, domain.PaymentApproved)
}

func TestController_CardScenario(t *testing.T) {
	c, clock, _, rec := newTestController(domain.ModeOverlay)

	c.SelectPresetAmount(100)
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodCard)
	c.SimulatePayment()

	clock.Advance(2 * time.Second)
	waitStatus(t, c, domain.StepCardFlow, domain.PaymentApproved)

	s := c.Session()
	assert.True(t, s.Amount.Equal(decimal.NewFromInt(100)))
	v := c.View()
	assert.Equal(t, "1111", v.CardLast4)
	assert.Equal(t, "Pagamento Aprovado!", v.StatusText)
	assert.False(t, v.CanReset)

	clock.Advance(3 * time.Second)
	waitStatus(t, c, domain.StepAmountSelection, domain.PaymentForm)
	assert.Equal(t, domain.DefaultCardData(), c.Session().Card)

	assert.Eventually(t, func() bool { return rec.count() >= 6 }, waitFor, time.Millisecond)
}

func TestController_GoBackCancelsProcessing(t *testing.T) {
	c, clock, _, _ := newTestController(domain.ModeOverlay)
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodPix)
	c.SimulatePayment()

	c.GoBack()
	s := c.Session()
	assert.Equal(t, domain.StepAmountSelection, s.Step)
	assert.Equal(t, domain.PaymentForm, s.Status)

	// a fresh flow must not be approved by the timer of the abandoned one
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodCard)
	clock.Advance(5 * time.Second)
	time.Sleep(10 * time.Millisecond)

	s = c.Session()
	assert.Equal(t, domain.StepCardFlow, s.Step)
	assert.Equal(t, domain.PaymentForm, s.Status)
}

func TestController_GoBackFromApproved(t *testing.T) {
	c, clock, _, _ := newTestController(domain.ModeOverlay)
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodCard)
	c.SimulatePayment()
	clock.Advance(2 * time.Second)
	waitStatus(t, c, domain.StepCardFlow, domain.PaymentApproved)

	c.GoBack()
	s := c.Session()
	assert.Equal(t, domain.StepAmountSelection, s.Step)
	assert.Equal(t, domain.PaymentForm, s.Status)

	gen := s.Generation
	clock.Advance(3 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, gen, c.Session().Generation)
}

func TestController_SandboxTerminal(t *testing.T) {
	c, clock, _, _ := newTestController(domain.ModeSandbox)
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodCard)
	c.SimulatePayment()

	clock.Advance(2 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, domain.PaymentProcessing, c.Session().Status)

	clock.Advance(time.Second)
	waitStatus(t, c, domain.StepCardFlow, domain.PaymentApproved)
	assert.True(t, c.View().CanReset)

	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, domain.PaymentApproved, c.Session().Status)

	c.ResetForm()
	s := c.Session()
	assert.Equal(t, domain.StepCardFlow, s.Step)
	assert.Equal(t, domain.PaymentForm, s.Status)
}

func TestController_CopyPixKey(t *testing.T) {
	c, clock, clipboard, _ := newTestController(domain.ModeOverlay)

	c.CopyPixKey()
	assert.False(t, c.Copied())
	assert.Empty(t, clipboard.Text())

	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodPix)
	before := c.Session()

	c.CopyPixKey()
	assert.True(t, c.Copied())
	assert.Equal(t, DefaultPixKey, clipboard.Text())
	assert.Equal(t, "✓ Copiado!", c.View().CopyLabel)
	assert.True(t, before.Equal(c.Session()))

	clock.Advance(2 * time.Second)
	assert.Eventually(t, func() bool { return !c.Copied() }, waitFor, time.Millisecond)
}

func TestController_CopyAgainRestartsDelay(t *testing.T) {
	c, clock, _, _ := newTestController(domain.ModeOverlay)
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodPix)

	c.CopyPixKey()
	clock.Advance(1500 * time.Millisecond)
	c.CopyPixKey()
	clock.Advance(1000 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, c.Copied())

	clock.Advance(1000 * time.Millisecond)
	assert.Eventually(t, func() bool { return !c.Copied() }, waitFor, time.Millisecond)
}

func TestController_CloseMethodPopupIdempotent(t *testing.T) {
	c, _, _, rec := newTestController(domain.ModeOverlay)
	before := c.Session()

	c.CloseMethodPopup()
	assert.True(t, before.Equal(c.Session()))
	assert.Equal(t, 0, rec.count())
}

func TestController_CloseCancelsTimers(t *testing.T) {
	c, clock, _, _ := newTestController(domain.ModeOverlay)
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodPix)
	c.SimulatePayment()

	c.Close()
	assert.True(t, c.Closed())

	clock.Advance(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, domain.PaymentProcessing, c.Session().Status)

	err := c.Dispatch(domain.GoBack{})
	assert.True(t, errors.Is(err, domain.ErrSessionClosed))
}

func TestController_DispatchRejectsTimerEvents(t *testing.T) {
	c, _, _, _ := newTestController(domain.ModeOverlay)
	err := c.Dispatch(domain.ProcessingElapsed{Generation: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestController_PixCode(t *testing.T) {
	c := NewController(uuid.New(), Options{
		Clock:   clockwork.NewFakeClock(),
		PixCode: func(amount decimal.Decimal) string { return "code-" + amount.StringFixed(2) },
	})
	c.SelectPresetAmount(35)
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodPix)

	assert.Equal(t, "code-35.00", c.View().PixCode)
}

func TestController_AmountView(t *testing.T) {
	c, _, _, _ := newTestController(domain.ModeOverlay)
	c.SelectPresetAmount(80)

	v := c.View()
	require.Len(t, v.Presets, 4)
	assert.Equal(t, "R$ 80.00", v.Presets[1].Label)
	assert.True(t, v.Presets[1].Selected)
	assert.False(t, v.Presets[0].Selected)
	assert.Equal(t, "Valor mínimo: R$ 10,00", v.MinimumNote)
	assert.Empty(t, v.Status)
}

func TestController_DeliversViewsInOrder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	release := make(chan struct{})
	stalled := make(chan struct{})

	var mu sync.Mutex
	var delivered []View
	c := NewController(uuid.New(), Options{
		Mode:  domain.ModeOverlay,
		Clock: clock,
		OnChange: func(v View) {
			if v.Status == domain.PaymentApproved {
				close(stalled)
				<-release
			}
			mu.Lock()
			delivered = append(delivered, v)
			mu.Unlock()
		},
	})
	c.OpenMethodPopup()
	c.ChooseMethod(domain.MethodCard)
	c.SimulatePayment()

	// the approval listener stalls on the timer goroutine
	clock.Advance(2 * time.Second)
	select {
	case <-stalled:
	case <-time.After(waitFor):
		t.Fatal("approval was never delivered")
	}

	// GoBack must not wait for the stalled delivery
	done := make(chan struct{})
	go func() {
		c.GoBack()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("GoBack blocked behind a listener")
	}
	close(release)

	final := c.Session()
	assert.Equal(t, domain.StepAmountSelection, final.Step)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		last := delivered[len(delivered)-1]
		return last.Generation == final.Generation && last.Screen == domain.StepAmountSelection
	}, waitFor, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(delivered); i++ {
		assert.Greater(t, delivered[i].Seq, delivered[i-1].Seq)
	}
}

func TestController_ViewSeqTracksEmittedViews(t *testing.T) {
	c, _, _, rec := newTestController(domain.ModeOverlay)
	assert.Zero(t, c.View().Seq)

	c.OpenMethodPopup()
	c.CloseMethodPopup()
	c.CloseMethodPopup()

	assert.Equal(t, uint64(2), c.View().Seq)
	assert.Equal(t, 2, rec.count())
}
