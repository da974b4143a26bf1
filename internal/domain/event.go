package domain

import "github.com/shopspring/decimal"

// Event is an input to the donation state machine. User actions and timer
// expiries are both events.
type Event interface {
	Name() string
}

type SelectPreset struct{ Value int64 }
type SetCustomAmount struct{ Raw string }
type OpenPopup struct{}
type ClosePopup struct{}
type ChooseMethod struct{ Method PaymentMethod }
type GoBack struct{}
type SimulatePayment struct{}
type ResetForm struct{}
type SetCardField struct {
	Field CardField
	Value string
}

// ProcessingElapsed and ApprovalElapsed are emitted by timers. Generation is
// the session generation captured when the timer was scheduled.
type ProcessingElapsed struct{ Generation uint64 }
type ApprovalElapsed struct{ Generation uint64 }

func (SelectPreset) Name() string      { return "select_preset" }
func (SetCustomAmount) Name() string   { return "set_custom_amount" }
func (OpenPopup) Name() string         { return "open_popup" }
func (ClosePopup) Name() string        { return "close_popup" }
func (ChooseMethod) Name() string      { return "choose_method" }
func (GoBack) Name() string            { return "go_back" }
func (SimulatePayment) Name() string   { return "simulate_payment" }
func (ResetForm) Name() string         { return "reset_form" }
func (SetCardField) Name() string      { return "set_card_field" }
func (ProcessingElapsed) Name() string { return "processing_elapsed" }
func (ApprovalElapsed) Name() string   { return "approval_elapsed" }

// Reduce applies e to s. It is pure: it never schedules anything and never
// touches the clock. Inputs that make no sense in the current state return
// s unchanged with a nil error. The only error is ErrStaleTransition, for
// a timer event whose generation no longer matches, and ErrInvalidEvent for
// an event type the machine does not know.
func Reduce(s DonationSession, e Event) (DonationSession, error) {
	switch ev := e.(type) {
	case SelectPreset:
		if s.Step == StepAmountSelection && isPreset(ev.Value) {
			s.Amount = decimal.NewFromInt(ev.Value)
		}
		return s, nil

	case SetCustomAmount:
		if s.Step == StepAmountSelection {
			s.Amount = ClampAmount(ev.Raw)
		}
		return s, nil

	case OpenPopup:
		if s.Step == StepAmountSelection {
			s.PopupOpen = true
		}
		return s, nil

	case ClosePopup:
		s.PopupOpen = false
		return s, nil

	case ChooseMethod:
		if !s.PopupOpen || !ev.Method.Valid() {
			return s, nil
		}
		s.PopupOpen = false
		if ev.Method == MethodPix {
			return s.enter(StepPixFlow, PaymentForm), nil
		}
		return s.enter(StepCardFlow, PaymentForm), nil

	case GoBack:
		if !s.InFlow() {
			return s, nil
		}
		return s.enter(StepAmountSelection, PaymentForm), nil

	case SimulatePayment:
		if !s.InFlow() || s.Status != PaymentForm {
			return s, nil
		}
		return s.enter(s.Step, PaymentProcessing), nil

	case ResetForm:
		if s.Mode != ModeSandbox || !s.InFlow() || s.Status != PaymentApproved {
			return s, nil
		}
		return s.enter(s.Step, PaymentForm), nil

	case SetCardField:
		if s.Step != StepCardFlow || s.Status != PaymentForm {
			return s, nil
		}
		v := truncateField(ev.Field, ev.Value)
		switch ev.Field {
		case CardNumber:
			s.Card.Number = v
		case CardName:
			s.Card.Name = v
		case CardExpiry:
			s.Card.Expiry = v
		case CardCVV:
			s.Card.CVV = v
		}
		return s, nil

	case ProcessingElapsed:
		if ev.Generation != s.Generation || s.Status != PaymentProcessing {
			return s, ErrStaleTransition
		}
		return s.enter(s.Step, PaymentApproved), nil

	case ApprovalElapsed:
		if ev.Generation != s.Generation || s.Status != PaymentApproved || s.Mode != ModeOverlay {
			return s, ErrStaleTransition
		}
		return s.enter(StepAmountSelection, PaymentForm), nil
	}

	return s, ErrInvalidEvent
}
