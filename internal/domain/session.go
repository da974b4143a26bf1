package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Step string

const (
	StepAmountSelection Step = "AMOUNT_SELECTION"
	// StepMethodPopupOpen is only ever reported by Screen. The stored Step
	// stays AMOUNT_SELECTION while the popup is visible.
	StepMethodPopupOpen Step = "METHOD_POPUP_OPEN"
	StepPixFlow         Step = "PIX_FLOW"
	StepCardFlow        Step = "CARD_FLOW"
)

// Mode selects between the amount/method overlay flow, which resets itself
// after approval, and the standalone sandbox flow, where approval is
// terminal until ResetForm.
type Mode string

const (
	ModeOverlay Mode = "OVERLAY"
	ModeSandbox Mode = "SANDBOX"
)

func (m Mode) Valid() bool {
	return m == ModeOverlay || m == ModeSandbox
}

var (
	MinAmount     = decimal.NewFromInt(10)
	PresetAmounts = []int64{35, 80, 100, 150}
)

type CardField string

const (
	CardNumber CardField = "number"
	CardName   CardField = "name"
	CardExpiry CardField = "expiry"
	CardCVV    CardField = "cvv"
)

// max input lengths of the card form; zero means unbounded
var cardFieldLimits = map[CardField]int{
	CardNumber: 19,
	CardName:   0,
	CardExpiry: 5,
	CardCVV:    3,
}

type CardData struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

func DefaultCardData() CardData {
	return CardData{
		Number: "4111 1111 1111 1111",
		Name:   "Nome Completo",
		Expiry: "12/30",
		CVV:    "123",
	}
}

// Last4 returns the last four characters of the card number, as shown on
// the approval screen.
func (c CardData) Last4() string {
	r := []rune(c.Number)
	if len(r) <= 4 {
		return string(r)
	}
	return string(r[len(r)-4:])
}

type DonationSession struct {
	ID         uuid.UUID
	Mode       Mode
	Amount     decimal.Decimal
	Step       Step
	PopupOpen  bool
	Status     PaymentStatus
	Card       CardData
	Generation uint64
}

func NewDonationSession(id uuid.UUID, mode Mode) DonationSession {
	if !mode.Valid() {
		mode = ModeOverlay
	}
	return DonationSession{
		ID:     id,
		Mode:   mode,
		Amount: MinAmount,
		Step:   StepAmountSelection,
		Status: PaymentForm,
		Card:   DefaultCardData(),
	}
}

// Screen is the step as the view layer sees it: the popup overlays the
// amount selection.
func (s DonationSession) Screen() Step {
	if s.PopupOpen && s.Step == StepAmountSelection {
		return StepMethodPopupOpen
	}
	return s.Step
}

func (s DonationSession) InFlow() bool {
	return s.Step == StepPixFlow || s.Step == StepCardFlow
}

func (s DonationSession) Method() PaymentMethod {
	switch s.Step {
	case StepPixFlow:
		return MethodPix
	case StepCardFlow:
		return MethodCard
	}
	return ""
}

// enter moves to (step, status) and bumps the generation when either
// changes, which invalidates every delayed transition scheduled before.
func (s DonationSession) enter(step Step, status PaymentStatus) DonationSession {
	if s.Step == step && s.Status == status {
		return s
	}
	s.Step = step
	s.Status = status
	s.Generation++
	if step == StepAmountSelection {
		s.Card = DefaultCardData()
	}
	return s
}

// ClampAmount parses a custom amount. Anything that is not a number, or is
// below the floor, becomes the floor.
func ClampAmount(raw string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || v.LessThan(MinAmount) {
		return MinAmount
	}
	return v
}

func isPreset(v int64) bool {
	for _, p := range PresetAmounts {
		if p == v {
			return true
		}
	}
	return false
}

func truncateField(field CardField, value string) string {
	limit := cardFieldLimits[field]
	r := []rune(value)
	if limit > 0 && len(r) > limit {
		return string(r[:limit])
	}
	return value
}

// Equal reports whether two sessions would render the same.
func (s DonationSession) Equal(o DonationSession) bool {
	return s.ID == o.ID &&
		s.Mode == o.Mode &&
		s.Amount.Equal(o.Amount) &&
		s.Step == o.Step &&
		s.PopupOpen == o.PopupOpen &&
		s.Status == o.Status &&
		s.Card == o.Card &&
		s.Generation == o.Generation
}
