package flow

import (
	"conecta-ongs/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Preset struct {
	Value    int64  `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// View is the render instruction for one session state. The view layer
// draws it and sends user actions back as events. Seq grows with every
// emitted view of a session, so a client can drop anything older than what
// it already shows.
type View struct {
	SessionID   uuid.UUID            `json:"sessionId"`
	Generation  uint64               `json:"generation"`
	Seq         uint64               `json:"seq"`
	Mode        domain.Mode          `json:"mode"`
	Screen      domain.Step          `json:"screen"`
	PopupOpen   bool                 `json:"popupOpen"`
	Amount      string               `json:"amount"`
	AmountLabel string               `json:"amountLabel"`
	Presets     []Preset             `json:"presets,omitempty"`
	MinimumNote string               `json:"minimumNote,omitempty"`
	Method      domain.PaymentMethod `json:"method,omitempty"`
	Status      domain.PaymentStatus `json:"status,omitempty"`
	Headline    string               `json:"headline"`
	StatusText  string               `json:"statusText,omitempty"`
	Notice      string               `json:"notice,omitempty"`
	PixKey      string               `json:"pixKey,omitempty"`
	PixCode     string               `json:"pixCode,omitempty"`
	Copied      bool                 `json:"copied"`
	CopyLabel   string               `json:"copyLabel,omitempty"`
	Card        *domain.CardData     `json:"card,omitempty"`
	CardLast4   string               `json:"cardLast4,omitempty"`
	CanReset    bool                 `json:"canReset,omitempty"`
}

func amountLabel(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

// viewLocked renders the current state. Callers hold c.mu.
func (c *Controller) viewLocked() View {
	s := c.session
	v := View{
		SessionID:   s.ID,
		Generation:  s.Generation,
		Seq:         c.seq,
		Mode:        s.Mode,
		Screen:      s.Screen(),
		PopupOpen:   s.PopupOpen,
		Amount:      s.Amount.StringFixed(2),
		AmountLabel: amountLabel(s.Amount),
		Copied:      c.copied,
	}

	switch s.Step {
	case domain.StepAmountSelection:
		v.Headline = c.msgs.Get("headline.amount")
		v.MinimumNote = c.msgs.Get("amount.minimum")
		v.Presets = make([]Preset, 0, len(domain.PresetAmounts))
		for _, p := range domain.PresetAmounts {
			d := decimal.NewFromInt(p)
			v.Presets = append(v.Presets, Preset{
				Value:    p,
				Label:    amountLabel(d),
				Selected: s.Amount.Equal(d),
			})
		}
		if s.PopupOpen {
			v.Headline = c.msgs.Get("headline.popup")
			v.Notice = c.msgs.Get("notice.popup")
		}
		return v

	case domain.StepPixFlow:
		v.Headline = c.msgs.Get("headline.pix")
		v.Notice = c.msgs.Get("notice.pix")
	case domain.StepCardFlow:
		v.Headline = c.msgs.Get("headline.card")
		v.Notice = c.msgs.Get("notice.card")
	}

	v.Method = s.Method()
	v.Status = s.Status

	switch s.Status {
	case domain.PaymentForm:
		v.StatusText = c.msgs.Get("status.form")
		if s.Step == domain.StepPixFlow {
			v.PixKey = c.pixKey
			if c.pixCode != nil {
				v.PixCode = c.pixCode(s.Amount)
			}
			if c.copied {
				v.CopyLabel = c.msgs.Get("pix.copied")
			} else {
				v.CopyLabel = c.msgs.Get("pix.copy")
			}
		} else {
			card := s.Card
			v.Card = &card
		}
	case domain.PaymentProcessing:
		v.StatusText = c.msgs.Get("status.processing")
	case domain.PaymentApproved:
		v.StatusText = c.msgs.Get("status.approved")
		if s.Step == domain.StepCardFlow {
			v.CardLast4 = s.Card.Last4()
		}
		v.CanReset = s.Mode == domain.ModeSandbox
	}
	return v
}
