package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/repo"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

var ErrInvalidSignup = errors.New("invalid volunteer signup")

func signupCounter(result string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`volunteer_signups_total{result=%q}`, result))
}

// AddressLookup resolves a CEP. It returns domain.ErrAddressNotFound for
// unknown codes and any other error for transport failures.
type AddressLookup interface {
	Lookup(ctx context.Context, cep string) (domain.Address, error)
}

type SignupRequest struct {
	FullName  string         `json:"fullName" binding:"required"`
	BirthDate string         `json:"birthDate" binding:"required"`
	CPF       string         `json:"cpf" binding:"required"`
	Mobile    string         `json:"mobile" binding:"required"`
	CEP       string         `json:"cep" binding:"required"`
	Address   domain.Address `json:"address"`
	Number    string         `json:"number" binding:"required"`
	Email     string         `json:"email" binding:"required,email"`
	Gender    domain.Gender  `json:"gender" binding:"required"`
}

type VolunteerService interface {
	// ResolveAddress fills the address fields for a CEP. Unknown codes give
	// the "not found" placeholders; an empty CEP gives empty fields.
	ResolveAddress(ctx context.Context, cep string) (domain.Address, error)
	Signup(ctx context.Context, req SignupRequest) (*domain.Volunteer, error)
	List(ctx context.Context, limit, offset int) ([]domain.Volunteer, error)
}

type volunteerService struct {
	repo   repo.VolunteerRepo
	lookup AddressLookup
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewVolunteerService(r repo.VolunteerRepo, lookup AddressLookup, clock clockwork.Clock, logger *slog.Logger) VolunteerService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &volunteerService{repo: r, lookup: lookup, clock: clock, logger: logger}
}

func (s *volunteerService) ResolveAddress(ctx context.Context, cep string) (domain.Address, error) {
	digits := domain.Digits(cep)
	if digits == "" {
		return domain.Address{}, nil
	}

	addr, err := s.lookup.Lookup(ctx, digits)
	if errors.Is(err, domain.ErrAddressNotFound) {
		return domain.NotFoundAddress(), nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Address lookup failed", "cep", digits, "error", err)
		return domain.Address{}, err
	}
	return addr, nil
}

func (s *volunteerService) Signup(ctx context.Context, req SignupRequest) (*domain.Volunteer, error) {
	v, err := s.build(req)
	if err != nil {
		signupCounter("invalid").Inc()
		return nil, err
	}

	if v.Address == (domain.Address{}) {
		// a failed lookup leaves the fields empty; the signup still goes through
		if addr, err := s.ResolveAddress(ctx, v.CEP); err == nil {
			v.Address = addr
		}
	}

	if err := s.repo.Create(ctx, v); err != nil {
		if errors.Is(err, repo.ErrDuplicateVolunteer) {
			signupCounter("duplicate").Inc()
			return nil, err
		}
		signupCounter("error").Inc()
		return nil, errors.Wrap(err, "save volunteer")
	}

	signupCounter("ok").Inc()
	s.logger.InfoContext(ctx, "Volunteer registered", "volunteerId", v.ID.String(), "state", v.Address.State)
	return v, nil
}

func (s *volunteerService) build(req SignupRequest) (*domain.Volunteer, error) {
	birth, err := time.Parse(time.DateOnly, req.BirthDate)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSignup, "birth date %q", req.BirthDate)
	}
	if len(domain.Digits(req.CPF)) != 11 {
		return nil, errors.Wrap(ErrInvalidSignup, "cpf must have 11 digits")
	}
	if n := len(domain.Digits(req.Mobile)); n < 10 || n > 11 {
		return nil, errors.Wrap(ErrInvalidSignup, "mobile must have 10 or 11 digits")
	}
	if len(domain.Digits(req.CEP)) != 8 {
		return nil, errors.Wrap(ErrInvalidSignup, "cep must have 8 digits")
	}
	if !req.Gender.Valid() {
		return nil, errors.Wrapf(ErrInvalidSignup, "gender %q", req.Gender)
	}

	return &domain.Volunteer{
		ID:        uuid.New(),
		FullName:  strings.TrimSpace(req.FullName),
		BirthDate: birth,
		CPF:       domain.MaskCPF(req.CPF),
		Mobile:    domain.MaskMobile(req.Mobile),
		CEP:       domain.MaskCEP(req.CEP),
		Address:   req.Address,
		Number:    strings.TrimSpace(req.Number),
		Email:     strings.TrimSpace(req.Email),
		Gender:    req.Gender,
		CreatedAt: s.clock.Now(),
	}, nil
}

func (s *volunteerService) List(ctx context.Context, limit, offset int) ([]domain.Volunteer, error) {
	return s.repo.List(ctx, limit, offset)
}
