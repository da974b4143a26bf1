package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"conecta-ongs/internal/domain"
	"conecta-ongs/internal/repo"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sePraca = domain.Address{
	Street:       "Praça da Sé",
	Neighborhood: "Sé",
	City:         "São Paulo",
	State:        "São Paulo",
}

func newVolunteerService(lookup *stubLookup) (VolunteerService, *memVolunteers) {
	store := newMemVolunteers()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewVolunteerService(store, lookup, clock, logger), store
}

func validSignup() SignupRequest {
	return SignupRequest{
		FullName:  "  Maria da Silva ",
		BirthDate: "1990-05-17",
		CPF:       "12345678901",
		Mobile:    "11987654321",
		CEP:       "01001000",
		Number:    "100",
		Email:     "maria@example.com",
		Gender:    domain.GenderFemale,
	}
}

func TestResolveAddress(t *testing.T) {
	tests := []struct {
		name     string
		cep      string
		lookup   *stubLookup
		expected domain.Address
		wantErr  bool
		calls    int
	}{
		{"found", "01001-000", &stubLookup{addr: sePraca}, sePraca, false, 1},
		{"empty clears", "", &stubLookup{addr: sePraca}, domain.Address{}, false, 0},
		{"not found placeholders", "99999-999", &stubLookup{err: domain.ErrAddressNotFound}, domain.NotFoundAddress(), false, 1},
		{"transport failure clears", "01001-000", &stubLookup{err: errors.New("timeout")}, domain.Address{}, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newVolunteerService(tt.lookup)
			addr, err := svc.ResolveAddress(context.Background(), tt.cep)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, addr)
			assert.Equal(t, tt.calls, tt.lookup.calls)
		})
	}
}

func TestSignup_MasksAndFillsAddress(t *testing.T) {
	svc, store := newVolunteerService(&stubLookup{addr: sePraca})

	v, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	assert.Equal(t, "Maria da Silva", v.FullName)
	assert.Equal(t, "123.456.789-01", v.CPF)
	assert.Equal(t, "(11) 98765-4321", v.Mobile)
	assert.Equal(t, "01001-000", v.CEP)
	assert.Equal(t, sePraca, v.Address)
	assert.Equal(t, 1990, v.BirthDate.Year())

	saved, err := store.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, v.CPF, saved.CPF)
}

func TestSignup_KeepsProvidedAddress(t *testing.T) {
	lookup := &stubLookup{addr: sePraca}
	svc, _ := newVolunteerService(lookup)

	req := validSignup()
	req.Address = domain.Address{Street: "Rua A", City: "Campinas", State: "São Paulo"}
	v, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Rua A", v.Address.Street)
	assert.Equal(t, 0, lookup.calls)
}

func TestSignup_LookupFailureDoesNotBlock(t *testing.T) {
	svc, _ := newVolunteerService(&stubLookup{err: errors.New("viacep down")})

	v, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)
	assert.Equal(t, domain.Address{}, v.Address)
}

func TestSignup_Invalid(t *testing.T) {
	mutate := map[string]func(r *SignupRequest){
		"birth date": func(r *SignupRequest) { r.BirthDate = "17/05/1990" },
		"short cpf":  func(r *SignupRequest) { r.CPF = "123" },
		"mobile":     func(r *SignupRequest) { r.Mobile = "119" },
		"cep":        func(r *SignupRequest) { r.CEP = "0100" },
		"gender":     func(r *SignupRequest) { r.Gender = "outro" },
	}

	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			svc, _ := newVolunteerService(&stubLookup{addr: sePraca})
			req := validSignup()
			fn(&req)
			_, err := svc.Signup(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidSignup)
		})
	}
}

func TestSignup_Duplicate(t *testing.T) {
	svc, _ := newVolunteerService(&stubLookup{addr: sePraca})

	_, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), validSignup())
	assert.ErrorIs(t, err, repo.ErrDuplicateVolunteer)
}
