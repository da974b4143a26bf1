package service

import (
	"context"

	"conecta-ongs/internal/domain"
)

// ReverseGeocoder names the state that contains a coordinate.
type ReverseGeocoder interface {
	StateAt(ctx context.Context, lat, lon float64) (string, error)
}

type DirectoryService interface {
	Search(f domain.NGOFilter) []domain.NGO
	States() []domain.State
	// Locate returns the catalog state for a position, or
	// domain.ErrStateNotFound when the geocoder's answer matches none.
	Locate(ctx context.Context, lat, lon float64) (domain.State, error)
}

type directoryService struct {
	ngos     []domain.NGO
	geocoder ReverseGeocoder
}

func NewDirectoryService(ngos []domain.NGO, geocoder ReverseGeocoder) DirectoryService {
	if ngos == nil {
		ngos = domain.NGOs
	}
	return &directoryService{ngos: ngos, geocoder: geocoder}
}

func (s *directoryService) Search(f domain.NGOFilter) []domain.NGO {
	return domain.FilterNGOs(s.ngos, f)
}

func (s *directoryService) States() []domain.State {
	return domain.States
}

func (s *directoryService) Locate(ctx context.Context, lat, lon float64) (domain.State, error) {
	name, err := s.geocoder.StateAt(ctx, lat, lon)
	if err != nil {
		return domain.State{}, err
	}
	return domain.MatchState(name)
}
