// Package query is the read side over the three review collections.
// It always reads committed state from the store; nothing is cached.
package query

import (
	"context"
	"fmt"

	"eventreg/entity"
	"eventreg/internal/storage"
	"eventreg/lib/apperr"
)

type Service struct {
	store storage.Store
}

func New(store storage.Store) *Service {
	return &Service{store: store}
}

// List dispatches on kind and returns a typed slice.
func (s *Service) List(ctx context.Context, kind entity.Kind, f entity.Filter) (interface{}, error) {
	switch kind {
	case entity.KindActivity:
		return s.Activities(ctx, f)
	case entity.KindRegistration:
		return s.Registrations(ctx, f)
	case entity.KindRecord:
		return s.Records(ctx, f)
	default:
		return nil, apperr.New(apperr.CodeValidation, fmt.Sprintf("unknown entity kind %q", kind))
	}
}

func (s *Service) Activities(ctx context.Context, f entity.Filter) ([]entity.Activity, error) {
	items, err := s.store.ListActivities(ctx, f)
	if err != nil {
		return nil, apperr.Storage("list activities", err)
	}
	return items, nil
}

func (s *Service) Registrations(ctx context.Context, f entity.Filter) ([]entity.Registration, error) {
	items, err := s.store.ListRegistrations(ctx, f)
	if err != nil {
		return nil, apperr.Storage("list registrations", err)
	}
	return items, nil
}

func (s *Service) Records(ctx context.Context, f entity.Filter) ([]entity.AchievementRecord, error) {
	items, err := s.store.ListRecords(ctx, f)
	if err != nil {
		return nil, apperr.Storage("list achievement records", err)
	}
	return items, nil
}

// PendingCounts reports how many entities of each kind await review.
func (s *Service) PendingCounts(ctx context.Context) (map[entity.Kind]int, error) {
	pending := entity.Filter{Statuses: []entity.Status{entity.StatusPending}}
	activities, err := s.Activities(ctx, pending)
	if err != nil {
		return nil, err
	}
	registrations, err := s.Registrations(ctx, pending)
	if err != nil {
		return nil, err
	}
	records, err := s.Records(ctx, pending)
	if err != nil {
		return nil, err
	}
	return map[entity.Kind]int{
		entity.KindActivity:     len(activities),
		entity.KindRegistration: len(registrations),
		entity.KindRecord:       len(records),
	}, nil
}
