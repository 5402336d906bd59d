package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/repository"
)

// Service writes domain events to the transactional outbox. The worker
// publishes them to the broker out of band.
type Service struct {
	repo repository.OutboxRepository
}

func NewService(repo repository.OutboxRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	event, err := s.build(eventType, payload)
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to write outbox event: %w", err)
	}
	return nil
}

// EmitTx writes the event inside the caller's transaction so it commits or
// rolls back with the domain change it describes.
func (s *Service) EmitTx(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	event, err := s.build(eventType, payload)
	if err != nil {
		return err
	}
	if err := s.repo.CreateTx(ctx, tx, event); err != nil {
		return fmt.Errorf("failed to write outbox event: %w", err)
	}
	return nil
}

func (s *Service) build(eventType string, payload interface{}) (*model.OutboxEvent, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   b,
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
	}, nil
}
