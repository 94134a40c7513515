package mocks

import (
	"context"

	"adventure-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPlayerSaveRepository — мок interfaces.PlayerSaveRepository.
type MockPlayerSaveRepository struct {
	mock.Mock
}

func (m *MockPlayerSaveRepository) Upsert(ctx context.Context, save *models.PlayerSave) error {
	args := m.Called(ctx, save)
	return args.Error(0)
}

func (m *MockPlayerSaveRepository) GetByPlayerAndSlot(ctx context.Context, playerID uuid.UUID, slot int) (*models.PlayerSave, error) {
	args := m.Called(ctx, playerID, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerSave), args.Error(1)
}

func (m *MockPlayerSaveRepository) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]*models.PlayerSave, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayerSave), args.Error(1)
}

func (m *MockPlayerSaveRepository) DeleteByPlayerAndSlot(ctx context.Context, playerID uuid.UUID, slot int) error {
	args := m.Called(ctx, playerID, slot)
	return args.Error(0)
}

// MockSessionStore — мок interfaces.SessionStore.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Put(ctx context.Context, session *models.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSession), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockCuePublisher — мок interfaces.CuePublisher.
type MockCuePublisher struct {
	mock.Mock
}

func (m *MockCuePublisher) PublishCues(ctx context.Context, sessionID, playerID uuid.UUID, cues []models.Cue) error {
	args := m.Called(ctx, sessionID, playerID, cues)
	return args.Error(0)
}

func (m *MockCuePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
