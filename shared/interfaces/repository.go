package interfaces

import (
	"context"

	"adventure-server/shared/models"

	"github.com/google/uuid"
)

// PlayerSaveRepository — доступ к слотам сохранений в Postgres.
type PlayerSaveRepository interface {
	// Upsert записывает снапшот в слот, перезаписывая прежнее содержимое.
	Upsert(ctx context.Context, save *models.PlayerSave) error
	// GetByPlayerAndSlot возвращает models.ErrSaveNotFound, если слот пуст.
	GetByPlayerAndSlot(ctx context.Context, playerID uuid.UUID, slot int) (*models.PlayerSave, error)
	// ListByPlayer возвращает занятые слоты игрока, упорядоченные по номеру.
	ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]*models.PlayerSave, error)
	// DeleteByPlayerAndSlot возвращает models.ErrSaveNotFound, если слот пуст.
	DeleteByPlayerAndSlot(ctx context.Context, playerID uuid.UUID, slot int) error
}

// SessionStore — хранилище активных сессий с TTL (Redis).
type SessionStore interface {
	Put(ctx context.Context, session *models.GameSession) error
	// Get возвращает models.ErrSessionNotFound, если сессия не найдена
	// или истекла.
	Get(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// CuePublisher отправляет визуальные подсказки хода во внешнюю шину,
// откуда их забирают клиентские сервисы.
type CuePublisher interface {
	PublishCues(ctx context.Context, sessionID, playerID uuid.UUID, cues []models.Cue) error
	Close() error
}
