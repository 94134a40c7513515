package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus — статус игровой сессии.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"    // игрок в процессе прохождения
	SessionStatusEnding    SessionStatus = "ending"    // событие концовки показано, прогрессия остановлена
	SessionStatusCompleted SessionStatus = "completed" // прохождение оборвано гибелью игрока
)

// GameSession — активная сессия одного прохождения. Живет в сторе сессий
// между ходами; снапшот целиком попадает в слот сохранения.
type GameSession struct {
	ID       uuid.UUID     `json:"id"`
	PlayerID uuid.UUID     `json:"player_id"`
	Seed     int64         `json:"seed"` // сид ГСЧ сессии, для воспроизводимости
	Status   SessionStatus `json:"status"`

	State          *PlayerState `json:"player"`
	CurrentEventID string       `json:"current_event_id,omitempty"` // пусто = ожидание следующей выборки
	Log            []LogEntry   `json:"log"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendLog дописывает строки хода в журнал сессии.
func (s *GameSession) AppendLog(entries []LogEntry) {
	s.Log = append(s.Log, entries...)
}

// Finished сообщает, что прохождение остановлено: достигнута концовка
// или игрок погиб. Такая сессия доступна для чтения, но не для ходов.
func (s *GameSession) Finished() bool {
	return s.Status != SessionStatusActive
}

// PlayerSave — долговременное сохранение: полный снапшот сессии в слоте.
// Сохранение атомарно целиком; частичных записей не существует.
type PlayerSave struct {
	ID       uuid.UUID    `json:"id" db:"id"`
	PlayerID uuid.UUID    `json:"player_id" db:"player_id"`
	Slot     int          `json:"slot" db:"slot"`
	Session  *GameSession `json:"session" db:"-"`
	SavedAt  time.Time    `json:"saved_at" db:"saved_at"`
}
