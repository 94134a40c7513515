package service

import (
	"context"
	"time"

	"adventure-server/engine-service/internal/engine"
	"adventure-server/shared/interfaces"
	"adventure-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxSaveSlot — верхняя граница номера слота сохранения.
const MaxSaveSlot = 10

// PlayerView — срез состояния игрока для ответов API.
type PlayerView struct {
	HP        int      `json:"hp"`
	Atk       int      `json:"atk"`
	Def       int      `json:"def"`
	Inventory []string `json:"inventory"`
	Fate      int      `json:"fate"`
	Chapter   int      `json:"chapter"`
	Steps     int      `json:"steps"`
	GameOver  bool     `json:"game_over"`
}

// EventView — активное событие глазами клиента: текст и подписи опций,
// без результатов. Механика выбора остается на сервере.
type EventView struct {
	ID         string           `json:"id"`
	Type       models.EventType `json:"type"`
	Text       string           `json:"text,omitempty"`
	Background string           `json:"background,omitempty"`
	Options    []string         `json:"options"`
	Enemy      *models.Enemy    `json:"enemy,omitempty"`
}

// GameView — снимок сессии целиком (создание, чтение, загрузка).
type GameView struct {
	SessionID    uuid.UUID            `json:"session_id"`
	Status       models.SessionStatus `json:"status"`
	Player       PlayerView           `json:"player"`
	CurrentEvent *EventView           `json:"current_event,omitempty"`
	Log          []models.LogEntry    `json:"log"`
}

// TurnView — итог одного хода: что произошло и что стало с игроком.
type TurnView struct {
	SessionID uuid.UUID            `json:"session_id"`
	Status    models.SessionStatus `json:"status"`
	Turn      *engine.TurnResult   `json:"turn"`
	Event     *EventView           `json:"event,omitempty"`
	Player    PlayerView           `json:"player"`
}

// GameService определяет бизнес-логику игровых сессий.
type GameService interface {
	NewGame(ctx context.Context, playerID uuid.UUID) (*GameView, error)
	GetGame(ctx context.Context, playerID, sessionID uuid.UUID) (*GameView, error)
	NextEvent(ctx context.Context, playerID, sessionID uuid.UUID) (*TurnView, error)
	ChooseOption(ctx context.Context, playerID, sessionID uuid.UUID, optionIndex int) (*TurnView, error)
	BattleAction(ctx context.Context, playerID, sessionID uuid.UUID, action string) (*TurnView, error)
	SaveGame(ctx context.Context, playerID, sessionID uuid.UUID, slot int) (*models.PlayerSave, error)
	LoadGame(ctx context.Context, playerID uuid.UUID, slot int) (*GameView, error)
	ListSaves(ctx context.Context, playerID uuid.UUID) ([]*models.PlayerSave, error)
	DeleteSave(ctx context.Context, playerID uuid.UUID, slot int) error
}

type gameServiceImpl struct {
	catalog  *engine.Catalog
	sessions interfaces.SessionStore
	saves    interfaces.PlayerSaveRepository
	cues     interfaces.CuePublisher
	logger   *zap.Logger
}

// NewGameService создает сервис игровых сессий.
func NewGameService(
	catalog *engine.Catalog,
	sessions interfaces.SessionStore,
	saves interfaces.PlayerSaveRepository,
	cues interfaces.CuePublisher,
	logger *zap.Logger,
) GameService {
	return &gameServiceImpl{
		catalog:  catalog,
		sessions: sessions,
		saves:    saves,
		cues:     cues,
		logger:   logger.Named("GameService"),
	}
}

// engineFor строит движок с детерминированным потоком случайности:
// сид сессии плюс номер шага дают воспроизводимые ходы при повторе
// с того же снапшота.
func (s *gameServiceImpl) engineFor(session *models.GameSession) *engine.Engine {
	seed := session.Seed + int64(session.State.Steps)
	return engine.New(s.catalog, engine.NewRand(seed), s.logger)
}

func playerView(state *models.PlayerState) PlayerView {
	return PlayerView{
		HP:        state.HP,
		Atk:       state.Atk,
		Def:       state.Def,
		Inventory: state.Inventory,
		Fate:      state.Fate,
		Chapter:   state.Chapter,
		Steps:     state.Steps,
		GameOver:  state.GameOver,
	}
}

func eventView(event *models.Event, state *models.PlayerState) *EventView {
	if event == nil {
		return nil
	}
	options := make([]string, 0, len(event.Options))
	for _, option := range event.Options {
		options = append(options, option.Text)
	}
	view := &EventView{
		ID:         event.ID,
		Type:       event.Type,
		Text:       event.Text,
		Background: event.Background,
		Options:    options,
	}
	if state.Battle != nil && state.Battle.Active && state.Battle.EventID == event.ID {
		view.Enemy = &state.Battle.Enemy
	}
	return view
}

func (s *gameServiceImpl) gameView(session *models.GameSession) *GameView {
	view := &GameView{
		SessionID: session.ID,
		Status:    session.Status,
		Player:    playerView(session.State),
		Log:       session.Log,
	}
	if session.CurrentEventID != "" {
		if event, ok := s.catalog.Get(session.CurrentEventID); ok {
			view.CurrentEvent = eventView(event, session.State)
		}
	}
	return view
}

// loadOwnedSession достает сессию и проверяет, что она принадлежит игроку.
func (s *gameServiceImpl) loadOwnedSession(ctx context.Context, playerID, sessionID uuid.UUID) (*models.GameSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.PlayerID != playerID {
		s.logger.Warn("Session ownership check failed",
			zap.String("sessionID", sessionID.String()),
			zap.String("playerID", playerID.String()))
		return nil, models.ErrForbidden
	}
	return session, nil
}

// publishCues отправляет подсказки хода в шину. Ошибка публикации не
// ломает ход: подсказки дублируются в ответе API.
func (s *gameServiceImpl) publishCues(ctx context.Context, session *models.GameSession, cues []models.Cue) {
	if len(cues) == 0 {
		return
	}
	if err := s.cues.PublishCues(ctx, session.ID, session.PlayerID, cues); err != nil {
		s.logger.Warn("Failed to publish turn cues",
			zap.String("sessionID", session.ID.String()), zap.Error(err))
	}
}

// NewGame создает новую сессию с начальным состоянием. Первое событие
// выдается отдельным вызовом NextEvent.
func (s *gameServiceImpl) NewGame(ctx context.Context, playerID uuid.UUID) (*GameView, error) {
	now := time.Now().UTC()
	session := &models.GameSession{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Seed:      now.UnixNano(),
		Status:    models.SessionStatusActive,
		State:     models.NewPlayerState(),
		Log:       []models.LogEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("New game session created",
		zap.String("sessionID", session.ID.String()),
		zap.String("playerID", playerID.String()))
	return s.gameView(session), nil
}

// GetGame возвращает текущий снимок сессии.
func (s *gameServiceImpl) GetGame(ctx context.Context, playerID, sessionID uuid.UUID) (*GameView, error) {
	session, err := s.loadOwnedSession(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.gameView(session), nil
}

// NextEvent выбирает следующее событие сессии. Пока активно событие с
// опциями или идет бой, новый выбор запрещен.
func (s *gameServiceImpl) NextEvent(ctx context.Context, playerID, sessionID uuid.UUID) (*TurnView, error) {
	session, err := s.loadOwnedSession(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Finished() {
		return nil, models.ErrGameCompleted
	}
	if engine.IsBattleActive(session.State) {
		return nil, models.ErrSessionConflict
	}
	if session.CurrentEventID != "" {
		if pending, ok := s.catalog.Get(session.CurrentEventID); ok && len(pending.Options) > 0 {
			return nil, models.ErrSessionConflict
		}
	}

	eng := s.engineFor(session)
	turn := engine.NewTurn()
	event := eng.NextEvent(session.State, nil, turn)

	session.CurrentEventID = ""
	if event != nil {
		// Текстовая сцена без опций завершается сама, выбора не требуется.
		if len(event.Options) > 0 || event.Type == models.EventTypeBattle {
			session.CurrentEventID = event.ID
		}
	}
	session.AppendLog(turn.Entries())

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	s.publishCues(ctx, session, turn.Cues())

	return &TurnView{
		SessionID: session.ID,
		Status:    session.Status,
		Turn: &engine.TurnResult{
			Log:        turn.Entries(),
			Cues:       turn.Cues(),
			BattleOpen: engine.IsBattleActive(session.State),
			GameOver:   session.State.GameOver,
			Ending:     session.State.Flags[engine.EndingActiveFlag],
		},
		Event:  eventView(event, session.State),
		Player: playerView(session.State),
	}, nil
}

// ChooseOption применяет выбранную опцию активного события.
func (s *gameServiceImpl) ChooseOption(ctx context.Context, playerID, sessionID uuid.UUID, optionIndex int) (*TurnView, error) {
	session, err := s.loadOwnedSession(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Finished() {
		return nil, models.ErrGameCompleted
	}
	if session.CurrentEventID == "" {
		return nil, models.ErrNoActiveEvent
	}

	event, ok := s.catalog.Get(session.CurrentEventID)
	if !ok {
		s.logger.Error("Active event missing from catalog",
			zap.String("sessionID", session.ID.String()),
			zap.String("eventID", session.CurrentEventID))
		return nil, models.ErrEventNotFound
	}

	eng := s.engineFor(session)
	result, err := eng.ResolveOption(session.State, event, optionIndex)
	if err != nil {
		return nil, err
	}

	if !result.BattleOpen {
		session.CurrentEventID = ""
	}
	s.finishTurn(session, result)
	session.AppendLog(result.Log)

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	s.publishCues(ctx, session, result.Cues)

	return &TurnView{
		SessionID: session.ID,
		Status:    session.Status,
		Turn:      result,
		Player:    playerView(session.State),
	}, nil
}

// BattleAction разрешает один боевой ход. Вызов без активного боя — не
// ошибка: движок вернет обычный no-op результат с сообщением.
func (s *gameServiceImpl) BattleAction(ctx context.Context, playerID, sessionID uuid.UUID, action string) (*TurnView, error) {
	session, err := s.loadOwnedSession(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Finished() {
		return nil, models.ErrGameCompleted
	}
	battleWasActive := engine.IsBattleActive(session.State)

	eng := s.engineFor(session)
	result := eng.PerformBattleTurn(session.State, action, engine.BattleConfig{})

	if battleWasActive && !result.BattleOpen {
		session.CurrentEventID = ""
	}
	s.finishTurn(session, result)
	session.AppendLog(result.Log)

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}
	s.publishCues(ctx, session, result.Cues)

	return &TurnView{
		SessionID: session.ID,
		Status:    session.Status,
		Turn:      result,
		Player:    playerView(session.State),
	}, nil
}

// finishTurn переводит статус сессии по итогу хода. Гибель завершает
// прохождение, показанная концовка переводит сессию в фазу ending;
// в обоих случаях дальше доступны только чтение и загрузка.
func (s *gameServiceImpl) finishTurn(session *models.GameSession, result *engine.TurnResult) {
	switch {
	case result.GameOver:
		session.Status = models.SessionStatusCompleted
	case result.Ending:
		session.Status = models.SessionStatusEnding
	default:
		return
	}
	s.logger.Info("Game session finished",
		zap.String("sessionID", session.ID.String()),
		zap.String("status", string(session.Status)),
		zap.Bool("gameOver", result.GameOver),
		zap.Bool("ending", result.Ending))
}

// SaveGame записывает снапшот сессии в слот.
func (s *gameServiceImpl) SaveGame(ctx context.Context, playerID, sessionID uuid.UUID, slot int) (*models.PlayerSave, error) {
	if slot < 1 || slot > MaxSaveSlot {
		return nil, models.ErrInvalidInput
	}
	session, err := s.loadOwnedSession(ctx, playerID, sessionID)
	if err != nil {
		return nil, err
	}

	save := &models.PlayerSave{
		ID:       uuid.New(),
		PlayerID: playerID,
		Slot:     slot,
		Session:  session,
		SavedAt:  time.Now().UTC(),
	}
	if err := s.saves.Upsert(ctx, save); err != nil {
		return nil, err
	}
	return save, nil
}

// LoadGame восстанавливает сессию из слота и делает ее активной в сторе.
func (s *gameServiceImpl) LoadGame(ctx context.Context, playerID uuid.UUID, slot int) (*GameView, error) {
	if slot < 1 || slot > MaxSaveSlot {
		return nil, models.ErrInvalidInput
	}
	save, err := s.saves.GetByPlayerAndSlot(ctx, playerID, slot)
	if err != nil {
		return nil, err
	}

	session := save.Session
	session.State.Normalize()
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Game session restored from save",
		zap.String("sessionID", session.ID.String()),
		zap.String("playerID", playerID.String()),
		zap.Int("slot", slot))
	return s.gameView(session), nil
}

// ListSaves возвращает занятые слоты игрока.
func (s *gameServiceImpl) ListSaves(ctx context.Context, playerID uuid.UUID) ([]*models.PlayerSave, error) {
	return s.saves.ListByPlayer(ctx, playerID)
}

// DeleteSave очищает слот сохранения.
func (s *gameServiceImpl) DeleteSave(ctx context.Context, playerID uuid.UUID, slot int) error {
	if slot < 1 || slot > MaxSaveSlot {
		return models.ErrInvalidInput
	}
	return s.saves.DeleteByPlayerAndSlot(ctx, playerID, slot)
}
