package service_test

import (
	"context"
	"errors"
	"testing"

	"adventure-server/engine-service/internal/engine"
	"adventure-server/engine-service/internal/service"
	"adventure-server/shared/interfaces/mocks"
	"adventure-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intPtr(v int) *int { return &v }

func testCatalog(t *testing.T) *engine.Catalog {
	t.Helper()
	events := []models.Event{
		{
			ID:   engine.IntroEventID,
			Type: models.EventTypeMilestone,
			Text: "黑風嶺的任務簡報。",
			Once: true,
			Options: []models.EventOption{
				{Text: "接受任務", Result: &models.EventResult{
					FlagsSet: []string{engine.MissionBriefFlag},
				}},
			},
		},
		{
			ID:   "路邊的商人",
			Type: models.EventTypeNormal,
			Text: "一位商人向你招手。",
			Options: []models.EventOption{
				{Text: "打個招呼", Result: &models.EventResult{Text: "商人點了點頭。"}},
			},
		},
		{
			ID:     "終幕之鐘",
			Type:   models.EventTypeMilestone,
			Once:   true,
			Weight: intPtr(0),
			Text:   "鐘聲響起，旅程到了盡頭。",
			Options: []models.EventOption{
				{Text: "聆聽鐘聲", Result: &models.EventResult{
					FlagsSet: []string{engine.EndingActiveFlag},
				}},
			},
		},
	}
	catalog, err := engine.NewCatalog(events, zap.NewNop())
	require.NoError(t, err)
	return catalog
}

func newTestService(t *testing.T) (service.GameService, *mocks.MockSessionStore, *mocks.MockPlayerSaveRepository, *mocks.MockCuePublisher) {
	t.Helper()
	sessions := new(mocks.MockSessionStore)
	saves := new(mocks.MockPlayerSaveRepository)
	cues := new(mocks.MockCuePublisher)
	svc := service.NewGameService(testCatalog(t), sessions, saves, cues, zap.NewNop())
	return svc, sessions, saves, cues
}

func activeSession(playerID uuid.UUID) *models.GameSession {
	return &models.GameSession{
		ID:       uuid.New(),
		PlayerID: playerID,
		Seed:     7,
		Status:   models.SessionStatusActive,
		State:    models.NewPlayerState(),
		Log:      []models.LogEntry{},
	}
}

func TestNewGame_CreatesActiveSession(t *testing.T) {
	svc, sessions, _, _ := newTestService(t)
	playerID := uuid.New()

	var stored *models.GameSession
	sessions.On("Put", mock.Anything, mock.AnythingOfType("*models.GameSession")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*models.GameSession)
		}).Return(nil)

	view, err := svc.NewGame(context.Background(), playerID)
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusActive, view.Status)
	assert.Equal(t, models.InitialFate, view.Player.Fate)
	assert.Equal(t, models.InitialChapter, view.Player.Chapter)
	assert.Nil(t, view.CurrentEvent)

	require.NotNil(t, stored)
	assert.Equal(t, playerID, stored.PlayerID)
	assert.NotZero(t, stored.Seed)
	sessions.AssertExpectations(t)
}

func TestGetGame_RejectsForeignSession(t *testing.T) {
	svc, sessions, _, _ := newTestService(t)
	owner := uuid.New()
	session := activeSession(owner)
	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)

	_, err := svc.GetGame(context.Background(), uuid.New(), session.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestNextEvent_IntroComesFirst(t *testing.T) {
	svc, sessions, _, cues := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	cues.On("PublishCues", mock.Anything, session.ID, playerID, mock.Anything).Return(nil).Maybe()

	view, err := svc.NextEvent(context.Background(), playerID, session.ID)
	require.NoError(t, err)

	require.NotNil(t, view.Event)
	assert.Equal(t, engine.IntroEventID, view.Event.ID)
	assert.Equal(t, engine.IntroEventID, session.CurrentEventID)
	assert.NotEmpty(t, session.Log)
}

func TestNextEvent_PendingChoiceBlocksSelection(t *testing.T) {
	svc, sessions, _, _ := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)
	session.CurrentEventID = "路邊的商人"

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)

	_, err := svc.NextEvent(context.Background(), playerID, session.ID)
	assert.ErrorIs(t, err, models.ErrSessionConflict)
}

func TestChooseOption_ResolvesAndClearsEvent(t *testing.T) {
	svc, sessions, _, cues := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)
	session.State.Flags[engine.MissionBriefFlag] = true
	session.CurrentEventID = "路邊的商人"

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	cues.On("PublishCues", mock.Anything, session.ID, playerID, mock.Anything).Return(nil).Maybe()

	view, err := svc.ChooseOption(context.Background(), playerID, session.ID, 0)
	require.NoError(t, err)

	assert.Empty(t, session.CurrentEventID)
	assert.Equal(t, models.SessionStatusActive, view.Status)
	require.NotNil(t, view.Turn)
	assert.NotEmpty(t, view.Turn.Log)
}

func TestChooseOption_WithoutActiveEvent(t *testing.T) {
	svc, sessions, _, _ := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)

	_, err := svc.ChooseOption(context.Background(), playerID, session.ID, 0)
	assert.ErrorIs(t, err, models.ErrNoActiveEvent)
}

func TestChooseOption_EndingMovesSessionToEndingPhase(t *testing.T) {
	svc, sessions, _, cues := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)
	session.State.Flags[engine.MissionBriefFlag] = true
	session.CurrentEventID = "終幕之鐘"

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	cues.On("PublishCues", mock.Anything, session.ID, playerID, mock.Anything).Return(nil).Maybe()

	view, err := svc.ChooseOption(context.Background(), playerID, session.ID, 0)
	require.NoError(t, err)

	require.NotNil(t, view.Turn)
	assert.True(t, view.Turn.Ending)
	assert.False(t, view.Turn.GameOver)
	assert.Equal(t, models.SessionStatusEnding, view.Status)
	assert.True(t, session.Finished())

	// Фаза концовки блокирует дальнейшие ходы, как и completed
	_, err = svc.NextEvent(context.Background(), playerID, session.ID)
	assert.ErrorIs(t, err, models.ErrGameCompleted)
}

func TestChooseOption_CompletedSessionRejected(t *testing.T) {
	svc, sessions, _, _ := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)
	session.Status = models.SessionStatusCompleted
	session.CurrentEventID = "路邊的商人"

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)

	_, err := svc.ChooseOption(context.Background(), playerID, session.ID, 0)
	assert.ErrorIs(t, err, models.ErrGameCompleted)
}

func TestChooseOption_CuePublishFailureDoesNotFailTurn(t *testing.T) {
	svc, sessions, _, cues := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)
	session.State.Flags[engine.MissionBriefFlag] = true
	session.CurrentEventID = engine.IntroEventID

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	cues.On("PublishCues", mock.Anything, session.ID, playerID, mock.Anything).
		Return(errors.New("broker down")).Maybe()

	_, err := svc.ChooseOption(context.Background(), playerID, session.ID, 0)
	assert.NoError(t, err)
}

func TestBattleAction_WithoutBattleIsNoop(t *testing.T) {
	svc, sessions, _, cues := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)
	sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	cues.On("PublishCues", mock.Anything, session.ID, playerID, mock.Anything).Return(nil).Maybe()

	view, err := svc.BattleAction(context.Background(), playerID, session.ID, engine.ActionAttack)
	require.NoError(t, err)

	require.NotNil(t, view.Turn)
	require.NotNil(t, view.Turn.Battle)
	assert.True(t, view.Turn.Battle.BattleOver)
	assert.False(t, view.Turn.Battle.Victory)
	assert.NotEmpty(t, view.Turn.Log)
}

func TestSaveGame_WritesSnapshot(t *testing.T) {
	svc, sessions, saves, _ := newTestService(t)
	playerID := uuid.New()
	session := activeSession(playerID)

	sessions.On("Get", mock.Anything, session.ID).Return(session, nil)

	var stored *models.PlayerSave
	saves.On("Upsert", mock.Anything, mock.AnythingOfType("*models.PlayerSave")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*models.PlayerSave)
		}).Return(nil)

	save, err := svc.SaveGame(context.Background(), playerID, session.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, save.Slot)
	require.NotNil(t, stored)
	assert.Equal(t, session.ID, stored.Session.ID)
	assert.Equal(t, playerID, stored.PlayerID)
}

func TestSaveGame_SlotOutOfRange(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.SaveGame(context.Background(), uuid.New(), uuid.New(), 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.SaveGame(context.Background(), uuid.New(), uuid.New(), service.MaxSaveSlot+1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestLoadGame_RestoresSessionIntoStore(t *testing.T) {
	svc, sessions, saves, _ := newTestService(t)
	playerID := uuid.New()
	snapshot := activeSession(playerID)
	snapshot.State.Fate = 72
	save := &models.PlayerSave{
		ID:       uuid.New(),
		PlayerID: playerID,
		Slot:     3,
		Session:  snapshot,
	}

	saves.On("GetByPlayerAndSlot", mock.Anything, playerID, 3).Return(save, nil)
	sessions.On("Put", mock.Anything, snapshot).Return(nil)

	view, err := svc.LoadGame(context.Background(), playerID, 3)
	require.NoError(t, err)

	assert.Equal(t, snapshot.ID, view.SessionID)
	assert.Equal(t, 72, view.Player.Fate)
	sessions.AssertExpectations(t)
}

func TestLoadGame_EmptySlot(t *testing.T) {
	svc, _, saves, _ := newTestService(t)
	playerID := uuid.New()

	saves.On("GetByPlayerAndSlot", mock.Anything, playerID, 1).
		Return(nil, models.ErrSaveNotFound)

	_, err := svc.LoadGame(context.Background(), playerID, 1)
	assert.ErrorIs(t, err, models.ErrSaveNotFound)
}

func TestDeleteSave_SlotOutOfRange(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.DeleteSave(context.Background(), uuid.New(), -1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
