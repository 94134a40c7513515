package handler

import (
	"errors"
	"net/http"
	"strconv"

	"adventure-server/engine-service/internal/service"
	sharedMiddleware "adventure-server/shared/middleware"
	"adventure-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GameHandler обрабатывает HTTP запросы движка приключений.
type GameHandler struct {
	service service.GameService
	logger  *zap.Logger
}

// NewGameHandler создает новый GameHandler.
func NewGameHandler(s service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		service: s,
		logger:  logger.Named("GameHandler"),
	}
}

// RegisterRoutes регистрирует маршруты движка. Все игровые маршруты
// закрыты токеном игрока.
func (h *GameHandler) RegisterRoutes(router *gin.Engine, jwtSecret string) {
	api := router.Group("/api", sharedMiddleware.PlayerAuthMiddleware(jwtSecret, h.logger))
	{
		games := api.Group("/games")
		{
			games.POST("", h.newGame)
			games.GET("/:id", h.getGame)
			games.POST("/:id/next", h.nextEvent)
			games.POST("/:id/choose", h.chooseOption)
			games.POST("/:id/battle", h.battleAction)
			games.POST("/:id/save", h.saveGame)
		}
		saves := api.Group("/saves")
		{
			saves.GET("", h.listSaves)
			saves.POST("/:slot/load", h.loadGame)
			saves.DELETE("/:slot", h.deleteSave)
		}
	}
}

func (h *GameHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	sessionID, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid session ID format", zap.String("id", idStr))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeValidation, Message: "Invalid session ID format",
		})
		return uuid.Nil, false
	}
	return sessionID, true
}

func (h *GameHandler) slotParam(c *gin.Context) (int, bool) {
	slotStr := c.Param("slot")
	slot, err := strconv.Atoi(slotStr)
	if err != nil {
		h.logger.Warn("Invalid slot format", zap.String("slot", slotStr))
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeValidation, Message: "Invalid slot number",
		})
		return 0, false
	}
	return slot, true
}

// newGame создает новую игровую сессию.
func (h *GameHandler) newGame(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	view, err := h.service.NewGame(c.Request.Context(), playerID)
	if err != nil {
		h.logger.Error("Error creating game session", zap.String("playerID", playerID.String()), zap.Error(err))
		handleServiceError(c, err)
		return
	}

	gamesStartedTotal.Inc()
	c.JSON(http.StatusCreated, view)
}

// getGame возвращает текущий снимок сессии.
func (h *GameHandler) getGame(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	view, err := h.service.GetGame(c.Request.Context(), playerID, sessionID)
	if err != nil {
		if !errors.Is(err, models.ErrSessionNotFound) && !errors.Is(err, models.ErrForbidden) {
			h.logger.Error("Error getting game session", zap.String("sessionID", sessionID.String()), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// nextEvent запрашивает следующее событие сессии.
func (h *GameHandler) nextEvent(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	view, err := h.service.NextEvent(c.Request.Context(), playerID, sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	turnsTotal.WithLabelValues("next").Inc()
	h.observeFinish(view)
	c.JSON(http.StatusOK, view)
}

type chooseOptionRequest struct {
	OptionIndex int `json:"option_index" binding:"min=0"`
}

// chooseOption применяет выбранную опцию активного события.
func (h *GameHandler) chooseOption(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req chooseOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeValidation, Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	view, err := h.service.ChooseOption(c.Request.Context(), playerID, sessionID, req.OptionIndex)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	turnsTotal.WithLabelValues("choose").Inc()
	h.observeFinish(view)
	c.JSON(http.StatusOK, view)
}

type battleActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// battleAction разрешает один боевой ход.
func (h *GameHandler) battleAction(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req battleActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeValidation, Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	view, err := h.service.BattleAction(c.Request.Context(), playerID, sessionID, req.Action)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	turnsTotal.WithLabelValues("battle").Inc()
	h.observeFinish(view)
	c.JSON(http.StatusOK, view)
}

// observeFinish учитывает завершение сессии в метриках.
func (h *GameHandler) observeFinish(view *service.TurnView) {
	if view == nil || view.Turn == nil {
		return
	}
	switch {
	case view.Turn.GameOver:
		gamesFinishedTotal.WithLabelValues("game_over").Inc()
	case view.Turn.Ending:
		gamesFinishedTotal.WithLabelValues("ending").Inc()
	}
}

type saveGameRequest struct {
	Slot int `json:"slot" binding:"required,min=1"`
}

// saveGame записывает снапшот сессии в слот.
func (h *GameHandler) saveGame(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req saveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code: models.ErrCodeValidation, Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	save, err := h.service.SaveGame(c.Request.Context(), playerID, sessionID, req.Slot)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	savesTotal.WithLabelValues("save").Inc()
	c.JSON(http.StatusCreated, save)
}

// listSaves возвращает занятые слоты игрока.
func (h *GameHandler) listSaves(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	saves, err := h.service.ListSaves(c.Request.Context(), playerID)
	if err != nil {
		h.logger.Error("Error listing saves", zap.String("playerID", playerID.String()), zap.Error(err))
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saves": saves})
}

// loadGame восстанавливает сессию из слота.
func (h *GameHandler) loadGame(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}

	view, err := h.service.LoadGame(c.Request.Context(), playerID, slot)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	savesTotal.WithLabelValues("load").Inc()
	c.JSON(http.StatusOK, view)
}

// deleteSave очищает слот сохранения.
func (h *GameHandler) deleteSave(c *gin.Context) {
	playerID, err := sharedMiddleware.PlayerIDFromContext(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	slot, ok := h.slotParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteSave(c.Request.Context(), playerID, slot); err != nil {
		handleServiceError(c, err)
		return
	}

	savesTotal.WithLabelValues("delete").Inc()
	c.Status(http.StatusNoContent)
}
