package engine

import (
	"adventure-server/shared/models"

	"go.uber.org/zap"
)

// Engine связывает каталог, систему судьбы, бой и применение результатов
// в один синхронный цикл: одно решение игрока — одна последовательность
// мутаций общего PlayerState. Конкурентности нет по построению.

// NoEventMessage показывается, когда взвешенная выборка не нашла кандидатов.
const NoEventMessage = "命運暫時沉寂，沒有新的事件發生。"

// EndingActiveFlag выставляется результатами событий-концовок;
// после него прогрессия останавливается и сессия завершена.
const EndingActiveFlag = "ending_active"

// TurnResult — итог одного разрешенного хода для хоста.
type TurnResult struct {
	Log         []models.LogEntry     `json:"log"`
	Cues        []models.Cue          `json:"cues,omitempty"`
	ForcedEvent string                `json:"forced_event,omitempty"`
	Battle      *models.BattleOutcome `json:"battle,omitempty"`
	BattleOpen  bool                  `json:"battle_open"` // бой продолжается, прогрессия отложена
	GameOver    bool                  `json:"game_over"`
	Ending      bool                  `json:"ending"`
}

// Engine — корневой объект движка. Все зависимости явные, состояние сессии
// живет только в переданном PlayerState.
type Engine struct {
	catalog *Catalog
	rng     Rand
	logger  *zap.Logger
}

// New создает движок поверх каталога и источника случайности.
func New(catalog *Catalog, rng Rand, logger *zap.Logger) *Engine {
	return &Engine{catalog: catalog, rng: rng, logger: logger}
}

// Catalog возвращает каталог событий движка.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// NextEvent выбирает следующее событие и применяет его пассивные on_enter
// эффекты. Для боевых событий инициализирует боевое состояние; сцена без
// опций не ждет ResolveOption и проходит прогрессию в этом же ходу.
// nil + лог с NoEventMessage означает затишье, не ошибку.
func (e *Engine) NextEvent(player *models.PlayerState, allowedTypes []models.EventType, turn *Turn) *models.Event {
	event := e.catalog.NextEvent(player, allowedTypes, e.rng)
	if event == nil {
		turn.System(NoEventMessage)
		return nil
	}

	if event.Text != "" {
		turn.Add(event.Text)
	}
	applyOnEnterEffects(player, event, turn)

	if event.Type == models.EventTypeBattle {
		StartBattle(player, event, turn)
		return event
	}

	// Сцена без опций разрешается этим же ходом: выбора не будет,
	// поэтому прогрессия выполняется сразу.
	if len(event.Options) == 0 && !player.Flags[EndingActiveFlag] {
		if forced := PostEventUpdate(player, turn); forced != "" {
			player.ForcedEvent = forced
		}
	}
	return event
}

func applyOnEnterEffects(player *models.PlayerState, event *models.Event, turn *Turn) {
	enter := event.OnEnter
	if enter == nil {
		return
	}
	for _, flag := range enter.FlagsSet {
		player.Flags[flag] = true
	}
	for _, flag := range enter.FlagsClear {
		if player.Flags[flag] {
			player.Flags[flag] = false
		}
	}
	for _, item := range enter.InventoryAdd {
		if !player.HasItem(item) {
			player.Inventory = append(player.Inventory, item)
			turn.System("你獲得了道具：" + item)
			turn.Cue(models.CueItemGained, item)
		}
	}
}

// ResolveOption применяет выбранную опцию события и, если бой не продолжается,
// выполняет пост-событийную прогрессию. Принудительное событие прогрессии
// перекрывает принудительное событие payload — фиксация ветки и концовка
// важнее сюжетных ответвлений.
func (e *Engine) ResolveOption(player *models.PlayerState, event *models.Event, optionIndex int) (*TurnResult, error) {
	if event == nil {
		return nil, models.ErrNoActiveEvent
	}
	if optionIndex < 0 || optionIndex >= len(event.Options) {
		return nil, models.ErrInvalidOption
	}

	option := event.Options[optionIndex]
	turn := NewTurn()
	if option.Text != "" {
		turn.Choice(option.Text)
	}

	forced, battleOutcome := ApplyEventResult(player, option.Result, e.rng, turn)

	battleContinues := event.Type == models.EventTypeBattle && IsBattleActive(player)

	if !battleContinues && !player.Flags[EndingActiveFlag] {
		if progressForced := PostEventUpdate(player, turn); progressForced != "" {
			forced = progressForced
			player.ForcedEvent = progressForced
		}
	}

	if !battleContinues && player.Battle != nil {
		ClearBattleState(player)
	}

	return &TurnResult{
		Log:         turn.Entries(),
		Cues:        turn.Cues(),
		ForcedEvent: forced,
		Battle:      battleOutcome,
		BattleOpen:  battleContinues,
		GameOver:    player.GameOver,
		Ending:      player.Flags[EndingActiveFlag],
	}, nil
}

// PerformBattleTurn разрешает внеопционный боевой ход (прямой вызов хоста).
// При завершении боя выполняет ту же пост-событийную прогрессию, что и
// ResolveOption.
func (e *Engine) PerformBattleTurn(player *models.PlayerState, action string, cfg BattleConfig) *TurnResult {
	turn := NewTurn()
	outcome := PerformBattleAction(player, action, cfg, e.rng, turn)

	forced := ""
	if outcome.BattleOver && player.Battle != nil {
		if progressForced := PostEventUpdate(player, turn); progressForced != "" {
			forced = progressForced
			player.ForcedEvent = progressForced
		}
		ClearBattleState(player)
	}

	return &TurnResult{
		Log:         turn.Entries(),
		Cues:        turn.Cues(),
		ForcedEvent: forced,
		Battle:      &outcome,
		BattleOpen:  IsBattleActive(player),
		GameOver:    player.GameOver,
		Ending:      player.Flags[EndingActiveFlag],
	}
}
