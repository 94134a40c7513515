package engine

import (
	"fmt"

	"adventure-server/shared/models"
	"adventure-server/shared/utils"

	"go.uber.org/zap"
)

// Каталог событий: детерминированная (при заданном сиде) выборка следующего
// события с учетом кулдаунов, одноразовости, принудительных событий и
// триггера застревания судьбы в нейтральной полосе.

const (
	MidbandMin   = 40
	MidbandMax   = 60
	MidbandLimit = 3

	// id закреплены авторами каталога
	FateTriggerMidbandID = "命運介入"
	IntroEventID         = "任務簡報"

	// Флаг, гейтящий обязательный вводный брифинг
	MissionBriefFlag = "mission_briefed"
)

// Catalog владеет статическим списком событий. Создается один раз на процесс
// и передается по ссылке — никакого глобального состояния.
type Catalog struct {
	events []*models.Event
	byID   map[string]*models.Event
	logger *zap.Logger
}

// NewCatalog строит каталог из списка событий. Дубликат id — ошибка данных.
func NewCatalog(events []models.Event, logger *zap.Logger) (*Catalog, error) {
	catalog := &Catalog{
		events: make([]*models.Event, 0, len(events)),
		byID:   make(map[string]*models.Event, len(events)),
		logger: logger,
	}
	for i := range events {
		event := &events[i]
		if event.ID == "" {
			return nil, fmt.Errorf("%w: event #%d has empty id", models.ErrCatalogInvalid, i)
		}
		if _, exists := catalog.byID[event.ID]; exists {
			return nil, fmt.Errorf("%w: %s", models.ErrDuplicateEvent, event.ID)
		}
		catalog.events = append(catalog.events, event)
		catalog.byID[event.ID] = event
	}
	return catalog, nil
}

// LoadCatalog разбирает JSON-документ каталога (список событий).
// Разбор строгий: опечатка в ключе данных — ошибка загрузки,
// а не молча проигнорированное поле.
func LoadCatalog(data []byte, logger *zap.Logger) (*Catalog, error) {
	var events []models.Event
	if err := utils.DecodeStrictJSON(data, &events); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCatalogInvalid, err)
	}
	return NewCatalog(events, logger)
}

// Get возвращает событие по id.
func (c *Catalog) Get(eventID string) (*models.Event, bool) {
	event, ok := c.byID[eventID]
	return event, ok
}

// Len возвращает число событий в каталоге.
func (c *Catalog) Len() int {
	return len(c.events)
}

// ConditionMet проверяет декларативный предикат события против состояния игрока.
// Все проверки соединены AND; отсутствующий блок условий — всегда true.
func ConditionMet(event *models.Event, player *models.PlayerState) bool {
	if event.Chapter > 0 && player.Chapter < event.Chapter {
		return false
	}

	cond := event.Condition
	if cond == nil {
		return true
	}

	if cond.FateMin != nil && player.Fate < *cond.FateMin {
		return false
	}
	if cond.FateMax != nil && player.Fate > *cond.FateMax {
		return false
	}
	if cond.HPMin != nil && player.HP < *cond.HPMin {
		return false
	}
	if cond.HPMax != nil && player.HP > *cond.HPMax {
		return false
	}
	if cond.ChapterIs != nil && player.Chapter != *cond.ChapterIs {
		return false
	}
	if cond.ChapterMin != nil && player.Chapter < *cond.ChapterMin {
		return false
	}
	if cond.ChapterMax != nil && player.Chapter > *cond.ChapterMax {
		return false
	}
	for _, item := range cond.InventoryHas {
		if !player.HasItem(item) {
			return false
		}
	}
	for _, item := range cond.InventoryNot {
		if player.HasItem(item) {
			return false
		}
	}
	for _, flag := range cond.FlagOn {
		if !player.Flags[flag] {
			return false
		}
	}
	for _, flag := range cond.FlagOff {
		if player.Flags[flag] {
			return false
		}
	}
	return true
}

// tickCooldowns уменьшает все кулдауны на 1. Запись удаляется на тике,
// следующем за достижением нуля: так кулдаун N блокирует ровно N
// последующих выборок (кулдаун 1 — ровно одну). Отрицательные значения
// в карту никогда не попадают. Выполняется строго первым шагом каждой
// выборки, ровно один раз.
func tickCooldowns(player *models.PlayerState) {
	for eventID, turns := range player.EventCooldowns {
		turns--
		if turns < 0 {
			delete(player.EventCooldowns, eventID)
			continue
		}
		player.EventCooldowns[eventID] = turns
	}
}

func isOnCooldown(event *models.Event, player *models.PlayerState) bool {
	_, blocked := player.EventCooldowns[event.ID]
	return blocked
}

// wasConsumed учитывает только события, объявленные одноразовыми.
func wasConsumed(event *models.Event, player *models.PlayerState) bool {
	return event.Once && player.ConsumedEvents.Has(event.ID)
}

// prepare применяет побочные эффекты выборки: кулдаун и пометку одноразовости.
// Применяется единообразно для всех ярусов приоритета.
func prepare(event *models.Event, player *models.PlayerState) *models.Event {
	if event.Cooldown > 0 {
		player.EventCooldowns[event.ID] = event.Cooldown
	}
	if event.Once {
		player.ConsumedEvents.Add(event.ID)
	}
	return event
}

// incrementMidbandCounter ведет счет подряд идущих выборок, в которых судьба
// остается в нейтральной полосе. Выход из полосы обнуляет счетчик.
func incrementMidbandCounter(player *models.PlayerState) int {
	if player.Fate >= MidbandMin && player.Fate <= MidbandMax {
		player.MidbandCounter++
	} else {
		player.MidbandCounter = 0
	}
	return player.MidbandCounter
}

// NextEvent выбирает следующее событие в строгом порядке приоритетов:
// тик кулдаунов → обязательный брифинг → принудительное событие →
// триггер нейтральной полосы → взвешенная случайная выборка.
// nil означает "события нет" — сигнал, не ошибка.
func (c *Catalog) NextEvent(player *models.PlayerState, allowedTypes []models.EventType, rng Rand) *models.Event {
	if len(allowedTypes) == 0 {
		allowedTypes = models.AllEventTypes
	}

	tickCooldowns(player)

	// Вводный брифинг идет раньше любых других встреч, минуя фильтры и условия
	if intro, ok := c.byID[IntroEventID]; ok {
		if !player.Flags[MissionBriefFlag] && !wasConsumed(intro, player) {
			return prepare(intro, player)
		}
	}

	// Принудительное событие потребляется в момент чтения: повторный вызов
	// никогда не переиспользует его, даже если выборка провалилась
	if forcedID := player.ForcedEvent; forcedID != "" {
		player.ForcedEvent = ""
		forced, ok := c.byID[forcedID]
		switch {
		case !ok:
			c.logger.Warn("Forced event missing from catalog, falling back to normal selection",
				zap.String("eventID", forcedID))
		case wasConsumed(forced, player):
			c.logger.Warn("Forced event already consumed, falling back to normal selection",
				zap.String("eventID", forcedID))
		default:
			return prepare(forced, player)
		}
	}

	if streak := incrementMidbandCounter(player); streak >= MidbandLimit {
		if trigger, ok := c.byID[FateTriggerMidbandID]; ok {
			if !wasConsumed(trigger, player) && ConditionMet(trigger, player) {
				player.MidbandCounter = 0
				return prepare(trigger, player)
			}
		}
	}

	allowed := make(map[models.EventType]bool, len(allowedTypes))
	for _, eventType := range allowedTypes {
		allowed[eventType] = true
	}

	var candidates []*models.Event
	var weights []int
	for _, event := range c.events {
		if !allowed[event.Type] {
			continue
		}
		if wasConsumed(event, player) {
			continue
		}
		if isOnCooldown(event, player) {
			continue
		}
		if !ConditionMet(event, player) {
			continue
		}
		weight := event.EffectiveWeight()
		if weight <= 0 {
			continue
		}
		candidates = append(candidates, event)
		weights = append(weights, weight)
	}

	if len(candidates) == 0 {
		return nil
	}

	chosen := candidates[rng.WeightedIndex(weights)]
	return prepare(chosen, player)
}
