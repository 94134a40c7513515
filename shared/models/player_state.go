package models

import (
	"encoding/json"
	"sort"
)

// FateBand определяет полосу значения судьбы, от нее зависит ветка сюжета и концовка.
type FateBand string

const (
	FateBandHigh FateBand = "high"
	FateBandMid  FateBand = "mid"
	FateBandLow  FateBand = "low"
)

// ConsumedSet — множество id одноразовых событий.
// В памяти это set, но формат сохранения поддерживает только списки,
// поэтому сериализуем как отсортированный список и нормализуем при загрузке.
type ConsumedSet map[string]struct{}

// Add помечает событие как использованное. Записи из множества никогда не удаляются.
func (s ConsumedSet) Add(eventID string) {
	s[eventID] = struct{}{}
}

// Has возвращает true, если событие уже было использовано.
func (s ConsumedSet) Has(eventID string) bool {
	_, ok := s[eventID]
	return ok
}

// MarshalJSON сериализует множество как отсортированный список (стабильный порядок).
func (s ConsumedSet) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return json.Marshal(ids)
}

// UnmarshalJSON принимает список (возможно с дубликатами — легаси формат сейвов)
// и нормализует его в множество без ошибок.
func (s *ConsumedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		// Легаси формат: объект-множество {"id": true, ...}
		var legacy map[string]bool
		if errObj := json.Unmarshal(data, &legacy); errObj != nil {
			return err
		}
		result := make(ConsumedSet, len(legacy))
		for id, ok := range legacy {
			if ok {
				result.Add(id)
			}
		}
		*s = result
		return nil
	}
	result := make(ConsumedSet, len(ids))
	for _, id := range ids {
		result.Add(id)
	}
	*s = result
	return nil
}

// PlayerState — полная запись прогресса игрока. Одна запись на слот сохранения.
// Чистые данные без логики; все мутации выполняет движок (engine-service/internal/engine).
type PlayerState struct {
	// Отображаемые характеристики (легаси боевой модели, оставлены для UI)
	HP        int      `json:"hp"`
	Atk       int      `json:"atk"`
	Def       int      `json:"def"`
	Inventory []string `json:"inventory"` // упорядоченный, дубликаты допустимы

	// Скрытая прогрессия
	Fate    int `json:"fate"`    // всегда в [0,100]
	Chapter int `json:"chapter"` // >= 1, только растет (кроме goto_chapter)
	Steps   int `json:"steps"`

	// Судьба и главы
	FateHistory    []int    `json:"fate_history"` // FIFO последних 10 значений после изменений
	FatePathLocked bool     `json:"fate_path_locked"`
	FateLockedBand FateBand `json:"fate_locked_band,omitempty"`
	RefusalStreak  int      `json:"refusal_streak"`
	EndingPrepared bool     `json:"ending_prepared"`
	MidbandCounter int      `json:"midband_counter"`

	// Сюжетные флаги и принудительные события
	Flags       map[string]bool `json:"flags"`
	ForcedEvent string          `json:"forced_event,omitempty"` // очищается в момент чтения при выборе

	// Гейтинг событий
	EventCooldowns map[string]int `json:"event_cooldowns"` // записи удаляются при достижении 0
	ConsumedEvents ConsumedSet    `json:"consumed_events"`

	// Бой: присутствует только пока бой активен
	Battle *BattleState `json:"battle_state,omitempty"`

	GameOver bool `json:"game_over,omitempty"`
}

// Стартовые значения нового игрока.
const (
	InitialHP      = 20
	InitialAtk     = 5
	InitialDef     = 3
	InitialFate    = 50
	InitialChapter = 1
)

// NewPlayerState создает свежее состояние для начала новой игры.
func NewPlayerState() *PlayerState {
	return &PlayerState{
		HP:             InitialHP,
		Atk:            InitialAtk,
		Def:            InitialDef,
		Inventory:      []string{},
		Fate:           InitialFate,
		Chapter:        InitialChapter,
		Flags:          map[string]bool{},
		EventCooldowns: map[string]int{},
		ConsumedEvents: ConsumedSet{},
	}
}

// Normalize доинициализирует nil-коллекции после загрузки из сейва.
// Легаси сейвы могли не содержать части полей.
func (p *PlayerState) Normalize() {
	if p.Inventory == nil {
		p.Inventory = []string{}
	}
	if p.Flags == nil {
		p.Flags = map[string]bool{}
	}
	if p.EventCooldowns == nil {
		p.EventCooldowns = map[string]int{}
	}
	if p.ConsumedEvents == nil {
		p.ConsumedEvents = ConsumedSet{}
	}
	if p.Chapter < 1 {
		p.Chapter = InitialChapter
	}
}

// HasItem проверяет наличие предмета в инвентаре.
func (p *PlayerState) HasItem(name string) bool {
	for _, item := range p.Inventory {
		if item == name {
			return true
		}
	}
	return false
}

// RemoveItem убирает первое вхождение предмета. Возвращает false, если предмета нет.
func (p *PlayerState) RemoveItem(name string) bool {
	for i, item := range p.Inventory {
		if item == name {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// Stat возвращает значение числовой характеристики по ключу эффекта.
// Известные ключи фиксированы — эффект с неизвестным ключом игнорируется
// (схема не создает новых полей на лету).
func (p *PlayerState) Stat(key string) (int, bool) {
	switch key {
	case "hp":
		return p.HP, true
	case "atk":
		return p.Atk, true
	case "def":
		return p.Def, true
	}
	return 0, false
}

// SetStat записывает значение характеристики по ключу. Возвращает false для неизвестного ключа.
func (p *PlayerState) SetStat(key string, value int) bool {
	switch key {
	case "hp":
		p.HP = value
	case "atk":
		p.Atk = value
	case "def":
		p.Def = value
	default:
		return false
	}
	return true
}
