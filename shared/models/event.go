package models

import (
	"encoding/json"
	"sort"
)

// EventType определяет категорию события в каталоге.
type EventType string

const (
	EventTypeNormal      EventType = "normal"
	EventTypeBattle      EventType = "battle"
	EventTypeDialogue    EventType = "dialogue"
	EventTypeConditional EventType = "conditional"
	EventTypeMilestone   EventType = "milestone"
)

// AllEventTypes — порядок соответствует каталогу, используется как фильтр по умолчанию.
var AllEventTypes = []EventType{
	EventTypeNormal,
	EventTypeBattle,
	EventTypeDialogue,
	EventTypeConditional,
	EventTypeMilestone,
}

// StringList принимает в JSON как одиночную строку, так и список строк.
// Авторы каталога пишут "inventory_add": "предмет" и "emit_log": ["a", "b"] вперемешку.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// EffectKind различает типизированные изменения из карты "effect".
type EffectKind string

const (
	EffectFate      EffectKind = "fate"       // обычное изменение судьбы (лимит 10)
	EffectFateMajor EffectKind = "fate_major" // крупное изменение судьбы (лимит 20)
	EffectFateBias  EffectKind = "fate_bias"  // авто-коррекция судьбы (лимит 5)
	EffectStat      EffectKind = "stat"       // прямое изменение числовой характеристики
)

// EffectChange — одно типизированное изменение. Специальные ключи судьбы
// диспетчеризуются явно, остальные ключи трактуются как имена характеристик.
type EffectChange struct {
	Kind  EffectKind
	Stat  string // имя характеристики, только для EffectStat
	Value int
}

// EffectSet — упорядоченный разбор карты "effect" из каталога.
// JSON-объект не сохраняет порядок ключей, поэтому фиксируем детерминированный:
// сначала fate, fate_major, fate_bias, затем прочие ключи по алфавиту.
type EffectSet []EffectChange

func (e *EffectSet) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	changes := make(EffectSet, 0, len(raw))
	for _, kind := range []EffectKind{EffectFate, EffectFateMajor, EffectFateBias} {
		if value, ok := raw[string(kind)]; ok {
			changes = append(changes, EffectChange{Kind: kind, Value: value})
			delete(raw, string(kind))
		}
	}
	statKeys := make([]string, 0, len(raw))
	for key := range raw {
		statKeys = append(statKeys, key)
	}
	sort.Strings(statKeys)
	for _, key := range statKeys {
		changes = append(changes, EffectChange{Kind: EffectStat, Stat: key, Value: raw[key]})
	}
	*e = changes
	return nil
}

func (e EffectSet) MarshalJSON() ([]byte, error) {
	raw := make(map[string]int, len(e))
	for _, change := range e {
		if change.Kind == EffectStat {
			raw[change.Stat] = change.Value
		} else {
			raw[string(change.Kind)] = change.Value
		}
	}
	return json.Marshal(raw)
}

// EventCondition — декларативный предикат допуска события.
// Все проверки соединены через AND; отсутствующий блок означает "всегда true".
type EventCondition struct {
	FateMin      *int     `json:"fate_min,omitempty"`
	FateMax      *int     `json:"fate_max,omitempty"`
	HPMin        *int     `json:"hp_min,omitempty"` // легаси, каталог еще содержит такие условия
	HPMax        *int     `json:"hp_max,omitempty"`
	ChapterIs    *int     `json:"chapter_is,omitempty"`
	ChapterMin   *int     `json:"chapter_min,omitempty"`
	ChapterMax   *int     `json:"chapter_max,omitempty"`
	InventoryHas []string `json:"inventory_has,omitempty"` // все перечисленные обязаны присутствовать
	InventoryNot []string `json:"inventory_not,omitempty"` // ни один не должен присутствовать
	FlagOn       []string `json:"flag_on,omitempty"`
	FlagOff      []string `json:"flag_off,omitempty"`
}

// EnemySpec — описание врага в данных события.
type EnemySpec struct {
	Name string `json:"name"`
	HP   int    `json:"hp"`
	Atk  int    `json:"atk"`
	Def  int    `json:"def"`
}

// OnEnterEffects — пассивные эффекты, применяемые при показе события
// (до выбора опции). Используется для авто-выдачи предметов и флагов.
type OnEnterEffects struct {
	FlagsSet     []string   `json:"flags_set,omitempty"`
	FlagsClear   []string   `json:"flags_clear,omitempty"`
	InventoryAdd StringList `json:"inventory_add,omitempty"`
}

// EventResult — декларативный payload выбранной опции.
// Порядок применения закреплен в движке (engine.ApplyEventResult).
type EventResult struct {
	Text    string     `json:"text,omitempty"`
	Effect  EffectSet  `json:"effect,omitempty"`
	EmitLog StringList `json:"emit_log,omitempty"`

	InventoryAdd    StringList `json:"inventory_add,omitempty"`
	InventoryRemove StringList `json:"inventory_remove,omitempty"`
	FlagsSet        []string   `json:"flags_set,omitempty"`
	FlagsClear      []string   `json:"flags_clear,omitempty"`

	GotoChapter int `json:"goto_chapter,omitempty"` // прямой сюжетный прыжок, минуя пороги глав

	Refuse bool     `json:"refuse,omitempty"`
	Tags   []string `json:"tags,omitempty"`

	ForcedEvent string `json:"forced_event,omitempty"`

	// Боевые поля
	BattleAction        string     `json:"battle_action,omitempty"` // attack / escape / прочее
	AttackChance        *float64   `json:"attack_chance,omitempty"`
	EscapeChance        *float64   `json:"escape_chance,omitempty"`
	VictoryEffect       EffectSet  `json:"victory_effect,omitempty"`
	EscapeEffect        EffectSet  `json:"escape_effect,omitempty"`
	DefeatEffect        EffectSet  `json:"defeat_effect,omitempty"`
	VictoryText         string     `json:"victory_text,omitempty"`
	EscapeText          string     `json:"escape_text,omitempty"`
	VictoryLog          StringList `json:"victory_log,omitempty"`
	DefeatLog           StringList `json:"defeat_log,omitempty"`
	ForcedEventOnEnd    string     `json:"forced_event_on_end,omitempty"`
	ForcedEventOnDefeat string     `json:"forced_event_on_defeat,omitempty"`
}

// HasTag проверяет наличие тега у результата.
func (r *EventResult) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// EventOption — один вариант выбора игрока.
type EventOption struct {
	Text   string       `json:"text"`
	Result *EventResult `json:"result,omitempty"`
}

// Event — неизменяемая запись каталога. Загружается один раз при старте.
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	Weight *int      `json:"weight,omitempty"` // nil => 1; <=0 исключает из выборки

	Chapter   int             `json:"chapter,omitempty"` // минимальная глава
	Cooldown  int             `json:"cooldown,omitempty"`
	Once      bool            `json:"once,omitempty"`
	Condition *EventCondition `json:"condition,omitempty"`

	Text       string          `json:"text,omitempty"`
	Background string          `json:"background,omitempty"` // только для хоста-рендерера
	Options    []EventOption   `json:"options,omitempty"`
	OnEnter    *OnEnterEffects `json:"on_enter,omitempty"`

	// Боевые поля
	Enemy            *EnemySpec `json:"enemy,omitempty"`
	EnemyName        string     `json:"enemy_name,omitempty"` // легаси плоские поля
	EnemyHP          int        `json:"enemy_hp,omitempty"`
	EnemyAtk         int        `json:"enemy_atk,omitempty"`
	EnemyDef         int        `json:"enemy_def,omitempty"`
	BattleDurability int        `json:"battle_durability,omitempty"`
	BattleMaxTurns   int        `json:"battle_max_turns,omitempty"`
}

// EffectiveWeight возвращает вес для взвешенной выборки (по умолчанию 1).
func (e *Event) EffectiveWeight() int {
	if e.Weight == nil {
		return 1
	}
	return *e.Weight
}
