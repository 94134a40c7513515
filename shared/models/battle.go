package models

// DefaultEnemyName используется, когда данные события не содержат имени врага.
const DefaultEnemyName = "未知怪物"

// Enemy — эфемерное состояние врага, создается на время боя из данных события.
// HP/Atk/Def — легаси-поля старой боевой модели, сохранены только для отображения.
type Enemy struct {
	Name  string `json:"name"`
	MaxHP int    `json:"max_hp"`
	HP    int    `json:"hp"`
	Atk   int    `json:"atk"`
	Def   int    `json:"def"`
}

// NewEnemyFromEvent строит врага из вложенного объекта enemy,
// с фолбэком на плоские легаси-поля события.
func NewEnemyFromEvent(event *Event) Enemy {
	spec := event.Enemy
	if spec == nil {
		spec = &EnemySpec{
			Name: event.EnemyName,
			HP:   event.EnemyHP,
			Atk:  event.EnemyAtk,
			Def:  event.EnemyDef,
		}
	}
	name := spec.Name
	if name == "" {
		name = DefaultEnemyName
	}
	hp := spec.HP
	if hp <= 0 {
		hp = 1
	}
	return Enemy{Name: name, MaxHP: hp, HP: hp, Atk: spec.Atk, Def: spec.Def}
}

// BattleState живет внутри PlayerState.Battle пока бой активен.
// Модель прочности: счет идет не в уроне, а в допустимом числе неудачных попыток.
type BattleState struct {
	EventID string `json:"event_id,omitempty"`
	Enemy   Enemy  `json:"enemy"`
	Active  bool   `json:"active"`

	Durability    int `json:"durability"`     // всегда в [0, MaxDurability]
	MaxDurability int `json:"max_durability"`
	MaxTurns      int `json:"max_turns"`
	TurnCount     int `json:"turn_count"`

	AttackAttempts int `json:"attack_attempts"`
	EscapeAttempts int `json:"escape_attempts"`

	// Терминальные флаги: ровно один из них выставляется при завершении
	Victory bool `json:"victory"`
	Escaped bool `json:"escaped"`
	Defeat  bool `json:"defeat"`
}

// BattleOutcome — результат одного хода боя.
// PlayerDamage/EnemyDamage всегда нулевые в модели прочности,
// оставлены для совместимости со старыми вызывающими.
type BattleOutcome struct {
	Messages []string `json:"messages"`

	BattleOver bool `json:"battle_over"`
	Victory    bool `json:"victory"`
	Escaped    bool `json:"escaped"`
	Defeat     bool `json:"defeat"`

	DurabilityLoss      int `json:"durability_loss"`
	RemainingDurability int `json:"remaining_durability"`
	TurnCount           int `json:"turn_count"`

	PlayerDamage int `json:"player_damage"`
	EnemyDamage  int `json:"enemy_damage"`
}
