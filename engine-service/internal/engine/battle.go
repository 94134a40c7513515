package engine

import (
	"fmt"

	"adventure-server/shared/models"
)

// Боевая система: разрешение одного хода по модели прочности.
// Прочность — это запас неудачных попыток, не очки здоровья; гарантия
// завершения встроена в сами правила: на max_turns-й попытке атака
// успешна безусловно, а шанс побега принудительно равен 1.0, что
// детерминированно ограничивает длину боя даже при враждебном ГСЧ.

const (
	DefaultBattleDurability = 3
	DefaultBattleMaxTurns   = 3
	DefaultAttackChance     = 0.6
	DefaultEscapeChance     = 0.5
	EscapeChanceStep        = 0.15

	ActionAttack = "attack"
	ActionEscape = "escape"
)

// BattleConfig — переопределения шансов из payload опции (для тестов и данных).
type BattleConfig struct {
	AttackChance *float64
	EscapeChance *float64
}

// StartBattle инициализирует боевое состояние из данных события.
// Неположительные переопределения прочности и лимита ходов откатываются
// к значениям по умолчанию.
func StartBattle(player *models.PlayerState, event *models.Event, turn *Turn) {
	enemy := models.NewEnemyFromEvent(event)

	durability := event.BattleDurability
	if durability <= 0 {
		durability = DefaultBattleDurability
	}
	maxTurns := event.BattleMaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultBattleMaxTurns
	}

	player.Battle = &models.BattleState{
		EventID:       event.ID,
		Enemy:         enemy,
		Active:        true,
		Durability:    durability,
		MaxDurability: durability,
		MaxTurns:      maxTurns,
	}

	turn.System(fmt.Sprintf("戰鬥開始：%s (HP %d, ATK %d, DEF %d)",
		enemy.Name, enemy.HP, enemy.Atk, enemy.Def))
}

// ClearBattleState убирает боевое состояние после завершения боя.
// Вызывается владельцем цикла, не самим резолвером.
func ClearBattleState(player *models.PlayerState) {
	player.Battle = nil
}

// IsBattleActive возвращает true, пока бой не завершен.
func IsBattleActive(player *models.PlayerState) bool {
	return player.Battle != nil && player.Battle.Active
}

// PerformBattleAction разрешает один ход боя. Один вызов — один ход.
// Вызов без активного боя — не ошибка, а обычный no-op результат.
func PerformBattleAction(player *models.PlayerState, action string, cfg BattleConfig, rng Rand, turn *Turn) models.BattleOutcome {
	state := player.Battle
	if state == nil || !state.Active {
		outcome := models.BattleOutcome{
			Messages:   []string{"目前沒有正在進行的戰鬥。"},
			BattleOver: true,
		}
		for _, message := range outcome.Messages {
			turn.System(message)
		}
		return outcome
	}

	state.TurnCount++

	var messages []string
	durabilityLoss := 0
	victory := false
	escaped := false

	switch action {
	case ActionAttack:
		state.AttackAttempts++
		turn.Cue(models.CueAttack, state.Enemy.Name)
		chance := DefaultAttackChance
		if cfg.AttackChance != nil {
			chance = *cfg.AttackChance
		}
		// Последняя допустимая попытка атаки успешна всегда
		if state.AttackAttempts >= state.MaxTurns || rng.Float64() < chance {
			victory = true
			messages = append(messages, fmt.Sprintf("你看準破綻，一舉擊潰了%s！", state.Enemy.Name))
		} else {
			durabilityLoss = 1
			messages = append(messages, fmt.Sprintf("攻擊被%s擋下，你的防線出現裂痕。", state.Enemy.Name))
		}

	case ActionEscape:
		state.EscapeAttempts++
		base := DefaultEscapeChance
		if cfg.EscapeChance != nil {
			base = *cfg.EscapeChance
		}
		chance := base + EscapeChanceStep*float64(state.EscapeAttempts-1)
		if chance > 1.0 {
			chance = 1.0
		}
		// После max_turns попыток побег гарантирован
		if state.EscapeAttempts >= state.MaxTurns {
			chance = 1.0
		}
		if rng.Float64() < chance {
			escaped = true
			messages = append(messages, "你成功脫離戰鬥！")
		} else {
			durabilityLoss = 1
			messages = append(messages, "逃跑失敗！")
		}

	default:
		// Колебание или неизвестное действие всегда стоит очко прочности
		durabilityLoss = 1
		messages = append(messages, "你猶豫不決，什麼也沒做。")
	}

	if durabilityLoss > 0 {
		state.Durability -= durabilityLoss
		if state.Durability < 0 {
			state.Durability = 0
		}
		messages = append(messages, fmt.Sprintf("戰意剩餘 %d/%d。", state.Durability, state.MaxDurability))
	}

	battleOver := victory || escaped
	defeat := false
	// Исчерпанная прочность — поражение в тот же ход, без отсрочки
	if !battleOver && state.Durability <= 0 {
		defeat = true
		battleOver = true
		messages = append(messages, "你再也支撐不住，倒了下去。")
	}

	if battleOver {
		state.Active = false
		state.Victory = victory
		state.Escaped = escaped
		state.Defeat = defeat
		// Прочность возвращается к максимуму, чтобы UI показывал полную шкалу
		state.Durability = state.MaxDurability
		switch {
		case victory:
			turn.Cue(models.CueVictory, state.Enemy.Name)
		case escaped:
			turn.Cue(models.CueEscape, state.Enemy.Name)
		default:
			turn.Cue(models.CueDefeat, state.Enemy.Name)
		}
	}

	for _, message := range messages {
		turn.System(message)
	}

	remaining := state.Durability
	return models.BattleOutcome{
		Messages:            messages,
		BattleOver:          battleOver,
		Victory:             victory,
		Escaped:             escaped,
		Defeat:              defeat,
		DurabilityLoss:      durabilityLoss,
		RemainingDurability: remaining,
		TurnCount:           state.TurnCount,
	}
}
