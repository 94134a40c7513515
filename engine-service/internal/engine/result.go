package engine

import (
	"fmt"

	"adventure-server/shared/models"
)

// Применение декларативного payload выбранной опции к состоянию игрока.
// Порядок шагов закреплен: от него зависит последовательность строк лога
// и ветвление по исходу боя.

// MissionPotionName — стартовый предмет, выдаваемый при создании задания.
const MissionPotionName = "治療藥水"

func applyNumericChange(player *models.PlayerState, turn *Turn, key string, delta int) {
	current, ok := player.Stat(key)
	if !ok {
		// Неизвестный ключ молча игнорируется: схема не создает полей на лету
		return
	}

	value := current + delta
	if value < 0 {
		value = 0
	}
	player.SetStat(key, value)

	if key == "hp" {
		if delta > 0 {
			turn.Cue(models.CueHeal, "")
		}
		if value <= 0 && !player.GameOver {
			player.GameOver = true
			turn.System("你因傷重不治，離開人世。")
		}
	}

	sign := ""
	if delta >= 0 {
		sign = "+"
	}
	label := map[string]string{"hp": "HP", "atk": "ATK", "def": "DEF"}[key]
	turn.System(fmt.Sprintf("%s %s%d → %d", label, sign, delta, value))
}

// applyEffects маршрутизирует типизированные изменения: ключи судьбы идут
// через систему судьбы со своим видом лимита, остальные — прямые изменения
// характеристик.
func applyEffects(player *models.PlayerState, turn *Turn, effects models.EffectSet, sourceText string) {
	for _, change := range effects {
		switch change.Kind {
		case models.EffectFate:
			reason := sourceText
			if reason == "" {
				reason = "命運波動"
			}
			ApplyNormalChoice(player, turn, change.Value, reason)
		case models.EffectFateMajor:
			reason := sourceText
			if reason == "" {
				reason = "重大抉擇"
			}
			ApplyMajorChoice(player, turn, change.Value, reason)
		case models.EffectFateBias:
			reason := sourceText
			if reason == "" {
				reason = "命運微調"
			}
			ApplyFateChange(player, turn, FateChange{Value: change.Value, Reason: reason, Kind: ChangeBias})
		case models.EffectStat:
			applyNumericChange(player, turn, change.Stat, change.Value)
		}
	}
}

// ApplyEventResult применяет payload опции. Возвращает id принудительного
// события (если его нужно поставить в очередь) и исход боевого хода, когда
// payload содержал боевое действие.
func ApplyEventResult(player *models.PlayerState, result *models.EventResult, rng Rand, turn *Turn) (string, *models.BattleOutcome) {
	if result == nil {
		ResetRefusal(player)
		return "", nil
	}

	forcedEvent := result.ForcedEvent
	var battleOutcome *models.BattleOutcome

	// 1. Основной текст результата
	if result.Text != "" {
		turn.Add(result.Text)
	}

	// 2. Боевое действие и ветвление по исходу
	if result.BattleAction != "" {
		outcome := PerformBattleAction(player, result.BattleAction, BattleConfig{
			AttackChance: result.AttackChance,
			EscapeChance: result.EscapeChance,
		}, rng, turn)
		battleOutcome = &outcome

		if outcome.BattleOver {
			switch {
			case outcome.Victory:
				reason := result.VictoryText
				if reason == "" {
					reason = result.Text
				}
				if reason == "" {
					reason = "勝利獎勵"
				}
				applyEffects(player, turn, result.VictoryEffect, reason)
				for _, entry := range result.VictoryLog {
					turn.System(entry)
				}
			case outcome.Escaped:
				reason := result.EscapeText
				if reason == "" {
					reason = result.Text
				}
				if reason == "" {
					reason = "撤退"
				}
				applyEffects(player, turn, result.EscapeEffect, reason)
			case outcome.Defeat:
				applyEffects(player, turn, result.DefeatEffect, result.Text)
				for _, entry := range result.DefeatLog {
					turn.System(entry)
				}
				if forcedEvent == "" && result.ForcedEventOnDefeat != "" {
					forcedEvent = result.ForcedEventOnDefeat
				}
			}
			// forced_event_on_end имеет приоритет над forced_event_on_defeat
			if result.ForcedEventOnEnd != "" && result.ForcedEvent == "" {
				forcedEvent = result.ForcedEventOnEnd
			}
		}
	}

	// 3. Дополнительные строки лога
	for _, entry := range result.EmitLog {
		turn.Add(entry)
	}

	// 4. Общая карта эффектов
	if len(result.Effect) > 0 {
		sourceText := result.Text
		if sourceText == "" {
			sourceText = "事件效果"
		}
		applyEffects(player, turn, result.Effect, sourceText)
	}

	// 5. Инвентарь
	for _, item := range result.InventoryAdd {
		player.Inventory = append(player.Inventory, item)
		turn.System(fmt.Sprintf("你獲得了道具：%s", item))
		turn.Cue(models.CueItemGained, item)
	}
	for _, item := range result.InventoryRemove {
		if player.RemoveItem(item) {
			turn.System(fmt.Sprintf("你失去了道具：%s", item))
			turn.Cue(models.CueItemLost, item)
		}
	}

	// 6. Флаги; установка флага брифинга создает задание и выдает стартовый предмет
	for _, flag := range result.FlagsSet {
		player.Flags[flag] = true
		turn.System(fmt.Sprintf("旗標觸發：%s", flag))
		if flag == MissionBriefFlag {
			turn.System("任務已建立：調查淺川村")
			if !player.HasItem(MissionPotionName) {
				player.Inventory = append(player.Inventory, MissionPotionName)
				turn.System(fmt.Sprintf("你獲得了道具：%s", MissionPotionName))
				turn.Cue(models.CueItemGained, MissionPotionName)
			}
		}
	}
	for _, flag := range result.FlagsClear {
		if player.Flags[flag] {
			player.Flags[flag] = false
			turn.System(fmt.Sprintf("旗標解除：%s", flag))
		}
	}

	// 7. Прямой сюжетный прыжок главы (мимо монотонного продвижения по шагам)
	if result.GotoChapter > 0 {
		player.Chapter = result.GotoChapter
		turn.System(fmt.Sprintf("章節推進至：第 %d 章", result.GotoChapter))
		turn.Cue(models.CueChapter, fmt.Sprintf("%d", result.GotoChapter))
	}

	// 8. Учет отказов; событие самосомнения уступает приоритету payload
	if result.Refuse || result.HasTag("refuse") {
		if triggered := HandleRefusal(player, turn); triggered != "" && forcedEvent == "" {
			forcedEvent = triggered
		}
	} else {
		ResetRefusal(player)
	}

	// 9. Постановка принудительного события в очередь
	if forcedEvent != "" {
		player.ForcedEvent = forcedEvent
	}
	return forcedEvent, battleOutcome
}
