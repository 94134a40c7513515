package engine

import (
	"fmt"

	"adventure-server/shared/models"
)

// Система судьбы: все легитимные изменения значения fate плюс логика
// продвижения глав, фиксации основной ветки и подготовки концовки.
// Пороговые константы закреплены сюжетом и не конфигурируются.

const (
	FateMin = 0
	FateMax = 100

	HighThreshold = 67
	LowThreshold  = 33

	MaxNormalDelta = 10
	MaxMajorDelta  = 20
	MaxBiasDelta   = 5

	FateHistoryLimit = 10

	// Серия отказов, после которой судьба вмешивается
	RefusalTriggerStreak = 2

	SelfDoubtEventID = "fate_trigger_self_doubt"
)

// chapterThresholds — пороги шагов для открытия глав. Глава только растет
// и прыгает сразу на максимальный достигнутый порог.
var chapterThresholds = []struct {
	chapter int
	steps   int
}{
	{2, 3},
	{3, 6},
	{4, 9},
	{5, 12},
}

var lockEvents = map[models.FateBand]string{
	models.FateBandHigh: "fate_lock_high",
	models.FateBandMid:  "fate_lock_mid",
	models.FateBandLow:  "fate_lock_low",
}

var endingEvents = map[models.FateBand]string{
	models.FateBandHigh: "fate_ending_high",
	models.FateBandMid:  "fate_ending_mid",
	models.FateBandLow:  "fate_ending_low",
}

// ChangeKind различает источники изменения судьбы и их лимиты.
type ChangeKind string

const (
	ChangeNormal ChangeKind = "normal"
	ChangeMajor  ChangeKind = "major"
	ChangeBias   ChangeKind = "bias"
)

// FateChange — запрос на изменение судьбы.
type FateChange struct {
	Value  int
	Reason string
	Kind   ChangeKind
}

// ClampFate ограничивает значение судьбы диапазоном [FateMin, FateMax].
func ClampFate(value int) int {
	if value < FateMin {
		return FateMin
	}
	if value > FateMax {
		return FateMax
	}
	return value
}

// DetermineBand классифицирует значение судьбы по полосам.
func DetermineBand(value int) models.FateBand {
	switch {
	case value >= HighThreshold:
		return models.FateBandHigh
	case value <= LowThreshold:
		return models.FateBandLow
	default:
		return models.FateBandMid
	}
}

func limitDelta(delta int, kind ChangeKind) int {
	limit := MaxNormalDelta
	switch kind {
	case ChangeMajor:
		limit = MaxMajorDelta
	case ChangeBias:
		limit = MaxBiasDelta
	}
	if delta > limit {
		return limit
	}
	if delta < -limit {
		return -limit
	}
	return delta
}

// ApplyFateChange применяет дельту судьбы с учетом сюжетных лимитов.
// Дельта сверх лимита обрезается (с системной строкой), нулевая — полный no-op.
func ApplyFateChange(player *models.PlayerState, turn *Turn, change FateChange) {
	limited := limitDelta(change.Value, change.Kind)
	if limited != change.Value {
		turn.System("命運的擺盪被某種力量限制住了……")
	}
	if limited == 0 {
		return
	}

	oldValue := player.Fate
	newValue := ClampFate(oldValue + limited)
	player.Fate = newValue

	// Последние 10 значений — база для усредненного смещения в третьей главе
	player.FateHistory = append(player.FateHistory, newValue)
	if len(player.FateHistory) > FateHistoryLimit {
		player.FateHistory = player.FateHistory[1:]
	}

	turn.fateChanged = true
	turn.System(fmt.Sprintf("命運值 %d → %d", oldValue, newValue))
}

// ApplyNormalChoice применяет обычное изменение судьбы (лимит 10).
func ApplyNormalChoice(player *models.PlayerState, turn *Turn, delta int, reason string) {
	ApplyFateChange(player, turn, FateChange{Value: delta, Reason: reason, Kind: ChangeNormal})
}

// ApplyMajorChoice применяет крупное изменение судьбы (лимит 20).
func ApplyMajorChoice(player *models.PlayerState, turn *Turn, delta int, reason string) {
	ApplyFateChange(player, turn, FateChange{Value: delta, Reason: reason, Kind: ChangeMajor})
}

var bandTargets = map[models.FateBand]int{
	models.FateBandHigh: 75,
	models.FateBandMid:  50,
	models.FateBandLow:  25,
}

// nudgeTowardBand мягко тянет судьбу к целевой полосе, не превышая лимит bias.
func nudgeTowardBand(player *models.PlayerState, turn *Turn, target models.FateBand, reason string) {
	delta := bandTargets[target] - player.Fate
	if delta > MaxBiasDelta {
		delta = MaxBiasDelta
	} else if delta < -MaxBiasDelta {
		delta = -MaxBiasDelta
	}
	if delta == 0 {
		return
	}
	ApplyFateChange(player, turn, FateChange{Value: delta, Reason: reason, Kind: ChangeBias})
}

// AdvanceChapterIfNeeded поднимает главу по порогам шагов. Возвращает новую
// главу и true, если глава изменилась.
func AdvanceChapterIfNeeded(player *models.PlayerState, turn *Turn) (int, bool) {
	newChapter := player.Chapter
	for _, threshold := range chapterThresholds {
		if player.Steps >= threshold.steps && threshold.chapter > newChapter {
			newChapter = threshold.chapter
		}
	}
	if newChapter == player.Chapter {
		return player.Chapter, false
	}
	player.Chapter = newChapter
	turn.Add(fmt.Sprintf("第 %d 章揭開帷幕，命運的重量更加沈重。", newChapter))
	turn.Cue(models.CueChapter, fmt.Sprintf("%d", newChapter))
	return newChapter, true
}

// applyChapterBias выполняет авто-коррекцию судьбы раз за событие.
// No-op, если судьба уже была явно изменена в этом ходу.
func applyChapterBias(player *models.PlayerState, turn *Turn) {
	if turn.fateChanged {
		return
	}

	switch player.Chapter {
	case 2:
		// Без экстремальных выборов судьба постепенно возвращается к середине
		switch DetermineBand(player.Fate) {
		case models.FateBandHigh:
			nudgeTowardBand(player, turn, models.FateBandMid, "第二章：系統校準你的理性")
		case models.FateBandLow:
			nudgeTowardBand(player, turn, models.FateBandMid, "第二章：系統校準你的荒謬")
		}
	case 3:
		if len(player.FateHistory) == 0 {
			return
		}
		sum := 0
		for _, value := range player.FateHistory {
			sum += value
		}
		avg := float64(sum) / float64(len(player.FateHistory))
		switch {
		case avg >= 55:
			nudgeTowardBand(player, turn, models.FateBandHigh, "第三章：理性線索逐漸成形")
		case avg <= 45:
			nudgeTowardBand(player, turn, models.FateBandLow, "第三章：荒謬低語愈發清晰")
		default:
			nudgeTowardBand(player, turn, models.FateBandMid, "第三章：命運保持微妙平衡")
		}
	}
}

// maybeLockMainPath фиксирует основную ветку, когда глава достигла 4.
// Срабатывает ровно один раз за прохождение и возвращает id события фиксации.
func maybeLockMainPath(player *models.PlayerState, turn *Turn) string {
	if player.Chapter < 4 || player.FatePathLocked {
		return ""
	}
	band := DetermineBand(player.Fate)
	player.FatePathLocked = true
	player.FateLockedBand = band
	turn.Add("命運緊緊扣住了你的方向，主線已成定局。")
	return lockEvents[band]
}

// maybePrepareEnding готовит концовку, когда глава достигла 5.
// Полоса берется зафиксированная, иначе текущая.
func maybePrepareEnding(player *models.PlayerState, turn *Turn) string {
	if player.Chapter < 5 || player.EndingPrepared {
		return ""
	}
	band := player.FateLockedBand
	if band == "" {
		band = DetermineBand(player.Fate)
	}
	player.EndingPrepared = true
	turn.Add("結局的陰影浮現，你無法再回頭。")
	return endingEvents[band]
}

// PostEventUpdate — точка оркестрации после каждого полностью разрешенного
// события (не вызывается посреди боя). Возвращает id принудительного события,
// если прогрессия требует фиксации ветки или концовки.
func PostEventUpdate(player *models.PlayerState, turn *Turn) string {
	player.Steps++

	AdvanceChapterIfNeeded(player, turn)
	applyChapterBias(player, turn)

	if forced := maybeLockMainPath(player, turn); forced != "" {
		turn.fateChanged = false
		return forced
	}

	forced := maybePrepareEnding(player, turn)
	turn.fateChanged = false
	return forced
}

// HandleRefusal отслеживает серию отказов. На второй подряд отказ серия
// сбрасывается и возвращается событие самосомнения.
func HandleRefusal(player *models.PlayerState, turn *Turn) string {
	player.RefusalStreak++
	if player.RefusalStreak >= RefusalTriggerStreak {
		player.RefusalStreak = 0
		turn.Add("連續的拒絕讓命運質疑你的存在。")
		return SelfDoubtEventID
	}
	return ""
}

// ResetRefusal обнуляет серию отказов при любом не-отказном выборе.
func ResetRefusal(player *models.PlayerState) {
	player.RefusalStreak = 0
}
