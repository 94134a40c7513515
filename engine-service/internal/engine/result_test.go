package engine_test

import (
	"testing"

	"adventure-server/engine-service/internal/engine"
	"adventure-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissionBriefGrantsStarterItemOnce(t *testing.T) {
	// Сквозной сценарий: опция добавляет зелье и ставит флаг брифинга,
	// который сам по себе тоже выдает стартовое зелье — дубликата быть не должно
	player := models.NewPlayerState()
	result := &models.EventResult{
		InventoryAdd: models.StringList{engine.MissionPotionName},
		FlagsSet:     []string{engine.MissionBriefFlag},
	}

	engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	assert.Equal(t, []string{engine.MissionPotionName}, player.Inventory)
	assert.True(t, player.Flags[engine.MissionBriefFlag])
}

func TestMissionBriefGrantsStarterItemWhenMissing(t *testing.T) {
	player := models.NewPlayerState()
	result := &models.EventResult{FlagsSet: []string{engine.MissionBriefFlag}}

	engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	assert.Equal(t, []string{engine.MissionPotionName}, player.Inventory)
}

func TestEffectRoutingFateKinds(t *testing.T) {
	player := models.NewPlayerState()
	result := &models.EventResult{
		Text:   "重大的抉擇時刻。",
		Effect: models.EffectSet{{Kind: models.EffectFateMajor, Value: 30}},
	}

	engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	// Крупное изменение обрезается лимитом major (20)
	assert.Equal(t, 70, player.Fate)
	assert.Equal(t, []int{70}, player.FateHistory)
}

func TestEffectStatDeltaAndUnknownKeyIgnored(t *testing.T) {
	player := models.NewPlayerState()
	result := &models.EventResult{
		Effect: models.EffectSet{
			{Kind: models.EffectStat, Stat: "hp", Value: -5},
			{Kind: models.EffectStat, Stat: "mana", Value: 10}, // поля нет — игнор
		},
	}

	engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	assert.Equal(t, 15, player.HP)
}

func TestStatNeverDropsBelowZeroAndDeathSetsGameOver(t *testing.T) {
	player := models.NewPlayerState()
	result := &models.EventResult{
		Effect: models.EffectSet{{Kind: models.EffectStat, Stat: "hp", Value: -50}},
	}
	turn := engine.NewTurn()

	engine.ApplyEventResult(player, result, &stubRand{}, turn)

	assert.Equal(t, 0, player.HP)
	assert.True(t, player.GameOver)
}

func TestInventoryRemoveMissingItemIsNoop(t *testing.T) {
	player := models.NewPlayerState()
	player.Inventory = []string{"古老的鑰匙"}
	result := &models.EventResult{InventoryRemove: models.StringList{"銀幣"}}

	engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	assert.Equal(t, []string{"古老的鑰匙"}, player.Inventory)
}

func TestGotoChapterBypassesThresholds(t *testing.T) {
	player := models.NewPlayerState()
	result := &models.EventResult{GotoChapter: 4}

	engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	assert.Equal(t, 4, player.Chapter)
	assert.Zero(t, player.Steps) // прямой прыжок не трогает шаги
}

func TestRefusalTagQueuesSelfDoubt(t *testing.T) {
	player := models.NewPlayerState()
	refusal := &models.EventResult{Tags: []string{"refuse"}}

	forced, _ := engine.ApplyEventResult(player, refusal, &stubRand{}, engine.NewTurn())
	assert.Empty(t, forced)

	forced, _ = engine.ApplyEventResult(player, refusal, &stubRand{}, engine.NewTurn())
	assert.Equal(t, engine.SelfDoubtEventID, forced)
	assert.Equal(t, engine.SelfDoubtEventID, player.ForcedEvent)
}

func TestPayloadForcedEventBeatsRefusalTrigger(t *testing.T) {
	player := models.NewPlayerState()
	player.RefusalStreak = 1 // следующий отказ вызвал бы самосомнение
	result := &models.EventResult{Refuse: true, ForcedEvent: "審判"}

	forced, _ := engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	assert.Equal(t, "審判", forced)
	assert.Equal(t, "審判", player.ForcedEvent)
}

func TestNonRefusalResetsStreak(t *testing.T) {
	player := models.NewPlayerState()
	player.RefusalStreak = 1

	engine.ApplyEventResult(player, &models.EventResult{Text: "你接受了請求。"}, &stubRand{}, engine.NewTurn())

	assert.Zero(t, player.RefusalStreak)
}

func TestBattleVictoryBranch(t *testing.T) {
	player := models.NewPlayerState()
	event := &models.Event{
		ID:             "決戰",
		Type:           models.EventTypeBattle,
		Enemy:          &models.EnemySpec{Name: "深淵之主", HP: 9},
		BattleMaxTurns: 1, // первая же атака успешна безусловно
	}
	engine.StartBattle(player, event, engine.NewTurn())

	result := &models.EventResult{
		BattleAction:     "attack",
		AttackChance:     floatPtr(0.0),
		VictoryEffect:    models.EffectSet{{Kind: models.EffectFate, Value: 5}},
		VictoryLog:       models.StringList{"深淵之主化為霧氣消散。"},
		ForcedEventOnEnd: "凱旋",
	}
	turn := engine.NewTurn()
	forced, outcome := engine.ApplyEventResult(player, result, &stubRand{}, turn)

	require.NotNil(t, outcome)
	assert.True(t, outcome.Victory)
	assert.Equal(t, 55, player.Fate)
	assert.Equal(t, "凱旋", forced)

	found := false
	for _, entry := range turn.Entries() {
		if entry.Text == "深淵之主化為霧氣消散。" {
			found = true
		}
	}
	assert.True(t, found, "victory_log должен попасть в лог")
}

func TestBattleDefeatBranch(t *testing.T) {
	player := models.NewPlayerState()
	event := &models.Event{
		ID:               "絕境",
		Type:             models.EventTypeBattle,
		Enemy:            &models.EnemySpec{Name: "無面者", HP: 9},
		BattleDurability: 1,
		BattleMaxTurns:   5,
	}
	engine.StartBattle(player, event, engine.NewTurn())

	result := &models.EventResult{
		BattleAction:        "attack",
		AttackChance:        floatPtr(0.0),
		DefeatEffect:        models.EffectSet{{Kind: models.EffectStat, Stat: "hp", Value: -5}},
		DefeatLog:           models.StringList{"黑暗吞沒了你的視野。"},
		ForcedEventOnDefeat: "倖存",
	}
	forced, outcome := engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	require.NotNil(t, outcome)
	assert.True(t, outcome.Defeat)
	assert.Equal(t, 15, player.HP)
	assert.Equal(t, "倖存", forced)
}

func TestForcedEventOnEndBeatsOnDefeat(t *testing.T) {
	player := models.NewPlayerState()
	event := &models.Event{
		ID:               "絕境",
		Type:             models.EventTypeBattle,
		BattleDurability: 1,
		BattleMaxTurns:   5,
	}
	engine.StartBattle(player, event, engine.NewTurn())

	result := &models.EventResult{
		BattleAction:        "attack",
		AttackChance:        floatPtr(0.0),
		ForcedEventOnEnd:    "終章",
		ForcedEventOnDefeat: "倖存",
	}
	forced, _ := engine.ApplyEventResult(player, result, &stubRand{}, engine.NewTurn())

	assert.Equal(t, "終章", forced)
}
