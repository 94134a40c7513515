package engine_test

import (
	"testing"

	"adventure-server/engine-service/internal/engine"
	"adventure-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedBattlePlayer(t *testing.T, durability, maxTurns int) *models.PlayerState {
	t.Helper()
	player := briefedPlayer()
	event := &models.Event{
		ID:               "遭遇戰",
		Type:             models.EventTypeBattle,
		Enemy:            &models.EnemySpec{Name: "影狼", HP: 6, Atk: 3, Def: 1},
		BattleDurability: durability,
		BattleMaxTurns:   maxTurns,
	}
	engine.StartBattle(player, event, engine.NewTurn())
	require.NotNil(t, player.Battle)
	return player
}

func TestStartBattleDefaultsAndLegacyFallback(t *testing.T) {
	player := briefedPlayer()
	// Неположительные переопределения откатываются к значениям по умолчанию,
	// враг берется из плоских легаси-полей
	event := &models.Event{
		ID:               "舊式遭遇",
		Type:             models.EventTypeBattle,
		EnemyName:        "石像鬼",
		EnemyHP:          12,
		BattleDurability: -2,
		BattleMaxTurns:   0,
	}
	engine.StartBattle(player, event, engine.NewTurn())

	state := player.Battle
	require.NotNil(t, state)
	assert.Equal(t, "石像鬼", state.Enemy.Name)
	assert.Equal(t, 12, state.Enemy.HP)
	assert.Equal(t, engine.DefaultBattleDurability, state.Durability)
	assert.Equal(t, engine.DefaultBattleMaxTurns, state.MaxTurns)
	assert.True(t, state.Active)

	// Полностью пустые данные врага дают имя по умолчанию и HP 1
	player2 := briefedPlayer()
	engine.StartBattle(player2, &models.Event{ID: "無名之戰", Type: models.EventTypeBattle}, engine.NewTurn())
	assert.Equal(t, models.DefaultEnemyName, player2.Battle.Enemy.Name)
	assert.Equal(t, 1, player2.Battle.Enemy.HP)
}

func TestNoActiveBattleIsNoop(t *testing.T) {
	player := briefedPlayer()

	outcome := engine.PerformBattleAction(player, "attack", engine.BattleConfig{}, &stubRand{}, engine.NewTurn())

	assert.True(t, outcome.BattleOver)
	assert.Equal(t, []string{"目前沒有正在進行的戰鬥。"}, outcome.Messages)
	assert.Nil(t, player.Battle)
	assert.Zero(t, outcome.PlayerDamage)
	assert.Zero(t, outcome.EnemyDamage)
}

func TestAttackGuaranteedOnFinalAttempt(t *testing.T) {
	// Сквозной сценарий: прочность 3, лимит 3, шанс атаки 0 — две неудачи,
	// третья попытка успешна независимо от ГСЧ
	player := startedBattlePlayer(t, 3, 3)
	cfg := engine.BattleConfig{AttackChance: floatPtr(0.0)}

	outcome := engine.PerformBattleAction(player, "attack", cfg, &stubRand{}, engine.NewTurn())
	assert.False(t, outcome.BattleOver)
	assert.Equal(t, 1, outcome.DurabilityLoss)
	assert.Equal(t, 2, outcome.RemainingDurability)

	outcome = engine.PerformBattleAction(player, "attack", cfg, &stubRand{}, engine.NewTurn())
	assert.False(t, outcome.BattleOver)
	assert.Equal(t, 1, outcome.RemainingDurability)

	outcome = engine.PerformBattleAction(player, "attack", cfg, &stubRand{}, engine.NewTurn())
	assert.True(t, outcome.Victory)
	assert.True(t, outcome.BattleOver)
	assert.Equal(t, 3, outcome.TurnCount)
	// Прочность возвращена к максимуму для чистого отображения
	assert.Equal(t, 3, player.Battle.Durability)
	assert.False(t, player.Battle.Active)
}

func TestEscapeGuaranteedOnFinalAttempt(t *testing.T) {
	player := startedBattlePlayer(t, 3, 3)
	cfg := engine.BattleConfig{EscapeChance: floatPtr(0.0)}
	// stubRand по умолчанию отдает 0.99: все вероятностные броски проваливаются
	rng := &stubRand{}

	outcome := engine.PerformBattleAction(player, "escape", cfg, rng, engine.NewTurn())
	assert.False(t, outcome.BattleOver)

	outcome = engine.PerformBattleAction(player, "escape", cfg, rng, engine.NewTurn())
	assert.False(t, outcome.BattleOver)
	assert.Equal(t, 1, outcome.RemainingDurability)

	// Третья попытка: шанс принудительно 1.0
	outcome = engine.PerformBattleAction(player, "escape", cfg, rng, engine.NewTurn())
	assert.True(t, outcome.Escaped)
	assert.True(t, outcome.BattleOver)
	assert.False(t, outcome.Victory)
}

func TestEscapeChanceEscalates(t *testing.T) {
	player := startedBattlePlayer(t, 10, 10)
	cfg := engine.BattleConfig{EscapeChance: floatPtr(0.5)}

	// Вторая попытка: шанс 0.5 + 0.15 = 0.65; бросок 0.6 успешен
	rng := &stubRand{floats: []float64{0.7, 0.6}}
	outcome := engine.PerformBattleAction(player, "escape", cfg, rng, engine.NewTurn())
	assert.False(t, outcome.BattleOver)

	outcome = engine.PerformBattleAction(player, "escape", cfg, rng, engine.NewTurn())
	assert.True(t, outcome.Escaped)
}

func TestHesitationCostsDurability(t *testing.T) {
	player := startedBattlePlayer(t, 3, 3)

	outcome := engine.PerformBattleAction(player, "wait", engine.BattleConfig{}, &stubRand{}, engine.NewTurn())

	assert.False(t, outcome.BattleOver)
	assert.Equal(t, 1, outcome.DurabilityLoss)
	assert.Equal(t, 2, outcome.RemainingDurability)
	assert.Equal(t, 1, outcome.TurnCount)
}

func TestDefeatForcedSameTurnDurabilityHitsZero(t *testing.T) {
	player := startedBattlePlayer(t, 1, 5)

	outcome := engine.PerformBattleAction(player, "wait", engine.BattleConfig{}, &stubRand{}, engine.NewTurn())

	// Поражение фиксируется в тот же ход, не откладывается
	assert.True(t, outcome.Defeat)
	assert.True(t, outcome.BattleOver)
	assert.False(t, outcome.Victory)
	assert.False(t, outcome.Escaped)
	assert.False(t, player.Battle.Active)
	// Прочность не уходит в минус и возвращается к максимуму
	assert.Equal(t, 1, player.Battle.Durability)
}

func TestDurabilityNeverNegative(t *testing.T) {
	player := startedBattlePlayer(t, 2, 9)
	cfg := engine.BattleConfig{AttackChance: floatPtr(0.0)}

	for i := 0; i < 2; i++ {
		outcome := engine.PerformBattleAction(player, "attack", cfg, &stubRand{}, engine.NewTurn())
		assert.GreaterOrEqual(t, outcome.RemainingDurability, 0)
	}
	// Бой завершился поражением на втором ходу
	assert.True(t, player.Battle.Defeat)
}
