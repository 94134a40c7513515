package engine_test

import (
	"fmt"
	"testing"

	"adventure-server/engine-service/internal/engine"
	"adventure-server/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	events := []models.Event{
		{ID: "路口", Type: models.EventTypeNormal},
		{ID: "路口", Type: models.EventTypeDialogue},
	}
	_, err := engine.NewCatalog(events, zap.NewNop())
	assert.ErrorIs(t, err, models.ErrDuplicateEvent)
}

func TestLoadCatalogRejectsUnknownFields(t *testing.T) {
	// Опечатка в ключе данных должна падать при загрузке, не игнорироваться
	data := []byte(`[{"id": "路口", "type": "normal", "cooldwn": 2}]`)
	_, err := engine.LoadCatalog(data, zap.NewNop())
	assert.ErrorIs(t, err, models.ErrCatalogInvalid)

	data = []byte(`[{"id": "路口", "type": "normal", "cooldown": 2}]`)
	catalog, err := engine.LoadCatalog(data, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Len())
}

func TestIntroBriefingAlwaysFirst(t *testing.T) {
	catalog := mustCatalog(t, []models.Event{
		// Брифинг нарушает все обычные фильтры: чужой тип, недосягаемая глава
		{ID: engine.IntroEventID, Type: models.EventTypeMilestone, Chapter: 9, Once: true, Cooldown: 2},
		{ID: "日常", Type: models.EventTypeNormal},
	})
	player := models.NewPlayerState()

	event := catalog.NextEvent(player, []models.EventType{models.EventTypeNormal}, &stubRand{})

	require.NotNil(t, event)
	assert.Equal(t, engine.IntroEventID, event.ID)
	// Побочные эффекты выборки применяются и к брифингу
	assert.True(t, player.ConsumedEvents.Has(engine.IntroEventID))
	assert.Equal(t, 2, player.EventCooldowns[engine.IntroEventID])

	// Повторно брифинг не возвращается: одноразовость уже зафиксирована
	event = catalog.NextEvent(player, []models.EventType{models.EventTypeNormal}, &stubRand{})
	require.NotNil(t, event)
	assert.Equal(t, "日常", event.ID)
}

func TestForcedEventConsumedOnRead(t *testing.T) {
	catalog := mustCatalog(t, []models.Event{
		{ID: "審判", Type: models.EventTypeConditional, Chapter: 9}, // обычной выборке недоступно
		{ID: "日常", Type: models.EventTypeNormal},
	})
	player := briefedPlayer()
	player.ForcedEvent = "審判"

	event := catalog.NextEvent(player, nil, &stubRand{})

	require.NotNil(t, event)
	assert.Equal(t, "審判", event.ID)
	// Слот очищен в момент чтения: второй вызов его не переиспользует
	assert.Empty(t, player.ForcedEvent)

	event = catalog.NextEvent(player, nil, &stubRand{})
	require.NotNil(t, event)
	assert.Equal(t, "日常", event.ID)
}

func TestBrokenForcedEventFallsThrough(t *testing.T) {
	catalog := mustCatalog(t, []models.Event{
		{ID: "日常", Type: models.EventTypeNormal},
		{ID: "一期一會", Type: models.EventTypeDialogue, Once: true},
	})
	player := briefedPlayer()

	// Ссылки на отсутствующее событие не роняют выборку
	player.ForcedEvent = "不存在的事件"
	event := catalog.NextEvent(player, []models.EventType{models.EventTypeNormal}, &stubRand{})
	require.NotNil(t, event)
	assert.Equal(t, "日常", event.ID)
	assert.Empty(t, player.ForcedEvent)

	// Уже использованное одноразовое принудительное событие тоже пропускается
	player.ConsumedEvents.Add("一期一會")
	player.ForcedEvent = "一期一會"
	event = catalog.NextEvent(player, []models.EventType{models.EventTypeNormal}, &stubRand{})
	require.NotNil(t, event)
	assert.Equal(t, "日常", event.ID)
}

func TestMidbandTriggerFiresDeterministically(t *testing.T) {
	// Вес 0 держит триггер вне взвешенной выборки: он приходит только через свой ярус
	trigger := models.Event{ID: engine.FateTriggerMidbandID, Type: models.EventTypeConditional, Once: true, Weight: intPtr(0)}
	catalog := mustCatalog(t, []models.Event{trigger, {ID: "日常", Type: models.EventTypeNormal}})
	player := briefedPlayer()
	player.Fate = 50 // внутри нейтральной полосы [40,60]

	// Первые две выборки — обычные события, счетчик растет
	for i := 0; i < engine.MidbandLimit-1; i++ {
		event := catalog.NextEvent(player, nil, &stubRand{})
		require.NotNil(t, event)
		assert.Equal(t, "日常", event.ID)
		assert.Equal(t, i+1, player.MidbandCounter)
	}

	// Ровно на третьей выборке судьба вмешивается, счетчик сбрасывается
	event := catalog.NextEvent(player, nil, &stubRand{})
	require.NotNil(t, event)
	assert.Equal(t, engine.FateTriggerMidbandID, event.ID)
	assert.Equal(t, 0, player.MidbandCounter)
}

func TestMidbandTriggerRepeatsAfterNewStreak(t *testing.T) {
	// Триггер без once: пока судьба застревает в полосе, он срабатывает снова
	trigger := models.Event{ID: engine.FateTriggerMidbandID, Type: models.EventTypeConditional, Weight: intPtr(0)}
	catalog := mustCatalog(t, []models.Event{trigger, {ID: "日常", Type: models.EventTypeNormal}})
	player := briefedPlayer()
	player.Fate = 50

	fired := 0
	for i := 0; i < engine.MidbandLimit*2; i++ {
		event := catalog.NextEvent(player, nil, &stubRand{})
		require.NotNil(t, event)
		if event.ID == engine.FateTriggerMidbandID {
			fired++
		}
	}
	// Две полные серии по MidbandLimit выборок — два срабатывания
	assert.Equal(t, 2, fired)
}

func TestMidbandCounterResetsOutsideBand(t *testing.T) {
	catalog := mustCatalog(t, []models.Event{{ID: "日常", Type: models.EventTypeNormal}})
	player := briefedPlayer()

	player.Fate = 50
	catalog.NextEvent(player, nil, &stubRand{})
	catalog.NextEvent(player, nil, &stubRand{})
	assert.Equal(t, 2, player.MidbandCounter)

	player.Fate = 70 // выход из полосы обнуляет серию
	catalog.NextEvent(player, nil, &stubRand{})
	assert.Equal(t, 0, player.MidbandCounter)
}

func TestCooldownBlocksExactly(t *testing.T) {
	catalog := mustCatalog(t, []models.Event{{ID: "日常", Type: models.EventTypeNormal, Cooldown: 1}})
	player := briefedPlayer()

	// Выборка ставит кулдаун 1
	event := catalog.NextEvent(player, nil, &stubRand{})
	require.NotNil(t, event)

	// Кулдаун 1 блокирует ровно одну следующую выборку
	event = catalog.NextEvent(player, nil, &stubRand{})
	assert.Nil(t, event)

	event = catalog.NextEvent(player, nil, &stubRand{})
	require.NotNil(t, event)
	assert.Equal(t, "日常", event.ID)
}

func TestOnceEventNeverRepeats(t *testing.T) {
	catalog := mustCatalog(t, []models.Event{
		{ID: "一期一會", Type: models.EventTypeNormal, Once: true, Weight: intPtr(1000)},
		{ID: "日常", Type: models.EventTypeNormal},
	})
	player := briefedPlayer()
	rng := engine.NewRand(7)

	seen := 0
	for i := 0; i < 200; i++ {
		event := catalog.NextEvent(player, nil, rng)
		require.NotNil(t, event)
		if event.ID == "一期一會" {
			seen++
		}
	}
	// Вес и условия не важны: после первого срабатывания — никогда снова
	assert.Equal(t, 1, seen)
}

func TestWeightedSelectionFairness(t *testing.T) {
	catalog := mustCatalog(t, []models.Event{
		{ID: "輕", Type: models.EventTypeNormal, Weight: intPtr(1)},
		{ID: "重", Type: models.EventTypeNormal, Weight: intPtr(3)},
	})
	rng := engine.NewRand(42)

	const trials = 10000
	light := 0
	for i := 0; i < trials; i++ {
		player := briefedPlayer()
		event := catalog.NextEvent(player, nil, rng)
		require.NotNil(t, event)
		if event.ID == "輕" {
			light++
		}
	}

	// Ожидание 25%; допуск с запасом на дисперсию выборки
	freq := float64(light) / float64(trials)
	assert.InDelta(t, 0.25, freq, 0.02, fmt.Sprintf("light=%d", light))
}

func TestZeroWeightDisablesSelection(t *testing.T) {
	catalog := mustCatalog(t, []models.Event{
		{ID: "殘影", Type: models.EventTypeNormal, Weight: intPtr(0)},
	})
	player := briefedPlayer()
	assert.Nil(t, catalog.NextEvent(player, nil, &stubRand{}))
}

func TestConditionMet(t *testing.T) {
	player := briefedPlayer()
	player.Fate = 50
	player.HP = 10
	player.Chapter = 2
	player.Inventory = []string{"古老的鑰匙"}
	player.Flags["met_villager"] = true

	cases := []struct {
		name  string
		event models.Event
		want  bool
	}{
		{"無條件", models.Event{ID: "a"}, true},
		{"章節門檻通過", models.Event{ID: "b", Chapter: 2}, true},
		{"章節門檻未達", models.Event{ID: "c", Chapter: 3}, false},
		{"fate_min 擋下", models.Event{ID: "d", Condition: &models.EventCondition{FateMin: intPtr(60)}}, false},
		{"fate_max 擋下", models.Event{ID: "e", Condition: &models.EventCondition{FateMax: intPtr(40)}}, false},
		{"fate 範圍內", models.Event{ID: "f", Condition: &models.EventCondition{FateMin: intPtr(40), FateMax: intPtr(60)}}, true},
		{"hp_min 擋下", models.Event{ID: "g", Condition: &models.EventCondition{HPMin: intPtr(15)}}, false},
		{"chapter_is 不符", models.Event{ID: "h", Condition: &models.EventCondition{ChapterIs: intPtr(3)}}, false},
		{"chapter_max 擋下", models.Event{ID: "i", Condition: &models.EventCondition{ChapterMax: intPtr(1)}}, false},
		{"需要道具(有)", models.Event{ID: "j", Condition: &models.EventCondition{InventoryHas: []string{"古老的鑰匙"}}}, true},
		{"需要道具(無)", models.Event{ID: "k", Condition: &models.EventCondition{InventoryHas: []string{"銀幣"}}}, false},
		{"禁止道具(有)", models.Event{ID: "l", Condition: &models.EventCondition{InventoryNot: []string{"古老的鑰匙"}}}, false},
		{"旗標開啟", models.Event{ID: "m", Condition: &models.EventCondition{FlagOn: []string{"met_villager"}}}, true},
		{"旗標需關閉", models.Event{ID: "n", Condition: &models.EventCondition{FlagOff: []string{"met_villager"}}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.ConditionMet(&tc.event, player))
		})
	}
}
