package engine

import "adventure-server/shared/models"

// Turn собирает результат одного решения игрока: строки лога, сигналы-подсказки
// и транзиентный маркер изменения судьбы. Живет ровно один ход и не сохраняется —
// маркер не имеет смысла между ходами (PostEventUpdate сбрасывает его в конце).
type Turn struct {
	entries []models.LogEntry
	cues    []models.Cue

	// fateChanged выставляется при явном изменении судьбы в этом ходу
	// и подавляет автоматическую коррекцию по главе.
	fateChanged bool
}

// NewTurn создает пустой контекст хода.
func NewTurn() *Turn {
	return &Turn{}
}

// Add добавляет повествовательную строку.
func (t *Turn) Add(text string) {
	t.entries = append(t.entries, models.LogEntry{Text: text, Category: models.LogNarration})
}

// System добавляет системную строку.
func (t *Turn) System(text string) {
	t.entries = append(t.entries, models.LogEntry{Text: text, Category: models.LogSystem})
}

// Choice добавляет строку выбранной опции.
func (t *Turn) Choice(text string) {
	t.entries = append(t.entries, models.LogEntry{Text: text, Category: models.LogChoice})
}

// Cue регистрирует рекомендательный сигнал для хоста.
func (t *Turn) Cue(cueType models.CueType, detail string) {
	t.cues = append(t.cues, models.Cue{Type: cueType, Detail: detail})
}

// Entries возвращает строки лога в порядке добавления.
func (t *Turn) Entries() []models.LogEntry {
	return t.entries
}

// Cues возвращает накопленные сигналы.
func (t *Turn) Cues() []models.Cue {
	return t.cues
}
