package models

// LogCategory помечает строку лога для стилизации в UI. Логики не несет.
type LogCategory string

const (
	LogNarration LogCategory = "narration"
	LogSystem    LogCategory = "system"
	LogChoice    LogCategory = "choice"
)

// LogEntry — одна строка повествовательного лога, в порядке появления.
type LogEntry struct {
	Text     string      `json:"text"`
	Category LogCategory `json:"category"`
}

// CueType перечисляет дискретные сюжетные моменты, которые хост может
// сопоставить звуку или анимации. Сигналы сугубо рекомендательные:
// хост без аудио обязан работать идентично.
type CueType string

const (
	CueItemGained CueType = "item_gained"
	CueItemLost   CueType = "item_lost"
	CueAttack     CueType = "attack"
	CueVictory    CueType = "victory"
	CueDefeat     CueType = "defeat"
	CueEscape     CueType = "escape"
	CueHeal       CueType = "heal"
	CueChapter    CueType = "chapter"
)

// Cue — один рекомендательный сигнал хосту.
type Cue struct {
	Type   CueType `json:"type"`
	Detail string  `json:"detail,omitempty"`
}
