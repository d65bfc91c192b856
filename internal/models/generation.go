package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerationStatus string

const (
	GenerationPending    GenerationStatus = "pending"
	GenerationThinking   GenerationStatus = "thinking"
	GenerationGenerating GenerationStatus = "generating"
	GenerationComplete   GenerationStatus = "complete"
	GenerationFailed     GenerationStatus = "failed"
)

// statusRank orders the non-failed states along the forward path.
var statusRank = map[GenerationStatus]int{
	GenerationPending:    0,
	GenerationThinking:   1,
	GenerationGenerating: 2,
	GenerationComplete:   3,
}

func (s GenerationStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == GenerationFailed
}

// IsTerminal reports whether no further transition is allowed.
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationComplete || s == GenerationFailed
}

// CanTransitionTo allows exactly one step forward, or a jump to failed from any live state.
func (s GenerationStatus) CanTransitionTo(next GenerationStatus) bool {
	if s.IsTerminal() || !s.Valid() {
		return false
	}
	if next == GenerationFailed {
		return true
	}
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	return ok && nxt == cur+1
}

// Generation is one prompt-to-project attempt.
type Generation struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_generation_project_created" json:"projectId"`
	UserID              uuid.UUID        `gorm:"type:uuid;not null;index" json:"userId"`
	Prompt              string           `gorm:"type:text;not null" json:"prompt"`
	Model               *string          `gorm:"size:255" json:"model,omitempty"`
	Status              GenerationStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	ThinkingDuration    *int64           `json:"thinkingDuration,omitempty"`
	GenerationStartTime *time.Time       `json:"generationStartTime,omitempty"`
	GenerationEndTime   *time.Time       `json:"generationEndTime,omitempty"`
	TotalTokens         *int             `json:"totalTokens,omitempty"`
	ErrorMessage        *string          `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt           time.Time        `gorm:"index:idx_generation_project_created" json:"createdAt"`

	Files []GeneratedFile `gorm:"foreignKey:GenerationID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

func (g *Generation) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GenerationStats aggregates a user's attempts.
type GenerationStats struct {
	Total           int64   `json:"total"`
	Successful      int64   `json:"successful"`
	Failed          int64   `json:"failed"`
	AvgThinkingTime float64 `json:"avgThinkingTime"`
}
