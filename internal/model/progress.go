package model

import (
	"time"
)

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// DefaultVideoCompletionThreshold is the watch percentage at which a
// video lesson auto-completes.
const DefaultVideoCompletionThreshold = 90

// swagger:model UserProgress
type UserProgress struct {
	BaseModel
	UserID   uint           `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"userId"`
	LessonID uint           `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"lessonId"`
	Status   ProgressStatus `gorm:"type:enum('not_started','in_progress','completed');default:'not_started'" json:"status"`

	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`

	// Video watch tracking
	VideoWatchPercentage     float64 `gorm:"default:0" json:"videoWatchPercentage"`
	LastWatchedTimestamp     float64 `gorm:"default:0" json:"lastWatchedTimestamp"`
	VideoCompletionThreshold float64 `gorm:"default:90" json:"videoCompletionThreshold"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// RefreshStatus moves status along with the watch percentage. Completion
// is sticky: once completed, watching less of the video later cannot undo it.
func (p *UserProgress) RefreshStatus(now time.Time) {
	if p.Completed {
		return
	}
	switch {
	case p.VideoWatchPercentage >= p.VideoCompletionThreshold:
		p.Status = ProgressCompleted
		p.Completed = true
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
	case p.VideoWatchPercentage > 0:
		p.Status = ProgressInProgress
		if p.StartedAt == nil {
			p.StartedAt = &now
		}
	default:
		p.Status = ProgressNotStarted
	}
}
