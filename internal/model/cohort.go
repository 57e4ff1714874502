package model

import (
	"time"
)

// Cohort groups students (e.g. "Black Friday 2025 Buyers"). The courses
// association defines what joining the cohort unlocks.
// swagger:model Cohort
type Cohort struct {
	BaseModel
	Name        string `gorm:"size:200;unique;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`

	Courses []Course `gorm:"many2many:cohort_courses" json:"courses,omitempty"`
}

func (Cohort) TableName() string {
	return "cohorts"
}

// swagger:model CohortMember
type CohortMember struct {
	BaseModel
	CohortID uint      `gorm:"not null;uniqueIndex:idx_cohort_member" json:"cohortId"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_cohort_member" json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`

	// When true, leaving the cohort revokes the access it granted;
	// when false the access persists after leaving.
	RemoveAccessOnLeave bool `gorm:"default:true" json:"removeAccessOnLeave"`
}

func (CohortMember) TableName() string {
	return "cohort_members"
}
