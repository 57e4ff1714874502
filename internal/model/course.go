package model

import (
	"time"
)

type CourseStatus string

const (
	CourseActive     CourseStatus = "active"
	CourseLocked     CourseStatus = "locked"
	CourseComingSoon CourseStatus = "coming_soon"
)

type CourseVisibility string

const (
	VisibilityPublic      CourseVisibility = "public"
	VisibilityMembersOnly CourseVisibility = "members_only"
	VisibilityHidden      CourseVisibility = "hidden"
	VisibilityPrivate     CourseVisibility = "private"
)

type EnrollmentMethod string

const (
	EnrollOpen             EnrollmentMethod = "open"
	EnrollPurchase         EnrollmentMethod = "purchase"
	EnrollInviteOnly       EnrollmentMethod = "invite_only"
	EnrollCohortOnly       EnrollmentMethod = "cohort_only"
	EnrollSubscriptionOnly EnrollmentMethod = "subscription_only"
)

type AccessDurationType string

const (
	DurationLifetime  AccessDurationType = "lifetime"
	DurationFixedDays AccessDurationType = "fixed_days"
	DurationUntilDate AccessDurationType = "until_date"
	DurationDrip      AccessDurationType = "drip"
)

// swagger:model Course
type Course struct {
	BaseModel
	Name             string       `gorm:"size:200;not null" json:"name"`
	Slug             string       `gorm:"size:200;unique;not null" json:"slug"`
	Description      string       `gorm:"type:text" json:"description"`
	ShortDescription string       `gorm:"size:300" json:"shortDescription"`
	Thumbnail        string       `gorm:"size:500" json:"thumbnail"`
	CoachName        string       `gorm:"size:100" json:"coachName"`
	Status           CourseStatus `gorm:"type:enum('active','locked','coming_soon');default:'active'" json:"status"`

	// Availability and access rules
	Visibility         CourseVisibility   `gorm:"type:enum('public','members_only','hidden','private');default:'public'" json:"visibility"`
	EnrollmentMethod   EnrollmentMethod   `gorm:"type:enum('open','purchase','invite_only','cohort_only','subscription_only');default:'open'" json:"enrollmentMethod"`
	AccessDurationType AccessDurationType `gorm:"type:enum('lifetime','fixed_days','until_date','drip');default:'lifetime'" json:"accessDurationType"`
	AccessDurationDays *int               `json:"accessDurationDays,omitempty"`
	AccessUntilDate    *time.Time         `json:"accessUntilDate,omitempty"`
	RequiredQuizScore  *int               `json:"requiredQuizScore,omitempty"` // 0-100, applies to prerequisite quizzes

	Prerequisites []Course `gorm:"many2many:course_prerequisites;joinForeignKey:CourseID;joinReferences:PrerequisiteID" json:"prerequisites,omitempty"`
	Lessons       []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// GrantExpiry computes the expires_at for a new access record from the
// course's duration rule. Lifetime and drip grants never expire.
func (c *Course) GrantExpiry(now time.Time) *time.Time {
	switch c.AccessDurationType {
	case DurationFixedDays:
		if c.AccessDurationDays != nil && *c.AccessDurationDays > 0 {
			t := now.AddDate(0, 0, *c.AccessDurationDays)
			return &t
		}
	case DurationUntilDate:
		return c.AccessUntilDate
	}
	return nil
}
