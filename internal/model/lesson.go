package model

import (
	"time"
)

type LessonType string

const (
	LessonVideo  LessonType = "video"
	LessonLive   LessonType = "live"
	LessonReplay LessonType = "replay"
)

// Lesson ordering within a course is canonical: order ascending, id
// ascending as the tie break. Everything that sequences lessons relies
// on this.
// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID      uint       `gorm:"not null;uniqueIndex:idx_lessons_course_slug" json:"courseId"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Slug          string     `gorm:"size:200;uniqueIndex:idx_lessons_course_slug" json:"slug"`
	Description   string     `gorm:"type:text" json:"description"`
	VideoURL      string     `gorm:"size:500" json:"videoUrl"`
	VideoDuration int        `gorm:"default:0" json:"videoDuration"` // seconds
	Order         int        `gorm:"default:0" json:"order"`
	Type          LessonType `gorm:"type:enum('video','live','replay');default:'video'" json:"type"`

	Quiz *LessonQuiz `gorm:"foreignKey:LessonID" json:"quiz,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// swagger:model LessonQuiz
type LessonQuiz struct {
	BaseModel
	LessonID     uint   `gorm:"uniqueIndex;not null" json:"lessonId"`
	Title        string `gorm:"size:200" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	IsRequired   bool   `gorm:"default:true" json:"isRequired"` // must be passed before the lesson can complete
	PassingScore int    `gorm:"default:70" json:"passingScore"` // percentage 0-100

	Questions []LessonQuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (LessonQuiz) TableName() string {
	return "lesson_quizzes"
}

// swagger:model LessonQuizQuestion
type LessonQuizQuestion struct {
	BaseModel
	QuizID        uint   `gorm:"index;not null" json:"quizId"`
	Text          string `gorm:"type:text;not null" json:"text"`
	OptionA       string `gorm:"size:300" json:"optionA"`
	OptionB       string `gorm:"size:300" json:"optionB"`
	OptionC       string `gorm:"size:300" json:"optionC"`
	OptionD       string `gorm:"size:300" json:"optionD"`
	CorrectOption string `gorm:"size:1" json:"-"`
	Order         int    `gorm:"default:0" json:"order"`
}

func (LessonQuizQuestion) TableName() string {
	return "lesson_quiz_questions"
}

// swagger:model LessonQuizAttempt
type LessonQuizAttempt struct {
	BaseModel
	UserID      uint      `gorm:"index;not null" json:"userId"`
	QuizID      uint      `gorm:"index;not null" json:"quizId"`
	Score       float64   `json:"score"` // percentage 0-100
	Passed      bool      `gorm:"default:false" json:"passed"`
	CompletedAt time.Time `json:"completedAt"`
}

func (LessonQuizAttempt) TableName() string {
	return "lesson_quiz_attempts"
}
