package repository

import (
	"coursehub_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) FindByLesson(lessonID uint) (*model.LessonQuiz, error) {
	var quiz model.LessonQuiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` ASC, id ASC")
		}).
		Where("lesson_id = ?", lessonID).
		First(&quiz).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) CreateAttempt(attempt *model.LessonQuizAttempt) error {
	return r.DB.Create(attempt).Error
}

// HasPassedAttempt reports whether the user ever passed the quiz.
func (r *QuizRepository) HasPassedAttempt(userID, quizID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.LessonQuizAttempt{}).
		Where("user_id = ? AND quiz_id = ? AND passed = ?", userID, quizID, true).
		Count(&count).Error
	return count > 0, err
}

// BestScore returns the user's best score on the quiz, or nil when the
// user has never attempted it.
func (r *QuizRepository) BestScore(userID, quizID uint) (*float64, error) {
	var attempt model.LessonQuizAttempt
	err := r.DB.
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("score DESC").
		First(&attempt).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt.Score, nil
}

// ListRequiredByCourse returns the required quizzes attached to a
// course's lessons, for prerequisite score checks.
func (r *QuizRepository) ListRequiredByCourse(courseID uint) ([]model.LessonQuiz, error) {
	var quizzes []model.LessonQuiz
	err := r.DB.
		Joins("JOIN lessons ON lessons.id = lesson_quizzes.lesson_id").
		Where("lessons.course_id = ? AND lesson_quizzes.is_required = ?", courseID, true).
		Find(&quizzes).Error
	return quizzes, err
}
