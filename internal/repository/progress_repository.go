package repository

import (
	"coursehub_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Find(userID, lessonID uint) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) Save(progress *model.UserProgress) error {
	return r.DB.Save(progress).Error
}

// CompletedLessonIDs returns the set of lessons in a course the user has
// completed, as a lookup map.
func (r *ProgressRepository) CompletedLessonIDs(userID, courseID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.DB.Model(&model.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progress.lesson_id").
		Where("user_progress.user_id = ? AND lessons.course_id = ? AND user_progress.completed = ?", userID, courseID, true).
		Pluck("user_progress.lesson_id", &ids).Error
	if err != nil {
		return nil, err
	}
	completed := make(map[uint]bool, len(ids))
	for _, id := range ids {
		completed[id] = true
	}
	return completed, nil
}

func (r *ProgressRepository) CountCompleted(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserProgress{}).
		Joins("JOIN lessons ON lessons.id = user_progress.lesson_id").
		Where("user_progress.user_id = ? AND lessons.course_id = ? AND user_progress.completed = ?", userID, courseID, true).
		Count(&count).Error
	return count, err
}
