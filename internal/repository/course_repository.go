package repository

import (
	"coursehub_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) FindBySlug(slug string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("slug = ?", slug).First(&course).Error
	return &course, err
}

func (r *CourseRepository) FindByIDWithPrerequisites(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Prerequisites").First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

// ListVisible returns the active catalog a logged-in user may see exist:
// public, members-only and hidden courses. Hidden courses stay out of
// anonymous listings but remain unlockable by direct link.
func (r *CourseRepository) ListVisible() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.
		Where("status = ? AND visibility IN ?", model.CourseActive,
			[]model.CourseVisibility{model.VisibilityPublic, model.VisibilityMembersOnly, model.VisibilityHidden}).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListPublic() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.
		Where("status = ? AND visibility = ?", model.CourseActive, model.VisibilityPublic).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListPrivate() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.
		Where("status = ? AND visibility = ?", model.CourseActive, model.VisibilityPrivate).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) ListByIDs(ids []uint) ([]model.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var courses []model.Course
	err := r.DB.Where("id IN ?", ids).Order("created_at DESC").Find(&courses).Error
	return courses, err
}

// BundlesContaining returns active bundles that include the course, used
// to annotate the "available to unlock" catalog bucket.
func (r *CourseRepository) BundlesContaining(courseID uint) ([]model.Bundle, error) {
	var bundles []model.Bundle
	err := r.DB.
		Joins("JOIN bundle_courses bc ON bc.bundle_id = bundles.id").
		Where("bc.course_id = ? AND bundles.is_active = ?", courseID, true).
		Find(&bundles).Error
	return bundles, err
}
