package repository

import (
	"coursehub_backend/internal/model"

	"gorm.io/gorm"
)

type CohortRepository struct {
	DB *gorm.DB
}

func NewCohortRepository(db *gorm.DB) *CohortRepository {
	return &CohortRepository{DB: db}
}

func (r *CohortRepository) FindByID(id uint) (*model.Cohort, error) {
	var cohort model.Cohort
	err := r.DB.Preload("Courses").First(&cohort, id).Error
	return &cohort, err
}

func (r *CohortRepository) FindMember(cohortID, userID uint) (*model.CohortMember, error) {
	var member model.CohortMember
	err := r.DB.Where("cohort_id = ? AND user_id = ?", cohortID, userID).First(&member).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *CohortRepository) CreateMember(member *model.CohortMember) error {
	return r.DB.Create(member).Error
}

func (r *CohortRepository) DeleteMember(member *model.CohortMember) error {
	return r.DB.Delete(member).Error
}
