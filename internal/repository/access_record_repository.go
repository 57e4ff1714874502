package repository

import (
	"coursehub_backend/internal/model"

	"gorm.io/gorm"
)

// AccessRecordRepository is the persistence layer of the access ledger.
// No business rules live here: it appends, updates and queries rows.
type AccessRecordRepository struct {
	DB *gorm.DB
}

func NewAccessRecordRepository(db *gorm.DB) *AccessRecordRepository {
	return &AccessRecordRepository{DB: db}
}

func (r *AccessRecordRepository) Append(rec *model.AccessRecord) error {
	return r.DB.Create(rec).Error
}

func (r *AccessRecordRepository) Update(rec *model.AccessRecord) error {
	return r.DB.Save(rec).Error
}

// ListByUserCourse returns the full history for the pair, most recently
// granted first, with source associations preloaded for reason display.
func (r *AccessRecordRepository) ListByUserCourse(userID, courseID uint) ([]model.AccessRecord, error) {
	var records []model.AccessRecord
	err := r.DB.
		Preload("BundlePurchase.Bundle").
		Preload("Cohort").
		Preload("GrantedByUser").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("granted_at DESC, id DESC").
		Find(&records).Error
	return records, err
}

// ListUnlocked returns records still in stored status unlocked, most
// recently granted first. Expiry is not evaluated here; that is the
// resolver's job.
func (r *AccessRecordRepository) ListUnlocked(userID, courseID uint) ([]model.AccessRecord, error) {
	var records []model.AccessRecord
	err := r.DB.
		Preload("BundlePurchase.Bundle").
		Preload("Cohort").
		Preload("GrantedByUser").
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.AccessUnlocked).
		Order("granted_at DESC, id DESC").
		Find(&records).Error
	return records, err
}

func (r *AccessRecordRepository) ListUnlockedByUser(userID uint) ([]model.AccessRecord, error) {
	var records []model.AccessRecord
	err := r.DB.
		Where("user_id = ? AND status = ?", userID, model.AccessUnlocked).
		Order("granted_at DESC, id DESC").
		Find(&records).Error
	return records, err
}

// FindByBundlePurchase looks up the record a specific bundle purchase
// produced for a course, if any. Used for fan-out idempotency.
func (r *AccessRecordRepository) FindByBundlePurchase(userID, courseID, bundlePurchaseID uint) (*model.AccessRecord, error) {
	var rec model.AccessRecord
	err := r.DB.
		Where("user_id = ? AND course_id = ? AND bundle_purchase_id = ?", userID, courseID, bundlePurchaseID).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindByCoursePurchase looks up the record tied to a specific course
// purchase. Used for purchase-confirmation idempotency.
func (r *AccessRecordRepository) FindByCoursePurchase(userID, courseID, coursePurchaseID uint) (*model.AccessRecord, error) {
	var rec model.AccessRecord
	err := r.DB.
		Where("user_id = ? AND course_id = ? AND course_purchase_id = ?", userID, courseID, coursePurchaseID).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListUnlockedByCohort returns a user's unlocked records that came from
// the given cohort, for revocation when the user leaves.
func (r *AccessRecordRepository) ListUnlockedByCohort(userID, cohortID uint) ([]model.AccessRecord, error) {
	var records []model.AccessRecord
	err := r.DB.
		Where("user_id = ? AND cohort_id = ? AND status = ?", userID, cohortID, model.AccessUnlocked).
		Find(&records).Error
	return records, err
}

// ListExpiredUnlocked returns records whose stored status is still
// unlocked although expires_at has passed. The reconciliation sweep
// persists their expired status for reporting.
func (r *AccessRecordRepository) ListExpiredUnlocked(limit int) ([]model.AccessRecord, error) {
	var records []model.AccessRecord
	err := r.DB.
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < NOW()", model.AccessUnlocked).
		Limit(limit).
		Find(&records).Error
	return records, err
}
