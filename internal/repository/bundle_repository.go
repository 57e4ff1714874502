package repository

import (
	"coursehub_backend/internal/model"

	"gorm.io/gorm"
)

type BundleRepository struct {
	DB *gorm.DB
}

func NewBundleRepository(db *gorm.DB) *BundleRepository {
	return &BundleRepository{DB: db}
}

func (r *BundleRepository) FindByID(id uint) (*model.Bundle, error) {
	var bundle model.Bundle
	err := r.DB.Preload("Courses").First(&bundle, id).Error
	return &bundle, err
}

func (r *BundleRepository) CreatePurchase(purchase *model.BundlePurchase) error {
	return r.DB.Create(purchase).Error
}

// FindPurchase loads a bundle purchase with everything the fan-out
// needs: the bundle, its course list and any pick-your-own selection.
func (r *BundleRepository) FindPurchase(id uint) (*model.BundlePurchase, error) {
	var purchase model.BundlePurchase
	err := r.DB.
		Preload("Bundle.Courses").
		Preload("SelectedCourses").
		First(&purchase, id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindPurchaseByRef resolves an external order id to a prior purchase,
// the idempotency hook for redelivered bundle webhooks.
func (r *BundleRepository) FindPurchaseByRef(userID, bundleID uint, purchaseRef string) (*model.BundlePurchase, error) {
	var purchase model.BundlePurchase
	err := r.DB.
		Where("user_id = ? AND bundle_id = ? AND purchase_ref = ?", userID, bundleID, purchaseRef).
		First(&purchase).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *BundleRepository) ReplaceSelectedCourses(purchase *model.BundlePurchase, courses []model.Course) error {
	return r.DB.Model(purchase).Association("SelectedCourses").Replace(courses)
}
