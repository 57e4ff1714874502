package repository

import (
	"coursehub_backend/internal/model"

	"gorm.io/gorm"
)

type PurchaseRepository struct {
	DB *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{DB: db}
}

func (r *PurchaseRepository) Create(purchase *model.CoursePurchase) error {
	return r.DB.Create(purchase).Error
}

func (r *PurchaseRepository) Update(purchase *model.CoursePurchase) error {
	return r.DB.Save(purchase).Error
}

func (r *PurchaseRepository) FindByID(id uint) (*model.CoursePurchase, error) {
	var purchase model.CoursePurchase
	err := r.DB.First(&purchase, id).Error
	return &purchase, err
}

// FindByProviderRef resolves an external provider order id, the
// idempotency hook for redelivered purchase webhooks.
func (r *PurchaseRepository) FindByProviderRef(userID, courseID uint, providerID string) (*model.CoursePurchase, error) {
	var purchase model.CoursePurchase
	err := r.DB.
		Where("user_id = ? AND course_id = ? AND provider_id = ?", userID, courseID, providerID).
		First(&purchase).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *PurchaseRepository) CreateGift(gift *model.GiftPurchase) error {
	return r.DB.Create(gift).Error
}

func (r *PurchaseRepository) UpdateGift(gift *model.GiftPurchase) error {
	return r.DB.Save(gift).Error
}

func (r *PurchaseRepository) FindGiftByToken(token string) (*model.GiftPurchase, error) {
	var gift model.GiftPurchase
	err := r.DB.Where("gift_token = ?", token).First(&gift).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gift, nil
}
