package model

import (
	"fmt"
	"time"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseConfirmed PurchaseStatus = "confirmed"
	PurchaseRefunded  PurchaseStatus = "refunded"
)

// CoursePurchase mirrors a payment-provider order for a single course.
// Confirmation is reported by the payment collaborator's webhook; this
// model only records the confirmed fact and anchors the access grant.
// swagger:model CoursePurchase
type CoursePurchase struct {
	BaseModel
	UserID     uint           `gorm:"index;not null" json:"userId"`
	CourseID   uint           `gorm:"index;not null" json:"courseId"`
	Provider   string         `gorm:"size:50" json:"provider"` // stripe, paypal, manual, gift
	ProviderID string         `gorm:"size:200;index" json:"providerId"`
	Status     PurchaseStatus `gorm:"type:enum('pending','confirmed','refunded');default:'pending'" json:"status"`
	Amount     float64        `json:"amount"`
	Currency   string         `gorm:"size:3;default:'USD'" json:"currency"`
}

func (CoursePurchase) TableName() string {
	return "course_purchases"
}

// Ref is the external reference the access ledger is keyed by. Manual
// purchases without a provider id fall back to the internal id.
func (p *CoursePurchase) Ref() string {
	if p.ProviderID != "" {
		return p.ProviderID
	}
	return fmt.Sprintf("purchase-%d", p.ID)
}

// GiftPurchase is a course bought for someone else. The recipient
// redeems the token; redemption creates a confirmed CoursePurchase in
// their name and grants lifetime access through it.
// swagger:model GiftPurchase
type GiftPurchase struct {
	BaseModel
	PurchaserID    uint   `gorm:"index;not null" json:"purchaserId"`
	CourseID       uint   `gorm:"index;not null" json:"courseId"`
	RecipientEmail string `gorm:"size:100" json:"recipientEmail"`
	GiftToken      string `gorm:"size:36;uniqueIndex;not null" json:"-"`
	Message        string `gorm:"type:text" json:"message,omitempty"`

	Redeemed         bool       `gorm:"default:false" json:"redeemed"`
	RedeemedBy       *uint      `json:"redeemedBy,omitempty"`
	RedeemedAt       *time.Time `json:"redeemedAt,omitempty"`
	CoursePurchaseID *uint      `json:"coursePurchaseId,omitempty"` // set on redemption
}

func (GiftPurchase) TableName() string {
	return "gift_purchases"
}
