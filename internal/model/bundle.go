package model

import (
	"time"
)

type BundleType string

const (
	BundleFixed       BundleType = "fixed"
	BundlePickYourOwn BundleType = "pick_your_own"
	BundleTiered      BundleType = "tiered"
)

// swagger:model Bundle
type Bundle struct {
	BaseModel
	Name                string     `gorm:"size:200;unique;not null" json:"name"`
	Slug                string     `gorm:"size:200;unique;not null" json:"slug"`
	Description         string     `gorm:"type:text" json:"description"`
	Type                BundleType `gorm:"type:enum('fixed','pick_your_own','tiered');default:'fixed'" json:"type"`
	MaxCourseSelections *int       `json:"maxCourseSelections,omitempty"` // pick-your-own only
	IsActive            bool       `gorm:"default:true" json:"isActive"`

	Courses []Course `gorm:"many2many:bundle_courses" json:"courses,omitempty"`
}

func (Bundle) TableName() string {
	return "bundles"
}

// BundlePurchase records a confirmed bundle order. It is the idempotency
// key for the bundle fan-out: each course grant produced from it carries
// its id, so redelivered webhooks cannot double-grant.
// swagger:model BundlePurchase
type BundlePurchase struct {
	BaseModel
	UserID      uint      `gorm:"index;not null" json:"userId"`
	BundleID    uint      `gorm:"index;not null" json:"bundleId"`
	PurchaseRef string    `gorm:"size:200;index" json:"purchaseRef"` // external order id
	PurchasedAt time.Time `json:"purchasedAt"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`

	Bundle          *Bundle  `gorm:"foreignKey:BundleID" json:"bundle,omitempty"`
	SelectedCourses []Course `gorm:"many2many:bundle_purchase_selections" json:"selectedCourses,omitempty"`
}

func (BundlePurchase) TableName() string {
	return "bundle_purchases"
}

// CoursesToGrant resolves which courses this purchase unlocks: the
// purchaser's selection for pick-your-own bundles, the bundle's full
// course list otherwise.
func (bp *BundlePurchase) CoursesToGrant() []Course {
	if bp.Bundle != nil && bp.Bundle.Type == BundlePickYourOwn {
		return bp.SelectedCourses
	}
	if bp.Bundle != nil {
		return bp.Bundle.Courses
	}
	return nil
}
