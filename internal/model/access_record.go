package model

import (
	"fmt"
	"time"
)

type AccessType string

const (
	AccessPurchase     AccessType = "purchase"
	AccessManual       AccessType = "manual"
	AccessCohort       AccessType = "cohort"
	AccessSubscription AccessType = "subscription"
	AccessBundle       AccessType = "bundle"
)

type AccessStatus string

const (
	AccessUnlocked AccessStatus = "unlocked"
	AccessLocked   AccessStatus = "locked"
	AccessRevoked  AccessStatus = "revoked"
	AccessExpired  AccessStatus = "expired"
	AccessPending  AccessStatus = "pending"
)

// AccessRecord is one row of the access ledger: every grant and every
// revocation a user ever received for a course. Records are appended and
// mutated in place (revoke, lazy expiry) but never deleted, so the full
// history stays queryable for support and audit.
//
// A (user, course) pair may hold many records. In normal operation at
// most one is unlocked at a time; the resolver tolerates duplicates by
// taking the most recently granted one.
// swagger:model AccessRecord
type AccessRecord struct {
	BaseModel
	UserID   uint `gorm:"not null;index:idx_access_user_course_status" json:"userId"`
	CourseID uint `gorm:"not null;index:idx_access_user_course_status" json:"courseId"`

	AccessType AccessType   `gorm:"type:enum('purchase','manual','cohort','subscription','bundle');not null" json:"accessType"`
	Status     AccessStatus `gorm:"type:enum('unlocked','locked','revoked','expired','pending');default:'unlocked';index:idx_access_user_course_status" json:"status"`

	// Source tracking: at most one of these is set. Manual and legacy
	// records carry none.
	BundlePurchaseID *uint  `gorm:"index" json:"bundlePurchaseId,omitempty"`
	CoursePurchaseID *uint  `gorm:"index" json:"coursePurchaseId,omitempty"`
	CohortID         *uint  `gorm:"index" json:"cohortId,omitempty"`
	PurchaseRef      string `gorm:"size:200;index" json:"purchaseRef,omitempty"` // external purchase/order id

	GrantedAt time.Time  `gorm:"index:idx_access_granted_at" json:"grantedAt"`
	GrantedBy *uint      `json:"grantedBy,omitempty"` // admin, for manual grants
	ExpiresAt *time.Time `gorm:"index" json:"expiresAt,omitempty"`

	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
	RevokedBy        *uint      `json:"revokedBy,omitempty"`
	RevocationReason string     `gorm:"size:200" json:"revocationReason,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	BundlePurchase *BundlePurchase `gorm:"foreignKey:BundlePurchaseID" json:"-"`
	Cohort         *Cohort         `gorm:"foreignKey:CohortID" json:"-"`
	GrantedByUser  *User           `gorm:"foreignKey:GrantedBy" json:"-"`
}

func (AccessRecord) TableName() string {
	return "access_records"
}

// EffectiveStatus is the pure form of lazy expiry: what the record's
// status is at instant now, without writing anything. An unlocked record
// past its expires_at reads as expired; a nil expires_at means lifetime.
func (r *AccessRecord) EffectiveStatus(now time.Time) AccessStatus {
	if r.Status == AccessUnlocked && r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return AccessExpired
	}
	return r.Status
}

// IsActive reports whether the record grants access at instant now.
func (r *AccessRecord) IsActive(now time.Time) bool {
	return r.EffectiveStatus(now) == AccessUnlocked
}

// SourceDisplay renders the human-readable provenance used as the
// resolver's "granted via ..." reason.
func (r *AccessRecord) SourceDisplay() string {
	switch {
	case r.BundlePurchase != nil && r.BundlePurchase.Bundle != nil:
		return fmt.Sprintf("Bundle: %s", r.BundlePurchase.Bundle.Name)
	case r.Cohort != nil:
		return fmt.Sprintf("Cohort: %s", r.Cohort.Name)
	case r.AccessType == AccessManual:
		if r.GrantedByUser != nil {
			return fmt.Sprintf("Manual (by %s)", r.GrantedByUser.Name)
		}
		return "Manual (by Admin)"
	case r.PurchaseRef != "":
		return fmt.Sprintf("Purchase: %s", r.PurchaseRef)
	}
	return string(r.AccessType)
}
