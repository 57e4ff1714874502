package service

import (
	"context"
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/util"
	"coursehub_backend/pkg/logger"
	"coursehub_backend/pkg/monitoring"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Locker serializes mutations on a key: grant/revoke per (user, course),
// gift redemption per token. Backed by the redis SET NX lock in
// production; tests use an in-process substitute.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

type CourseStore interface {
	FindByID(id uint) (*model.Course, error)
}

type UserStore interface {
	FindByID(id uint) (*model.User, error)
}

type BundleStore interface {
	FindByID(id uint) (*model.Bundle, error)
	CreatePurchase(purchase *model.BundlePurchase) error
	FindPurchase(id uint) (*model.BundlePurchase, error)
	FindPurchaseByRef(userID, bundleID uint, purchaseRef string) (*model.BundlePurchase, error)
	ReplaceSelectedCourses(purchase *model.BundlePurchase, courses []model.Course) error
}

type CohortStore interface {
	FindByID(id uint) (*model.Cohort, error)
	FindMember(cohortID, userID uint) (*model.CohortMember, error)
	CreateMember(member *model.CohortMember) error
	DeleteMember(member *model.CohortMember) error
}

type PurchaseStore interface {
	Create(purchase *model.CoursePurchase) error
	Update(purchase *model.CoursePurchase) error
	FindByProviderRef(userID, courseID uint, providerID string) (*model.CoursePurchase, error)
	CreateGift(gift *model.GiftPurchase) error
	UpdateGift(gift *model.GiftPurchase) error
	FindGiftByToken(token string) (*model.GiftPurchase, error)
}

// GrantRequest is the tagged-variant shape of a grant: one access type
// plus at most one source reference. The actor is always explicit;
// nothing is inferred from ambient request state.
type GrantRequest struct {
	UserID     uint
	CourseID   uint
	AccessType model.AccessType
	ExpiresAt  *time.Time
	GrantedBy  *uint
	Notes      string

	BundlePurchaseID *uint
	CoursePurchaseID *uint
	CohortID         *uint
	PurchaseRef      string
}

// RevokeResult reports what a revoke actually did. "Nothing to revoke"
// is a normal outcome, not an error.
type RevokeResult struct {
	Revoked         []model.AccessRecord `json:"revoked"`
	NothingToRevoke bool                 `json:"nothingToRevoke"`
}

// AccessGrantService hosts the source adapters: each public method
// translates one confirmed external event (purchase, bundle purchase,
// gift redemption, cohort change, admin action) into access ledger
// mutations. Every adapter is idempotent under redelivery, keyed by the
// external source reference, and every ledger mutation runs under the
// per-(user, course) lock.
type AccessGrantService struct {
	Records   AccessRecordStore
	Courses   CourseStore
	Users     UserStore
	Bundles   BundleStore
	Cohorts   CohortStore
	Purchases PurchaseStore
	Locker    Locker
}

func NewAccessGrantService(
	records AccessRecordStore,
	courses CourseStore,
	users UserStore,
	bundles BundleStore,
	cohorts CohortStore,
	purchases PurchaseStore,
	locker Locker,
) *AccessGrantService {
	return &AccessGrantService{
		Records:   records,
		Courses:   courses,
		Users:     users,
		Bundles:   bundles,
		Cohorts:   cohorts,
		Purchases: purchases,
		Locker:    locker,
	}
}

func accessLockKey(userID, courseID uint) string {
	return fmt.Sprintf("access:lock:%d:%d", userID, courseID)
}

// Grant appends a new unlocked record. Duplicate unlocked records for
// the pair are tolerated by the resolver (most recent wins), but the
// lock keeps racing webhook/admin grants from interleaving with revokes.
func (s *AccessGrantService) Grant(ctx context.Context, req GrantRequest) (*model.AccessRecord, error) {
	if _, err := s.Users.FindByID(req.UserID); err != nil {
		return nil, util.ErrUserNotFound
	}
	if _, err := s.Courses.FindByID(req.CourseID); err != nil {
		return nil, util.ErrCourseNotFound
	}

	rec := &model.AccessRecord{
		UserID:           req.UserID,
		CourseID:         req.CourseID,
		AccessType:       req.AccessType,
		Status:           model.AccessUnlocked,
		GrantedAt:        time.Now(),
		GrantedBy:        req.GrantedBy,
		ExpiresAt:        req.ExpiresAt,
		Notes:            req.Notes,
		BundlePurchaseID: req.BundlePurchaseID,
		CoursePurchaseID: req.CoursePurchaseID,
		CohortID:         req.CohortID,
		PurchaseRef:      req.PurchaseRef,
	}

	err := s.Locker.WithLock(ctx, accessLockKey(req.UserID, req.CourseID), func() error {
		return s.Records.Append(rec)
	})
	if err != nil {
		return nil, err
	}

	monitoring.AccessGrants.WithLabelValues(string(req.AccessType)).Inc()
	logger.Log.Info("access granted",
		zap.Uint("user", req.UserID),
		zap.Uint("course", req.CourseID),
		zap.String("type", string(req.AccessType)))
	return rec, nil
}

// Revoke closes every currently-unlocked record for the pair, stamping
// actor and reason. With zero unlocked records it reports
// NothingToRevoke rather than failing.
func (s *AccessGrantService) Revoke(ctx context.Context, userID, courseID uint, revokedBy *uint, reason string) (RevokeResult, error) {
	var result RevokeResult

	err := s.Locker.WithLock(ctx, accessLockKey(userID, courseID), func() error {
		unlocked, err := s.Records.ListUnlocked(userID, courseID)
		if err != nil {
			return err
		}
		if len(unlocked) == 0 {
			result.NothingToRevoke = true
			return nil
		}

		now := time.Now()
		for i := range unlocked {
			rec := &unlocked[i]
			rec.Status = model.AccessRevoked
			rec.RevokedAt = &now
			rec.RevokedBy = revokedBy
			rec.RevocationReason = reason
			if err := s.Records.Update(rec); err != nil {
				return err
			}
			result.Revoked = append(result.Revoked, *rec)
		}
		return nil
	})
	if err != nil {
		return RevokeResult{}, err
	}

	if result.NothingToRevoke {
		logger.Log.Info("nothing to revoke",
			zap.Uint("user", userID), zap.Uint("course", courseID))
	}
	return result, nil
}

// ConfirmPurchase translates a confirmed single-course payment into a
// lifetime grant. Redelivery of the same purchaseRef finds the prior
// purchase and its record instead of creating new ones.
func (s *AccessGrantService) ConfirmPurchase(ctx context.Context, userID, courseID uint, provider, purchaseRef string) (*model.AccessRecord, error) {
	if _, err := s.Users.FindByID(userID); err != nil {
		return nil, util.ErrUserNotFound
	}
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		return nil, util.ErrCourseNotFound
	}

	purchase, err := s.Purchases.FindByProviderRef(userID, courseID, purchaseRef)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		purchase = &model.CoursePurchase{
			UserID:     userID,
			CourseID:   courseID,
			Provider:   provider,
			ProviderID: purchaseRef,
			Status:     model.PurchaseConfirmed,
		}
		if err := s.Purchases.Create(purchase); err != nil {
			return nil, err
		}
	} else if purchase.Status != model.PurchaseConfirmed {
		purchase.Status = model.PurchaseConfirmed
		if err := s.Purchases.Update(purchase); err != nil {
			return nil, err
		}
	}

	return s.grantForPurchase(ctx, course, purchase)
}

// grantForPurchase idempotently ensures exactly one unlocked record tied
// to the purchase. Purchases are lifetime: expires_at stays nil.
func (s *AccessGrantService) grantForPurchase(ctx context.Context, course *model.Course, purchase *model.CoursePurchase) (*model.AccessRecord, error) {
	var rec *model.AccessRecord

	err := s.Locker.WithLock(ctx, accessLockKey(purchase.UserID, course.ID), func() error {
		existing, err := s.Records.FindByCoursePurchase(purchase.UserID, course.ID, purchase.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Status != model.AccessUnlocked {
				existing.Status = model.AccessUnlocked
				if err := s.Records.Update(existing); err != nil {
					return err
				}
			}
			rec = existing
			return nil
		}

		purchaseID := purchase.ID
		rec = &model.AccessRecord{
			UserID:           purchase.UserID,
			CourseID:         course.ID,
			AccessType:       model.AccessPurchase,
			Status:           model.AccessUnlocked,
			GrantedAt:        time.Now(),
			CoursePurchaseID: &purchaseID,
			PurchaseRef:      purchase.Ref(),
			Notes:            fmt.Sprintf("Granted via purchase: %s - %s", purchase.Provider, purchase.Ref()),
		}
		if err := s.Records.Append(rec); err != nil {
			return err
		}
		monitoring.AccessGrants.WithLabelValues(string(model.AccessPurchase)).Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ConfirmBundlePurchase fans a confirmed bundle order out into one grant
// per course. The course set is the bundle's list for fixed and tiered
// bundles and the purchaser's selection for pick-your-own. Each grant is
// keyed by the bundle purchase id, so a redelivered webhook grants
// nothing new.
func (s *AccessGrantService) ConfirmBundlePurchase(ctx context.Context, userID, bundleID uint, purchaseRef string, selectedCourseIDs []uint) (*model.BundlePurchase, []model.AccessRecord, error) {
	if _, err := s.Users.FindByID(userID); err != nil {
		return nil, nil, util.ErrUserNotFound
	}
	bundle, err := s.Bundles.FindByID(bundleID)
	if err != nil {
		return nil, nil, util.ErrBundleNotFound
	}

	purchase, err := s.Bundles.FindPurchaseByRef(userID, bundleID, purchaseRef)
	if err != nil {
		return nil, nil, err
	}
	if purchase == nil {
		var selection []model.Course
		if bundle.Type == model.BundlePickYourOwn {
			selection, err = s.resolveSelection(bundle, selectedCourseIDs)
			if err != nil {
				return nil, nil, err
			}
		}

		purchase = &model.BundlePurchase{
			UserID:      userID,
			BundleID:    bundleID,
			PurchaseRef: purchaseRef,
			PurchasedAt: time.Now(),
		}
		if err := s.Bundles.CreatePurchase(purchase); err != nil {
			return nil, nil, err
		}
		if selection != nil {
			if err := s.Bundles.ReplaceSelectedCourses(purchase, selection); err != nil {
				return nil, nil, err
			}
		}
	}

	// Reload with bundle, courses and selection attached.
	purchase, err = s.Bundles.FindPurchase(purchase.ID)
	if err != nil {
		return nil, nil, err
	}

	var granted []model.AccessRecord
	for _, course := range purchase.CoursesToGrant() {
		course := course
		err := s.Locker.WithLock(ctx, accessLockKey(userID, course.ID), func() error {
			existing, err := s.Records.FindByBundlePurchase(userID, course.ID, purchase.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return nil
			}

			bundlePurchaseID := purchase.ID
			rec := &model.AccessRecord{
				UserID:           userID,
				CourseID:         course.ID,
				AccessType:       model.AccessBundle,
				Status:           model.AccessUnlocked,
				GrantedAt:        time.Now(),
				BundlePurchaseID: &bundlePurchaseID,
				PurchaseRef:      purchaseRef,
				Notes:            fmt.Sprintf("Granted via bundle purchase: %s", bundle.Name),
			}
			if err := s.Records.Append(rec); err != nil {
				return err
			}
			monitoring.AccessGrants.WithLabelValues(string(model.AccessBundle)).Inc()
			granted = append(granted, *rec)
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	logger.Log.Info("bundle purchase confirmed",
		zap.Uint("user", userID),
		zap.Uint("bundle", bundleID),
		zap.Int("granted", len(granted)))
	return purchase, granted, nil
}

// resolveSelection validates a pick-your-own selection against the
// bundle's course list and selection cap.
func (s *AccessGrantService) resolveSelection(bundle *model.Bundle, selectedCourseIDs []uint) ([]model.Course, error) {
	if len(selectedCourseIDs) == 0 {
		return nil, util.ErrInvalidSelection
	}
	if bundle.MaxCourseSelections != nil && len(selectedCourseIDs) > *bundle.MaxCourseSelections {
		return nil, util.ErrInvalidSelection
	}

	inBundle := make(map[uint]model.Course, len(bundle.Courses))
	for _, c := range bundle.Courses {
		inBundle[c.ID] = c
	}

	selection := make([]model.Course, 0, len(selectedCourseIDs))
	for _, id := range selectedCourseIDs {
		course, ok := inBundle[id]
		if !ok {
			return nil, util.ErrInvalidSelection
		}
		selection = append(selection, course)
	}
	return selection, nil
}

// CreateGift issues a gift for a course. The returned token is the
// single credential the recipient redeems with; it is not exposed
// anywhere else.
func (s *AccessGrantService) CreateGift(purchaserID, courseID uint, recipientEmail, message string) (*model.GiftPurchase, error) {
	if _, err := s.Users.FindByID(purchaserID); err != nil {
		return nil, util.ErrUserNotFound
	}
	if _, err := s.Courses.FindByID(courseID); err != nil {
		return nil, util.ErrCourseNotFound
	}

	gift := &model.GiftPurchase{
		PurchaserID:    purchaserID,
		CourseID:       courseID,
		RecipientEmail: recipientEmail,
		GiftToken:      model.GenerateUUID(),
		Message:        message,
	}
	if err := s.Purchases.CreateGift(gift); err != nil {
		return nil, err
	}

	logger.Log.Info("gift created",
		zap.Uint("purchaser", purchaserID), zap.Uint("course", courseID))
	return gift, nil
}

// RedeemGift is single-use: the first redemption creates a confirmed
// purchase in the recipient's name and grants through it; the same
// recipient redeeming again resolves to the same purchase, anyone else
// is rejected. The read-check-write runs under a lock keyed by the
// token, so concurrent redemptions by different users serialize and
// exactly one wins.
func (s *AccessGrantService) RedeemGift(ctx context.Context, userID uint, token string) (*model.AccessRecord, error) {
	var rec *model.AccessRecord

	err := s.Locker.WithLock(ctx, giftLockKey(token), func() error {
		gift, err := s.Purchases.FindGiftByToken(token)
		if err != nil {
			return err
		}
		if gift == nil {
			return util.ErrGiftNotFound
		}

		if gift.Redeemed {
			if gift.RedeemedBy == nil || *gift.RedeemedBy != userID {
				return util.ErrGiftAlreadyRedeemed
			}
			rec, err = s.ConfirmPurchase(ctx, userID, gift.CourseID, "gift", giftRef(gift))
			return err
		}

		rec, err = s.ConfirmPurchase(ctx, userID, gift.CourseID, "gift", giftRef(gift))
		if err != nil {
			return err
		}

		now := time.Now()
		gift.Redeemed = true
		gift.RedeemedBy = &userID
		gift.RedeemedAt = &now
		gift.CoursePurchaseID = rec.CoursePurchaseID
		if err := s.Purchases.UpdateGift(gift); err != nil {
			return err
		}

		logger.Log.Info("gift redeemed",
			zap.Uint("user", userID), zap.Uint("course", gift.CourseID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func giftRef(gift *model.GiftPurchase) string {
	return fmt.Sprintf("gift-%d", gift.ID)
}

func giftLockKey(token string) string {
	return fmt.Sprintf("gift:lock:%s", token)
}

// JoinCohort records membership and fans out one cohort-sourced grant
// per course the cohort carries. Expiry follows each course's duration
// rule. Joining twice is a no-op for both membership and grants.
func (s *AccessGrantService) JoinCohort(ctx context.Context, cohortID, userID uint, removeAccessOnLeave bool) (*model.CohortMember, []model.AccessRecord, error) {
	if _, err := s.Users.FindByID(userID); err != nil {
		return nil, nil, util.ErrUserNotFound
	}
	cohort, err := s.Cohorts.FindByID(cohortID)
	if err != nil {
		return nil, nil, util.ErrCohortNotFound
	}

	member, err := s.Cohorts.FindMember(cohortID, userID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		member = &model.CohortMember{
			CohortID:            cohortID,
			UserID:              userID,
			JoinedAt:            time.Now(),
			RemoveAccessOnLeave: removeAccessOnLeave,
		}
		if err := s.Cohorts.CreateMember(member); err != nil {
			return nil, nil, err
		}
	}

	existing, err := s.Records.ListUnlockedByCohort(userID, cohortID)
	if err != nil {
		return nil, nil, err
	}
	hasGrant := make(map[uint]bool, len(existing))
	for _, rec := range existing {
		hasGrant[rec.CourseID] = true
	}

	now := time.Now()
	var granted []model.AccessRecord
	for _, course := range cohort.Courses {
		if hasGrant[course.ID] {
			continue
		}
		course := course
		err := s.Locker.WithLock(ctx, accessLockKey(userID, course.ID), func() error {
			cohortRef := cohortID
			rec := &model.AccessRecord{
				UserID:     userID,
				CourseID:   course.ID,
				AccessType: model.AccessCohort,
				Status:     model.AccessUnlocked,
				GrantedAt:  now,
				ExpiresAt:  course.GrantExpiry(now),
				CohortID:   &cohortRef,
				Notes:      fmt.Sprintf("Granted via cohort: %s", cohort.Name),
			}
			if err := s.Records.Append(rec); err != nil {
				return err
			}
			monitoring.AccessGrants.WithLabelValues(string(model.AccessCohort)).Inc()
			granted = append(granted, *rec)
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	return member, granted, nil
}

// LeaveCohort removes membership. Cohort-sourced grants are revoked only
// when the membership was created with RemoveAccessOnLeave; otherwise
// the access persists.
func (s *AccessGrantService) LeaveCohort(ctx context.Context, cohortID, userID uint, revokedBy *uint) error {
	cohort, err := s.Cohorts.FindByID(cohortID)
	if err != nil {
		return util.ErrCohortNotFound
	}

	member, err := s.Cohorts.FindMember(cohortID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return nil
	}

	if member.RemoveAccessOnLeave {
		records, err := s.Records.ListUnlockedByCohort(userID, cohortID)
		if err != nil {
			return err
		}
		now := time.Now()
		for i := range records {
			rec := &records[i]
			err := s.Locker.WithLock(ctx, accessLockKey(userID, rec.CourseID), func() error {
				rec.Status = model.AccessRevoked
				rec.RevokedAt = &now
				rec.RevokedBy = revokedBy
				rec.RevocationReason = fmt.Sprintf("Left cohort: %s", cohort.Name)
				return s.Records.Update(rec)
			})
			if err != nil {
				return err
			}
		}
	}

	return s.Cohorts.DeleteMember(member)
}
