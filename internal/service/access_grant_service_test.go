package service

import (
	"context"
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/util"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type grantFixture struct {
	records   *memAccessStore
	courses   *memCourseStore
	users     *memUserStore
	bundles   *memBundleStore
	cohorts   *memCohortStore
	purchases *memPurchaseStore
	svc       *AccessGrantService
	resolver  *AccessResolver
}

func newGrantFixture(courses ...*model.Course) *grantFixture {
	f := &grantFixture{
		records:   newMemAccessStore(),
		courses:   newMemCourseStore(courses...),
		users:     newMemUserStore(&model.User{BaseModel: model.BaseModel{ID: 1}, Name: "Ada"}),
		bundles:   newMemBundleStore(),
		cohorts:   newMemCohortStore(),
		purchases: newMemPurchaseStore(),
	}
	f.svc = NewAccessGrantService(f.records, f.courses, f.users, f.bundles, f.cohorts, f.purchases, nopLocker{})
	f.resolver = NewAccessResolver(f.records)
	return f
}

func course(id uint, name string) *model.Course {
	return &model.Course{
		BaseModel: model.BaseModel{ID: id},
		Name:      name,
		Status:    model.CourseActive,
	}
}

func TestGrantManual(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	admin := uint(99)

	rec, err := f.svc.Grant(context.Background(), GrantRequest{
		UserID:     1,
		CourseID:   10,
		AccessType: model.AccessManual,
		GrantedBy:  &admin,
		Notes:      "support ticket 42",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AccessUnlocked, rec.Status)
	require.NotNil(t, rec.GrantedBy)
	assert.Equal(t, admin, *rec.GrantedBy)

	decision, err := f.resolver.Resolve(1, 10)
	require.NoError(t, err)
	assert.True(t, decision.Granted)
}

func TestGrantUnknownCourse(t *testing.T) {
	f := newGrantFixture()

	_, err := f.svc.Grant(context.Background(), GrantRequest{
		UserID: 1, CourseID: 999, AccessType: model.AccessManual,
	})
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestGrantUnknownUser(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))

	_, err := f.svc.Grant(context.Background(), GrantRequest{
		UserID: 404, CourseID: 10, AccessType: model.AccessManual,
	})
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestRevokeClosesAllUnlocked(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	ctx := context.Background()

	_, err := f.svc.Grant(ctx, GrantRequest{UserID: 1, CourseID: 10, AccessType: model.AccessManual})
	require.NoError(t, err)
	_, err = f.svc.Grant(ctx, GrantRequest{UserID: 1, CourseID: 10, AccessType: model.AccessPurchase})
	require.NoError(t, err)

	admin := uint(99)
	result, err := f.svc.Revoke(ctx, 1, 10, &admin, "Refund issued")
	require.NoError(t, err)
	assert.False(t, result.NothingToRevoke)
	assert.Len(t, result.Revoked, 2)
	for _, rec := range result.Revoked {
		assert.Equal(t, model.AccessRevoked, rec.Status)
		assert.Equal(t, "Refund issued", rec.RevocationReason)
		require.NotNil(t, rec.RevokedBy)
		assert.Equal(t, admin, *rec.RevokedBy)
		assert.NotNil(t, rec.RevokedAt)
	}

	decision, err := f.resolver.Resolve(1, 10)
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "Access revoked: Refund issued", decision.Reason)
}

func TestRevokeNothingToRevoke(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))

	result, err := f.svc.Revoke(context.Background(), 1, 10, nil, "")
	require.NoError(t, err)
	assert.True(t, result.NothingToRevoke)
	assert.Empty(t, result.Revoked)
}

func TestConfirmPurchaseIdempotent(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	ctx := context.Background()

	first, err := f.svc.ConfirmPurchase(ctx, 1, 10, "stripe", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, model.AccessPurchase, first.AccessType)
	require.NotNil(t, first.CoursePurchaseID)

	// Redelivered webhook: same record, no duplicates.
	second, err := f.svc.ConfirmPurchase(ctx, 1, 10, "stripe", "ord-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	history, err := f.records.ListByUserCourse(1, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Len(t, f.purchases.purchases, 1)
}

func TestConfirmPurchaseDistinctOrdersStack(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	ctx := context.Background()

	_, err := f.svc.ConfirmPurchase(ctx, 1, 10, "stripe", "ord-1")
	require.NoError(t, err)
	_, err = f.svc.ConfirmPurchase(ctx, 1, 10, "stripe", "ord-2")
	require.NoError(t, err)

	history, err := f.records.ListByUserCourse(1, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestConfirmBundlePurchaseFixedFanOut(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"), course(20, "Go Advanced"))
	f.bundles.bundles[5] = &model.Bundle{
		BaseModel: model.BaseModel{ID: 5},
		Name:      "Go Track",
		Type:      model.BundleFixed,
		Courses:   []model.Course{*f.courses.courses[10], *f.courses.courses[20]},
	}
	ctx := context.Background()

	_, granted, err := f.svc.ConfirmBundlePurchase(ctx, 1, 5, "bundle-ord-1", nil)
	require.NoError(t, err)
	assert.Len(t, granted, 2)

	for _, courseID := range []uint{10, 20} {
		decision, err := f.resolver.Resolve(1, courseID)
		require.NoError(t, err)
		assert.True(t, decision.Granted, "course %d", courseID)
	}

	// Redelivery grants nothing new.
	_, granted, err = f.svc.ConfirmBundlePurchase(ctx, 1, 5, "bundle-ord-1", nil)
	require.NoError(t, err)
	assert.Empty(t, granted)
	assert.Len(t, f.bundles.purchases, 1)
}

func TestConfirmBundlePurchasePickYourOwn(t *testing.T) {
	f := newGrantFixture(course(10, "A"), course(20, "B"), course(30, "C"))
	max := 2
	f.bundles.bundles[5] = &model.Bundle{
		BaseModel:           model.BaseModel{ID: 5},
		Name:                "Pick Two",
		Type:                model.BundlePickYourOwn,
		MaxCourseSelections: &max,
		Courses: []model.Course{
			*f.courses.courses[10], *f.courses.courses[20], *f.courses.courses[30],
		},
	}
	ctx := context.Background()

	_, granted, err := f.svc.ConfirmBundlePurchase(ctx, 1, 5, "ord-1", []uint{10, 30})
	require.NoError(t, err)
	assert.Len(t, granted, 2)

	decision, err := f.resolver.Resolve(1, 20)
	require.NoError(t, err)
	assert.False(t, decision.Granted, "unselected course must stay locked")
}

func TestConfirmBundlePurchaseSelectionValidation(t *testing.T) {
	f := newGrantFixture(course(10, "A"), course(20, "B"))
	max := 1
	f.bundles.bundles[5] = &model.Bundle{
		BaseModel:           model.BaseModel{ID: 5},
		Name:                "Pick One",
		Type:                model.BundlePickYourOwn,
		MaxCourseSelections: &max,
		Courses:             []model.Course{*f.courses.courses[10], *f.courses.courses[20]},
	}
	ctx := context.Background()

	_, _, err := f.svc.ConfirmBundlePurchase(ctx, 1, 5, "ord-1", nil)
	assert.ErrorIs(t, err, util.ErrInvalidSelection, "empty selection")

	_, _, err = f.svc.ConfirmBundlePurchase(ctx, 1, 5, "ord-2", []uint{10, 20})
	assert.ErrorIs(t, err, util.ErrInvalidSelection, "over the cap")

	_, _, err = f.svc.ConfirmBundlePurchase(ctx, 1, 5, "ord-3", []uint{77})
	assert.ErrorIs(t, err, util.ErrInvalidSelection, "course outside the bundle")
}

func TestCreateGiftThenRedeem(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	f.users.users[2] = &model.User{BaseModel: model.BaseModel{ID: 2}, Name: "Eve"}

	gift, err := f.svc.CreateGift(2, 10, "ada@example.com", "Enjoy!")
	require.NoError(t, err)
	require.NotEmpty(t, gift.GiftToken)
	assert.False(t, gift.Redeemed)

	rec, err := f.svc.RedeemGift(context.Background(), 1, gift.GiftToken)
	require.NoError(t, err)
	assert.Equal(t, model.AccessPurchase, rec.AccessType)

	decision, err := f.resolver.Resolve(1, 10)
	require.NoError(t, err)
	assert.True(t, decision.Granted)
}

func TestCreateGiftUnknownCourse(t *testing.T) {
	f := newGrantFixture()

	_, err := f.svc.CreateGift(1, 999, "ada@example.com", "")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestRedeemGift(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	f.purchases.addGift(&model.GiftPurchase{
		BaseModel:   model.BaseModel{ID: 7},
		PurchaserID: 2,
		CourseID:    10,
		GiftToken:   "tok-abc",
	})
	ctx := context.Background()

	rec, err := f.svc.RedeemGift(ctx, 1, "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, model.AccessPurchase, rec.AccessType)

	gift, err := f.purchases.FindGiftByToken("tok-abc")
	require.NoError(t, err)
	assert.True(t, gift.Redeemed)
	require.NotNil(t, gift.RedeemedBy)
	assert.Equal(t, uint(1), *gift.RedeemedBy)

	// Same recipient retries: no duplicate record.
	again, err := f.svc.RedeemGift(ctx, 1, "tok-abc")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
	history, _ := f.records.ListByUserCourse(1, 10)
	assert.Len(t, history, 1)
}

func TestRedeemGiftSingleUse(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	f.users.users[2] = &model.User{BaseModel: model.BaseModel{ID: 2}, Name: "Eve"}
	f.purchases.addGift(&model.GiftPurchase{
		BaseModel: model.BaseModel{ID: 7},
		CourseID:  10,
		GiftToken: "tok-abc",
	})
	ctx := context.Background()

	_, err := f.svc.RedeemGift(ctx, 1, "tok-abc")
	require.NoError(t, err)

	_, err = f.svc.RedeemGift(ctx, 2, "tok-abc")
	assert.ErrorIs(t, err, util.ErrGiftAlreadyRedeemed)
}

func TestRedeemGiftConcurrentSingleUse(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	f.users.users[2] = &model.User{BaseModel: model.BaseModel{ID: 2}, Name: "Eve"}
	f.purchases.addGift(&model.GiftPurchase{
		BaseModel: model.BaseModel{ID: 7},
		CourseID:  10,
		GiftToken: "tok-abc",
	})
	locker := newKeyLocker()
	f.svc.Locker = locker

	// Two recipients race for the same token. The token lock serializes
	// the read-check-write, so exactly one wins.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, userID := range []uint{1, 2} {
		userID := userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RedeemGift(context.Background(), userID, "tok-abc")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var redeemed, rejected int
	for err := range errs {
		switch {
		case err == nil:
			redeemed++
		case errors.Is(err, util.ErrGiftAlreadyRedeemed):
			rejected++
		default:
			t.Fatalf("unexpected redeem error: %v", err)
		}
	}
	assert.Equal(t, 1, redeemed)
	assert.Equal(t, 1, rejected)
	assert.Contains(t, locker.keys(), "gift:lock:tok-abc")

	gift, err := f.purchases.FindGiftByToken("tok-abc")
	require.NoError(t, err)
	assert.True(t, gift.Redeemed)
	assert.Len(t, f.purchases.purchases, 1)
}

func TestRedeemGiftUnknownToken(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))

	_, err := f.svc.RedeemGift(context.Background(), 1, "nope")
	assert.ErrorIs(t, err, util.ErrGiftNotFound)
}

func TestJoinCohortFansOutWithCourseExpiry(t *testing.T) {
	days := 30
	timed := &model.Course{
		BaseModel:          model.BaseModel{ID: 20},
		Name:               "Timed",
		Status:             model.CourseActive,
		AccessDurationType: model.DurationFixedDays,
		AccessDurationDays: &days,
	}
	f := newGrantFixture(course(10, "Lifetime"), timed)
	f.cohorts.cohorts[3] = &model.Cohort{
		BaseModel: model.BaseModel{ID: 3},
		Name:      "Black Friday 2025",
		Courses:   []model.Course{*f.courses.courses[10], *timed},
	}
	ctx := context.Background()

	member, granted, err := f.svc.JoinCohort(ctx, 3, 1, true)
	require.NoError(t, err)
	require.NotNil(t, member)
	require.Len(t, granted, 2)

	byCourse := map[uint]model.AccessRecord{}
	for _, rec := range granted {
		byCourse[rec.CourseID] = rec
	}
	assert.Nil(t, byCourse[10].ExpiresAt)
	require.NotNil(t, byCourse[20].ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, days), *byCourse[20].ExpiresAt, time.Minute)

	// Rejoin is a no-op.
	_, granted, err = f.svc.JoinCohort(ctx, 3, 1, true)
	require.NoError(t, err)
	assert.Empty(t, granted)
	assert.Len(t, f.cohorts.members, 1)
}

func TestLeaveCohortRevokesWhenConfigured(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	f.cohorts.cohorts[3] = &model.Cohort{
		BaseModel: model.BaseModel{ID: 3},
		Name:      "Spring Cohort",
		Courses:   []model.Course{*f.courses.courses[10]},
	}
	ctx := context.Background()

	_, _, err := f.svc.JoinCohort(ctx, 3, 1, true)
	require.NoError(t, err)

	require.NoError(t, f.svc.LeaveCohort(ctx, 3, 1, nil))

	decision, err := f.resolver.Resolve(1, 10)
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "Access revoked: Left cohort: Spring Cohort", decision.Reason)
	assert.Empty(t, f.cohorts.members)
}

func TestLeaveCohortKeepsAccessWhenNotConfigured(t *testing.T) {
	f := newGrantFixture(course(10, "Go Basics"))
	f.cohorts.cohorts[3] = &model.Cohort{
		BaseModel: model.BaseModel{ID: 3},
		Name:      "Alumni",
		Courses:   []model.Course{*f.courses.courses[10]},
	}
	ctx := context.Background()

	_, _, err := f.svc.JoinCohort(ctx, 3, 1, false)
	require.NoError(t, err)

	require.NoError(t, f.svc.LeaveCohort(ctx, 3, 1, nil))

	decision, err := f.resolver.Resolve(1, 10)
	require.NoError(t, err)
	assert.True(t, decision.Granted, "access persists after leaving")
	assert.Empty(t, f.cohorts.members)
}

func TestLeaveCohortNonMemberIsNoOp(t *testing.T) {
	f := newGrantFixture()
	f.cohorts.cohorts[3] = &model.Cohort{BaseModel: model.BaseModel{ID: 3}, Name: "Empty"}

	assert.NoError(t, f.svc.LeaveCohort(context.Background(), 3, 1, nil))
}
