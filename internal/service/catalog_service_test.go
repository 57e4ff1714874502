package service

import (
	"coursehub_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	records *memAccessStore
	courses *memCourseStore
	svc     *CatalogService
}

func newCatalogFixture(courses ...*model.Course) *catalogFixture {
	f := &catalogFixture{
		records: newMemAccessStore(),
		courses: newMemCourseStore(courses...),
	}
	lessons := newMemLessonStore()
	resolver := NewAccessResolver(f.records)
	prereqs := NewPrerequisiteEvaluator(
		f.courses, lessons, newMemProgressStore(lessons), newMemQuizStore(lessons), resolver)
	f.svc = NewCatalogService(f.courses, resolver, prereqs)
	return f
}

func visibleCourse(id uint, name string, visibility model.CourseVisibility) *model.Course {
	c := course(id, name)
	c.Visibility = visibility
	return c
}

func (f *catalogFixture) grantAccess(t *testing.T, userID, courseID uint) {
	t.Helper()
	require.NoError(t, f.records.Append(&model.AccessRecord{
		UserID:     userID,
		CourseID:   courseID,
		AccessType: model.AccessManual,
		Status:     model.AccessUnlocked,
		GrantedAt:  time.Now(),
	}))
}

func courseIDs(courses []model.Course) []uint {
	ids := make([]uint, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}

func unlockableIDs(entries []UnlockableCourse) []uint {
	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Course.ID)
	}
	return ids
}

func TestPartitionAnonymousSeesPublicOnly(t *testing.T) {
	f := newCatalogFixture(
		visibleCourse(1, "Public", model.VisibilityPublic),
		visibleCourse(2, "Members", model.VisibilityMembersOnly),
		visibleCourse(3, "Hidden", model.VisibilityHidden),
		visibleCourse(4, "Private", model.VisibilityPrivate),
	)

	catalog, err := f.svc.Partition(0)
	require.NoError(t, err)
	assert.Empty(t, catalog.Mine)
	assert.Empty(t, catalog.NotAvailable)
	assert.Equal(t, []uint{1}, unlockableIDs(catalog.AvailableToUnlock))
}

func TestPartitionIsDisjointAndComplete(t *testing.T) {
	f := newCatalogFixture(
		visibleCourse(1, "Mine", model.VisibilityPublic),
		visibleCourse(2, "Unlockable", model.VisibilityMembersOnly),
		visibleCourse(3, "Hidden", model.VisibilityHidden),
		visibleCourse(4, "Private", model.VisibilityPrivate),
	)
	f.grantAccess(t, 1, 1)

	catalog, err := f.svc.Partition(1)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, courseIDs(catalog.Mine))
	assert.Equal(t, []uint{2, 3}, unlockableIDs(catalog.AvailableToUnlock))
	assert.Equal(t, []uint{4}, courseIDs(catalog.NotAvailable))
}

func TestPartitionMineWinsOverPrivate(t *testing.T) {
	f := newCatalogFixture(
		visibleCourse(4, "Private", model.VisibilityPrivate),
	)
	f.grantAccess(t, 1, 4)

	catalog, err := f.svc.Partition(1)
	require.NoError(t, err)
	assert.Equal(t, []uint{4}, courseIDs(catalog.Mine))
	assert.Empty(t, catalog.NotAvailable)
}

func TestPartitionExpiredAccessFallsBackToUnlockable(t *testing.T) {
	f := newCatalogFixture(
		visibleCourse(1, "Was Mine", model.VisibilityPublic),
	)
	past := time.Now().Add(-time.Minute)
	require.NoError(t, f.records.Append(&model.AccessRecord{
		UserID:     1,
		CourseID:   1,
		AccessType: model.AccessCohort,
		Status:     model.AccessUnlocked,
		GrantedAt:  time.Now().Add(-time.Hour),
		ExpiresAt:  &past,
	}))

	catalog, err := f.svc.Partition(1)
	require.NoError(t, err)
	assert.Empty(t, catalog.Mine)
	assert.Equal(t, []uint{1}, unlockableIDs(catalog.AvailableToUnlock))
}

func TestPartitionAnnotatesMissingPrerequisites(t *testing.T) {
	basics := visibleCourse(1, "Basics", model.VisibilityPublic)
	advanced := visibleCourse(2, "Advanced", model.VisibilityPublic)
	advanced.Prerequisites = []model.Course{*basics}

	f := newCatalogFixture(basics, advanced)

	catalog, err := f.svc.Partition(1)
	require.NoError(t, err)
	require.Len(t, catalog.AvailableToUnlock, 2)

	var advancedEntry *UnlockableCourse
	for i := range catalog.AvailableToUnlock {
		if catalog.AvailableToUnlock[i].Course.ID == 2 {
			advancedEntry = &catalog.AvailableToUnlock[i]
		}
	}
	require.NotNil(t, advancedEntry)
	assert.False(t, advancedEntry.PrerequisitesMet)
	assert.Equal(t, []string{"Basics"}, advancedEntry.MissingPrerequisites)
}

func TestPartitionAnnotatesBundlesForPurchasableCourses(t *testing.T) {
	buyable := visibleCourse(1, "Buyable", model.VisibilityPublic)
	buyable.EnrollmentMethod = model.EnrollPurchase

	f := newCatalogFixture(buyable)
	f.courses.bundles = []*model.Bundle{
		{
			BaseModel: model.BaseModel{ID: 5},
			Name:      "Starter Pack",
			IsActive:  true,
			Courses:   []model.Course{*buyable},
		},
		{
			BaseModel: model.BaseModel{ID: 6},
			Name:      "Retired Pack",
			IsActive:  false,
			Courses:   []model.Course{*buyable},
		},
	}

	catalog, err := f.svc.Partition(1)
	require.NoError(t, err)
	require.Len(t, catalog.AvailableToUnlock, 1)
	require.Len(t, catalog.AvailableToUnlock[0].Bundles, 1)
	assert.Equal(t, "Starter Pack", catalog.AvailableToUnlock[0].Bundles[0].Name)
}
