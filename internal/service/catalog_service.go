package service

import (
	"coursehub_backend/internal/model"
)

type CatalogCourseStore interface {
	ListVisible() ([]model.Course, error)
	ListPublic() ([]model.Course, error)
	ListPrivate() ([]model.Course, error)
	ListByIDs(ids []uint) ([]model.Course, error)
	FindByIDWithPrerequisites(id uint) (*model.Course, error)
	BundlesContaining(courseID uint) ([]model.Bundle, error)
}

// UnlockableCourse is a catalog entry the user could gain access to,
// annotated with what stands between them and it.
type UnlockableCourse struct {
	Course               model.Course   `json:"course"`
	PrerequisitesMet     bool           `json:"prerequisitesMet"`
	MissingPrerequisites []string       `json:"missingPrerequisites,omitempty"`
	Bundles              []model.Bundle `json:"bundles,omitempty"`
}

// Catalog is the three-way partition of the course catalog for one
// user. The sets are disjoint; every visible course lands in exactly
// one.
type Catalog struct {
	Mine              []model.Course     `json:"mine"`
	AvailableToUnlock []UnlockableCourse `json:"availableToUnlock"`
	NotAvailable      []model.Course     `json:"notAvailable"`
}

// CatalogService partitions courses by the user's current access:
// courses they hold, courses they could unlock, and courses out of
// reach. Anonymous users see only the public slice of the unlockable
// set.
type CatalogService struct {
	Courses       CatalogCourseStore
	Resolver      *AccessResolver
	Prerequisites *PrerequisiteEvaluator
}

func NewCatalogService(courses CatalogCourseStore, resolver *AccessResolver, prereqs *PrerequisiteEvaluator) *CatalogService {
	return &CatalogService{Courses: courses, Resolver: resolver, Prerequisites: prereqs}
}

// Partition computes the catalog for one user. "Mine" wins over the
// other sets: a course the user holds never reappears as unlockable or
// unavailable regardless of its visibility.
func (s *CatalogService) Partition(userID uint) (Catalog, error) {
	var catalog Catalog

	mineIDs, err := s.Resolver.AccessibleCourseIDs(userID)
	if err != nil {
		return catalog, err
	}
	mineSet := make(map[uint]bool, len(mineIDs))
	for _, id := range mineIDs {
		mineSet[id] = true
	}
	if len(mineIDs) > 0 {
		catalog.Mine, err = s.Courses.ListByIDs(mineIDs)
		if err != nil {
			return catalog, err
		}
	}

	visible, err := s.visibleFor(userID)
	if err != nil {
		return catalog, err
	}
	for _, course := range visible {
		if mineSet[course.ID] {
			continue
		}
		entry, err := s.annotate(userID, course)
		if err != nil {
			return catalog, err
		}
		catalog.AvailableToUnlock = append(catalog.AvailableToUnlock, entry)
	}

	if userID != 0 {
		private, err := s.Courses.ListPrivate()
		if err != nil {
			return catalog, err
		}
		for _, course := range private {
			if !mineSet[course.ID] {
				catalog.NotAvailable = append(catalog.NotAvailable, course)
			}
		}
	}

	return catalog, nil
}

func (s *CatalogService) visibleFor(userID uint) ([]model.Course, error) {
	if userID == 0 {
		return s.Courses.ListPublic()
	}
	return s.Courses.ListVisible()
}

// annotate attaches prerequisite standing and purchasable bundles to an
// unlockable course.
func (s *CatalogService) annotate(userID uint, course model.Course) (UnlockableCourse, error) {
	entry := UnlockableCourse{Course: course, PrerequisitesMet: true}

	report, err := s.Prerequisites.Check(userID, course.ID)
	if err != nil {
		return entry, err
	}
	entry.PrerequisitesMet = report.Met
	for _, missing := range report.Missing {
		entry.MissingPrerequisites = append(entry.MissingPrerequisites, missing.CourseName)
	}

	if course.EnrollmentMethod == model.EnrollPurchase {
		entry.Bundles, err = s.Courses.BundlesContaining(course.ID)
		if err != nil {
			return entry, err
		}
	}
	return entry, nil
}
