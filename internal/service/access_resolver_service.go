package service

import (
	"coursehub_backend/internal/model"
	"coursehub_backend/pkg/logger"
	"coursehub_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

// AccessRecordStore is the ledger surface the access services need.
// *repository.AccessRecordRepository satisfies it; tests substitute an
// in-memory implementation.
type AccessRecordStore interface {
	Append(rec *model.AccessRecord) error
	Update(rec *model.AccessRecord) error
	ListByUserCourse(userID, courseID uint) ([]model.AccessRecord, error)
	ListUnlocked(userID, courseID uint) ([]model.AccessRecord, error)
	ListUnlockedByUser(userID uint) ([]model.AccessRecord, error)
	FindByBundlePurchase(userID, courseID, bundlePurchaseID uint) (*model.AccessRecord, error)
	FindByCoursePurchase(userID, courseID, coursePurchaseID uint) (*model.AccessRecord, error)
	ListUnlockedByCohort(userID, cohortID uint) ([]model.AccessRecord, error)
	ListExpiredUnlocked(limit int) ([]model.AccessRecord, error)
}

// AccessDecision is the resolver's answer. Denial is a normal value,
// never an error: Granted=false with a human-readable Reason.
type AccessDecision struct {
	Granted bool                `json:"granted"`
	Reason  string              `json:"reason"`
	Record  *model.AccessRecord `json:"record,omitempty"`
}

// AccessResolver computes current effective access for a (user, course)
// pair from the ledger. Its only write is lazy expiry: flipping an
// unlocked record whose expires_at has passed to expired, which is
// idempotent because expired records are never touched again.
type AccessResolver struct {
	Records AccessRecordStore
}

func NewAccessResolver(records AccessRecordStore) *AccessResolver {
	return &AccessResolver{Records: records}
}

// Resolve never fails on missing data; absence of access is an outcome,
// not an error. Candidate records are ordered most recently granted
// first, making the winner among duplicate unlocked records
// deterministic.
func (s *AccessResolver) Resolve(userID, courseID uint) (AccessDecision, error) {
	if userID == 0 {
		monitoring.AccessResolutions.WithLabelValues("unauthenticated").Inc()
		return AccessDecision{Granted: false, Reason: "Not authenticated"}, nil
	}

	now := time.Now()

	unlocked, err := s.Records.ListUnlocked(userID, courseID)
	if err != nil {
		return AccessDecision{}, err
	}
	for i := range unlocked {
		rec := &unlocked[i]
		if rec.IsActive(now) {
			monitoring.AccessResolutions.WithLabelValues("granted").Inc()
			return AccessDecision{
				Granted: true,
				Reason:  "Access granted via " + rec.SourceDisplay(),
				Record:  rec,
			}, nil
		}
		// Stored as unlocked but past expiry: persist the expired state.
		if err := s.expire(rec); err != nil {
			return AccessDecision{}, err
		}
	}

	history, err := s.Records.ListByUserCourse(userID, courseID)
	if err != nil {
		return AccessDecision{}, err
	}
	if len(history) == 0 {
		monitoring.AccessResolutions.WithLabelValues("none").Inc()
		return AccessDecision{Granted: false, Reason: "No access found"}, nil
	}

	latest := &history[0]
	switch latest.EffectiveStatus(now) {
	case model.AccessExpired:
		if err := s.expire(latest); err != nil {
			return AccessDecision{}, err
		}
		monitoring.AccessResolutions.WithLabelValues("expired").Inc()
		return AccessDecision{Granted: false, Reason: "Access has expired", Record: latest}, nil
	case model.AccessRevoked:
		reason := latest.RevocationReason
		if reason == "" {
			reason = "No reason provided"
		}
		monitoring.AccessResolutions.WithLabelValues("revoked").Inc()
		return AccessDecision{Granted: false, Reason: "Access revoked: " + reason, Record: latest}, nil
	}

	monitoring.AccessResolutions.WithLabelValues("none").Inc()
	return AccessDecision{Granted: false, Reason: "No access found"}, nil
}

// expire persists the lazy-expiry transition. Writing only when the
// stored status is still unlocked keeps re-resolution a no-op.
func (s *AccessResolver) expire(rec *model.AccessRecord) error {
	if rec.Status != model.AccessUnlocked {
		return nil
	}
	rec.Status = model.AccessExpired
	return s.Records.Update(rec)
}

// AccessibleCourseIDs returns every course the user currently has active
// access to, deduplicated across overlapping grants.
func (s *AccessResolver) AccessibleCourseIDs(userID uint) ([]uint, error) {
	if userID == 0 {
		return nil, nil
	}

	records, err := s.Records.ListUnlockedByUser(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	seen := make(map[uint]bool, len(records))
	var ids []uint
	for i := range records {
		rec := &records[i]
		if !rec.IsActive(now) {
			continue
		}
		if !seen[rec.CourseID] {
			seen[rec.CourseID] = true
			ids = append(ids, rec.CourseID)
		}
	}
	return ids, nil
}

// ReconcileExpired sweeps unlocked records past their expiry and
// persists the expired status, so reporting does not depend on a page
// view having lazily expired them. Runs from the app's background
// ticker.
func (s *AccessResolver) ReconcileExpired() (int, error) {
	records, err := s.Records.ListExpiredUnlocked(500)
	if err != nil {
		return 0, err
	}
	for i := range records {
		if err := s.expire(&records[i]); err != nil {
			return i, err
		}
	}
	if len(records) > 0 {
		logger.Log.Info("expired access records reconciled", zap.Int("count", len(records)))
	}
	return len(records), nil
}
