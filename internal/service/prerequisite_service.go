package service

import (
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/util"
)

type PrerequisiteCourseStore interface {
	FindByIDWithPrerequisites(id uint) (*model.Course, error)
}

type LessonStore interface {
	FindByID(id uint) (*model.Lesson, error)
	ListByCourse(courseID uint) ([]model.Lesson, error)
	CountByCourse(courseID uint) (int64, error)
}

type ProgressStore interface {
	Find(userID, lessonID uint) (*model.UserProgress, error)
	Save(progress *model.UserProgress) error
	CompletedLessonIDs(userID, courseID uint) (map[uint]bool, error)
	CountCompleted(userID, courseID uint) (int64, error)
}

type QuizStore interface {
	FindByLesson(lessonID uint) (*model.LessonQuiz, error)
	CreateAttempt(attempt *model.LessonQuizAttempt) error
	HasPassedAttempt(userID, quizID uint) (bool, error)
	BestScore(userID, quizID uint) (*float64, error)
	ListRequiredByCourse(courseID uint) ([]model.LessonQuiz, error)
}

// PrerequisiteStatus reports one prerequisite course's standing for a
// user: whether it counts as satisfied and which half of the rule is
// still open.
type PrerequisiteStatus struct {
	CourseID        uint   `json:"courseId"`
	CourseName      string `json:"courseName"`
	Satisfied       bool   `json:"satisfied"`
	HasAccess       bool   `json:"hasAccess"`
	LessonsTotal    int64  `json:"lessonsTotal"`
	LessonsDone     int64  `json:"lessonsDone"`
	QuizScoreNeeded *int   `json:"quizScoreNeeded,omitempty"`
	QuizScoreMet    bool   `json:"quizScoreMet"`
}

// PrerequisiteReport is the evaluator's full answer for one target
// course.
type PrerequisiteReport struct {
	Met     bool                 `json:"met"`
	Missing []PrerequisiteStatus `json:"missing,omitempty"`
	All     []PrerequisiteStatus `json:"all"`
}

// PrerequisiteEvaluator decides whether a user has finished the courses
// a target course depends on. A prerequisite is satisfied when the user
// has active access to it, has completed every lesson, and, if the
// target course sets a required quiz score, has reached that score on
// every required quiz in the prerequisite.
type PrerequisiteEvaluator struct {
	Courses  PrerequisiteCourseStore
	Lessons  LessonStore
	Progress ProgressStore
	Quizzes  QuizStore
	Resolver *AccessResolver
}

func NewPrerequisiteEvaluator(
	courses PrerequisiteCourseStore,
	lessons LessonStore,
	progress ProgressStore,
	quizzes QuizStore,
	resolver *AccessResolver,
) *PrerequisiteEvaluator {
	return &PrerequisiteEvaluator{
		Courses:  courses,
		Lessons:  lessons,
		Progress: progress,
		Quizzes:  quizzes,
		Resolver: resolver,
	}
}

// Check evaluates every prerequisite of the target course. A course
// with no prerequisites is trivially met. Anonymous users fail every
// prerequisite that has lessons, since they can hold no progress.
func (s *PrerequisiteEvaluator) Check(userID, courseID uint) (PrerequisiteReport, error) {
	course, err := s.Courses.FindByIDWithPrerequisites(courseID)
	if err != nil {
		return PrerequisiteReport{}, util.ErrCourseNotFound
	}

	report := PrerequisiteReport{Met: true}
	for i := range course.Prerequisites {
		prereq := &course.Prerequisites[i]
		status, err := s.evaluateOne(userID, prereq, course.RequiredQuizScore)
		if err != nil {
			return PrerequisiteReport{}, err
		}
		report.All = append(report.All, status)
		if !status.Satisfied {
			report.Met = false
			report.Missing = append(report.Missing, status)
		}
	}
	return report, nil
}

func (s *PrerequisiteEvaluator) evaluateOne(userID uint, prereq *model.Course, requiredScore *int) (PrerequisiteStatus, error) {
	status := PrerequisiteStatus{
		CourseID:        prereq.ID,
		CourseName:      prereq.Name,
		QuizScoreNeeded: requiredScore,
		QuizScoreMet:    true,
	}

	decision, err := s.Resolver.Resolve(userID, prereq.ID)
	if err != nil {
		return status, err
	}
	status.HasAccess = decision.Granted

	status.LessonsTotal, err = s.Lessons.CountByCourse(prereq.ID)
	if err != nil {
		return status, err
	}
	if userID != 0 {
		status.LessonsDone, err = s.Progress.CountCompleted(userID, prereq.ID)
		if err != nil {
			return status, err
		}
	}

	if requiredScore != nil {
		status.QuizScoreMet, err = s.quizScoreMet(userID, prereq.ID, *requiredScore)
		if err != nil {
			return status, err
		}
	}

	status.Satisfied = status.HasAccess &&
		status.LessonsDone >= status.LessonsTotal &&
		status.QuizScoreMet
	return status, nil
}

// quizScoreMet requires the user's best score on every required quiz of
// the prerequisite course to reach the target course's threshold. A
// prerequisite without required quizzes passes vacuously.
func (s *PrerequisiteEvaluator) quizScoreMet(userID, prereqCourseID uint, threshold int) (bool, error) {
	if userID == 0 {
		quizzes, err := s.Quizzes.ListRequiredByCourse(prereqCourseID)
		if err != nil {
			return false, err
		}
		return len(quizzes) == 0, nil
	}

	quizzes, err := s.Quizzes.ListRequiredByCourse(prereqCourseID)
	if err != nil {
		return false, err
	}
	for i := range quizzes {
		best, err := s.Quizzes.BestScore(userID, quizzes[i].ID)
		if err != nil {
			return false, err
		}
		if best == nil || *best < float64(threshold) {
			return false, nil
		}
	}
	return true, nil
}
