package service

import (
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prereqFixture struct {
	records  *memAccessStore
	courses  *memCourseStore
	lessons  *memLessonStore
	progress *memProgressStore
	quizzes  *memQuizStore
	eval     *PrerequisiteEvaluator
}

func newPrereqFixture(courses []*model.Course, lessons []*model.Lesson, quizzes []*model.LessonQuiz) *prereqFixture {
	f := &prereqFixture{
		records: newMemAccessStore(),
		courses: newMemCourseStore(courses...),
		lessons: newMemLessonStore(lessons...),
	}
	f.progress = newMemProgressStore(f.lessons)
	f.quizzes = newMemQuizStore(f.lessons, quizzes...)
	f.eval = NewPrerequisiteEvaluator(f.courses, f.lessons, f.progress, f.quizzes, NewAccessResolver(f.records))
	return f
}

func (f *prereqFixture) grantAccess(t *testing.T, userID, courseID uint) {
	t.Helper()
	require.NoError(t, f.records.Append(&model.AccessRecord{
		UserID:     userID,
		CourseID:   courseID,
		AccessType: model.AccessManual,
		Status:     model.AccessUnlocked,
		GrantedAt:  time.Now(),
	}))
}

func (f *prereqFixture) completeLesson(t *testing.T, userID, lessonID uint) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.progress.Save(&model.UserProgress{
		UserID:      userID,
		LessonID:    lessonID,
		Status:      model.ProgressCompleted,
		Completed:   true,
		CompletedAt: &now,
	}))
}

func lesson(id, courseID uint, order int) *model.Lesson {
	return &model.Lesson{
		BaseModel: model.BaseModel{ID: id},
		CourseID:  courseID,
		Order:     order,
	}
}

func TestCheckNoPrerequisites(t *testing.T) {
	f := newPrereqFixture([]*model.Course{course(10, "Standalone")}, nil, nil)

	report, err := f.eval.Check(1, 10)
	require.NoError(t, err)
	assert.True(t, report.Met)
	assert.Empty(t, report.Missing)
}

func TestCheckUnknownCourse(t *testing.T) {
	f := newPrereqFixture(nil, nil, nil)

	_, err := f.eval.Check(1, 404)
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestCheckPrerequisiteNeedsAccessAndCompletion(t *testing.T) {
	basics := course(10, "Basics")
	advanced := course(20, "Advanced")
	advanced.Prerequisites = []model.Course{*basics}

	f := newPrereqFixture(
		[]*model.Course{basics, advanced},
		[]*model.Lesson{lesson(1, 10, 1), lesson(2, 10, 2)},
		nil,
	)

	// No access at all.
	report, err := f.eval.Check(1, 20)
	require.NoError(t, err)
	assert.False(t, report.Met)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, "Basics", report.Missing[0].CourseName)
	assert.False(t, report.Missing[0].HasAccess)

	// Access, half the lessons done.
	f.grantAccess(t, 1, 10)
	f.completeLesson(t, 1, 1)
	report, err = f.eval.Check(1, 20)
	require.NoError(t, err)
	assert.False(t, report.Met)
	assert.Equal(t, int64(1), report.Missing[0].LessonsDone)
	assert.Equal(t, int64(2), report.Missing[0].LessonsTotal)

	// Everything done.
	f.completeLesson(t, 1, 2)
	report, err = f.eval.Check(1, 20)
	require.NoError(t, err)
	assert.True(t, report.Met)
	assert.Empty(t, report.Missing)
}

func TestCheckRequiredQuizScore(t *testing.T) {
	threshold := 80
	basics := course(10, "Basics")
	advanced := course(20, "Advanced")
	advanced.RequiredQuizScore = &threshold
	advanced.Prerequisites = []model.Course{*basics}

	quiz := &model.LessonQuiz{
		BaseModel:    model.BaseModel{ID: 5},
		LessonID:     1,
		IsRequired:   true,
		PassingScore: 70,
	}

	f := newPrereqFixture(
		[]*model.Course{basics, advanced},
		[]*model.Lesson{lesson(1, 10, 1)},
		[]*model.LessonQuiz{quiz},
	)
	f.grantAccess(t, 1, 10)
	f.completeLesson(t, 1, 1)

	// Best score 75: passes the quiz's own bar but not the target
	// course's 80.
	require.NoError(t, f.quizzes.CreateAttempt(&model.LessonQuizAttempt{
		UserID: 1, QuizID: 5, Score: 75, Passed: true, CompletedAt: time.Now(),
	}))
	report, err := f.eval.Check(1, 20)
	require.NoError(t, err)
	assert.False(t, report.Met)
	assert.False(t, report.Missing[0].QuizScoreMet)

	// A later attempt clears the threshold.
	require.NoError(t, f.quizzes.CreateAttempt(&model.LessonQuizAttempt{
		UserID: 1, QuizID: 5, Score: 90, Passed: true, CompletedAt: time.Now(),
	}))
	report, err = f.eval.Check(1, 20)
	require.NoError(t, err)
	assert.True(t, report.Met)
}

func TestCheckQuizRuleVacuousWithoutRequiredQuizzes(t *testing.T) {
	threshold := 80
	basics := course(10, "Basics")
	advanced := course(20, "Advanced")
	advanced.RequiredQuizScore = &threshold
	advanced.Prerequisites = []model.Course{*basics}

	f := newPrereqFixture([]*model.Course{basics, advanced}, []*model.Lesson{lesson(1, 10, 1)}, nil)
	f.grantAccess(t, 1, 10)
	f.completeLesson(t, 1, 1)

	report, err := f.eval.Check(1, 20)
	require.NoError(t, err)
	assert.True(t, report.Met)
}

func TestCheckAnonymousFailsPrerequisites(t *testing.T) {
	basics := course(10, "Basics")
	advanced := course(20, "Advanced")
	advanced.Prerequisites = []model.Course{*basics}

	f := newPrereqFixture([]*model.Course{basics, advanced}, []*model.Lesson{lesson(1, 10, 1)}, nil)

	report, err := f.eval.Check(0, 20)
	require.NoError(t, err)
	assert.False(t, report.Met)
}
