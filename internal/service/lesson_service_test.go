package service

import (
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lessonFixture struct {
	lessons  *memLessonStore
	progress *memProgressStore
	quizzes  *memQuizStore
	svc      *LessonService
}

func newLessonFixture(lessons []*model.Lesson, quizzes ...*model.LessonQuiz) *lessonFixture {
	f := &lessonFixture{lessons: newMemLessonStore(lessons...)}
	f.progress = newMemProgressStore(f.lessons)
	f.quizzes = newMemQuizStore(f.lessons, quizzes...)
	f.svc = NewLessonService(f.lessons, f.progress, f.quizzes)
	return f
}

func threeLessons() []*model.Lesson {
	return []*model.Lesson{
		lesson(1, 10, 1),
		lesson(2, 10, 2),
		lesson(3, 10, 3),
	}
}

func TestSequenceStrictPrefix(t *testing.T) {
	f := newLessonFixture(threeLessons())

	seq, err := f.svc.Sequence(1, 10)
	require.NoError(t, err)
	require.Len(t, seq, 3)
	assert.True(t, seq[0].Reachable)
	assert.False(t, seq[1].Reachable)
	assert.False(t, seq[2].Reachable)

	_, err = f.svc.CompleteLesson(1, 1)
	require.NoError(t, err)

	seq, err = f.svc.Sequence(1, 10)
	require.NoError(t, err)
	assert.True(t, seq[0].Completed)
	assert.True(t, seq[1].Reachable)
	assert.False(t, seq[2].Reachable)
}

func TestSequenceGapBlocksLaterLessons(t *testing.T) {
	f := newLessonFixture(threeLessons())

	// Lesson 2 completed out of band; lesson 1 still open.
	now := time.Now()
	require.NoError(t, f.progress.Save(&model.UserProgress{
		UserID: 1, LessonID: 2, Completed: true, Status: model.ProgressCompleted, CompletedAt: &now,
	}))

	seq, err := f.svc.Sequence(1, 10)
	require.NoError(t, err)
	assert.True(t, seq[0].Reachable)
	assert.False(t, seq[1].Reachable, "gap at lesson 1 blocks the rest")
	assert.False(t, seq[2].Reachable)
}

func TestSequenceOrderTieBreaksOnID(t *testing.T) {
	f := newLessonFixture([]*model.Lesson{
		lesson(7, 10, 1),
		lesson(3, 10, 1),
		lesson(5, 10, 2),
	})

	seq, err := f.svc.Sequence(1, 10)
	require.NoError(t, err)
	require.Len(t, seq, 3)
	assert.Equal(t, uint(3), seq[0].Lesson.ID)
	assert.Equal(t, uint(7), seq[1].Lesson.ID)
	assert.Equal(t, uint(5), seq[2].Lesson.ID)
}

func TestFirstUnreached(t *testing.T) {
	f := newLessonFixture(threeLessons())

	next, err := f.svc.FirstUnreached(1, 10)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, uint(1), next.ID)

	_, err = f.svc.CompleteLesson(1, 1)
	require.NoError(t, err)
	next, err = f.svc.FirstUnreached(1, 10)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next.ID)

	_, err = f.svc.CompleteLesson(1, 2)
	require.NoError(t, err)
	_, err = f.svc.CompleteLesson(1, 3)
	require.NoError(t, err)
	next, err = f.svc.FirstUnreached(1, 10)
	require.NoError(t, err)
	assert.Nil(t, next, "all lessons complete")
}

func TestCompleteLessonIdempotent(t *testing.T) {
	f := newLessonFixture(threeLessons())

	first, err := f.svc.CompleteLesson(1, 1)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)

	again, err := f.svc.CompleteLesson(1, 1)
	require.NoError(t, err)
	assert.Equal(t, first.CompletedAt.Unix(), again.CompletedAt.Unix())
}

func TestCompleteLessonUnknown(t *testing.T) {
	f := newLessonFixture(nil)

	_, err := f.svc.CompleteLesson(1, 404)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}

func requiredQuiz() *model.LessonQuiz {
	return &model.LessonQuiz{
		BaseModel:    model.BaseModel{ID: 5},
		LessonID:     1,
		IsRequired:   true,
		PassingScore: 70,
		Questions: []model.LessonQuizQuestion{
			{BaseModel: model.BaseModel{ID: 100}, QuizID: 5, CorrectOption: "A", Order: 1},
			{BaseModel: model.BaseModel{ID: 101}, QuizID: 5, CorrectOption: "B", Order: 2},
		},
	}
}

func TestCompleteLessonGatedOnRequiredQuiz(t *testing.T) {
	f := newLessonFixture(threeLessons(), requiredQuiz())

	_, err := f.svc.CompleteLesson(1, 1)
	assert.ErrorIs(t, err, util.ErrQuizRequired)

	result, err := f.svc.SubmitQuizAttempt(1, 1, map[uint]string{100: "A", 101: "B"})
	require.NoError(t, err)
	assert.True(t, result.Passed)

	_, err = f.svc.CompleteLesson(1, 1)
	assert.NoError(t, err)
}

func TestCompleteLessonOptionalQuizDoesNotGate(t *testing.T) {
	quiz := requiredQuiz()
	quiz.IsRequired = false
	f := newLessonFixture(threeLessons(), quiz)

	_, err := f.svc.CompleteLesson(1, 1)
	assert.NoError(t, err)
}

func TestSubmitQuizAttemptGrading(t *testing.T) {
	f := newLessonFixture(threeLessons(), requiredQuiz())

	// One right (case-insensitive), one wrong: 50%, below the bar.
	result, err := f.svc.SubmitQuizAttempt(1, 1, map[uint]string{100: "a", 101: "D"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 1, result.Correct)
	assert.Equal(t, 2, result.Total)

	// Unanswered questions count as wrong.
	result, err = f.svc.SubmitQuizAttempt(1, 1, map[uint]string{100: "A"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Score)

	// Full marks.
	result, err = f.svc.SubmitQuizAttempt(1, 1, map[uint]string{100: "A", 101: "B"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
	assert.True(t, result.Passed)
}

func TestSubmitQuizAttemptNoQuiz(t *testing.T) {
	f := newLessonFixture(threeLessons())

	_, err := f.svc.SubmitQuizAttempt(1, 2, map[uint]string{})
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestVideoProgressMonotonic(t *testing.T) {
	f := newLessonFixture(threeLessons())

	progress, err := f.svc.UpdateVideoProgress(1, 1, 40, 120)
	require.NoError(t, err)
	assert.Equal(t, 40.0, progress.VideoWatchPercentage)
	assert.Equal(t, model.ProgressInProgress, progress.Status)

	// Rewinding does not lower the watermark; the timestamp still moves.
	progress, err = f.svc.UpdateVideoProgress(1, 1, 20, 60)
	require.NoError(t, err)
	assert.Equal(t, 40.0, progress.VideoWatchPercentage)
	assert.Equal(t, 60.0, progress.LastWatchedTimestamp)
}

func TestVideoProgressAutoCompletesAtThreshold(t *testing.T) {
	f := newLessonFixture(threeLessons())

	progress, err := f.svc.UpdateVideoProgress(1, 1, 95, 570)
	require.NoError(t, err)
	assert.True(t, progress.Completed)
	assert.Equal(t, model.ProgressCompleted, progress.Status)

	// Completion is sticky.
	progress, err = f.svc.UpdateVideoProgress(1, 1, 10, 30)
	require.NoError(t, err)
	assert.True(t, progress.Completed)
}

func TestVideoProgressBlockedByRequiredQuiz(t *testing.T) {
	f := newLessonFixture(threeLessons(), requiredQuiz())

	progress, err := f.svc.UpdateVideoProgress(1, 1, 95, 570)
	require.NoError(t, err)
	assert.False(t, progress.Completed, "required quiz unpassed")
	assert.Equal(t, model.ProgressInProgress, progress.Status)

	result, err := f.svc.SubmitQuizAttempt(1, 1, map[uint]string{100: "A", 101: "B"})
	require.NoError(t, err)
	require.True(t, result.Passed)

	progress, err = f.svc.UpdateVideoProgress(1, 1, 95, 570)
	require.NoError(t, err)
	assert.True(t, progress.Completed)
}
