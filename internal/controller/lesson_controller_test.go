package controller

import (
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/service"
	"coursehub_backend/internal/util"
	"coursehub_backend/pkg/logger"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// grantedRecords resolves every (user, course) pair to granted.
type grantedRecords struct{}

func (grantedRecords) Append(*model.AccessRecord) error { return nil }
func (grantedRecords) Update(*model.AccessRecord) error { return nil }
func (grantedRecords) ListByUserCourse(userID, courseID uint) ([]model.AccessRecord, error) {
	return nil, nil
}
func (grantedRecords) ListUnlocked(userID, courseID uint) ([]model.AccessRecord, error) {
	return []model.AccessRecord{{
		UserID:    userID,
		CourseID:  courseID,
		Status:    model.AccessUnlocked,
		GrantedAt: time.Now(),
	}}, nil
}
func (grantedRecords) ListUnlockedByUser(uint) ([]model.AccessRecord, error) { return nil, nil }
func (grantedRecords) FindByBundlePurchase(_, _, _ uint) (*model.AccessRecord, error) {
	return nil, nil
}
func (grantedRecords) FindByCoursePurchase(_, _, _ uint) (*model.AccessRecord, error) {
	return nil, nil
}
func (grantedRecords) ListUnlockedByCohort(_, _ uint) ([]model.AccessRecord, error) {
	return nil, nil
}
func (grantedRecords) ListExpiredUnlocked(int) ([]model.AccessRecord, error) { return nil, nil }

type fixedLessons struct{ lessons []model.Lesson }

func (s fixedLessons) FindByID(id uint) (*model.Lesson, error) {
	for i := range s.lessons {
		if s.lessons[i].ID == id {
			return &s.lessons[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s fixedLessons) ListByCourse(courseID uint) ([]model.Lesson, error) {
	var out []model.Lesson
	for _, l := range s.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s fixedLessons) CountByCourse(courseID uint) (int64, error) {
	out, _ := s.ListByCourse(courseID)
	return int64(len(out)), nil
}

type emptyProgress struct{}

func (emptyProgress) Find(_, _ uint) (*model.UserProgress, error) { return nil, nil }
func (emptyProgress) Save(*model.UserProgress) error              { return nil }
func (emptyProgress) CompletedLessonIDs(_, _ uint) (map[uint]bool, error) {
	return map[uint]bool{}, nil
}
func (emptyProgress) CountCompleted(_, _ uint) (int64, error) { return 0, nil }

type noQuizzes struct{}

func (noQuizzes) FindByLesson(uint) (*model.LessonQuiz, error)    { return nil, nil }
func (noQuizzes) CreateAttempt(*model.LessonQuizAttempt) error    { return nil }
func (noQuizzes) HasPassedAttempt(_, _ uint) (bool, error)        { return false, nil }
func (noQuizzes) BestScore(_, _ uint) (*float64, error)           { return nil, nil }
func (noQuizzes) ListRequiredByCourse(uint) ([]model.LessonQuiz, error) {
	return nil, nil
}

func lessonRequest(method string, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(method, "/", nil)
	ctx.Params = params
	ctx.Set("user", &util.Claims{UserID: 1})
	return ctx, w
}

func TestGetLessonOutOfSequencePointsAtNextLesson(t *testing.T) {
	lessons := fixedLessons{lessons: []model.Lesson{
		{BaseModel: model.BaseModel{ID: 1}, CourseID: 10, Title: "Intro", Order: 1},
		{BaseModel: model.BaseModel{ID: 2}, CourseID: 10, Title: "Deep Dive", Order: 2},
	}}
	c := NewLessonController(
		service.NewLessonService(lessons, emptyProgress{}, noQuizzes{}),
		service.NewAccessResolver(grantedRecords{}),
	)

	// Nothing completed yet, lesson 2 is out of sequence.
	ctx, w := lessonRequest(http.MethodGet, gin.Params{
		{Key: "courseId", Value: "10"},
		{Key: "lessonId", Value: "2"},
	})
	c.GetLesson(ctx)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "refusal must carry a redirect payload")
	assert.Equal(t, float64(1), data["nextLessonId"])
}

func TestGetLessonReachable(t *testing.T) {
	lessons := fixedLessons{lessons: []model.Lesson{
		{BaseModel: model.BaseModel{ID: 1}, CourseID: 10, Title: "Intro", Order: 1},
		{BaseModel: model.BaseModel{ID: 2}, CourseID: 10, Title: "Deep Dive", Order: 2},
	}}
	c := NewLessonController(
		service.NewLessonService(lessons, emptyProgress{}, noQuizzes{}),
		service.NewAccessResolver(grantedRecords{}),
	)

	ctx, w := lessonRequest(http.MethodGet, gin.Params{
		{Key: "courseId", Value: "10"},
		{Key: "lessonId", Value: "1"},
	})
	c.GetLesson(ctx)

	assert.Equal(t, http.StatusOK, w.Code)
}
