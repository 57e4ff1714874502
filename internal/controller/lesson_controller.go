package controller

import (
	"coursehub_backend/internal/service"
	"coursehub_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	Lessons  *service.LessonService
	Resolver *service.AccessResolver
}

func NewLessonController(lessons *service.LessonService, resolver *service.AccessResolver) *LessonController {
	return &LessonController{Lessons: lessons, Resolver: resolver}
}

// requireAccess gates lesson routes on resolved course access. The
// denial reason goes back to the client.
func (c *LessonController) requireAccess(ctx *gin.Context, userID, courseID uint) bool {
	decision, err := c.Resolver.Resolve(userID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return false
	}
	if !decision.Granted {
		util.Error(ctx, 403, decision.Reason)
		return false
	}
	return true
}

// ListLessons godoc
// @Summary Course lessons with completion and reachability
// @Tags lessons
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "course id"
// @Success 200 {object} util.Response{data=[]service.SequencedLesson}
// @Failure 403 {object} util.Response
// @Router /api/courses/{courseId}/lessons [get]
func (c *LessonController) ListLessons(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	claims := util.GetUserFromContext(ctx)

	if !c.requireAccess(ctx, claims.UserID, courseID) {
		return
	}

	seq, err := c.Lessons.Sequence(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, seq)
}

// NextLesson godoc
// @Summary The next lesson the user should take
// @Tags lessons
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "course id"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 403 {object} util.Response
// @Router /api/courses/{courseId}/lessons/next [get]
func (c *LessonController) NextLesson(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	claims := util.GetUserFromContext(ctx)

	if !c.requireAccess(ctx, claims.UserID, courseID) {
		return
	}

	lesson, err := c.Lessons.FirstUnreached(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if lesson == nil {
		util.Success(ctx, gin.H{"completed": true})
		return
	}
	util.Success(ctx, lesson)
}

// GetLesson godoc
// @Summary A single lesson, gated on reachability
// @Tags lessons
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "course id"
// @Param   lessonId path int true "lesson id"
// @Success 200 {object} util.Response{data=service.SequencedLesson}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/lessons/{lessonId} [get]
func (c *LessonController) GetLesson(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))
	claims := util.GetUserFromContext(ctx)

	if !c.requireAccess(ctx, claims.UserID, courseID) {
		return
	}

	seq, err := c.Lessons.Sequence(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	for i := range seq {
		if seq[i].Lesson.ID == lessonID {
			if !seq[i].Reachable {
				util.ErrorWithData(ctx, 403, "Complete the previous lessons first", gin.H{
					"nextLessonId": firstIncompleteID(seq),
				})
				return
			}
			util.Success(ctx, seq[i])
			return
		}
	}
	util.NotFound(ctx)
}

// firstIncompleteID is the redirect target for an out-of-sequence view:
// the first lesson in canonical order the user has not completed.
func firstIncompleteID(seq []service.SequencedLesson) uint {
	for i := range seq {
		if !seq[i].Completed {
			return seq[i].Lesson.ID
		}
	}
	return 0
}

// CompleteLesson godoc
// @Summary Mark a lesson completed
// @Description Rejected with 422 when the lesson's required quiz has not been passed.
// @Tags lessons
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "course id"
// @Param   lessonId path int true "lesson id"
// @Success 200 {object} util.Response{data=model.UserProgress}
// @Failure 403 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/courses/{courseId}/lessons/{lessonId}/complete [post]
func (c *LessonController) CompleteLesson(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))
	claims := util.GetUserFromContext(ctx)

	if !c.requireAccess(ctx, claims.UserID, courseID) {
		return
	}

	reachable, err := c.Lessons.IsReachable(claims.UserID, courseID, lessonID)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if !reachable {
		util.Error(ctx, 403, "Complete the previous lessons first")
		return
	}

	progress, err := c.Lessons.CompleteLesson(claims.UserID, lessonID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizRequired):
			util.PreconditionFailed(ctx, "Pass the lesson quiz before completing this lesson")
		case errors.Is(err, util.ErrLessonNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, progress)
}

// swagger:model QuizSubmission
type QuizSubmission struct {
	Answers map[uint]string `json:"answers" binding:"required"`
}

// SubmitQuiz godoc
// @Summary Submit answers for a lesson quiz
// @Tags lessons
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "course id"
// @Param   lessonId path int true "lesson id"
// @Param   body body QuizSubmission true "answers keyed by question id"
// @Success 200 {object} util.Response{data=service.QuizResult}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/lessons/{lessonId}/quiz/attempts [post]
func (c *LessonController) SubmitQuiz(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))
	claims := util.GetUserFromContext(ctx)

	if !c.requireAccess(ctx, claims.UserID, courseID) {
		return
	}

	var req QuizSubmission
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Lessons.SubmitQuizAttempt(claims.UserID, lessonID, req.Answers)
	if err != nil {
		if errors.Is(err, util.ErrQuizNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// swagger:model VideoProgressRequest
type VideoProgressRequest struct {
	WatchPercentage float64 `json:"watchPercentage" binding:"min=0,max=100"`
	LastTimestamp   float64 `json:"lastTimestamp" binding:"min=0"`
}

// UpdateVideoProgress godoc
// @Summary Record video watch progress
// @Tags lessons
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "course id"
// @Param   lessonId path int true "lesson id"
// @Param   body body VideoProgressRequest true "watch progress"
// @Success 200 {object} util.Response{data=model.UserProgress}
// @Router /api/courses/{courseId}/lessons/{lessonId}/video-progress [post]
func (c *LessonController) UpdateVideoProgress(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))
	lessonID := util.MustParseUint(ctx.Param("lessonId"))
	claims := util.GetUserFromContext(ctx)

	if !c.requireAccess(ctx, claims.UserID, courseID) {
		return
	}

	var req VideoProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.Lessons.UpdateVideoProgress(claims.UserID, lessonID, req.WatchPercentage, req.LastTimestamp)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, progress)
}
