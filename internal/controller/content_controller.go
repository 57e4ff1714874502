package controller

import (
	"coursehub_backend/internal/service"
	"coursehub_backend/internal/util"
	"errors"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ContentController struct {
	Content *service.ContentService
}

func NewContentController(content *service.ContentService) *ContentController {
	return &ContentController{Content: content}
}

// UploadThumbnail godoc
// @Summary Upload a course thumbnail
// @Tags content
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   courseId path int true "course id"
// @Param   file formData file true "image file"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/admin/courses/{courseId}/thumbnail [post]
func (c *ContentController) UploadThumbnail(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	url, err := c.Content.UploadCourseThumbnail(
		ctx.Request.Context(), courseID, fileHeader.Filename,
		file, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// UploadLessonVideo godoc
// @Summary Upload a lesson video
// @Description Probes the video for its duration before storing it.
// @Tags content
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   lessonId path int true "lesson id"
// @Param   file formData file true "video file"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Router /api/admin/lessons/{lessonId}/video [post]
func (c *ContentController) UploadLessonVideo(ctx *gin.Context) {
	lessonID := util.MustParseUint(ctx.Param("lessonId"))

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	// ffprobe needs a file on disk, so stage the upload in a temp path.
	tmpPath := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(fileHeader.Filename))
	if err := ctx.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	lesson, err := c.Content.UploadLessonVideo(
		ctx.Request.Context(), lessonID, tmpPath,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, lesson)
}
