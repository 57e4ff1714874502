package controller

import (
	"coursehub_backend/internal/repository"
	"coursehub_backend/internal/service"
	"coursehub_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	Catalog       *service.CatalogService
	Prerequisites *service.PrerequisiteEvaluator
	Courses       *repository.CourseRepository
}

func NewCatalogController(catalog *service.CatalogService, prereqs *service.PrerequisiteEvaluator, courses *repository.CourseRepository) *CatalogController {
	return &CatalogController{Catalog: catalog, Prerequisites: prereqs, Courses: courses}
}

// GetCatalog godoc
// @Summary Course catalog partitioned by the caller's access
// @Description Anonymous callers get the public slice only.
// @Tags catalog
// @Produce  json
// @Success 200 {object} util.Response{data=service.Catalog}
// @Router /api/catalog [get]
func (c *CatalogController) GetCatalog(ctx *gin.Context) {
	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	catalog, err := c.Catalog.Partition(userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, catalog)
}

// GetCourse godoc
// @Summary Course detail by slug
// @Tags catalog
// @Produce  json
// @Param   slug path string true "course slug"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/catalog/{slug} [get]
func (c *CatalogController) GetCourse(ctx *gin.Context) {
	course, err := c.Courses.FindBySlug(ctx.Param("slug"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, course)
}

// GetPrerequisites godoc
// @Summary Prerequisite standing for a course
// @Tags catalog
// @Produce  json
// @Param   courseId path int true "course id"
// @Success 200 {object} util.Response{data=service.PrerequisiteReport}
// @Failure 404 {object} util.Response
// @Router /api/courses/{courseId}/prerequisites [get]
func (c *CatalogController) GetPrerequisites(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))

	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	report, err := c.Prerequisites.Check(userID, courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, report)
}
