package controller

import (
	"coursehub_backend/internal/service"
	"coursehub_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type CohortController struct {
	Grants *service.AccessGrantService
}

func NewCohortController(grants *service.AccessGrantService) *CohortController {
	return &CohortController{Grants: grants}
}

// swagger:model CohortMembershipRequest
type CohortMembershipRequest struct {
	UserID              uint `json:"userId" binding:"required"`
	RemoveAccessOnLeave bool `json:"removeAccessOnLeave"`
}

// Join godoc
// @Summary Add a user to a cohort
// @Description Grants access to every course the cohort carries.
// @Tags cohorts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "cohort id"
// @Param   body body CohortMembershipRequest true "membership payload"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/admin/cohorts/{id}/members [post]
func (c *CohortController) Join(ctx *gin.Context) {
	cohortID := util.MustParseUint(ctx.Param("id"))

	var req CohortMembershipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	member, granted, err := c.Grants.JoinCohort(ctx.Request.Context(), cohortID, req.UserID, req.RemoveAccessOnLeave)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound), errors.Is(err, util.ErrCohortNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"member":  member,
		"granted": granted,
	})
}

// Leave godoc
// @Summary Remove a user from a cohort
// @Description Revokes cohort-sourced access when the membership was created with removeAccessOnLeave.
// @Tags cohorts
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "cohort id"
// @Param   userId path int true "user id"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/cohorts/{id}/members/{userId} [delete]
func (c *CohortController) Leave(ctx *gin.Context) {
	cohortID := util.MustParseUint(ctx.Param("id"))
	userID := util.MustParseUint(ctx.Param("userId"))

	claims := util.GetUserFromContext(ctx)
	revokedBy := claims.UserID

	if err := c.Grants.LeaveCohort(ctx.Request.Context(), cohortID, userID, &revokedBy); err != nil {
		if errors.Is(err, util.ErrCohortNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"removed": true})
}
