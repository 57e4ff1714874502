package controller

import (
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/service"
	"coursehub_backend/internal/util"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
)

type AccessController struct {
	Resolver *service.AccessResolver
	Grants   *service.AccessGrantService
	Records  service.AccessRecordStore
}

func NewAccessController(resolver *service.AccessResolver, grants *service.AccessGrantService, records service.AccessRecordStore) *AccessController {
	return &AccessController{Resolver: resolver, Grants: grants, Records: records}
}

// Resolve godoc
// @Summary Resolve current access to a course
// @Description Returns granted/denied with a reason. Works for anonymous callers too.
// @Tags access
// @Produce  json
// @Param   courseId path int true "course id"
// @Success 200 {object} util.Response{data=service.AccessDecision}
// @Router /api/courses/{courseId}/access [get]
func (c *AccessController) Resolve(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("courseId"))

	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	decision, err := c.Resolver.Resolve(userID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, decision)
}

// History godoc
// @Summary Full access record history for a user and course
// @Tags access
// @Produce  json
// @Security BearerAuth
// @Param   userId path int true "user id"
// @Param   courseId path int true "course id"
// @Success 200 {object} util.Response{data=[]model.AccessRecord}
// @Router /api/admin/users/{userId}/courses/{courseId}/access-records [get]
func (c *AccessController) History(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Param("userId"))
	courseID := util.MustParseUint(ctx.Param("courseId"))

	records, err := c.Records.ListByUserCourse(userID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, records)
}

// swagger:model GrantAccessRequest
type GrantAccessRequest struct {
	UserID     uint       `json:"userId" binding:"required"`
	CourseID   uint       `json:"courseId" binding:"required"`
	AccessType string     `json:"accessType" binding:"required,oneof=manual purchase bundle cohort subscription"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// Grant godoc
// @Summary Grant course access manually
// @Tags access
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body GrantAccessRequest true "grant payload"
// @Success 201 {object} util.Response{data=model.AccessRecord}
// @Failure 404 {object} util.Response
// @Router /api/admin/access [post]
func (c *AccessController) Grant(ctx *gin.Context) {
	var req GrantAccessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	grantedBy := claims.UserID

	rec, err := c.Grants.Grant(ctx.Request.Context(), service.GrantRequest{
		UserID:     req.UserID,
		CourseID:   req.CourseID,
		AccessType: model.AccessType(req.AccessType),
		ExpiresAt:  req.ExpiresAt,
		GrantedBy:  &grantedBy,
		Notes:      req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound), errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, rec)
}

// swagger:model RevokeAccessRequest
type RevokeAccessRequest struct {
	UserID   uint   `json:"userId" binding:"required"`
	CourseID uint   `json:"courseId" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

// Revoke godoc
// @Summary Revoke all active access to a course
// @Tags access
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body RevokeAccessRequest true "revoke payload"
// @Success 200 {object} util.Response{data=service.RevokeResult}
// @Router /api/admin/access/revoke [post]
func (c *AccessController) Revoke(ctx *gin.Context) {
	var req RevokeAccessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	revokedBy := claims.UserID

	result, err := c.Grants.Revoke(ctx.Request.Context(), req.UserID, req.CourseID, &revokedBy, req.Reason)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// swagger:model CreateGiftRequest
type CreateGiftRequest struct {
	PurchaserID    uint   `json:"purchaserId" binding:"required"`
	CourseID       uint   `json:"courseId" binding:"required"`
	RecipientEmail string `json:"recipientEmail" binding:"required,email"`
	Message        string `json:"message,omitempty"`
}

// CreateGift godoc
// @Summary Issue a gift for a course
// @Description Returns the one-time token the recipient redeems with.
// @Tags access
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body CreateGiftRequest true "gift payload"
// @Success 201 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/admin/gifts [post]
func (c *AccessController) CreateGift(ctx *gin.Context) {
	var req CreateGiftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	gift, err := c.Grants.CreateGift(req.PurchaserID, req.CourseID, req.RecipientEmail, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound), errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{
		"gift":  gift,
		"token": gift.GiftToken,
	})
}

// swagger:model RedeemGiftRequest
type RedeemGiftRequest struct {
	Token string `json:"token" binding:"required"`
}

// RedeemGift godoc
// @Summary Redeem a gift token for course access
// @Tags access
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body RedeemGiftRequest true "gift token"
// @Success 200 {object} util.Response{data=model.AccessRecord}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/gifts/redeem [post]
func (c *AccessController) RedeemGift(ctx *gin.Context) {
	var req RedeemGiftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)

	rec, err := c.Grants.RedeemGift(ctx.Request.Context(), claims.UserID, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrGiftNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrGiftAlreadyRedeemed):
			util.Conflict(ctx, "Gift has already been redeemed")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, rec)
}
