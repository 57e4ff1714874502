package controller

import (
	"coursehub_backend/internal/service"
	"coursehub_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// WebhookController receives confirmed payment events from the payment
// provider. Routes are gated by the shared-secret middleware; handlers
// stay idempotent because providers redeliver.
type WebhookController struct {
	Grants *service.AccessGrantService
}

func NewWebhookController(grants *service.AccessGrantService) *WebhookController {
	return &WebhookController{Grants: grants}
}

// swagger:model PurchaseConfirmedEvent
type PurchaseConfirmedEvent struct {
	UserID      uint   `json:"userId" binding:"required"`
	CourseID    uint   `json:"courseId" binding:"required"`
	Provider    string `json:"provider" binding:"required"`
	PurchaseRef string `json:"purchaseRef" binding:"required"`
}

// PurchaseConfirmed godoc
// @Summary Course purchase confirmed
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   body body PurchaseConfirmedEvent true "event payload"
// @Success 200 {object} util.Response{data=model.AccessRecord}
// @Failure 404 {object} util.Response
// @Router /api/webhooks/purchase-confirmed [post]
func (c *WebhookController) PurchaseConfirmed(ctx *gin.Context) {
	var event PurchaseConfirmedEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rec, err := c.Grants.ConfirmPurchase(ctx.Request.Context(), event.UserID, event.CourseID, event.Provider, event.PurchaseRef)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound), errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, rec)
}

// swagger:model BundlePurchaseConfirmedEvent
type BundlePurchaseConfirmedEvent struct {
	UserID            uint   `json:"userId" binding:"required"`
	BundleID          uint   `json:"bundleId" binding:"required"`
	PurchaseRef       string `json:"purchaseRef" binding:"required"`
	SelectedCourseIDs []uint `json:"selectedCourseIds,omitempty"`
}

// BundlePurchaseConfirmed godoc
// @Summary Bundle purchase confirmed
// @Description Fans out one grant per bundle course. Pick-your-own bundles require selectedCourseIds.
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   body body BundlePurchaseConfirmedEvent true "event payload"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Failure 422 {object} util.Response
// @Router /api/webhooks/bundle-purchase-confirmed [post]
func (c *WebhookController) BundlePurchaseConfirmed(ctx *gin.Context) {
	var event BundlePurchaseConfirmedEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	purchase, granted, err := c.Grants.ConfirmBundlePurchase(
		ctx.Request.Context(), event.UserID, event.BundleID, event.PurchaseRef, event.SelectedCourseIDs)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUserNotFound), errors.Is(err, util.ErrBundleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidSelection):
			util.PreconditionFailed(ctx, "Invalid course selection for this bundle")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"purchase": purchase,
		"granted":  granted,
	})
}
