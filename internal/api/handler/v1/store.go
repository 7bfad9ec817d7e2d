package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merchshop/api/internal/api/handler/v1/request"
	"github.com/merchshop/api/internal/api/handler/v1/response"
	"github.com/merchshop/api/internal/api/middleware"
	"github.com/merchshop/api/internal/domain"
	"github.com/merchshop/api/internal/service"
)

type StoreService interface {
	Purchase(ctx context.Context, userID uint, itemType string) error
	SendCoins(ctx context.Context, senderID uint, recipientUsername string, amount int) error
	GetSummary(ctx context.Context, userID uint) (domain.Summary, error)
}

type StoreHandler struct {
	svc StoreService
}

func NewStoreHandler(svc StoreService) *StoreHandler {
	return &StoreHandler{
		svc: svc,
	}
}

// HandleBuyItem godoc
// @Summary      Buy one unit of a catalog item
// @Tags         store
// @Produce      json
// @Param        item  path  string  true  "item type"
// @Success      200
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /buy/{item} [get]
// @Security BearerAuth
func (h *StoreHandler) HandleBuyItem(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	itemType := ctx.Param("item")
	if itemType == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("item type is required")))
		return
	}

	err := h.svc.Purchase(ctx.Request.Context(), userID, itemType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrItemNotFound):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrItemNotFound))
		case errors.Is(err, service.ErrInsufficientCoins):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInsufficientCoins))
		case errors.Is(err, service.ErrContention):
			response.RenderErr(ctx, response.ErrConflict(service.ErrContention))
		default:
			err = fmt.Errorf("v1.HandleBuyItem -> h.svc.Purchase -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusOK)
}

// HandleSendCoin godoc
// @Summary      Send coins to another user
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        request  body  request.SendCoinRequest  true  "request body"
// @Success      200
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /sendCoin [post]
// @Security BearerAuth
func (h *StoreHandler) HandleSendCoin(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SendCoinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	err := h.svc.SendCoins(ctx.Request.Context(), userID, req.ToUser, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInvalidAmount))
		case errors.Is(err, service.ErrRecipientNotFound):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrRecipientNotFound))
		case errors.Is(err, service.ErrInsufficientCoins):
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrInsufficientCoins))
		case errors.Is(err, service.ErrContention):
			response.RenderErr(ctx, response.ErrConflict(service.ErrContention))
		default:
			err = fmt.Errorf("v1.HandleSendCoin -> h.svc.SendCoins -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.Status(http.StatusOK)
}

// HandleInfo godoc
// @Summary      Get balance, inventory and coin history
// @Tags         store
// @Produce      json
// @Success      200  {object}  domain.Summary
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /info [get]
// @Security BearerAuth
func (h *StoreHandler) HandleInfo(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	summary, err := h.svc.GetSummary(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleInfo -> h.svc.GetSummary -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

func getUserIDFromContext(ctx *gin.Context) (uint, *response.Err) {
	value, exists := ctx.Get(middleware.ContextKeyUserID)
	if !exists {
		return 0, response.ErrUnauthorized()
	}

	userID, ok := value.(uint)
	if !ok || userID == 0 {
		return 0, response.ErrUnauthorized()
	}

	return userID, nil
}
