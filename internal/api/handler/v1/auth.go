package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merchshop/api/internal/api/handler/v1/request"
	"github.com/merchshop/api/internal/api/handler/v1/response"
	"github.com/merchshop/api/internal/config"
	"github.com/merchshop/api/internal/domain"
	"github.com/merchshop/api/internal/pkg/jwthelper"
	"github.com/merchshop/api/internal/service"
)

type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleAuth godoc
// @Summary      Authenticate a user, creating the account on first use
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.AuthRequest true "request body"
// @Success      200      {object}   response.AuthResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth [post]
func (h *AuthHandler) HandleAuth(ctx *gin.Context) {
	var req request.AuthRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			response.RenderErr(ctx, response.ErrWrongCredentials(service.ErrWrongPassword))
			return
		}

		err = fmt.Errorf("v1.HandleAuth -> h.svc.Authenticate -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), user.ID, ctx.Request.UserAgent())
	if err != nil {
		err = fmt.Errorf("v1.HandleAuth -> jwthelper.GenerateToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.AuthResponse{
		Token: token,
	})
}
