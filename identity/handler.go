package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/auth"
	"github.com/kbukum/invoicer/auth/authctx"
	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/server"
	"github.com/kbukum/invoicer/validation"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by a successful login. ExpiresIn is in milliseconds.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Handler serves the authentication endpoints.
type Handler struct {
	svc   *Service
	codec auth.TokenCodec
}

// NewHandler creates a Handler.
func NewHandler(svc *Service, codec auth.TokenCodec) *Handler {
	return &Handler{svc: svc, codec: codec}
}

// RegisterRoutes mounts signup and login on the public group and the
// current-identity endpoint on the protected group.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/signup", h.Signup)
	public.POST("/login", h.Login)
	protected.GET("/me", h.Me)
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req Registration
	if err := validation.BindJSON(c, &req); err != nil {
		server.Fail(c, err)
		return
	}

	identity, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, identity)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := validation.BindJSON(c, &req); err != nil {
		server.Fail(c, err)
		return
	}

	identity, err := h.svc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		server.Fail(c, err)
		return
	}

	token, err := h.codec.Issue(identity.Subject(), map[string]any{
		"roles": identity.Authorities(),
	})
	if err != nil {
		server.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token.Value,
		ExpiresIn: token.TTL.Milliseconds(),
	})
}

// Me handles GET /api/me.
func (h *Handler) Me(c *gin.Context) {
	identity, ok := authctx.Get[*Identity](c.Request.Context())
	if !ok {
		server.Fail(c, errors.Unauthorized(""))
		return
	}
	server.OK(c, identity)
}
