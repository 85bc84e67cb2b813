package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pfa/internal/app"
	"pfa/internal/models"
	"pfa/internal/validator"
)

// AuthHandler handles sign-in, sign-up and sign-out.
type AuthHandler struct {
	app *app.App
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(a *app.App) *AuthHandler {
	return &AuthHandler{app: a}
}

// SessionResponse reports who is signed in.
type SessionResponse struct {
	Authenticated bool  `json:"authenticated"`
	UserID        int64 `json:"user_id,omitempty"`
}

func (h *AuthHandler) session() SessionResponse {
	id, err := h.app.Session.UserID()
	if err != nil {
		return SessionResponse{}
	}
	return SessionResponse{Authenticated: true, UserID: id}
}

// Login signs in with email and password.
// @Summary     Sign in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.Credentials true "Login credentials"
// @Success     200 {object} SessionResponse "Signed in"
// @Failure     422 {object} middleware.ErrorResponse "Invalid input"
// @Failure     401 {object} middleware.ErrorResponse "Invalid credentials"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validator.BindError(err))
		return
	}
	if err := h.app.SignIn(c.Request.Context(), req); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session())
}

// Register creates an account without signing in.
// @Summary     Register an account
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body models.RegisterRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     422 {object} middleware.ErrorResponse "Invalid input"
// @Failure     409 {object} middleware.ErrorResponse "Email already registered"
// @Failure     503 {object} middleware.ErrorResponse "Service unreachable"
// @Router      /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, validator.BindError(err))
		return
	}
	account, err := h.app.SignUp(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// Logout clears the session.
// @Summary     Sign out
// @Tags        auth
// @Produce     json
// @Success     200 {object} SessionResponse "Signed out"
// @Failure     500 {object} middleware.ErrorResponse "Session store failure"
// @Router      /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.app.SignOut(); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session())
}

// Session reports the current session.
// @Summary     Current session
// @Tags        auth
// @Produce     json
// @Success     200 {object} SessionResponse
// @Router      /session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, h.session())
}
