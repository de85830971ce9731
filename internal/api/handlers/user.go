package handlers

import (
	"net/http"
	"strings"

	"github.com/finsight-ai/finsight-backend/internal/api/request"
	"github.com/finsight-ai/finsight-backend/internal/api/response"
	"github.com/finsight-ai/finsight-backend/internal/service"
	"github.com/finsight-ai/finsight-backend/internal/validation"
)

// UserHandler handles account registration, login and profile lookups.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Signup registers a new account.
//
// Endpoint: POST /api/user/signup
// Request Body: SignupRequest (name, email, password)
// Response: 201 Created with UserResponse
// Error: 400 Bad Request on validation failure or duplicate email
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SignupRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateSignup(req); err != nil {
		respondServiceError(w, r, err, "failed to register user")
		return
	}

	user, err := h.userService.Signup(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "failed to register user")
		return
	}

	response.RespondJSON(w, http.StatusCreated, UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}

// loginBody accepts either "username" (OAuth2 password form naming) or "email".
type loginBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. Both JSON bodies and
// application/x-www-form-urlencoded forms are accepted.
//
// Endpoint: POST /api/user/login
// Response: 200 OK with TokenResponse
// Error: 400 Bad Request on missing fields or bad credentials
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid form body", err.Error())
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else {
		body, err := parseJSON[loginBody](r)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
		req.Username = body.Username
		if req.Username == "" {
			req.Username = body.Email
		}
		req.Password = body.Password
	}

	if err := validation.ValidateLogin(req); err != nil {
		respondServiceError(w, r, err, "failed to log in")
		return
	}

	token, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "failed to log in")
		return
	}

	response.RespondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.userService.TokenTTL().Seconds()),
	})
}

// Me returns the authenticated account.
//
// Endpoint: GET /api/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err, "failed to load user")
		return
	}

	response.RespondJSON(w, http.StatusOK, UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}
