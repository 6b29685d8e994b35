package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/victoria-catalog/internal/auth"
	"github.com/prn-tf/victoria-catalog/internal/domain"
	"github.com/prn-tf/victoria-catalog/internal/service"
)

// UserHandler handles user account endpoints.
type UserHandler struct {
	userService *service.UserService
	logger      zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.With().Str("handler", "user").Logger(),
	}
}

// userResponse is the API shape of a user. The password hash never
// appears here.
type userResponse struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	AccountCreated time.Time `json:"account_created"`
	AccountUpdated time.Time `json:"account_updated"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		AccountCreated: u.AccountCreated,
		AccountUpdated: u.AccountUpdated,
	}
}

// createUserRequest is the body for POST /v2/user.
type createUserRequest struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Create handles POST /v2/user. Registration is the one unauthenticated
// write in the API.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if req.Username == nil || req.Password == nil || req.FirstName == nil || req.LastName == nil {
		respondError(w, domain.NewDomainError(domain.ErrMissingField,
			"username, password, first_name and last_name are required", ""))
		return
	}

	output, err := h.userService.Create(r.Context(), service.CreateUserInput{
		Username:  *req.Username,
		Password:  *req.Password,
		FirstName: *req.FirstName,
		LastName:  *req.LastName,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toUserResponse(output.User))
}

// Get handles GET /v2/user/{userId}. Users can only read their own
// account.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// updateUserRequest is the body for PUT /v2/user/{userId}. The username
// is immutable and not accepted here.
type updateUserRequest struct {
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Update handles PUT /v2/user/{userId}. All three writable fields are
// required; unknown keys are rejected by the decoder.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if req.Password == nil || req.FirstName == nil || req.LastName == nil {
		respondError(w, domain.NewDomainError(domain.ErrMissingField,
			"password, first_name and last_name are required", ""))
		return
	}

	if _, err := h.userService.Update(r.Context(), service.UpdateUserInput{
		UserID:    userID,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}); err != nil {
		respondError(w, err)
		return
	}

	respondNoContent(w)
}

// requireSelf parses the path id and verifies it matches the principal.
// A mismatched id is forbidden regardless of whether the other account
// exists.
func (h *UserHandler) requireSelf(w http.ResponseWriter, r *http.Request) (*auth.Principal, int64, bool) {
	principal, err := auth.RequirePrincipal(r.Context())
	if err != nil {
		respondError(w, err)
		return nil, 0, false
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		respondError(w, domain.ErrUserNotFound)
		return nil, 0, false
	}

	if principal.UserID != userID {
		respondError(w, domain.ErrForbidden)
		return nil, 0, false
	}

	return principal, userID, true
}
