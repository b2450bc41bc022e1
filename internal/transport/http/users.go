package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/igoramos77/uvents-api/internal/app"
	"github.com/igoramos77/uvents-api/internal/domain"
)

// Authenticator is the minimal interface needed to log a user in.
type Authenticator interface {
	Login(ctx context.Context, matricula, password string) (app.LoginResult, error)
}

// UserAccounts is the minimal interface needed for account management.
type UserAccounts interface {
	Register(ctx context.Context, in app.RegisterUserInput) (domain.User, error)
	Search(ctx context.Context, term string) ([]domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in app.UpdateProfileInput) (domain.User, error)
	UpdateAvatar(ctx context.Context, userID, photoURL string) (domain.User, error)
	Delete(ctx context.Context, matricula string) error
	MyEvents(ctx context.Context, userID string) ([]domain.Event, error)
}

// HandleLogin returns an HTTP handler that exchanges credentials for a
// bearer token.
func HandleLogin(svc Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.Login(r.Context(), req.Matricula, req.Password)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{
			Token:     res.Token,
			ExpiresIn: int64(res.ExpiresIn.Seconds()),
			User:      toUserPayload(res.User),
		})
	}
}

// HandleRegisterUser returns an HTTP handler that creates an account.
func HandleRegisterUser(svc UserAccounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerUserRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		user, err := svc.Register(r.Context(), app.RegisterUserInput{
			Matricula: req.Matricula,
			Password:  req.Password,
			Name:      req.Name,
			Email:     req.Email,
			Role:      req.Role,
			PhotoURL:  req.PhotoURL,
		})
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toUserPayload(user))
	}
}

// HandleSearchUsers returns an HTTP handler that matches users by
// name, matricula or email.
func HandleSearchUsers(svc UserAccounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeUserError(w, err)
			return
		}

		resp := make([]userPayload, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserPayload(u))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleUpdateProfile returns an HTTP handler that rewrites the
// caller's own display fields.
func HandleUpdateProfile(svc UserAccounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProfileRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		user, err := svc.UpdateProfile(r.Context(), UserID(r.Context()), app.UpdateProfileInput{
			Name:     req.Name,
			Email:    req.Email,
			PhotoURL: req.PhotoURL,
		})
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserPayload(user))
	}
}

// HandleUpdateAvatar returns an HTTP handler that swaps the caller's
// photo.
func HandleUpdateAvatar(svc UserAccounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateAvatarRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil || req.PhotoURL == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "photo_url is required")
			return
		}

		user, err := svc.UpdateAvatar(r.Context(), UserID(r.Context()), req.PhotoURL)
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserPayload(user))
	}
}

// HandleDeleteUser returns an HTTP handler that removes the caller's
// own account.
func HandleDeleteUser(svc UserAccounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), Matricula(r.Context())); err != nil {
			writeUserError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleMyEvents returns an HTTP handler listing the events the
// caller confirmed presence at.
func HandleMyEvents(svc UserAccounts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.MyEvents(r.Context(), UserID(r.Context()))
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventPayloads(events))
	}
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserAlreadyExists):
		writeError(w, http.StatusConflict, codeUserAlreadyExists, "user already exists")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, codeUserNotFound, "user not found")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid user fields")
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid id")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type loginRequest struct {
	Matricula string `json:"matricula"`
	Password  string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      userPayload `json:"user"`
}

type registerUserRequest struct {
	Matricula string `json:"matricula"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	PhotoURL  string `json:"photo_url"`
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photo_url"`
}

type updateAvatarRequest struct {
	PhotoURL string `json:"photo_url"`
}

// userPayload never carries the password hash.
type userPayload struct {
	ID        string     `json:"id"`
	Matricula string     `json:"matricula"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	PhotoURL  string     `json:"photo_url,omitempty"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toUserPayload(u domain.User) userPayload {
	return userPayload{
		ID:        u.ID,
		Matricula: u.Matricula,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		PhotoURL:  u.PhotoURL,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}
