package handler

import (
	"context"
	"net/http"

	"github.com/iho/bankledger/internal/adapter/http/dto"
	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// UserService defines the behavior needed by AuthHandler and UserHandler.
type UserService interface {
	Signup(ctx context.Context, input usecase.CreateUserInput) (*domain.User, error)
	Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, page, pageSize int) (*usecase.UserPage, error)
	UpdateUser(ctx context.Context, input usecase.UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Generate(user *domain.User) (string, error)
}

// AuthHandler handles registration, login and password resets.
type AuthHandler struct {
	users  UserService
	tokens TokenIssuer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users UserService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Signup registers a viewer and signs a token for it.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.users.Signup(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to sign up", err)
		return
	}

	h.writeToken(w, http.StatusCreated, user)
}

// Login exchanges credentials for a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.users.Authenticate(r.Context(), usecase.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, "failed to log in", err)
		return
	}

	h.writeToken(w, http.StatusOK, user)
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, status int, user *domain.User) {
	token, err := h.tokens.Generate(user)
	if err != nil {
		writeDomainError(w, "failed to issue token", err)
		return
	}

	writeJSON(w, status, dto.AuthResponse{Token: token, User: dto.UserFromDomain(user)})
}

// ForgotPassword starts a password reset. The answer is the same whether
// or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.users.ForgotPassword(r.Context(), req.Email); err != nil {
		writeDomainError(w, "failed to start password reset", err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the email is registered, a reset token has been sent",
	})
}

// ResetPassword sets a new password with a reset token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.users.ResetPassword(r.Context(), usecase.ResetPasswordInput{
		Token:    req.Token,
		Password: req.Password,
	}); err != nil {
		writeDomainError(w, "failed to reset password", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the acting user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	acting := actingUser(r)
	if acting == nil {
		writeDomainError(w, "not authenticated", domain.ErrUnauthorized)
		return
	}
	if acting == domain.SystemUser {
		writeJSON(w, http.StatusOK, dto.UserFromDomain(acting))
		return
	}

	user, err := h.users.GetUser(r.Context(), acting.ID)
	if err != nil {
		writeDomainError(w, "failed to get user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}
