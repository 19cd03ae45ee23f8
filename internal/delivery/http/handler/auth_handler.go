package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinica-dental-backend/internal/delivery/dto"
	"clinica-dental-backend/internal/delivery/http/middleware"
	"clinica-dental-backend/internal/usecase"
	"clinica-dental-backend/pkg/jwt"
	"clinica-dental-backend/pkg/response"
	"clinica-dental-backend/pkg/validator"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	validator   *validator.CustomValidator
	jwtService  *jwt.JWTService
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, validator *validator.CustomValidator, jwtService *jwt.JWTService) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		validator:   validator,
		jwtService:  jwtService,
	}
}

// RegisterPatient is the public sign-up: it creates a patient account with
// its patient profile.
func (h *AuthHandler) RegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPatientRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	user, err := h.authUsecase.RegisterPatient(r.Context(), &req)
	if err != nil {
		writeUserError(w, err, "Failed to register patient")
		return
	}

	response.Success(w, http.StatusCreated, "Patient registered successfully", user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	tokens, err := h.authUsecase.Login(r.Context(), &req)
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid email or password")
	case errors.Is(err, usecase.ErrInactiveUser):
		response.Forbidden(w, "User account is inactive")
	case err != nil:
		response.InternalServerError(w, "Failed to login")
	default:
		response.Success(w, http.StatusOK, "Login successful", tokens)
	}
}

// Logout revokes the current access token, and the refresh token too when
// the body carries one.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, okUser := middleware.GetUserIDFromContext(r.Context())
	accessTokenID, ok := middleware.GetTokenIDFromContext(r.Context())
	if !ok || !okUser {
		response.Unauthorized(w, "Invalid token")
		return
	}

	var req dto.RefreshTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	var refreshTokenID string
	if req.RefreshToken != "" {
		if claims, err := h.jwtService.ValidateToken(req.RefreshToken); err == nil && claims.TokenType == jwt.RefreshToken {
			refreshTokenID = claims.TokenID
		}
	}

	if err := h.authUsecase.Logout(r.Context(), userID, accessTokenID, refreshTokenID); err != nil {
		response.InternalServerError(w, "Failed to logout")
		return
	}

	response.Success(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}

	tokens, err := h.authUsecase.RefreshToken(r.Context(), &req)
	switch {
	case errors.Is(err, usecase.ErrInvalidToken), errors.Is(err, usecase.ErrTokenRevoked):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, usecase.ErrUserNotFound):
		response.Unauthorized(w, "User no longer exists")
	case err != nil:
		response.InternalServerError(w, "Failed to refresh token")
	default:
		response.Success(w, http.StatusOK, "Token refreshed successfully", tokens)
	}
}

// GetCurrentUser returns the authenticated user with its profile.
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	user, err := h.authUsecase.GetCurrentUser(r.Context(), userID)
	if err != nil {
		writeUserError(w, err, "Failed to get user info")
		return
	}

	response.Success(w, http.StatusOK, "User retrieved successfully", user)
}
