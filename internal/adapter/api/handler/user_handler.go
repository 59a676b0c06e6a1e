package handler

import (
	"github.com/labstack/echo/v4"

	"secondlife/internal/usecase"
	"secondlife/pkg/errors"
	"secondlife/pkg/logger"
	"secondlife/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type upsertProfileRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=80"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
	City        string `json:"city" validate:"omitempty,max=80"`
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=80"`
	PhotoURL    *string `json:"photo_url" validate:"omitempty,url"`
	City        *string `json:"city" validate:"omitempty,max=80"`
}

// UpsertProfile is called by the app after every sign-in. Missing fields
// fall back to the token claims.
func (h *UserHandler) UpsertProfile(c echo.Context) error {
	var req upsertProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)
	name := req.DisplayName
	if name == "" {
		name = tokenClaim(c, "name")
	}

	user, err := h.userUseCase.UpsertProfile(c.Request().Context(), uid, usecase.UpsertProfileInput{
		Email:       tokenClaim(c, "email"),
		DisplayName: name,
		PhotoURL:    req.PhotoURL,
		City:        req.City,
	})
	if err != nil {
		logger.Error("UpsertProfile Error: %v", err)
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)
	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), uid, usecase.UpdateProfileInput{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		City:        req.City,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) GetMe(c echo.Context) error {
	uid := c.Get("uid").(string)

	profile, err := h.userUseCase.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, profile)
}

// GetUser returns the public part of a profile.
func (h *UserHandler) GetUser(c echo.Context) error {
	id := c.Param("id")

	profile, err := h.userUseCase.GetProfile(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"id":           profile.ID,
		"display_name": profile.DisplayName,
		"photo_url":    profile.PhotoURL,
		"city":         profile.City,
		"rating":       profile.Rating,
		"presence":     profile.Presence,
		"created_at":   profile.CreatedAt,
	})
}

// Heartbeat is the 30s touchActivity ping sent while the app is open.
func (h *UserHandler) Heartbeat(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.userUseCase.Heartbeat(c.Request().Context(), uid); err != nil {
		logger.Warn("Heartbeat for %s failed: %v", uid, err)
		return response.Error(c, errors.Unavailable("Could not record activity", err))
	}
	return response.Success(c, h.userUseCase.Presence(c.Request().Context(), uid))
}

func (h *UserHandler) GetPresence(c echo.Context) error {
	return response.Success(c, h.userUseCase.Presence(c.Request().Context(), c.Param("id")))
}
