package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateUser registers a new account
func (h *Handlers) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserData == nil || req.UserData.Username == "" {
		badRequest(c, "Invalid user data")
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), *req.UserData)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully.",
		"user":    user,
	})
}

// ListUsers returns the user picker entries
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Login verifies credentials and starts a session
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		badRequest(c, "Username and password are required")
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": user})
}

// SwitchUser changes the active user without a password
func (h *Handlers) SwitchUser(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		badRequest(c, "Username is required")
		return
	}

	user, err := h.users.SwitchUser(c.Request.Context(), req.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Switched user successfully", "user": user})
}

// Logout ends the active session
func (h *Handlers) Logout(c *gin.Context) {
	ended, err := h.users.Logout(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	msg := "Logged out successfully"
	if !ended {
		msg = "Already logged out"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Session returns the active user or null
func (h *Handlers) Session(c *gin.Context) {
	user, ok := h.users.CurrentSession(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// CurrentUser returns the active user's profile or 404
func (h *Handlers) CurrentUser(c *gin.Context) {
	profile, err := h.users.ActiveProfile(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile.Public())
}

// UpdateProfile merges profile changes for the active user
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Updates == nil {
		badRequest(c, "No updates provided.")
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), *req.Updates)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User profile updated.", "userData": user})
}

// VerifyPassword checks a password against the active user
func (h *Handlers) VerifyPassword(c *gin.Context) {
	var req verifyPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		badRequest(c, "Password is required")
		return
	}

	ok, err := h.users.VerifyActivePassword(c.Request.Context(), req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Incorrect password."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password verified."})
}
