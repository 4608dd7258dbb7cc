package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/channelmux/channelmux/internal/models"
)

// getLanguage handles GET /api/user/language
func (r *Router) getLanguage(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	pref, err := r.prefs.GetLanguage(c.Request.Context(), userID)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	if pref == nil {
		// No row yet; report the default rather than 404.
		c.JSON(http.StatusOK, gin.H{"success": true, "language": models.LanguageEnglish})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "language": pref.Language})
}

// setLanguage handles POST /api/user/language
func (r *Router) setLanguage(c *gin.Context) {
	var body struct {
		UserID   string          `json:"userId"`
		Language models.Language `json:"language"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if !body.Language.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		return
	}

	pref := &models.UserLanguage{
		UserID:    body.UserID,
		Language:  body.Language,
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.prefs.SetLanguage(c.Request.Context(), pref); err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "language": pref.Language})
}

// getNotification handles GET /api/user/notification
func (r *Router) getNotification(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	pref, err := r.prefs.GetNotification(c.Request.Context(), userID)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	enabled := false
	if pref != nil {
		enabled = pref.NotificationsEnabled
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications_enabled": enabled})
}

// setNotification handles POST /api/user/notification
func (r *Router) setNotification(c *gin.Context) {
	var body struct {
		UserID               string `json:"userId"`
		NotificationsEnabled *bool  `json:"notifications_enabled"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if body.NotificationsEnabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "notifications_enabled is required"})
		return
	}

	pref := &models.UserNotification{
		UserID:               body.UserID,
		NotificationsEnabled: *body.NotificationsEnabled,
		UpdatedAt:            time.Now().UTC(),
	}
	if err := r.prefs.SetNotification(c.Request.Context(), pref); err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications_enabled": pref.NotificationsEnabled})
}

// getLocation handles GET /api/user/location
func (r *Router) getLocation(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	pref, err := r.prefs.GetLocation(c.Request.Context(), userID)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	if pref == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location recorded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"latitude":  pref.Latitude,
		"longitude": pref.Longitude,
	})
}

// setLocation handles POST /api/user/location
func (r *Router) setLocation(c *gin.Context) {
	var body struct {
		UserID    string   `json:"userId"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if body.Latitude == nil || body.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}
	if *body.Latitude < -90 || *body.Latitude > 90 || *body.Longitude < -180 || *body.Longitude > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	pref := &models.UserLocation{
		UserID:    body.UserID,
		Latitude:  *body.Latitude,
		Longitude: *body.Longitude,
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.prefs.SetLocation(c.Request.Context(), pref); err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
