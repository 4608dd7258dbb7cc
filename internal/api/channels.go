package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/channelmux/channelmux/internal/feed"
	"github.com/channelmux/channelmux/internal/models"
)

// listChannels handles GET /api/channels
func (r *Router) listChannels(c *gin.Context) {
	channels, err := r.channels.List(c.Request.Context())
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// getChannel handles GET /api/channels/:username
func (r *Router) getChannel(c *gin.Context) {
	username := c.Param("username")

	channel, err := r.channels.GetByUsername(c.Request.Context(), username)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	if channel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	// Routing info only; credentials stay server-side.
	c.JSON(http.StatusOK, gin.H{
		"channel":     channel,
		"uses_own_db": channel.UsesOwnDB(),
	})
}

// listMessages handles GET /api/channels/:username/messages
func (r *Router) listMessages(c *gin.Context) {
	username := c.Param("username")

	items, err := r.feed.FetchMessages(c.Request.Context(), username)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": items})
}

// createMessage handles POST /api/channels/:username/messages
func (r *Router) createMessage(c *gin.Context) {
	username := c.Param("username")

	var input feed.CreateMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := r.feed.CreateMessage(c.Request.Context(), username, &input)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": item})
}

// countMessages handles GET /api/channels/:username/messages/count
func (r *Router) countMessages(c *gin.Context) {
	username := c.Param("username")

	count, err := r.feed.CountMessages(c.Request.Context(), username)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// respondToMessage handles POST /api/channels/:username/messages/:id/respond
func (r *Router) respondToMessage(c *gin.Context) {
	username := c.Param("username")
	feedItemID := c.Param("id")

	var body struct {
		UserID       string          `json:"user_id"`
		ResponseType models.FeedType `json:"response_type"`
		Payload      json.RawMessage `json:"payload"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if !body.ResponseType.Interactive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "response_type must be poll, quiz, or survey"})
		return
	}

	response, err := r.feed.RecordResponse(c.Request.Context(), username, feedItemID, body.UserID, body.ResponseType, body.Payload)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "response": response})
}

// lastViewed handles POST /api/channels/:username/last-viewed
func (r *Router) lastViewed(c *gin.Context) {
	username := c.Param("username")

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	count, err := r.feed.CountMessages(c.Request.Context(), username)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}

	lastViewed := &models.LastViewed{
		UserID:       body.UserID,
		Username:     username,
		MessageCount: count,
		ViewedAt:     time.Now().UTC(),
	}
	if err := r.activity.UpsertLastViewed(c.Request.Context(), lastViewed); err != nil {
		respondError(c, r.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message_count": count,
		"viewed_at":     lastViewed.ViewedAt,
	})
}

// requestAccess handles POST /api/channels/:username/request-access
func (r *Router) requestAccess(c *gin.Context) {
	username := c.Param("username")

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	request, err := r.access.CreateRequest(c.Request.Context(), username, body.UserID)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": request})
}

// transitionRequest handles POST /api/channels/:username/requests/:id
func (r *Router) transitionRequest(c *gin.Context) {
	username := c.Param("username")
	requestID := c.Param("id")

	var body struct {
		Status models.RequestStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !body.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, granted, or rejected"})
		return
	}

	request, err := r.access.Transition(c.Request.Context(), username, requestID, body.Status)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": request})
}
