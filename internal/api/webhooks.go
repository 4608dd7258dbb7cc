package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/channelmux/channelmux/internal/models"
	"github.com/channelmux/channelmux/internal/relay"
)

// relayChannelActivity handles POST /api/webhooks/tenant-to-main-channel-activity.
// Events not from channels_activity, or that are not INSERT/UPDATE, are
// acknowledged and skipped so tenant triggers can fan out unfiltered.
func (r *Router) relayChannelActivity(c *gin.Context) {
	var envelope relay.Envelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if envelope.Table != (models.ChannelActivity{}).TableName() ||
		(envelope.Type != relay.EventInsert && envelope.Type != relay.EventUpdate) {
		c.JSON(http.StatusOK, gin.H{"success": true, "skipped": true})
		return
	}

	var activity models.ChannelActivity
	if err := json.Unmarshal(envelope.Record, &activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable record"})
		return
	}
	if activity.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record missing username"})
		return
	}
	if activity.LastUpdated.IsZero() {
		activity.LastUpdated = time.Now().UTC()
	}

	if err := r.activity.Upsert(c.Request.Context(), &activity); err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "activity": activity})
}

// relayTenantRequest handles POST /api/webhooks/tenant-to-main-requests.
// The acting user is verified against the global store before anything
// is written; unknown users get a 404 and no upsert happens.
func (r *Router) relayTenantRequest(c *gin.Context) {
	var envelope relay.Envelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if envelope.Table != (models.TenantRequest{}).TableName() ||
		(envelope.Type != relay.EventInsert && envelope.Type != relay.EventUpdate) {
		c.JSON(http.StatusOK, gin.H{"success": true, "skipped": true})
		return
	}

	var record models.TenantRequest
	if err := json.Unmarshal(envelope.Record, &record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable record"})
		return
	}
	if record.ID == "" || record.UID == "" || record.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record missing id, uid, or username"})
		return
	}

	result, err := r.access.ApplyIncoming(c.Request.Context(), &record)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"request":    result.Request,
		"activities": result.Activities,
	})
}
