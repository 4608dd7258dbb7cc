package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// runGlobalCron handles GET /api/crons/global
func (r *Router) runGlobalCron(c *gin.Context) {
	summary := r.crons.RunGlobal(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": summary.Success,
		"results": summary.Results,
	})
}

// runTenantCron handles GET /api/crons/tenant
func (r *Router) runTenantCron(c *gin.Context) {
	summary := r.crons.RunTenant(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success":       summary.Success,
		"tenantResults": summary.Results,
	})
}

// runElonCron handles GET /api/crons/elon
func (r *Router) runElonCron(c *gin.Context) {
	summary := r.crons.RunElon(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": summary.Success,
		"results": summary.Results,
	})
}
