package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solarops-backend/services"
	"solarops-backend/utils"
)

type DashboardController struct {
	Workflow *services.JobWorkflow
}

// GetDashboardOverview returns job counts, today's schedule and collections
func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	overview, err := dc.Workflow.Overview(c.Request.Context())
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
