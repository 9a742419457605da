// controllers/assignment.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"solarops-backend/services"
	"solarops-backend/utils"
)

type CreateAssignmentInput struct {
	EmployeeID uuid.UUID `json:"employee_id" binding:"required"`
	RoleType   string    `json:"role_type" binding:"omitempty,oneof=Lead Technician Helper Supervisor"`
	Notes      string    `json:"notes"`
}

// CreateAssignment assigns an employee to a job
func (jc *JobController) CreateAssignment(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input CreateAssignmentInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	res, err := jc.Workflow.CreateJobAssignment(c.Request.Context(), services.CreateAssignmentInput{
		JobID:      jobID,
		EmployeeID: input.EmployeeID,
		RoleType:   input.RoleType,
		Notes:      input.Notes,
	}, actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// CancelAssignment ends an active assignment
func (jc *JobController) CancelAssignment(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	assignmentID, ok := pathUUID(c, "assignmentId")
	if !ok {
		return
	}

	a, err := jc.Workflow.CancelJobAssignment(c.Request.Context(), jobID, assignmentID, actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
