// controllers/job.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"solarops-backend/apperrors"
	"solarops-backend/services"
	"solarops-backend/utils"
)

// JobController exposes the job workflow over HTTP.
type JobController struct {
	Workflow *services.JobWorkflow
}

// CustomerPayload is an inline customer in a job or customer request.
type CustomerPayload struct {
	CustomerCode string  `json:"customer_code" binding:"omitempty,max=20"`
	Name         string  `json:"name" binding:"required"`
	Mobile       string  `json:"mobile" binding:"required,mobile"`
	Email        *string `json:"email" binding:"omitempty,email"`
	CustomerType string  `json:"customer_type" binding:"omitempty,oneof=Residential Commercial Industrial"`
	GSTIN        *string `json:"gstin" binding:"omitempty,len=15"`
}

// LocationPayload is an inline service address.
type LocationPayload struct {
	AddressLine1 string   `json:"address_line1" binding:"required"`
	AddressLine2 string   `json:"address_line2"`
	City         string   `json:"city"`
	District     string   `json:"district"`
	State        string   `json:"state"`
	Pincode      string   `json:"pincode" binding:"omitempty,numeric,len=6"`
	Latitude     *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" binding:"omitempty,longitude"`
	IsPrimary    bool     `json:"is_primary"`
}

// CreateJobInput defines the expected JSON structure for creating a job
type CreateJobInput struct {
	JobCode       string           `json:"job_code" binding:"omitempty,max=20"`
	CustomerID    *uuid.UUID       `json:"customer_id"`
	Customer      *CustomerPayload `json:"customer"`
	LocationID    *uuid.UUID       `json:"location_id"`
	Location      *LocationPayload `json:"location"`
	PackageID     *uuid.UUID       `json:"package_id"`
	ServiceType   string           `json:"service_type" binding:"required,max=50"`
	Description   string           `json:"description"`
	Status        string           `json:"status"`
	Priority      string           `json:"priority" binding:"omitempty,oneof=Low Medium High Urgent"`
	EstimatedCost decimal.Decimal  `json:"estimated_cost"`
	ScheduledDate *time.Time       `json:"scheduled_date"`
	Metadata      datatypes.JSON   `json:"metadata"`
}

// UpdateJobInput defines the expected JSON structure for updating a job.
// Omitted fields are left untouched; null clears location_id, package_id,
// scheduled_date, metadata and description. Field rules are checked by the
// workflow.
type UpdateJobInput struct {
	LocationID    utils.Optional[uuid.UUID]       `json:"location_id"`
	PackageID     utils.Optional[uuid.UUID]       `json:"package_id"`
	ServiceType   utils.Optional[string]          `json:"service_type"`
	Description   utils.Optional[string]          `json:"description"`
	Priority      utils.Optional[string]          `json:"priority"`
	EstimatedCost utils.Optional[decimal.Decimal] `json:"estimated_cost"`
	ActualCost    utils.Optional[decimal.Decimal] `json:"actual_cost"`
	ScheduledDate utils.Optional[time.Time]       `json:"scheduled_date"`
	Metadata      utils.Optional[datatypes.JSON]  `json:"metadata"`
}

type UpdateStatusInput struct {
	Status   string `json:"status" binding:"required"`
	Reason   string `json:"reason"`
	Comments string `json:"comments"`
}

type AddJobLocationInput struct {
	Label        string   `json:"label"`
	AddressLine1 string   `json:"address_line1" binding:"required"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Pincode      string   `json:"pincode" binding:"omitempty,numeric,len=6"`
	Latitude     *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" binding:"omitempty,longitude"`
}

func (p *CustomerPayload) toService() *services.NewCustomerInput {
	if p == nil {
		return nil
	}
	return &services.NewCustomerInput{
		CustomerCode: p.CustomerCode,
		Name:         p.Name,
		Mobile:       p.Mobile,
		Email:        p.Email,
		CustomerType: p.CustomerType,
		GSTIN:        p.GSTIN,
	}
}

func (p *LocationPayload) toService() *services.LocationInput {
	if p == nil {
		return nil
	}
	return &services.LocationInput{
		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		City:         p.City,
		District:     p.District,
		State:        p.State,
		Pincode:      p.Pincode,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		IsPrimary:    p.IsPrimary,
	}
}

// CreateJob creates a job, provisioning its customer and location when they
// are given inline.
func (jc *JobController) CreateJob(c *gin.Context) {
	var input CreateJobInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	res, err := jc.Workflow.CreateJob(c.Request.Context(), services.CreateJobInput{
		JobCode: input.JobCode,
		Customer: services.CustomerRequest{
			CustomerID: input.CustomerID,
			Customer:   input.Customer.toService(),
			LocationID: input.LocationID,
			Location:   input.Location.toService(),
		},
		PackageID:     input.PackageID,
		ServiceType:   input.ServiceType,
		Description:   input.Description,
		Status:        input.Status,
		Priority:      input.Priority,
		EstimatedCost: input.EstimatedCost,
		ScheduledDate: input.ScheduledDate,
		Metadata:      input.Metadata,
	}, actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// GetJobs lists jobs with their derived payment and assignment figures
func (jc *JobController) GetJobs(c *gin.Context) {
	filter, err := jobFilterFrom(c)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	jobs, err := jc.Workflow.ListJobs(c.Request.Context(), filter)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// GetJobsWithDetails lists jobs with history, payments, assignments and locations
func (jc *JobController) GetJobsWithDetails(c *gin.Context) {
	filter, err := jobFilterFrom(c)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	jobs, err := jc.Workflow.ListJobsWithDetails(c.Request.Context(), filter)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (jc *JobController) GetJob(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	job, err := jc.Workflow.GetJob(c.Request.Context(), jobID)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (jc *JobController) UpdateJob(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input UpdateJobInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	job, err := jc.Workflow.UpdateJob(c.Request.Context(), jobID, services.UpdateJobInput{
		LocationID:    input.LocationID,
		PackageID:     input.PackageID,
		ServiceType:   input.ServiceType,
		Description:   input.Description,
		Priority:      input.Priority,
		EstimatedCost: input.EstimatedCost,
		ActualCost:    input.ActualCost,
		ScheduledDate: input.ScheduledDate,
		Metadata:      input.Metadata,
	}, actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (jc *JobController) UpdateJobStatus(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input UpdateStatusInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	res, err := jc.Workflow.UpdateJobStatus(c.Request.Context(), jobID, input.Status, input.Reason, input.Comments, actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (jc *JobController) GetJobHistory(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	history, err := jc.Workflow.GetJobHistory(c.Request.Context(), jobID)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (jc *JobController) GetJobPayments(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	payments, err := jc.Workflow.ListJobPayments(c.Request.Context(), jobID)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}

func (jc *JobController) GetJobAssignments(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	assignments, err := jc.Workflow.ListJobAssignments(c.Request.Context(), jobID)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments, "count": len(assignments)})
}

func (jc *JobController) AddJobLocation(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input AddJobLocationInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	loc, err := jc.Workflow.AddJobLocation(c.Request.Context(), jobID, services.AddJobLocationInput{
		Label:        input.Label,
		AddressLine1: input.AddressLine1,
		City:         input.City,
		State:        input.State,
		Pincode:      input.Pincode,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
	}, actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

// actorFrom builds the acting employee from the auth context. It returns nil
// when the context carries no usable id; the workflow then refuses the call.
func actorFrom(c *gin.Context) *services.Actor {
	id, err := uuid.Parse(c.GetString(utils.ContextUserID))
	if err != nil {
		return nil
	}
	return &services.Actor{ID: id, Roles: c.GetStringSlice(utils.ContextRoles)}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithAppError(c, apperrors.Validation("Invalid "+name,
			apperrors.FieldError{Field: name, Message: "must be a UUID"}))
		return uuid.Nil, false
	}
	return id, true
}

func jobFilterFrom(c *gin.Context) (services.JobFilter, error) {
	f := services.JobFilter{
		Status:      c.Query("status"),
		Priority:    c.Query("priority"),
		ServiceType: c.Query("service_type"),
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperrors.Validation("Invalid customer_id",
				apperrors.FieldError{Field: "customer_id", Message: "must be a UUID"})
		}
		f.CustomerID = &id
	}
	var err error
	if f.Limit, f.Offset, err = pagination(c); err != nil {
		return f, err
	}
	return f, nil
}

func pagination(c *gin.Context) (limit, offset int, err error) {
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 || limit > 200 {
			return 0, 0, apperrors.Validation("Invalid limit",
				apperrors.FieldError{Field: "limit", Message: "must be between 0 and 200"})
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil || offset < 0 {
			return 0, 0, apperrors.Validation("Invalid offset",
				apperrors.FieldError{Field: "offset", Message: "must not be negative"})
		}
	}
	return limit, offset, nil
}
