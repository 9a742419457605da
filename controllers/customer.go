// controllers/customer.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solarops-backend/services"
	"solarops-backend/utils"
)

// CustomerController handles customer provisioning outside of job creation
type CustomerController struct {
	Workflow *services.JobWorkflow
}

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	CustomerPayload
	Location *LocationPayload `json:"location"`
}

// CreateCustomer creates a customer and, optionally, its first location
func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var input CreateCustomerInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	res, err := cc.Workflow.CreateCustomer(c.Request.Context(), *input.CustomerPayload.toService(), input.Location.toService(), actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"customer": res.Customer,
		"location": res.Location,
	})
}

// GetCustomers lists customers, optionally filtered by search term and status
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	customers, err := cc.Workflow.ListCustomers(c.Request.Context(), services.CustomerFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "count": len(customers)})
}

// GetCustomer returns a customer with its locations
func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	customer, err := cc.Workflow.GetCustomer(c.Request.Context(), id)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// AddLocation attaches a service address to a customer
func (cc *CustomerController) AddLocation(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input LocationPayload
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	loc, err := cc.Workflow.AddCustomerLocation(c.Request.Context(), id, *input.toService(), actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}
