// controllers/payment.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"solarops-backend/services"
	"solarops-backend/utils"
)

// TaxInput is a caller-computed GST split.
type TaxInput struct {
	CGSTRate  decimal.Decimal `json:"cgst_rate"`
	SGSTRate  decimal.Decimal `json:"sgst_rate"`
	IGSTRate  decimal.Decimal `json:"igst_rate"`
	CGSTValue decimal.Decimal `json:"cgst_value"`
	SGSTValue decimal.Decimal `json:"sgst_value"`
	IGSTValue decimal.Decimal `json:"igst_value"`
}

// CreatePaymentInput defines the expected JSON structure for recording a
// payment. Either tax or gst_rate may be given; with neither the payment is
// untaxed.
type CreatePaymentInput struct {
	PaymentType    string           `json:"payment_type" binding:"required,oneof=Advance Milestone Final"`
	Amount         decimal.Decimal  `json:"amount" binding:"required"`
	Tax            *TaxInput        `json:"tax"`
	GSTRate        *decimal.Decimal `json:"gst_rate"`
	BillingState   string           `json:"billing_state"`
	Status         string           `json:"status" binding:"omitempty,oneof=Pending Completed Failed"`
	PaymentMethod  string           `json:"payment_method" binding:"omitempty,max=30"`
	TransactionRef string           `json:"transaction_ref" binding:"omitempty,max=100"`
	PaymentDate    *time.Time       `json:"payment_date"`
	Notes          string           `json:"notes"`
}

type UpdatePaymentStatusInput struct {
	Status         string `json:"status" binding:"required,oneof=Pending Completed Failed"`
	TransactionRef string `json:"transaction_ref" binding:"omitempty,max=100"`
}

// CalculateTaxInput asks for a GST split without recording anything.
type CalculateTaxInput struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	GSTRate      decimal.Decimal `json:"gst_rate" binding:"required"`
	BillingState string          `json:"billing_state"`
	HomeState    *bool           `json:"home_state"`
}

// CreatePayment records a payment against a job
func (jc *JobController) CreatePayment(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var input CreatePaymentInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	in := services.CreatePaymentInput{
		JobID:          jobID,
		PaymentType:    input.PaymentType,
		Amount:         input.Amount,
		GSTRate:        input.GSTRate,
		BillingState:   input.BillingState,
		Status:         input.Status,
		PaymentMethod:  input.PaymentMethod,
		TransactionRef: input.TransactionRef,
		PaymentDate:    input.PaymentDate,
		Notes:          input.Notes,
	}
	if input.Tax != nil {
		in.Tax = &services.TaxBreakdown{
			CGSTRate:  input.Tax.CGSTRate,
			SGSTRate:  input.Tax.SGSTRate,
			IGSTRate:  input.Tax.IGSTRate,
			CGSTValue: input.Tax.CGSTValue,
			SGSTValue: input.Tax.SGSTValue,
			IGSTValue: input.Tax.IGSTValue,
		}
	}

	payment, err := jc.Workflow.CreateJobPayment(c.Request.Context(), in, actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (jc *JobController) UpdatePaymentStatus(c *gin.Context) {
	jobID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := pathUUID(c, "paymentId")
	if !ok {
		return
	}
	var input UpdatePaymentStatusInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	payment, err := jc.Workflow.UpdatePaymentStatus(c.Request.Context(), jobID, paymentID, input.Status, input.TransactionRef, actorFrom(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// CalculateTax returns the GST split of an amount. home_state overrides the
// billing_state comparison when given.
func (jc *JobController) CalculateTax(c *gin.Context) {
	var input CalculateTaxInput
	if err := utils.BindJSON(c, &input); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	home := true
	switch {
	case input.HomeState != nil:
		home = *input.HomeState
	case input.BillingState != "":
		home = services.IsHomeState(input.BillingState, jc.Workflow.HomeState())
	}

	tax, err := services.CalculateGST(input.Amount, input.GSTRate, home)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	rounded := tax.Rounded(2)
	c.JSON(http.StatusOK, gin.H{
		"amount":     input.Amount,
		"home_state": home,
		"tax":        tax,
		"rounded":    rounded,
		"total":      input.Amount.Add(rounded.Total()),
	})
}
