// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"solarops-backend/apperrors"
	"solarops-backend/services"
	"solarops-backend/utils"
)

// ReportController handles GST collection reporting
type ReportController struct {
	Workflow *services.JobWorkflow
	Now      func() time.Time
}

// GSTReport compares the collections of a period with the period before it.
type GSTReport struct {
	Period   string               `json:"period"`
	Current  *services.GSTSummary `json:"current"`
	Previous *services.GSTSummary `json:"previous"`
	Growth   decimal.Decimal      `json:"growth_percent"`
}

const reportDateLayout = "2006-01-02"

// GetGSTReport returns tax collected over a period. period is month (default)
// or quarter; from/to (YYYY-MM-DD, to exclusive) select a custom range.
func (rc *ReportController) GetGSTReport(c *gin.Context) {
	start, end, period, err := rc.reportRange(c)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	ctx := c.Request.Context()
	current, err := rc.Workflow.GSTSummary(ctx, start, end)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	span := end.Sub(start)
	prevStart, prevEnd := start.Add(-span), start
	switch period {
	case "month":
		prevStart = start.AddDate(0, -1, 0)
	case "quarter":
		prevStart = start.AddDate(0, -3, 0)
	}
	previous, err := rc.Workflow.GSTSummary(ctx, prevStart, prevEnd)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, GSTReport{
		Period:   period,
		Current:  current,
		Previous: previous,
		Growth:   rc.calculateGrowthPercentage(current.Total, previous.Total),
	})
}

func (rc *ReportController) reportRange(c *gin.Context) (time.Time, time.Time, string, error) {
	if from, to := c.Query("from"), c.Query("to"); from != "" || to != "" {
		start, err := time.Parse(reportDateLayout, from)
		if err != nil {
			return time.Time{}, time.Time{}, "", apperrors.Validation("Invalid from date",
				apperrors.FieldError{Field: "from", Message: "must be YYYY-MM-DD"})
		}
		end, err := time.Parse(reportDateLayout, to)
		if err != nil {
			return time.Time{}, time.Time{}, "", apperrors.Validation("Invalid to date",
				apperrors.FieldError{Field: "to", Message: "must be YYYY-MM-DD"})
		}
		return start, end, "custom", nil
	}

	now := time.Now
	if rc.Now != nil {
		now = rc.Now
	}
	today := now().UTC()
	switch c.DefaultQuery("period", "month") {
	case "month":
		start, end := utils.MonthRange(today)
		return start, end, "month", nil
	case "quarter":
		start := rc.getQuarterStart(today)
		return start, start.AddDate(0, 3, 0), "quarter", nil
	default:
		return time.Time{}, time.Time{}, "", apperrors.Validation("Invalid period",
			apperrors.FieldError{Field: "period", Message: "must be one of: month quarter"})
	}
}

func (rc *ReportController) getQuarterStart(date time.Time) time.Time {
	quarter := (int(date.Month())-1)/3 + 1
	startMonth := time.Month((quarter-1)*3 + 1)
	return time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
}

func (rc *ReportController) calculateGrowthPercentage(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}
