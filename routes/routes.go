package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"solarops-backend/config"
	"solarops-backend/controllers"
	"solarops-backend/services"
	"solarops-backend/utils"
)

// Dependencies are the objects the router hands to its controllers.
type Dependencies struct {
	Settings *config.Settings
	Logger   *slog.Logger
	DB       *gorm.DB
	Workflow *services.JobWorkflow
}

func SetupRouter(d Dependencies) (*gin.Engine, error) {
	if err := utils.SetupBindingValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Settings.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.RequestLogger(d.Logger, d.Settings.SlowRequestThreshold))

	r.GET("/healthz", healthCheck(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jobController := &controllers.JobController{Workflow: d.Workflow}
	customerController := &controllers.CustomerController{Workflow: d.Workflow}
	dashboardController := &controllers.DashboardController{Workflow: d.Workflow}
	reportController := &controllers.ReportController{Workflow: d.Workflow}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(d.Settings.JWTSecret))
	{
		// Job routes
		jobs := api.Group("/jobs")
		{
			jobs.POST("", jobController.CreateJob)
			jobs.GET("", jobController.GetJobs)
			jobs.GET("/details", jobController.GetJobsWithDetails)
			jobs.GET("/:id", jobController.GetJob)
			jobs.PATCH("/:id", jobController.UpdateJob)
			jobs.POST("/:id/status", jobController.UpdateJobStatus)
			jobs.GET("/:id/history", jobController.GetJobHistory)
			jobs.GET("/:id/assignments", jobController.GetJobAssignments)
			jobs.POST("/:id/assignments", jobController.CreateAssignment)
			jobs.DELETE("/:id/assignments/:assignmentId", jobController.CancelAssignment)
			jobs.GET("/:id/payments", jobController.GetJobPayments)
			jobs.POST("/:id/payments", jobController.CreatePayment)
			jobs.PATCH("/:id/payments/:paymentId", jobController.UpdatePaymentStatus)
			jobs.POST("/:id/locations", jobController.AddJobLocation)
		}

		api.POST("/tax/gst", jobController.CalculateTax)

		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", customerController.CreateCustomer)
			customers.GET("", customerController.GetCustomers)
			customers.GET("/:id", customerController.GetCustomer)
			customers.POST("/:id/locations", customerController.AddLocation)
		}

		api.GET("/dashboard", dashboardController.GetDashboardOverview)
		api.GET("/reports/gst", reportController.GetGSTReport)
	}

	return r, nil
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
