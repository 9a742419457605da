package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"solarops-backend/apperrors"
	"solarops-backend/models"
	"solarops-backend/utils"
)

var (
	validPriorities = map[string]bool{
		models.PriorityLow: true, models.PriorityMedium: true,
		models.PriorityHigh: true, models.PriorityUrgent: true,
	}
	validRoles = map[string]bool{
		models.RoleLead: true, models.RoleTechnician: true,
		models.RoleHelper: true, models.RoleSupervisor: true,
	}
	validPaymentTypes = map[string]bool{
		models.PaymentTypeAdvance: true, models.PaymentTypeMilestone: true, models.PaymentTypeFinal: true,
	}
	validPaymentStatuses = map[string]bool{
		models.PaymentStatusPending: true, models.PaymentStatusCompleted: true, models.PaymentStatusFailed: true,
	}
)

// WorkflowOptions configures a JobWorkflow.
type WorkflowOptions struct {
	HomeState      string
	RetryAttempts  int
	Now            func() time.Time
	// TracerProvider receives one span per unit of work; nil uses the global provider.
	TracerProvider trace.TracerProvider
}

// JobWorkflow runs each job operation as one unit of work over the
// provisioner, code generator, repository and status tracker.
type JobWorkflow struct {
	db          *gorm.DB
	logger      *slog.Logger
	uow         *UnitOfWork
	codes       *CodeGenerator
	provisioner *CustomerProvisioner
	tracker     *StatusTracker
	jobs        *JobRepository
	homeState   string
	now         func() time.Time
}

func NewJobWorkflow(db *gorm.DB, logger *slog.Logger, opts WorkflowOptions) *JobWorkflow {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	codes := NewCodeGenerator()
	tracker := NewStatusTracker()
	return &JobWorkflow{
		db:          db,
		logger:      logger,
		uow:         NewTracedUnitOfWork(db, logger, opts.RetryAttempts, opts.TracerProvider),
		codes:       codes,
		provisioner: NewCustomerProvisioner(codes),
		tracker:     tracker,
		jobs:        NewJobRepository(tracker, codes),
		homeState:   opts.HomeState,
		now:         now,
	}
}

func (w *JobWorkflow) clock() time.Time {
	return w.now().UTC()
}

type CreateJobInput struct {
	JobCode       string
	Customer      CustomerRequest
	PackageID     *uuid.UUID
	ServiceType   string
	Description   string
	Status        string
	Priority      string
	EstimatedCost decimal.Decimal
	ScheduledDate *time.Time
	Metadata      datatypes.JSON
}

// CreateJobManifest tells the caller what CreateJob created or reused.
type CreateJobManifest struct {
	JobID              uuid.UUID  `json:"job_id"`
	JobCode            string     `json:"job_code"`
	CustomerID         uuid.UUID  `json:"customer_id"`
	LocationID         *uuid.UUID `json:"location_id,omitempty"`
	NewCustomerCreated bool       `json:"new_customer_created"`
	NewLocationCreated bool       `json:"new_location_created"`
	JobCodeGenerated   bool       `json:"job_code_generated"`
}

type CreateJobResult struct {
	Job      *JobView          `json:"job"`
	Manifest CreateJobManifest `json:"manifest"`
}

func (in *CreateJobInput) normalize() error {
	in.JobCode = strings.TrimSpace(in.JobCode)
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	if in.ServiceType == "" {
		return apperrors.Validation("service type is required",
			apperrors.FieldError{Field: "service_type", Message: "is required"})
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !validPriorities[in.Priority] {
		return apperrors.Validation("invalid priority",
			apperrors.FieldError{Field: "priority", Message: "must be one of Low, Medium, High, Urgent"})
	}
	if in.Status == "" {
		in.Status = models.JobStatusCreated
	}
	if !IsKnownStatus(in.Status) || IsTerminalStatus(in.Status) {
		return apperrors.Validation("invalid initial status",
			apperrors.FieldError{Field: "status", Message: "must be a non-terminal job status"})
	}
	if in.EstimatedCost.IsNegative() {
		return apperrors.Validation("estimated cost must not be negative",
			apperrors.FieldError{Field: "estimated_cost", Message: "must not be negative"})
	}
	return nil
}

// CreateJob creates the job, provisioning its customer and location as needed,
// and records the first status row. A generated code that loses a race to a
// concurrent insert re-runs the whole unit.
func (w *JobWorkflow) CreateJob(ctx context.Context, in CreateJobInput, actor *Actor) (*CreateJobResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var manifest CreateJobManifest
	err := w.uow.DoWithRetry(ctx, "create_job", func(tx *gorm.DB) error {
		now := w.clock()
		manifest = CreateJobManifest{}

		code := in.JobCode
		if code != "" {
			taken, err := w.jobs.CodeExists(tx, code)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.Conflict("Job code already exists").WithContext("job_code", code)
			}
		} else {
			generated, err := w.codes.Next(tx, CodeKindJob, now)
			if err != nil {
				return err
			}
			code = generated
			manifest.JobCodeGenerated = true
		}

		res, err := w.provisioner.Resolve(tx, in.Customer, *actor, now)
		if err != nil {
			return err
		}

		if in.PackageID != nil {
			ok, err := w.jobs.PackageExists(tx, *in.PackageID)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.NotFound("package").WithContext("package_id", in.PackageID.String())
			}
		}

		job := &models.Job{
			JobCode:       code,
			CustomerID:    res.Customer.ID,
			PackageID:     in.PackageID,
			ServiceType:   in.ServiceType,
			Description:   in.Description,
			Status:        in.Status,
			Priority:      in.Priority,
			EstimatedCost: in.EstimatedCost,
			ScheduledDate: in.ScheduledDate,
			Metadata:      in.Metadata,
			CreatedBy:     actor.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if res.Location != nil {
			job.LocationID = &res.Location.ID
		}
		if job.Status == models.JobStatusInProgress {
			job.StartedAt = &now
		}
		if err := w.jobs.Create(tx, job); err != nil {
			return err
		}

		if _, err := w.tracker.CreateTracking(tx, TrackingEntry{
			JobID:     job.ID,
			NewStatus: job.Status,
			Reason:    "Job created",
			ChangedBy: &actor.ID,
			At:        now,
		}); err != nil {
			return err
		}

		manifest.JobID = job.ID
		manifest.JobCode = job.JobCode
		manifest.CustomerID = res.Customer.ID
		manifest.LocationID = job.LocationID
		manifest.NewCustomerCreated = res.NewCustomerCreated
		manifest.NewLocationCreated = res.NewLocationCreated
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.InfoContext(ctx, "job created",
		slog.String("job_id", manifest.JobID.String()),
		slog.String("job_code", manifest.JobCode),
		slog.Bool("new_customer", manifest.NewCustomerCreated))

	view, err := w.GetJob(ctx, manifest.JobID)
	if err != nil {
		return nil, err
	}
	return &CreateJobResult{Job: view, Manifest: manifest}, nil
}

type StatusChangeResult struct {
	Job      *JobView                  `json:"job"`
	Tracking *models.JobStatusTracking `json:"tracking"`
}

// UpdateJobStatus moves the job along the transition table and appends the
// matching ledger row in the same unit.
func (w *JobWorkflow) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, newStatus, reason, comments string, actor *Actor) (*StatusChangeResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var row *models.JobStatusTracking
	err := w.uow.Do(ctx, "update_job_status", func(tx *gorm.DB) error {
		now := w.clock()
		job, err := w.jobs.FindByIDForUpdate(tx, jobID)
		if err != nil {
			return err
		}
		if err := w.checkLedger(tx, job); err != nil {
			return err
		}
		if err := ValidateTransition(job.Status, newStatus); err != nil {
			return err
		}
		previous := job.Status
		if row, err = w.tracker.CreateTracking(tx, TrackingEntry{
			JobID:          job.ID,
			PreviousStatus: &previous,
			NewStatus:      newStatus,
			Reason:         reason,
			Comments:       comments,
			ChangedBy:      &actor.ID,
			At:             now,
		}); err != nil {
			return err
		}
		return w.jobs.SetStatus(tx, job, newStatus, now)
	})
	if err != nil {
		return nil, err
	}

	view, err := w.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &StatusChangeResult{Job: view, Tracking: row}, nil
}

// checkLedger refuses to extend a ledger whose newest row disagrees with the
// job's current status.
func (w *JobWorkflow) checkLedger(tx *gorm.DB, job *models.Job) error {
	latest, err := w.tracker.Latest(tx, job.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load latest status: %w", err)
	}
	if latest.NewStatus != job.Status {
		return apperrors.Internal("status ledger does not match job status", nil).
			WithContext("job_status", job.Status).
			WithContext("ledger_status", latest.NewStatus)
	}
	return nil
}

type CreateAssignmentInput struct {
	JobID      uuid.UUID
	EmployeeID uuid.UUID
	RoleType   string
	Notes      string
}

type AssignmentResult struct {
	Assignment     *models.JobAssignment `json:"assignment"`
	JobStatus      string                `json:"job_status"`
	StatusCascaded bool                  `json:"status_cascaded"`
}

// CreateJobAssignment assigns an employee to a job. The first assignment of a
// Created job moves it to Assigned with a system-authored ledger row.
func (w *JobWorkflow) CreateJobAssignment(ctx context.Context, in CreateAssignmentInput, actor *Actor) (*AssignmentResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if in.RoleType == "" {
		in.RoleType = models.RoleTechnician
	}
	if !validRoles[in.RoleType] {
		return nil, apperrors.Validation("invalid role type",
			apperrors.FieldError{Field: "role_type", Message: "must be one of Lead, Technician, Helper, Supervisor"})
	}

	var out AssignmentResult
	err := w.uow.Do(ctx, "create_job_assignment", func(tx *gorm.DB) error {
		now := w.clock()
		out = AssignmentResult{}

		job, err := w.jobs.FindByIDForUpdate(tx, in.JobID)
		if err != nil {
			return err
		}
		if _, err := w.jobs.FindActiveEmployee(tx, in.EmployeeID); err != nil {
			return err
		}
		if IsTerminalStatus(job.Status) {
			return apperrors.Validation("cannot assign employees to a "+strings.ToLower(job.Status)+" job").
				WithContext("current_status", job.Status)
		}
		dup, err := w.jobs.ActiveAssignmentExists(tx, job.ID, in.EmployeeID, in.RoleType)
		if err != nil {
			return err
		}
		if dup {
			return apperrors.Conflict("Employee is already assigned to this job in this role").
				WithContext("employee_id", in.EmployeeID.String())
		}

		a := &models.JobAssignment{
			JobID:            job.ID,
			EmployeeID:       in.EmployeeID,
			RoleType:         in.RoleType,
			AssignmentStatus: models.AssignmentStatusActive,
			Notes:            in.Notes,
			AssignedBy:       actor.ID,
			AssignedAt:       now,
		}
		if err := w.jobs.CreateAssignment(tx, a); err != nil {
			return err
		}
		out.Assignment = a

		if job.Status == models.JobStatusCreated {
			previous := job.Status
			if _, err := w.tracker.CreateTracking(tx, TrackingEntry{
				JobID:          job.ID,
				PreviousStatus: &previous,
				NewStatus:      models.JobStatusAssigned,
				Reason:         "Employee assigned",
				At:             now,
			}); err != nil {
				return err
			}
			if err := w.jobs.SetStatus(tx, job, models.JobStatusAssigned, now); err != nil {
				return err
			}
			out.StatusCascaded = true
		}
		out.JobStatus = job.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelJobAssignment ends an active assignment. The job status is left as is.
func (w *JobWorkflow) CancelJobAssignment(ctx context.Context, jobID, assignmentID uuid.UUID, actor *Actor) (*models.JobAssignment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var out *models.JobAssignment
	err := w.uow.Do(ctx, "cancel_job_assignment", func(tx *gorm.DB) error {
		a, err := w.jobs.FindAssignment(tx, jobID, assignmentID)
		if err != nil {
			return err
		}
		if a.AssignmentStatus != models.AssignmentStatusActive {
			return apperrors.Validation("assignment is already cancelled")
		}
		if err := w.jobs.CancelAssignment(tx, a, w.clock()); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePaymentInput records a payment. The tax split is taken from Tax when
// given; otherwise GSTRate is applied with the jurisdiction derived from
// BillingState (or the job location's state) against the home state.
// CreatePaymentInput records a payment. Tax carries the caller's own breakdown.
// GSTRate is an opt-in shortcut: when Tax is nil the breakdown is computed
// from the rate and the billing state, falling back to the job location's
// state. With neither set the payment carries no tax.
type CreatePaymentInput struct {
	JobID          uuid.UUID
	PaymentType    string
	Amount         decimal.Decimal
	Tax            *TaxBreakdown
	GSTRate        *decimal.Decimal
	BillingState   string
	Status         string
	PaymentMethod  string
	TransactionRef string
	PaymentDate    *time.Time
	Notes          string
}

func (in *CreatePaymentInput) normalize() error {
	if !in.Amount.IsPositive() {
		return apperrors.Validation("amount must be positive",
			apperrors.FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	if !validPaymentTypes[in.PaymentType] {
		return apperrors.Validation("invalid payment type",
			apperrors.FieldError{Field: "payment_type", Message: "must be one of Advance, Milestone, Final"})
	}
	if in.Status == "" {
		in.Status = models.PaymentStatusCompleted
	}
	if !validPaymentStatuses[in.Status] {
		return apperrors.Validation("invalid payment status",
			apperrors.FieldError{Field: "status", Message: "must be one of Pending, Completed, Failed"})
	}
	return nil
}

// CreateJobPayment appends a payment to the job's ledger. Payments are not
// capped by the job cost; overpayment shows as a negative pending amount.
func (w *JobWorkflow) CreateJobPayment(ctx context.Context, in CreatePaymentInput, actor *Actor) (*models.JobPayment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	var out *models.JobPayment
	err := w.uow.Do(ctx, "create_job_payment", func(tx *gorm.DB) error {
		now := w.clock()
		job, err := w.jobs.FindByID(tx, in.JobID)
		if err != nil {
			return err
		}

		tax, err := w.resolveTax(tx, job, in)
		if err != nil {
			return err
		}

		paidAt := now
		if in.PaymentDate != nil {
			paidAt = in.PaymentDate.UTC()
		}
		p := &models.JobPayment{
			JobID:          job.ID,
			PaymentType:    in.PaymentType,
			Amount:         in.Amount,
			CGSTRate:       tax.CGSTRate,
			SGSTRate:       tax.SGSTRate,
			IGSTRate:       tax.IGSTRate,
			CGSTValue:      tax.CGSTValue,
			SGSTValue:      tax.SGSTValue,
			IGSTValue:      tax.IGSTValue,
			TotalAmount:    in.Amount.Add(tax.Total()),
			Status:         in.Status,
			PaymentMethod:  in.PaymentMethod,
			TransactionRef: in.TransactionRef,
			PaymentDate:    paidAt,
			Notes:          in.Notes,
			ReceivedBy:     actor.ID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := w.jobs.CreatePayment(tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *JobWorkflow) resolveTax(tx *gorm.DB, job *models.Job, in CreatePaymentInput) (TaxBreakdown, error) {
	if in.Tax != nil {
		t := *in.Tax
		for _, v := range []decimal.Decimal{t.CGSTRate, t.SGSTRate, t.IGSTRate, t.CGSTValue, t.SGSTValue, t.IGSTValue} {
			if v.IsNegative() {
				return TaxBreakdown{}, apperrors.Validation("tax components must not be negative")
			}
		}
		return t, nil
	}
	if in.GSTRate == nil {
		return CalculateGST(in.Amount, decimal.Zero, true)
	}

	state := in.BillingState
	if state == "" && job.LocationID != nil {
		var loc models.CustomerLocation
		err := tx.Select("state").First(&loc, "id = ?", *job.LocationID).Error
		switch {
		case err == nil:
			state = loc.State
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return TaxBreakdown{}, fmt.Errorf("load billing state: %w", err)
		}
	}
	// an unknown billing state is treated as intra-state
	home := state == "" || IsHomeState(state, w.homeState)
	return CalculateGST(in.Amount, *in.GSTRate, home)
}

// UpdatePaymentStatus changes a payment's status, e.g. when a pending transfer clears.
func (w *JobWorkflow) UpdatePaymentStatus(ctx context.Context, jobID, paymentID uuid.UUID, status, transactionRef string, actor *Actor) (*models.JobPayment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !validPaymentStatuses[status] {
		return nil, apperrors.Validation("invalid payment status",
			apperrors.FieldError{Field: "status", Message: "must be one of Pending, Completed, Failed"})
	}
	var out *models.JobPayment
	err := w.uow.Do(ctx, "update_payment_status", func(tx *gorm.DB) error {
		p, err := w.jobs.FindPayment(tx, jobID, paymentID)
		if err != nil {
			return err
		}
		if err := w.jobs.UpdatePaymentStatus(tx, p, status, transactionRef, w.clock()); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// normalize rejects nulls on required columns and turns a null description
// into an empty one.
func (in *UpdateJobInput) normalize() error {
	for field, null := range map[string]bool{
		"service_type":   in.ServiceType.IsNull(),
		"priority":       in.Priority.IsNull(),
		"estimated_cost": in.EstimatedCost.IsNull(),
		"actual_cost":    in.ActualCost.IsNull(),
	} {
		if null {
			return apperrors.Validation(field+" cannot be cleared",
				apperrors.FieldError{Field: field, Message: "must not be null"})
		}
	}
	if in.Description.IsNull() {
		in.Description = utils.Some("")
	}
	if v := in.ServiceType.Value; v != nil {
		*v = strings.TrimSpace(*v)
		if *v == "" || len(*v) > 50 {
			return apperrors.Validation("invalid service type",
				apperrors.FieldError{Field: "service_type", Message: "must be 1 to 50 characters"})
		}
	}
	if v := in.Priority.Value; v != nil && !validPriorities[*v] {
		return apperrors.Validation("invalid priority",
			apperrors.FieldError{Field: "priority", Message: "must be one of Low, Medium, High, Urgent"})
	}
	for field, v := range map[string]*decimal.Decimal{"estimated_cost": in.EstimatedCost.Value, "actual_cost": in.ActualCost.Value} {
		if v != nil && v.IsNegative() {
			return apperrors.Validation(field+" must not be negative",
				apperrors.FieldError{Field: field, Message: "must not be negative"})
		}
	}
	return nil
}

// UpdateJob applies a partial update. Status is changed only through
// UpdateJobStatus.
func (w *JobWorkflow) UpdateJob(ctx context.Context, jobID uuid.UUID, in UpdateJobInput, actor *Actor) (*JobView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	err := w.uow.Do(ctx, "update_job", func(tx *gorm.DB) error {
		job, err := w.jobs.FindByID(tx, jobID)
		if err != nil {
			return err
		}
		if id := in.LocationID.Value; id != nil {
			ok, err := w.jobs.LocationBelongsTo(tx, *id, job.CustomerID)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.NotFound("location").WithContext("location_id", id.String())
			}
		}
		if id := in.PackageID.Value; id != nil {
			ok, err := w.jobs.PackageExists(tx, *id)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.NotFound("package").WithContext("package_id", id.String())
			}
		}
		return w.jobs.Update(tx, job.ID, in, w.clock())
	})
	if err != nil {
		return nil, err
	}
	return w.GetJob(ctx, jobID)
}

type AddJobLocationInput struct {
	Label        string
	AddressLine1 string
	City         string
	State        string
	Pincode      string
	Latitude     *float64
	Longitude    *float64
}

func (w *JobWorkflow) AddJobLocation(ctx context.Context, jobID uuid.UUID, in AddJobLocationInput, actor *Actor) (*models.JobLocation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.AddressLine1) == "" {
		return nil, apperrors.Validation("location address is required",
			apperrors.FieldError{Field: "address_line1", Message: "is required"})
	}
	var out *models.JobLocation
	err := w.uow.Do(ctx, "add_job_location", func(tx *gorm.DB) error {
		job, err := w.jobs.FindByID(tx, jobID)
		if err != nil {
			return err
		}
		l := &models.JobLocation{
			JobID:        job.ID,
			Label:        in.Label,
			AddressLine1: strings.TrimSpace(in.AddressLine1),
			City:         in.City,
			State:        in.State,
			Pincode:      in.Pincode,
			Latitude:     in.Latitude,
			Longitude:    in.Longitude,
			CreatedAt:    w.clock(),
		}
		if err := w.jobs.AddJobLocation(tx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCustomer provisions a customer outside of job creation.
func (w *JobWorkflow) CreateCustomer(ctx context.Context, in NewCustomerInput, loc *LocationInput, actor *Actor) (*CustomerResolution, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var out *CustomerResolution
	err := w.uow.DoWithRetry(ctx, "create_customer", func(tx *gorm.DB) error {
		res, err := w.provisioner.CreateCustomer(tx, in, loc, *actor, w.clock())
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *JobWorkflow) AddCustomerLocation(ctx context.Context, customerID uuid.UUID, in LocationInput, actor *Actor) (*models.CustomerLocation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var out *models.CustomerLocation
	err := w.uow.Do(ctx, "add_customer_location", func(tx *gorm.DB) error {
		loc, err := w.provisioner.AddLocation(tx, customerID, in, w.clock())
		if err != nil {
			return err
		}
		out = loc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *JobWorkflow) GetJob(ctx context.Context, jobID uuid.UUID) (*JobView, error) {
	v, err := w.jobs.GetJobByID(w.db.WithContext(ctx), jobID)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return v, nil
}

func (w *JobWorkflow) ListJobs(ctx context.Context, f JobFilter) ([]JobView, error) {
	views, err := w.jobs.GetAllJobs(w.db.WithContext(ctx), f)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return views, nil
}

func (w *JobWorkflow) ListJobsWithDetails(ctx context.Context, f JobFilter) ([]JobDetails, error) {
	details, err := w.jobs.GetJobsWithDetails(ctx, w.db, f)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return details, nil
}

// GetJobHistory returns the job's status ledger newest first.
func (w *JobWorkflow) GetJobHistory(ctx context.Context, jobID uuid.UUID) ([]models.JobStatusTracking, error) {
	db := w.db.WithContext(ctx)
	if _, err := w.jobs.FindByID(db, jobID); err != nil {
		return nil, apperrors.Classify(err)
	}
	rows, err := w.tracker.GetHistory(db, jobID)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return rows, nil
}

// ListJobPayments returns the job's payments newest first.
func (w *JobWorkflow) ListJobPayments(ctx context.Context, jobID uuid.UUID) ([]models.JobPayment, error) {
	db := w.db.WithContext(ctx)
	if _, err := w.jobs.FindByID(db, jobID); err != nil {
		return nil, apperrors.Classify(err)
	}
	payments, err := w.jobs.ListPayments(db, jobID)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return payments, nil
}

// ListJobAssignments returns every assignment of the job, cancelled ones
// included, oldest first.
func (w *JobWorkflow) ListJobAssignments(ctx context.Context, jobID uuid.UUID) ([]models.JobAssignment, error) {
	db := w.db.WithContext(ctx)
	if _, err := w.jobs.FindByID(db, jobID); err != nil {
		return nil, apperrors.Classify(err)
	}
	assignments, err := w.jobs.ListAssignments(db, jobID)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return assignments, nil
}

func (w *JobWorkflow) Overview(ctx context.Context) (*Overview, error) {
	o, err := w.jobs.Overview(w.db.WithContext(ctx), w.clock())
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return o, nil
}

// GSTSummary totals completed payments in [from, to).
func (w *JobWorkflow) GSTSummary(ctx context.Context, from, to time.Time) (*GSTSummary, error) {
	if !to.After(from) {
		return nil, apperrors.Validation("report end must be after its start")
	}
	s, err := w.jobs.GSTSummary(w.db.WithContext(ctx), from.UTC(), to.UTC())
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return s, nil
}

// HomeState is the configured seller state used for the jurisdiction flag.
func (w *JobWorkflow) HomeState() string {
	return w.homeState
}

func (w *JobWorkflow) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	c, err := w.provisioner.FindCustomer(w.db.WithContext(ctx), id)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return c, nil
}

func (w *JobWorkflow) ListCustomers(ctx context.Context, f CustomerFilter) ([]models.Customer, error) {
	out, err := w.provisioner.ListCustomers(w.db.WithContext(ctx), f)
	if err != nil {
		return nil, apperrors.Classify(err)
	}
	return out, nil
}
