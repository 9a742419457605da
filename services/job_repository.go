package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"solarops-backend/apperrors"
	"solarops-backend/models"
	"solarops-backend/utils"
)

const defaultJobListLimit = 50

type PackageSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CustomerSummary struct {
	ID     uuid.UUID `json:"id"`
	Code   string    `json:"customer_code"`
	Name   string    `json:"name"`
	Mobile string    `json:"mobile"`
}

type LocationSummary struct {
	ID      uuid.UUID `json:"id"`
	Address string    `json:"address_line1"`
	City    string    `json:"city"`
	State   string    `json:"state"`
}

// JobView is a job with its joined names and derived payment/assignment figures.
type JobView struct {
	models.Job
	Package           *PackageSummary  `json:"package,omitempty"`
	Customer          CustomerSummary  `json:"customer"`
	Location          *LocationSummary `json:"location,omitempty"`
	CreatedByName     string           `json:"created_by_name,omitempty"`
	LatestStatus      string           `json:"latest_status"`
	TotalPaid         decimal.Decimal  `json:"total_paid"`
	PendingAmount     decimal.Decimal  `json:"pending_amount"` // negative when overpaid; never capped
	ActiveAssignments int64            `json:"active_assignments"`
}

// JobDetails adds the job's child collections to its view.
type JobDetails struct {
	JobView
	StatusHistory       []models.JobStatusTracking `json:"status_history"`
	Payments            []models.JobPayment        `json:"payments"`
	Assignments         []models.JobAssignment     `json:"assignments"`
	AdditionalLocations []models.JobLocation       `json:"additional_locations"`
}

// JobFilter narrows job listings. Zero values do not filter.
type JobFilter struct {
	Status      string
	Priority    string
	ServiceType string
	CustomerID  *uuid.UUID
	Limit       int
	Offset      int
}

// UpdateJobInput is a partial job update. Unset fields are left untouched and
// an explicit null clears a nullable column.
type UpdateJobInput struct {
	LocationID    utils.Optional[uuid.UUID]
	PackageID     utils.Optional[uuid.UUID]
	ServiceType   utils.Optional[string]
	Description   utils.Optional[string]
	Priority      utils.Optional[string]
	EstimatedCost utils.Optional[decimal.Decimal]
	ActualCost    utils.Optional[decimal.Decimal]
	ScheduledDate utils.Optional[time.Time]
	Metadata      utils.Optional[datatypes.JSON]
}

func (in UpdateJobInput) fields() map[string]interface{} {
	f := make(map[string]interface{})
	setField(f, "location_id", in.LocationID)
	setField(f, "package_id", in.PackageID)
	setField(f, "service_type", in.ServiceType)
	setField(f, "description", in.Description)
	setField(f, "priority", in.Priority)
	setField(f, "estimated_cost", in.EstimatedCost)
	setField(f, "actual_cost", in.ActualCost)
	setField(f, "scheduled_date", in.ScheduledDate)
	setField(f, "metadata", in.Metadata)
	return f
}

// setField maps a null to a nil value, which gorm writes as NULL.
func setField[T any](f map[string]interface{}, column string, o utils.Optional[T]) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		f[column] = nil
		return
	}
	f[column] = *o.Value
}

// jobRow is the flat result of viewQuery.
type jobRow struct {
	models.Job        `gorm:"embedded"`
	PackageName       *string
	CustomerCode      string
	CustomerName      string
	CustomerMobile    string
	LocationAddress   *string
	LocationCity      *string
	LocationState     *string
	CreatedByName     *string
	LatestStatus      *string
	TotalPaid         decimal.Decimal
	ActiveAssignments int64
}

func (r jobRow) view() JobView {
	v := JobView{
		Job: r.Job,
		Customer: CustomerSummary{
			ID:     r.CustomerID,
			Code:   r.CustomerCode,
			Name:   r.CustomerName,
			Mobile: r.CustomerMobile,
		},
		TotalPaid:         r.TotalPaid,
		ActiveAssignments: r.ActiveAssignments,
	}
	if r.PackageID != nil && r.PackageName != nil {
		v.Package = &PackageSummary{ID: *r.PackageID, Name: *r.PackageName}
	}
	if r.LocationID != nil && r.LocationAddress != nil {
		v.Location = &LocationSummary{ID: *r.LocationID, Address: *r.LocationAddress}
		if r.LocationCity != nil {
			v.Location.City = *r.LocationCity
		}
		if r.LocationState != nil {
			v.Location.State = *r.LocationState
		}
	}
	if r.CreatedByName != nil {
		v.CreatedByName = *r.CreatedByName
	}
	v.LatestStatus = r.Status
	if r.LatestStatus != nil {
		v.LatestStatus = *r.LatestStatus
	}
	v.PendingAmount = costBasis(r.Job).Sub(r.TotalPaid)
	return v
}

// costBasis is the actual cost once known, else the estimate.
func costBasis(j models.Job) decimal.Decimal {
	if j.ActualCost.IsPositive() {
		return j.ActualCost
	}
	return j.EstimatedCost
}

// JobRepository owns reads and writes of jobs and their child rows. Write
// methods take the caller's transaction; reads accept any handle.
type JobRepository struct {
	tracker *StatusTracker
	codes   *CodeGenerator
}

func NewJobRepository(tracker *StatusTracker, codes *CodeGenerator) *JobRepository {
	return &JobRepository{tracker: tracker, codes: codes}
}

func (r *JobRepository) Create(tx *gorm.DB, job *models.Job) error {
	if err := tx.Create(job).Error; err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// FindByID loads the bare job row.
func (r *JobRepository) FindByID(tx *gorm.DB, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := tx.First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("job").WithContext("job_id", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	return &job, nil
}

// FindByIDForUpdate loads the job and holds its row lock until tx ends, so
// status changes of one job apply one after another.
func (r *JobRepository) FindByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*models.Job, error) {
	return r.FindByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *JobRepository) CodeExists(tx *gorm.DB, code string) (bool, error) {
	return r.codes.Exists(tx, CodeKindJob, code)
}

// Update applies only the supplied fields. Concurrent updates of the same job
// are last-write-wins per field.
func (r *JobRepository) Update(tx *gorm.DB, id uuid.UUID, in UpdateJobInput, now time.Time) error {
	fields := in.fields()
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = now
	if err := tx.Model(&models.Job{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// SetStatus writes the new status and stamps started/completed times.
func (r *JobRepository) SetStatus(tx *gorm.DB, job *models.Job, status string, now time.Time) error {
	fields := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	if status == models.JobStatusInProgress && job.StartedAt == nil {
		fields["started_at"] = now
		job.StartedAt = &now
	}
	if status == models.JobStatusCompleted {
		fields["completed_at"] = now
		job.CompletedAt = &now
	}
	if err := tx.Model(&models.Job{}).Where("id = ?", job.ID).Updates(fields).Error; err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	job.Status = status
	job.UpdatedAt = now
	return nil
}

func (r *JobRepository) PackageExists(tx *gorm.DB, id uuid.UUID) (bool, error) {
	var n int64
	if err := tx.Model(&models.Package{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check package: %w", err)
	}
	return n > 0, nil
}

// LocationBelongsTo reports whether locationID is one of the customer's locations.
func (r *JobRepository) LocationBelongsTo(tx *gorm.DB, locationID, customerID uuid.UUID) (bool, error) {
	var n int64
	if err := tx.Model(&models.CustomerLocation{}).
		Where("id = ? AND customer_id = ?", locationID, customerID).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check location: %w", err)
	}
	return n > 0, nil
}

func (r *JobRepository) FindActiveEmployee(tx *gorm.DB, id uuid.UUID) (*models.Employee, error) {
	var emp models.Employee
	err := tx.Where("id = ? AND is_active = ?", id, true).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("employee").WithContext("employee_id", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	return &emp, nil
}

func (r *JobRepository) ActiveAssignmentExists(tx *gorm.DB, jobID, employeeID uuid.UUID, role string) (bool, error) {
	var n int64
	if err := tx.Model(&models.JobAssignment{}).
		Where("job_id = ? AND employee_id = ? AND role_type = ? AND assignment_status = ?",
			jobID, employeeID, role, models.AssignmentStatusActive).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return n > 0, nil
}

func (r *JobRepository) CreateAssignment(tx *gorm.DB, a *models.JobAssignment) error {
	if err := tx.Create(a).Error; err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (r *JobRepository) FindAssignment(tx *gorm.DB, jobID, assignmentID uuid.UUID) (*models.JobAssignment, error) {
	var a models.JobAssignment
	err := tx.Where("id = ? AND job_id = ?", assignmentID, jobID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("assignment").WithContext("assignment_id", assignmentID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	return &a, nil
}

func (r *JobRepository) CancelAssignment(tx *gorm.DB, a *models.JobAssignment, now time.Time) error {
	if err := tx.Model(a).Updates(map[string]interface{}{
		"assignment_status": models.AssignmentStatusCancelled,
		"cancelled_at":      now,
	}).Error; err != nil {
		return fmt.Errorf("cancel assignment: %w", err)
	}
	a.AssignmentStatus = models.AssignmentStatusCancelled
	a.CancelledAt = &now
	return nil
}

func (r *JobRepository) CreatePayment(tx *gorm.DB, p *models.JobPayment) error {
	if err := tx.Create(p).Error; err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *JobRepository) FindPayment(tx *gorm.DB, jobID, paymentID uuid.UUID) (*models.JobPayment, error) {
	var p models.JobPayment
	err := tx.Where("id = ? AND job_id = ?", paymentID, jobID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("payment").WithContext("payment_id", paymentID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	return &p, nil
}

func (r *JobRepository) UpdatePaymentStatus(tx *gorm.DB, p *models.JobPayment, status, transactionRef string, now time.Time) error {
	fields := map[string]interface{}{"status": status, "updated_at": now}
	if transactionRef != "" {
		fields["transaction_ref"] = transactionRef
		p.TransactionRef = transactionRef
	}
	if err := tx.Model(p).Updates(fields).Error; err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	p.Status = status
	p.UpdatedAt = now
	return nil
}

func (r *JobRepository) AddJobLocation(tx *gorm.DB, l *models.JobLocation) error {
	if err := tx.Create(l).Error; err != nil {
		return fmt.Errorf("insert job location: %w", err)
	}
	return nil
}

func (r *JobRepository) ListPayments(db *gorm.DB, jobID uuid.UUID) ([]models.JobPayment, error) {
	var out []models.JobPayment
	if err := db.Where("job_id = ?", jobID).Order("payment_date DESC, created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

func (r *JobRepository) ListAssignments(db *gorm.DB, jobID uuid.UUID) ([]models.JobAssignment, error) {
	var out []models.JobAssignment
	if err := db.Where("job_id = ?", jobID).Order("assigned_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return out, nil
}

func (r *JobRepository) viewQuery(db *gorm.DB) *gorm.DB {
	return db.Table("jobs").
		Select(`jobs.*,
			packages.name AS package_name,
			customers.customer_code AS customer_code,
			customers.name AS customer_name,
			customers.mobile AS customer_mobile,
			customer_locations.address_line1 AS location_address,
			customer_locations.city AS location_city,
			customer_locations.state AS location_state,
			employees.name AS created_by_name,
			(SELECT t.new_status FROM job_status_trackings t WHERE t.job_id = jobs.id ORDER BY t.sequence DESC LIMIT 1) AS latest_status,
			COALESCE((SELECT SUM(p.total_amount) FROM job_payments p WHERE p.job_id = jobs.id AND p.status = ?), 0) AS total_paid,
			(SELECT COUNT(*) FROM job_assignments a WHERE a.job_id = jobs.id AND a.assignment_status = ?) AS active_assignments`,
			models.PaymentStatusCompleted, models.AssignmentStatusActive).
		Joins("JOIN customers ON customers.id = jobs.customer_id").
		Joins("LEFT JOIN packages ON packages.id = jobs.package_id").
		Joins("LEFT JOIN customer_locations ON customer_locations.id = jobs.location_id").
		Joins("LEFT JOIN employees ON employees.id = jobs.created_by")
}

// GetJobByID returns the composed view of one job.
func (r *JobRepository) GetJobByID(db *gorm.DB, id uuid.UUID) (*JobView, error) {
	var rows []jobRow
	if err := r.viewQuery(db).Where("jobs.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load job view: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("job").WithContext("job_id", id.String())
	}
	v := rows[0].view()
	return &v, nil
}

// GetAllJobs lists job views newest first.
func (r *JobRepository) GetAllJobs(db *gorm.DB, f JobFilter) ([]JobView, error) {
	q := r.viewQuery(db)
	if f.Status != "" {
		q = q.Where("jobs.status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("jobs.priority = ?", f.Priority)
	}
	if f.ServiceType != "" {
		q = q.Where("jobs.service_type = ?", f.ServiceType)
	}
	if f.CustomerID != nil {
		q = q.Where("jobs.customer_id = ?", *f.CustomerID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultJobListLimit
	}

	var rows []jobRow
	if err := q.Order("jobs.created_at DESC, jobs.job_code DESC").
		Limit(limit).Offset(f.Offset).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	views := make([]JobView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, nil
}

// GetJobsWithDetails lists jobs with their children. Children are fetched once
// per collection for the whole page and grouped in memory.
func (r *JobRepository) GetJobsWithDetails(ctx context.Context, db *gorm.DB, f JobFilter) ([]JobDetails, error) {
	views, err := r.GetAllJobs(db.WithContext(ctx), f)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}

	var (
		histories   map[uuid.UUID][]models.JobStatusTracking
		payments    = make(map[uuid.UUID][]models.JobPayment)
		assignments = make(map[uuid.UUID][]models.JobAssignment)
		locations   = make(map[uuid.UUID][]models.JobLocation)
	)

	if len(ids) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			histories, err = r.tracker.HistoryForJobs(db.WithContext(gctx), ids)
			return err
		})
		g.Go(func() error {
			var rows []models.JobPayment
			if err := db.WithContext(gctx).Where("job_id IN ?", ids).
				Order("payment_date DESC, created_at DESC").Find(&rows).Error; err != nil {
				return fmt.Errorf("batch payments: %w", err)
			}
			for _, p := range rows {
				payments[p.JobID] = append(payments[p.JobID], p)
			}
			return nil
		})
		g.Go(func() error {
			var rows []models.JobAssignment
			if err := db.WithContext(gctx).Where("job_id IN ?", ids).
				Order("assigned_at").Find(&rows).Error; err != nil {
				return fmt.Errorf("batch assignments: %w", err)
			}
			for _, a := range rows {
				assignments[a.JobID] = append(assignments[a.JobID], a)
			}
			return nil
		})
		g.Go(func() error {
			var rows []models.JobLocation
			if err := db.WithContext(gctx).Where("job_id IN ?", ids).
				Order("created_at").Find(&rows).Error; err != nil {
				return fmt.Errorf("batch job locations: %w", err)
			}
			for _, l := range rows {
				locations[l.JobID] = append(locations[l.JobID], l)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]JobDetails, 0, len(views))
	for _, v := range views {
		out = append(out, JobDetails{
			JobView:             v,
			StatusHistory:       nonNil(histories[v.ID]),
			Payments:            nonNil(payments[v.ID]),
			Assignments:         nonNil(assignments[v.ID]),
			AdditionalLocations: nonNil(locations[v.ID]),
		})
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// StatusCount is the number of jobs in one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Overview is the dashboard summary.
type Overview struct {
	TotalJobs          int64           `json:"total_jobs"`
	OpenJobs           int64           `json:"open_jobs"`
	ByStatus           []StatusCount   `json:"by_status"`
	ScheduledToday     int64           `json:"scheduled_today"`
	CollectedThisMonth decimal.Decimal `json:"collected_this_month"`
	PendingPayments    decimal.Decimal `json:"pending_payments"`
	TotalCustomers     int64           `json:"total_customers"`
	RecentJobs         []JobView       `json:"recent_jobs"`
}

func (r *JobRepository) Overview(db *gorm.DB, now time.Time) (*Overview, error) {
	o := &Overview{}

	if err := db.Model(&models.Job{}).
		Select("status, COUNT(*) AS count").
		Group("status").Order("status").
		Scan(&o.ByStatus).Error; err != nil {
		return nil, fmt.Errorf("count jobs by status: %w", err)
	}
	for _, s := range o.ByStatus {
		o.TotalJobs += s.Count
		if !IsTerminalStatus(s.Status) {
			o.OpenJobs += s.Count
		}
	}

	dayStart := utils.BeginningOfDay(now.UTC())
	if err := db.Model(&models.Job{}).
		Where("scheduled_date >= ? AND scheduled_date < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&o.ScheduledToday).Error; err != nil {
		return nil, fmt.Errorf("count scheduled jobs: %w", err)
	}

	monthStart, monthEnd := utils.MonthRange(now.UTC())
	var err error
	if o.CollectedThisMonth, err = sumPayments(db, models.PaymentStatusCompleted, &monthStart, &monthEnd); err != nil {
		return nil, err
	}
	if o.PendingPayments, err = sumPayments(db, models.PaymentStatusPending, nil, nil); err != nil {
		return nil, err
	}

	if err := db.Model(&models.Customer{}).Count(&o.TotalCustomers).Error; err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	if o.RecentJobs, err = r.GetAllJobs(db, JobFilter{Limit: 5}); err != nil {
		return nil, err
	}
	return o, nil
}

func sumPayments(db *gorm.DB, status string, from, to *time.Time) (decimal.Decimal, error) {
	var out struct{ Total decimal.Decimal }
	q := db.Model(&models.JobPayment{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status = ?", status)
	if from != nil && to != nil {
		q = q.Where("payment_date >= ? AND payment_date < ?", *from, *to)
	}
	if err := q.Scan(&out).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum %s payments: %w", status, err)
	}
	return out.Total, nil
}

// GSTSummary totals completed payments and their tax components in [from, to).
type GSTSummary struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Payments     int64           `json:"payments"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGST         decimal.Decimal `json:"cgst"`
	SGST         decimal.Decimal `json:"sgst"`
	IGST         decimal.Decimal `json:"igst"`
	Total        decimal.Decimal `json:"total"`
}

func (r *JobRepository) GSTSummary(db *gorm.DB, from, to time.Time) (*GSTSummary, error) {
	var row struct {
		Payments     int64
		TaxableValue decimal.Decimal
		CGST         decimal.Decimal `gorm:"column:cgst"`
		SGST         decimal.Decimal `gorm:"column:sgst"`
		IGST         decimal.Decimal `gorm:"column:igst"`
		Total        decimal.Decimal
	}
	if err := db.Model(&models.JobPayment{}).
		Select(`COUNT(*) AS payments,
			COALESCE(SUM(amount), 0) AS taxable_value,
			COALESCE(SUM(cgst_value), 0) AS cgst,
			COALESCE(SUM(sgst_value), 0) AS sgst,
			COALESCE(SUM(igst_value), 0) AS igst,
			COALESCE(SUM(total_amount), 0) AS total`).
		Where("status = ? AND payment_date >= ? AND payment_date < ?", models.PaymentStatusCompleted, from, to).
		Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("gst summary: %w", err)
	}
	return &GSTSummary{
		From:         from,
		To:           to,
		Payments:     row.Payments,
		TaxableValue: row.TaxableValue,
		CGST:         row.CGST,
		SGST:         row.SGST,
		IGST:         row.IGST,
		Total:        row.Total,
	}, nil
}
