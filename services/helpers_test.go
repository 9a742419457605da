package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"solarops-backend/config"
	"solarops-backend/models"
)

// newTestDB opens a private in-memory database limited to one connection, so
// a transaction that is never released blocks the next query instead of
// passing unnoticed.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), config.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func sqlDBOf(t *testing.T, db *gorm.DB) *sql.DB {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	return sqlDB
}

func requireNoConnInUse(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.Equal(t, 0, sqlDBOf(t, db).Stats().InUse, "connection left checked out")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// testClock starts at a fixed instant and advances one second per reading.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	db       *gorm.DB
	workflow *JobWorkflow
	clock    *testClock
	actor    *Actor
	employee models.Employee
	helper   models.Employee
	pkg      models.Package
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clock := newTestClock()

	f := &fixture{
		db:    db,
		clock: clock,
		workflow: NewJobWorkflow(db, discardLogger(), WorkflowOptions{
			HomeState:     "Gujarat",
			RetryAttempts: 3,
			Now:           clock.Now,
		}),
		employee: models.Employee{Name: "Ravi Patel", Email: "ravi@example.com", Role: "technician", IsActive: true},
		helper:   models.Employee{Name: "Meena Shah", Email: "meena@example.com", Role: "technician", IsActive: true},
		pkg:      models.Package{Name: "5kW Rooftop", CapacityKW: d("5"), Price: d("275000"), IsActive: true},
	}
	manager := models.Employee{Name: "Anil Mehta", Email: "anil@example.com", Role: "manager", IsActive: true}
	require.NoError(t, db.Create(&manager).Error)
	require.NoError(t, db.Create(&f.employee).Error)
	require.NoError(t, db.Create(&f.helper).Error)
	require.NoError(t, db.Create(&f.pkg).Error)
	f.actor = &Actor{ID: manager.ID, Roles: []string{"manager"}}
	return f
}

func (f *fixture) createCustomer(t *testing.T, mobile string) *CustomerResolution {
	t.Helper()
	res, err := f.workflow.CreateCustomer(ctxT(t), NewCustomerInput{
		Name:   "Customer " + mobile,
		Mobile: mobile,
	}, &LocationInput{AddressLine1: "12 Solar Street", City: "Ahmedabad", State: "Gujarat", Pincode: "380001"}, f.actor)
	require.NoError(t, err)
	return res
}

func (f *fixture) createJob(t *testing.T, customer *CustomerResolution) *CreateJobResult {
	t.Helper()
	locID := customer.Location.ID
	res, err := f.workflow.CreateJob(ctxT(t), CreateJobInput{
		Customer:      CustomerRequest{CustomerID: &customer.Customer.ID, LocationID: &locID},
		PackageID:     &f.pkg.ID,
		ServiceType:   "Installation",
		EstimatedCost: d("100000"),
	}, f.actor)
	require.NoError(t, err)
	return res
}

func (f *fixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func ctxT(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func ptr[T any](v T) *T {
	return &v
}

func newID() uuid.UUID {
	return uuid.New()
}
