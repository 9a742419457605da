package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"solarops-backend/apperrors"
	"solarops-backend/models"
	"solarops-backend/utils"
)

func TestStatusTracker_SequencePerJob(t *testing.T) {
	f := newFixture(t)
	cust := f.createCustomer(t, "9876543210")
	a := f.createJob(t, cust).Job
	b := f.createJob(t, cust).Job
	tracker := NewStatusTracker()

	err := f.db.Transaction(func(tx *gorm.DB) error {
		prev := models.JobStatusCreated
		row, err := tracker.CreateTracking(tx, TrackingEntry{JobID: a.ID, PreviousStatus: &prev, NewStatus: models.JobStatusOnHold})
		require.NoError(t, err)
		assert.Equal(t, 2, row.Sequence)
		assert.True(t, row.SystemGenerated)
		assert.False(t, row.CreatedAt.IsZero())
		return nil
	})
	require.NoError(t, err)

	latestA, err := tracker.Latest(f.db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOnHold, latestA.NewStatus)

	latestB, err := tracker.Latest(f.db, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, latestB.Sequence)

	grouped, err := tracker.HistoryForJobs(f.db, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, grouped[a.ID], 2)
	assert.Len(t, grouped[b.ID], 1)
	assert.Equal(t, 2, grouped[a.ID][0].Sequence)

	empty, err := tracker.HistoryForJobs(f.db, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := ctxT(t)
	cust := f.createCustomer(t, "9876543210")
	first := f.createJob(t, cust).Job
	second := f.createJob(t, cust).Job

	today := f.clock.Now()
	_, err := f.workflow.UpdateJob(ctx, first.ID, UpdateJobInput{ScheduledDate: utils.Some(today)}, f.actor)
	require.NoError(t, err)
	_, err = f.workflow.UpdateJobStatus(ctx, second.ID, models.JobStatusCancelled, "", "", f.actor)
	require.NoError(t, err)

	_, err = f.workflow.CreateJobPayment(ctx, CreatePaymentInput{JobID: first.ID, PaymentType: models.PaymentTypeAdvance, Amount: d("1000")}, f.actor)
	require.NoError(t, err)
	_, err = f.workflow.CreateJobPayment(ctx, CreatePaymentInput{JobID: first.ID, PaymentType: models.PaymentTypeMilestone, Amount: d("400"), Status: models.PaymentStatusPending}, f.actor)
	require.NoError(t, err)
	lastMonth := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	_, err = f.workflow.CreateJobPayment(ctx, CreatePaymentInput{JobID: first.ID, PaymentType: models.PaymentTypeMilestone, Amount: d("700"), PaymentDate: &lastMonth}, f.actor)
	require.NoError(t, err)

	o, err := f.workflow.Overview(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, o.TotalJobs)
	assert.EqualValues(t, 1, o.OpenJobs)
	assert.EqualValues(t, 1, o.ScheduledToday)
	assert.EqualValues(t, 1, o.TotalCustomers)
	assert.True(t, o.CollectedThisMonth.Equal(d("1000")), o.CollectedThisMonth.String())
	assert.True(t, o.PendingPayments.Equal(d("400")), o.PendingPayments.String())
	assert.Len(t, o.RecentJobs, 2)

	counts := map[string]int64{}
	for _, s := range o.ByStatus {
		counts[s.Status] = s.Count
	}
	assert.Equal(t, map[string]int64{models.JobStatusCreated: 1, models.JobStatusCancelled: 1}, counts)
}

func TestGSTSummary(t *testing.T) {
	f := newFixture(t)
	ctx := ctxT(t)
	job := f.createJob(t, f.createCustomer(t, "9876543210")).Job

	for _, p := range []CreatePaymentInput{
		{JobID: job.ID, PaymentType: models.PaymentTypeAdvance, Amount: d("10000"), GSTRate: ptr(d("18"))},
		{JobID: job.ID, PaymentType: models.PaymentTypeMilestone, Amount: d("5000"), GSTRate: ptr(d("12")), BillingState: "Rajasthan"},
		{JobID: job.ID, PaymentType: models.PaymentTypeFinal, Amount: d("2000"), GSTRate: ptr(d("18")), Status: models.PaymentStatusFailed},
	} {
		_, err := f.workflow.CreateJobPayment(ctx, p, f.actor)
		require.NoError(t, err)
	}

	from := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	s, err := f.workflow.GSTSummary(ctx, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 2, s.Payments)
	assert.True(t, s.TaxableValue.Equal(d("15000")), s.TaxableValue.String())
	assert.True(t, s.CGST.Equal(d("900")), s.CGST.String())
	assert.True(t, s.SGST.Equal(d("900")))
	assert.True(t, s.IGST.Equal(d("600")))
	assert.True(t, s.Total.Equal(d("17400")))

	prev, err := f.workflow.GSTSummary(ctx, from.AddDate(0, -1, 0), from)
	require.NoError(t, err)
	assert.EqualValues(t, 0, prev.Payments)
	assert.True(t, prev.Total.IsZero())

	_, err = f.workflow.GSTSummary(ctx, from, from)
	requireErrType(t, err, apperrors.ErrTypeValidation)
}
