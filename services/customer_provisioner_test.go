package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"solarops-backend/apperrors"
	"solarops-backend/models"
)

func TestCustomerProvisioner_CreateCustomer(t *testing.T) {
	f := newFixture(t)

	res, err := f.workflow.CreateCustomer(ctxT(t), NewCustomerInput{
		Name:         "  Harsh Traders ",
		Mobile:       "0 98980 11111",
		Email:        ptr("Accounts@Harsh.in"),
		CustomerType: models.CustomerTypeCommercial,
		GSTIN:        ptr("24ABCDE1234F1Z5"),
	}, nil, f.actor)
	require.NoError(t, err)

	c := res.Customer
	assert.True(t, res.NewCustomerCreated)
	assert.False(t, res.NewLocationCreated)
	assert.Nil(t, res.Location)
	assert.Equal(t, "Harsh Traders", c.Name)
	assert.Equal(t, "9898011111", c.Mobile)
	assert.Equal(t, "accounts@harsh.in", *c.Email)
	assert.Equal(t, models.CustomerTypeCommercial, c.CustomerType)
	assert.Equal(t, models.CustomerStatusActive, c.Status)
	assert.Equal(t, "CUS26100001", c.CustomerCode)
}

func TestCustomerProvisioner_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := ctxT(t)
	existing, err := f.workflow.CreateCustomer(ctx, NewCustomerInput{
		CustomerCode: "VIP-1",
		Name:         "First",
		Mobile:       "9876543210",
		Email:        ptr("first@example.com"),
	}, nil, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "VIP-1", existing.Customer.CustomerCode)

	tests := []struct {
		name string
		in   NewCustomerInput
	}{
		{name: "same mobile", in: NewCustomerInput{Name: "Second", Mobile: "+919876543210"}},
		{name: "same email", in: NewCustomerInput{Name: "Second", Mobile: "9000000002", Email: ptr("FIRST@example.com")}},
		{name: "same code", in: NewCustomerInput{CustomerCode: "VIP-1", Name: "Second", Mobile: "9000000003"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.workflow.CreateCustomer(ctx, tt.in, nil, f.actor)
			requireErrType(t, err, apperrors.ErrTypeConflict)
		})
	}

	// customers without email never collide on it
	_, err = f.workflow.CreateCustomer(ctx, NewCustomerInput{Name: "No Mail A", Mobile: "9000000004"}, nil, f.actor)
	require.NoError(t, err)
	_, err = f.workflow.CreateCustomer(ctx, NewCustomerInput{Name: "No Mail B", Mobile: "9000000005", Email: ptr("  ")}, nil, f.actor)
	require.NoError(t, err)

	assert.EqualValues(t, 3, f.count(t, &models.Customer{}))
}

func TestCustomerProvisioner_PrimaryLocationDemotion(t *testing.T) {
	f := newFixture(t)
	ctx := ctxT(t)
	cust := f.createCustomer(t, "9876543210")
	require.True(t, cust.Location.IsPrimary)

	second, err := f.workflow.AddCustomerLocation(ctx, cust.Customer.ID, LocationInput{AddressLine1: "Farmhouse", State: "Gujarat"}, f.actor)
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)

	third, err := f.workflow.AddCustomerLocation(ctx, cust.Customer.ID, LocationInput{AddressLine1: "New Office", IsPrimary: true}, f.actor)
	require.NoError(t, err)
	assert.True(t, third.IsPrimary)

	var primaries []models.CustomerLocation
	require.NoError(t, f.db.Where("customer_id = ? AND is_primary = ?", cust.Customer.ID, true).Find(&primaries).Error)
	require.Len(t, primaries, 1)
	assert.Equal(t, third.ID, primaries[0].ID)

	loaded, err := f.workflow.GetCustomer(ctx, cust.Customer.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Locations, 3)
	assert.Equal(t, third.ID, loaded.Locations[0].ID, "primary listed first")

	_, err = f.workflow.AddCustomerLocation(ctx, newID(), LocationInput{AddressLine1: "Nowhere"}, f.actor)
	requireErrType(t, err, apperrors.ErrTypeNotFound)
	_, err = f.workflow.AddCustomerLocation(ctx, cust.Customer.ID, LocationInput{}, f.actor)
	requireErrType(t, err, apperrors.ErrTypeValidation)
}

func TestCustomerProvisioner_ResolveUsesOnlyTheGivenTransaction(t *testing.T) {
	f := newFixture(t)
	p := NewCustomerProvisioner(NewCodeGenerator())

	err := f.db.Transaction(func(tx *gorm.DB) error {
		res, err := p.Resolve(tx, CustomerRequest{
			Customer: &NewCustomerInput{Name: "Temp", Mobile: "9111111111"},
			Location: &LocationInput{AddressLine1: "Temp Road"},
		}, *f.actor, f.clock.Now())
		require.NoError(t, err)
		assert.True(t, res.NewCustomerCreated)
		assert.True(t, res.NewLocationCreated)
		return apperrors.Validation("abort")
	})
	require.Error(t, err)
	assert.EqualValues(t, 0, f.count(t, &models.Customer{}))
	assert.EqualValues(t, 0, f.count(t, &models.CustomerLocation{}))
}

func TestListCustomers(t *testing.T) {
	f := newFixture(t)
	ctx := ctxT(t)
	f.createCustomer(t, "9876543210")
	f.createCustomer(t, "9123456789")

	all, err := f.workflow.ListCustomers(ctx, CustomerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.workflow.ListCustomers(ctx, CustomerFilter{Search: "91234"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "9123456789", found[0].Mobile)

	byCode, err := f.workflow.ListCustomers(ctx, CustomerFilter{Search: "cus26100001"})
	require.NoError(t, err)
	assert.Len(t, byCode, 1)

	_, err = f.workflow.GetCustomer(ctx, newID())
	requireErrType(t, err, apperrors.ErrTypeNotFound)
}
