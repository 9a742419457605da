package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"solarops-backend/apperrors"
	"solarops-backend/models"
	"solarops-backend/utils"
)

// NewCustomerInput carries inline customer attributes.
type NewCustomerInput struct {
	CustomerCode string
	Name         string
	Mobile       string
	Email        *string
	CustomerType string
	GSTIN        *string
}

// LocationInput carries inline service-address attributes.
type LocationInput struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	District     string
	State        string
	Pincode      string
	Latitude     *float64
	Longitude    *float64
	IsPrimary    bool
}

// CustomerRequest names the customer and location of a job either by id or
// inline. Exactly one of CustomerID and Customer must be set; at most one of
// LocationID and Location.
type CustomerRequest struct {
	CustomerID *uuid.UUID
	Customer   *NewCustomerInput
	LocationID *uuid.UUID
	Location   *LocationInput
}

// CustomerResolution is what the provisioner found or created.
type CustomerResolution struct {
	Customer           *models.Customer
	Location           *models.CustomerLocation
	NewCustomerCreated bool
	NewLocationCreated bool
}

// CustomerProvisioner resolves or creates the customer and location a job
// depends on. It works only on the transaction handed to it.
type CustomerProvisioner struct {
	codes *CodeGenerator
}

func NewCustomerProvisioner(codes *CodeGenerator) *CustomerProvisioner {
	return &CustomerProvisioner{codes: codes}
}

func (p *CustomerProvisioner) Resolve(tx *gorm.DB, req CustomerRequest, actor Actor, now time.Time) (*CustomerResolution, error) {
	if (req.CustomerID == nil) == (req.Customer == nil) {
		return nil, apperrors.Validation("provide either customer_id or customer details",
			apperrors.FieldError{Field: "customer_id", Message: "exactly one of customer_id or customer is required"})
	}
	if req.LocationID != nil && req.Location != nil {
		return nil, apperrors.Validation("provide either location_id or location details",
			apperrors.FieldError{Field: "location_id", Message: "cannot be combined with location"})
	}

	res := &CustomerResolution{}
	if req.CustomerID != nil {
		customer, err := p.loadCustomer(tx, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		res.Customer = customer
	} else {
		customer, err := p.createCustomer(tx, *req.Customer, actor, now)
		if err != nil {
			return nil, err
		}
		res.Customer = customer
		res.NewCustomerCreated = true
	}

	switch {
	case req.LocationID != nil:
		var loc models.CustomerLocation
		err := tx.Where("id = ? AND customer_id = ?", *req.LocationID, res.Customer.ID).First(&loc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("location").WithContext("location_id", req.LocationID.String())
		}
		if err != nil {
			return nil, fmt.Errorf("load location: %w", err)
		}
		res.Location = &loc
	case req.Location != nil:
		loc, err := p.insertLocation(tx, res.Customer.ID, *req.Location, now)
		if err != nil {
			return nil, err
		}
		res.Location = loc
		res.NewLocationCreated = true
	}

	return res, nil
}

// CreateCustomer provisions a customer (and optional first location) without a job.
func (p *CustomerProvisioner) CreateCustomer(tx *gorm.DB, in NewCustomerInput, loc *LocationInput, actor Actor, now time.Time) (*CustomerResolution, error) {
	return p.Resolve(tx, CustomerRequest{Customer: &in, Location: loc}, actor, now)
}

// AddLocation attaches a new location to an existing customer.
func (p *CustomerProvisioner) AddLocation(tx *gorm.DB, customerID uuid.UUID, in LocationInput, now time.Time) (*models.CustomerLocation, error) {
	if _, err := p.loadCustomer(tx, customerID); err != nil {
		return nil, err
	}
	return p.insertLocation(tx, customerID, in, now)
}

func (p *CustomerProvisioner) loadCustomer(tx *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := tx.First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("customer").WithContext("customer_id", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	return &customer, nil
}

func (p *CustomerProvisioner) createCustomer(tx *gorm.DB, in NewCustomerInput, actor Actor, now time.Time) (*models.Customer, error) {
	mobile := utils.NormalizeMobile(in.Mobile)
	if strings.TrimSpace(in.Name) == "" || mobile == "" {
		return nil, apperrors.Validation("customer name and mobile are required")
	}

	var existing models.Customer
	err := tx.Select("id").Where("mobile = ?", mobile).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("Customer with this mobile number already exists").
			WithContext("existing_customer_id", existing.ID.String())
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check mobile: %w", err)
	}

	email := normalizeEmail(in.Email)
	if email != nil {
		var byEmail models.Customer
		err := tx.Select("id").Where("email = ?", *email).First(&byEmail).Error
		if err == nil {
			return nil, apperrors.Conflict("Customer with this email already exists").
				WithContext("existing_customer_id", byEmail.ID.String())
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
	}

	code := strings.TrimSpace(in.CustomerCode)
	if code != "" {
		taken, err := p.codes.Exists(tx, CodeKindCustomer, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.Conflict("Customer code already exists").WithContext("customer_code", code)
		}
	} else {
		if code, err = p.codes.Next(tx, CodeKindCustomer, now); err != nil {
			return nil, err
		}
	}

	customerType := in.CustomerType
	if customerType == "" {
		customerType = models.CustomerTypeResidential
	}

	customer := &models.Customer{
		CustomerCode: code,
		Name:         strings.TrimSpace(in.Name),
		Mobile:       mobile,
		Email:        email,
		CustomerType: customerType,
		Status:       models.CustomerStatusActive,
		GSTIN:        in.GSTIN,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Create(customer).Error; err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return customer, nil
}

// insertLocation adds a location; a primary location (or the customer's first
// one) demotes the current primary row before insert.
func (p *CustomerProvisioner) insertLocation(tx *gorm.DB, customerID uuid.UUID, in LocationInput, now time.Time) (*models.CustomerLocation, error) {
	if strings.TrimSpace(in.AddressLine1) == "" {
		return nil, apperrors.Validation("location address is required",
			apperrors.FieldError{Field: "address_line1", Message: "is required"})
	}

	var existing int64
	if err := tx.Model(&models.CustomerLocation{}).Where("customer_id = ?", customerID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("count locations: %w", err)
	}
	primary := in.IsPrimary || existing == 0

	if primary && existing > 0 {
		if err := tx.Model(&models.CustomerLocation{}).
			Where("customer_id = ? AND is_primary = ?", customerID, true).
			Update("is_primary", false).Error; err != nil {
			return nil, fmt.Errorf("demote primary location: %w", err)
		}
	}

	loc := &models.CustomerLocation{
		CustomerID:   customerID,
		AddressLine1: strings.TrimSpace(in.AddressLine1),
		AddressLine2: in.AddressLine2,
		City:         in.City,
		District:     in.District,
		State:        in.State,
		Pincode:      in.Pincode,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		IsPrimary:    primary,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Create(loc).Error; err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}
	return loc, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}

// CustomerFilter narrows customer listings; Search matches name, mobile or code.
type CustomerFilter struct {
	Search string
	Status string
	Limit  int
	Offset int
}

// FindCustomer loads a customer with its locations, primary first.
func (p *CustomerProvisioner) FindCustomer(db *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := db.Preload("Locations", func(q *gorm.DB) *gorm.DB {
		return q.Order("is_primary DESC, created_at")
	}).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("customer").WithContext("customer_id", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	return &customer, nil
}

func (p *CustomerProvisioner) ListCustomers(db *gorm.DB, f CustomerFilter) ([]models.Customer, error) {
	q := db.Model(&models.Customer{})
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR mobile LIKE ? OR LOWER(customer_code) LIKE ?", like, like, like)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultJobListLimit
	}
	var out []models.Customer
	if err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}
