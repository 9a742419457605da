package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table this service owns, parents first.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Employee{},
		&Package{},
		&Customer{},
		&CustomerLocation{},
		&Job{},
		&JobLocation{},
		&JobAssignment{},
		&JobStatusTracking{},
		&JobPayment{},
	)
}
