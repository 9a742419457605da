package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"solarops-backend/models"
	"solarops-backend/utils"
)

// CodeKind selects the table and prefix of a business code.
type CodeKind string

const (
	CodeKindJob      CodeKind = "job"
	CodeKindCustomer CodeKind = "customer"
)

// maxCodeScan bounds how far past the monthly count the generator looks for a
// free code when explicit codes have taken sequence slots.
const maxCodeScan = 50

type codeSpec struct {
	prefix string
	model  interface{}
	column string
}

var codeSpecs = map[CodeKind]codeSpec{
	CodeKindJob:      {prefix: "JOB", model: &models.Job{}, column: "job_code"},
	CodeKindCustomer: {prefix: "CUS", model: &models.Customer{}, column: "customer_code"},
}

// CodeGenerator produces <PREFIX><YY><MM><NNNN> codes numbered per calendar
// month. It must run on the transaction that inserts the coded row; two
// concurrent transactions can still pick the same code, and the unique index
// rejects the second one.
type CodeGenerator struct{}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{}
}

// Next returns the next free code of kind for the month containing now.
func (g *CodeGenerator) Next(tx *gorm.DB, kind CodeKind, now time.Time) (string, error) {
	spec, ok := codeSpecs[kind]
	if !ok {
		return "", fmt.Errorf("unknown code kind %q", kind)
	}

	now = now.UTC()
	start, end := utils.MonthRange(now)

	var count int64
	if err := tx.Model(spec.model).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error; err != nil {
		return "", fmt.Errorf("count %s codes: %w", kind, err)
	}

	for seq := count + 1; seq <= count+maxCodeScan; seq++ {
		code := FormatCode(spec.prefix, now, seq)
		taken, err := g.Exists(tx, kind, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free %s code within %d of sequence %d", kind, maxCodeScan, count+1)
}

// Exists reports whether code is already used by an entity of kind.
func (g *CodeGenerator) Exists(tx *gorm.DB, kind CodeKind, code string) (bool, error) {
	spec, ok := codeSpecs[kind]
	if !ok {
		return false, fmt.Errorf("unknown code kind %q", kind)
	}
	var n int64
	if err := tx.Model(spec.model).Where(spec.column+" = ?", code).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check %s code: %w", kind, err)
	}
	return n > 0, nil
}

// FormatCode renders prefix, two-digit year, two-digit month and a four-digit
// sequence, e.g. JOB26100001.
func FormatCode(prefix string, t time.Time, seq int64) string {
	return fmt.Sprintf("%s%02d%02d%04d", prefix, t.Year()%100, int(t.Month()), seq)
}
