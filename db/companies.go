// ABOUTME: Company database operations
// ABOUTME: Handles company CRUD, name lookups, and firmographic updates used in qualification
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
)

const companyColumns = `id, name, domain, industry, employee_count, funding_usd, created_at, updated_at`

func CreateCompany(db *sql.DB, company *models.Company) error {
	company.ID = uuid.New()
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO companies (`+companyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, company.ID.String(), company.Name, company.Domain, company.Industry,
		company.EmployeeCount, company.FundingUSD, company.CreatedAt, company.UpdatedAt)

	return err
}

func scanCompany(row interface{ Scan(...interface{}) error }) (*models.Company, error) {
	c := &models.Company{}
	var domain, industry sql.NullString
	err := row.Scan(&c.ID, &c.Name, &domain, &industry, &c.EmployeeCount, &c.FundingUSD, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Domain = domain.String
	c.Industry = industry.String
	return c, nil
}

func GetCompany(db *sql.DB, id uuid.UUID) (*models.Company, error) {
	company, err := scanCompany(db.QueryRow(`
		SELECT `+companyColumns+`
		FROM companies WHERE id = ?
	`, id.String()))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return company, err
}

// FindCompanyByName does a case-insensitive exact match.
func FindCompanyByName(db *sql.DB, name string) (*models.Company, error) {
	company, err := scanCompany(db.QueryRow(`
		SELECT `+companyColumns+`
		FROM companies WHERE LOWER(name) = ?
		LIMIT 1
	`, strings.ToLower(name)))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return company, err
}

func FindCompanies(db *sql.DB, query string, limit int) ([]models.Company, error) {
	if limit <= 0 {
		limit = 10
	}

	searchPattern := "%" + strings.ToLower(query) + "%"
	rows, err := db.Query(`
		SELECT `+companyColumns+`
		FROM companies
		WHERE LOWER(name) LIKE ? OR LOWER(domain) LIKE ?
		ORDER BY created_at DESC
		LIMIT ?
	`, searchPattern, searchPattern, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}

	return companies, rows.Err()
}

// UpdateCompanyFirmographics records headcount and funding.
func UpdateCompanyFirmographics(db *sql.DB, id uuid.UUID, employees int, fundingUSD int64) error {
	res, err := db.Exec(`
		UPDATE companies SET employee_count = ?, funding_usd = ?, updated_at = ?
		WHERE id = ?
	`, employees, fundingUSD, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("company not found: %s", id)
	}
	return nil
}
