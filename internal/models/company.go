package models

import "time"

// Industry is the closed set of industry categories. The rewards policy keys
// its benchmark table off this value.
type Industry string

const (
	IndustryTechnology    Industry = "TECHNOLOGY"
	IndustryManufacturing Industry = "MANUFACTURING"
	IndustryRetail        Industry = "RETAIL"
	IndustryHealthcare    Industry = "HEALTHCARE"
	IndustryEducation     Industry = "EDUCATION"
	IndustryHospitality   Industry = "HOSPITALITY"
	IndustryFinance       Industry = "FINANCE"
	IndustryLogistics     Industry = "LOGISTICS"
	IndustryFoodBeverage  Industry = "FOOD_BEVERAGE"
	IndustryConstruction  Industry = "CONSTRUCTION"
	IndustryEnergy        Industry = "ENERGY"
	IndustryAgriculture   Industry = "AGRICULTURE"
	IndustryOther         Industry = "OTHER"
)

// CompanySize buckets companies by headcount.
type CompanySize string

const (
	SizeSmall      CompanySize = "SMALL"      // 1-50
	SizeMedium     CompanySize = "MEDIUM"     // 51-250
	SizeLarge      CompanySize = "LARGE"      // 251-1000
	SizeEnterprise CompanySize = "ENTERPRISE" // 1000+
)

// Company is the tenant aggregate. GreenPoints caches the signed sum of the
// points ledger; TotalFootprint always reflects the most recent calculation,
// not a running total.
type Company struct {
	ID                  string      `db:"id" json:"id"`
	UserID              string      `db:"user_id" json:"-"`
	Name                string      `db:"name" json:"name"`
	Industry            Industry    `db:"industry" json:"industry"`
	Size                CompanySize `db:"size" json:"size"`
	Description         *string     `db:"description" json:"description,omitempty"`
	Website             *string     `db:"website" json:"website,omitempty"`
	Address             *string     `db:"address" json:"address,omitempty"`
	Phone               *string     `db:"phone" json:"phone,omitempty"`
	LogoURL             *string     `db:"logo_url" json:"logo_url,omitempty"`
	GreenPoints         int         `db:"green_points" json:"green_points"`
	TotalFootprint      float64     `db:"total_footprint" json:"total_footprint"`
	LastCalculationDate *time.Time  `db:"last_calculation_date" json:"last_calculation_date,omitempty"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// UpdateCompanyRequest carries the mutable profile fields; nil means leave
// unchanged.
type UpdateCompanyRequest struct {
	Name        *string      `json:"name" validate:"omitempty,min=1"`
	Industry    *Industry    `json:"industry" validate:"omitempty,oneof=TECHNOLOGY MANUFACTURING RETAIL HEALTHCARE EDUCATION HOSPITALITY FINANCE LOGISTICS FOOD_BEVERAGE CONSTRUCTION ENERGY AGRICULTURE OTHER"`
	Size        *CompanySize `json:"size" validate:"omitempty,oneof=SMALL MEDIUM LARGE ENTERPRISE"`
	Description *string      `json:"description"`
	Website     *string      `json:"website"`
	Address     *string      `json:"address"`
	Phone       *string      `json:"phone"`
	LogoURL     *string      `json:"logo_url"`
}

// RankingInfo is the my-ranking response payload.
type RankingInfo struct {
	Rank        int      `json:"rank"`
	CompanyID   string   `json:"company_id"`
	CompanyName string   `json:"company_name"`
	Industry    Industry `json:"industry"`
	GreenPoints int      `json:"green_points"`
}
