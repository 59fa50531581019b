package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Activity category keys. These are the canonical breakdown and input-snapshot
// keys persisted with every footprint record.
const (
	CategoryElectricity        = "electricity"
	CategoryFuelPetrol         = "fuel_petrol"
	CategoryFuelDiesel         = "fuel_diesel"
	CategoryTransportCarPetrol = "transport_car_petrol"
	CategoryTransportCarDiesel = "transport_car_diesel"
	CategoryTransportTruck     = "transport_truck"
	CategoryWasteLandfill      = "waste_landfill"
	CategoryWasteRecycled      = "waste_recycled"
	CategoryWater              = "water"
	CategoryPaper              = "paper"
)

// ActivityInput is one reporting period's raw activity quantities. A nil
// field means "not applicable this period", which is distinct from zero.
type ActivityInput struct {
	Electricity        *float64 `json:"electricity" validate:"omitempty,gte=0"`          // kWh
	FuelPetrol         *float64 `json:"fuel_petrol" validate:"omitempty,gte=0"`          // litres
	FuelDiesel         *float64 `json:"fuel_diesel" validate:"omitempty,gte=0"`          // litres
	TransportCarPetrol *float64 `json:"transport_car_petrol" validate:"omitempty,gte=0"` // km
	TransportCarDiesel *float64 `json:"transport_car_diesel" validate:"omitempty,gte=0"` // km
	TransportTruck     *float64 `json:"transport_truck" validate:"omitempty,gte=0"`      // km
	WasteLandfill      *float64 `json:"waste_landfill" validate:"omitempty,gte=0"`       // kg
	WasteRecycled      *float64 `json:"waste_recycled" validate:"omitempty,gte=0"`       // kg
	Water              *float64 `json:"water" validate:"omitempty,gte=0"`                // m3
	Paper              *float64 `json:"paper" validate:"omitempty,gte=0"`                // kg
	CalculationPeriod  string   `json:"calculation_period" validate:"required"`
}

// EmissionBreakdown maps a category key to kg CO2 (or, for input snapshots,
// to the raw submitted quantity). Persisted as JSONB.
type EmissionBreakdown map[string]float64

// Value marshals the breakdown for persistence.
func (b EmissionBreakdown) Value() (driver.Value, error) {
	if b == nil {
		b = EmissionBreakdown{}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal emission breakdown: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSONB payloads into the map.
func (b *EmissionBreakdown) Scan(value interface{}) error {
	if value == nil {
		*b = EmissionBreakdown{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for EmissionBreakdown", value)
	}
	if len(data) == 0 {
		*b = EmissionBreakdown{}
		return nil
	}
	if err := json.Unmarshal(data, b); err != nil {
		return fmt.Errorf("unmarshal emission breakdown: %w", err)
	}
	return nil
}

// FootprintRecord is an immutable, append-only footprint ledger entry. Rows
// are created once per calculation and never updated.
type FootprintRecord struct {
	ID                string            `db:"id" json:"id"`
	CompanyID         string            `db:"company_id" json:"-"`
	TotalEmissions    float64           `db:"total_emissions" json:"total_emissions"`
	Scope1Emissions   float64           `db:"scope1_emissions" json:"scope1_emissions"`
	Scope2Emissions   float64           `db:"scope2_emissions" json:"scope2_emissions"`
	Scope3Emissions   float64           `db:"scope3_emissions" json:"scope3_emissions"`
	CalculationPeriod string            `db:"calculation_period" json:"calculation_period"`
	Breakdown         EmissionBreakdown `db:"breakdown" json:"breakdown"`
	Inputs            EmissionBreakdown `db:"inputs" json:"inputs"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
}

// CalculationResult is the calculate endpoint response.
type CalculationResult struct {
	ID                string            `json:"id"`
	TotalEmissions    float64           `json:"total_emissions"`
	Scope1Emissions   float64           `json:"scope1_emissions"`
	Scope2Emissions   float64           `json:"scope2_emissions"`
	Scope3Emissions   float64           `json:"scope3_emissions"`
	Breakdown         EmissionBreakdown `json:"breakdown"`
	CalculationPeriod string            `json:"calculation_period"`
	PointsAwarded     int               `json:"points_awarded"`
	CreatedAt         time.Time         `json:"created_at"`
}
