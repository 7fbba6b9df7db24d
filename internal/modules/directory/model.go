// Package directory is the user/profile side of the marketplace: driver
// capability records, customers and their vehicles.
package directory

import (
	"twende/internal/types"
)

type Transmission string

const (
	// TransmissionAuto means the driver handles automatic gearboxes only.
	TransmissionAuto Transmission = "AUTO"
	// TransmissionBoth means the driver handles manual and automatic.
	TransmissionBoth Transmission = "BOTH"
	// TransmissionManual is a vehicle gearbox type, never a driver capability.
	TransmissionManual Transmission = "MANUAL"
)

type DriverStatus string

const (
	StatusOffline   DriverStatus = "OFFLINE"
	StatusAvailable DriverStatus = "AVAILABLE"
	StatusBusy      DriverStatus = "BUSY"
)

// LicenseCategory is the ordinal capability tier for drivers and vehicles.
type LicenseCategory string

const (
	CategoryA LicenseCategory = "A" // motorcycles
	CategoryB LicenseCategory = "B" // standard cars
	CategoryC LicenseCategory = "C" // trucks
	CategoryD LicenseCategory = "D" // buses
	CategoryE LicenseCategory = "E" // heavy trailers
	CategoryF LicenseCategory = "F" // special machinery
)

var categoryScores = map[LicenseCategory]int{
	CategoryA: 5,
	CategoryB: 10,
	CategoryC: 20,
	CategoryD: 30,
	CategoryE: 40,
	CategoryF: 100,
}

// CategoryScore maps a license/vehicle category to its numeric capability
// score. Both driver license scores and vehicle requirements derive from this
// one table; neither is ever set directly.
func CategoryScore(cat LicenseCategory) int {
	return categoryScores[cat]
}

// Driver is a driver profile with the capability attributes the matching
// engine filters on.
type Driver struct {
	ID              types.ID        `json:"id"`
	Name            string          `json:"name"`
	LicenseCategory LicenseCategory `json:"license_category"`
	LicenseScore    int             `json:"license_score"`
	Transmission    Transmission    `json:"transmission_capability"`
	Status          DriverStatus    `json:"current_status"`
	IsVerified      bool            `json:"is_verified"`
	Rating          float64         `json:"average_rating"`
	Location        *types.Point    `json:"location,omitempty"`
}

// Customer is the minimal customer record the core needs.
type Customer struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

// Vehicle belongs to a customer; its category decides which drivers qualify.
type Vehicle struct {
	ID                   types.ID        `json:"id"`
	CustomerID           types.ID        `json:"customer_id"`
	Name                 string          `json:"name"`
	PlateNumber          string          `json:"plate_number,omitempty"`
	Transmission         Transmission    `json:"transmission_type"`
	Category             LicenseCategory `json:"vehicle_category"`
	RequiredLicenseScore int             `json:"required_license_score"`
}
