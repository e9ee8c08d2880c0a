package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places stored for rates and costs.
const MoneyScale = 2

// MaxPricingRate is the exclusive upper bound of a slot's hourly rate,
// matching the NUMERIC(12,2) column.
var MaxPricingRate = decimal.New(1, 10)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusReserved  SlotStatus = "reserved"
)

// Valid reports whether s is one of the two statuses a slot may hold.
func (s SlotStatus) Valid() bool {
	return s == SlotStatusAvailable || s == SlotStatusReserved
}

// Slot is a reservable parking space priced per hour.
type Slot struct {
	ID          string
	Name        string
	Zone        string
	PricingRate decimal.Decimal
	Status      SlotStatus
}

// Validate checks the fields a store requires before creating a slot.
func (s Slot) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrSlotNameRequired
	}
	if strings.TrimSpace(s.Zone) == "" {
		return ErrZoneRequired
	}
	if s.PricingRate.IsNegative() {
		return ErrInvalidPricingRate
	}
	if !s.PricingRate.Equal(s.PricingRate.Round(MoneyScale)) {
		return ErrPricingRateScale
	}
	if s.PricingRate.GreaterThanOrEqual(MaxPricingRate) {
		return ErrPricingRateTooHigh
	}
	if s.Status != "" && !s.Status.Valid() {
		return ErrInvalidSlotStatus
	}
	return nil
}
