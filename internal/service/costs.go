package service

import (
	"fmt"
	"strconv"

	"github.com/certhub/certificates_api/internal/config"
	"github.com/certhub/certificates_api/internal/models"
	"github.com/certhub/certificates_api/internal/utils"
)

// ItemCostCalculation is the result of pricing a certificate item: one cost
// entry per certificate unit plus postage and the grand total. All money
// values are decimal-string whole-currency integers.
type ItemCostCalculation struct {
	ItemCosts     []models.ItemCost
	PostageCost   string
	TotalItemCost string
}

// CostCalculator prices certificate items from the load-once cost table.
type CostCalculator struct {
	costs config.CostsConfig
}

// NewCostCalculator constructs a CostCalculator.
func NewCostCalculator(costs config.CostsConfig) *CostCalculator {
	return &CostCalculator{costs: costs}
}

// Calculate prices quantity certificate units for the given delivery
// timescale. The first unit is full price; subsequent units receive the
// timescale's extra-copy discount. A fee-waived caller receives every unit
// free (discount equal to the full unit price). Postage is fixed at zero.
func (c *CostCalculator) Calculate(quantity int, timescale models.DeliveryTimescale, feeWaived bool) (*ItemCostCalculation, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1, got %d", utils.ErrInvalidArgument, quantity)
	}

	var unitCost, extraDiscount int
	switch timescale {
	case models.TimescaleStandard:
		unitCost = c.costs.StandardCost
		extraDiscount = c.costs.StandardDiscount
	case models.TimescaleSameDay:
		unitCost = c.costs.SameDayCost
		extraDiscount = c.costs.SameDayDiscount
	default:
		return nil, fmt.Errorf("%w: unknown delivery timescale %q", utils.ErrInvalidArgument, timescale)
	}

	calc := &ItemCostCalculation{
		ItemCosts:   make([]models.ItemCost, 0, quantity),
		PostageCost: "0",
	}

	total := 0
	for unit := 1; unit <= quantity; unit++ {
		discount := 0
		switch {
		case feeWaived:
			discount = unitCost
		case unit > 1:
			discount = extraDiscount
		}

		calculated := unitCost - discount
		total += calculated

		calc.ItemCosts = append(calc.ItemCosts, models.ItemCost{
			ItemCost:        strconv.Itoa(unitCost),
			DiscountApplied: strconv.Itoa(discount),
			CalculatedCost:  strconv.Itoa(calculated),
			ProductType:     productType(unit, timescale),
		})
	}

	// Postage is fixed at zero, so the total is the sum of calculated costs.
	calc.TotalItemCost = strconv.Itoa(total)
	return calc, nil
}

// productType tags each unit: the first unit carries the timescale's own
// product type, every further unit is an additional copy regardless of
// timescale.
func productType(unit int, timescale models.DeliveryTimescale) models.ProductType {
	if unit > 1 {
		return models.ProductTypeAdditionalCopy
	}
	if timescale == models.TimescaleSameDay {
		return models.ProductTypeCertificateSameDay
	}
	return models.ProductTypeCertificate
}
