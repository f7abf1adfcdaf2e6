// Package pricing is the order arithmetic: subtotal over captured unit
// prices, French VAT, optional service charge. Every step rounds to cents so
// the stored monetary fields reconstruct exactly.
package pricing

import (
	"math"

	"urban-bites/internal/domain/models"
)

const VATRate = 0.20

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Subtotal(items []models.CartItem) float64 {
	sum := 0.0
	for _, item := range items {
		sum += item.MenuItem.Price * float64(item.Quantity)
	}
	return round2(sum)
}

func Tax(subtotal float64) float64 {
	return round2(subtotal * VATRate)
}

func ServiceCharge(subtotal, percentage float64) float64 {
	if percentage == 0 {
		return 0
	}
	return round2(subtotal * (percentage / 100))
}

func Total(subtotal, tax, serviceCharge float64) float64 {
	return round2(subtotal + tax + serviceCharge)
}

func Summary(items []models.CartItem, serviceChargePct float64) models.OrderSummary {
	subtotal := Subtotal(items)
	tax := Tax(subtotal)
	charge := ServiceCharge(subtotal, serviceChargePct)
	return models.OrderSummary{
		Subtotal:      subtotal,
		Tax:           tax,
		ServiceCharge: charge,
		Total:         Total(subtotal, tax, charge),
	}
}
