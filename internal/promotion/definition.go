package promotion

import (
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/toko-promo/internal/pricing"
)

// Rule record types.
const (
	TypeQuantityBased = "QUANTITY_BASED"
	TypeTotalBased    = "TOTAL_BASED"
)

// ErrInvalidRule is returned when a definition cannot be turned into a pricing rule.
var ErrInvalidRule = errors.New("invalid promotion rule")

// Definition is a persisted promotion rule record.
type Definition struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	ProductID      *string   `json:"productId,omitempty"`
	MinQuantity    *int      `json:"minQuantity,omitempty"`
	MinTotalAmount *int64    `json:"minTotalAmount,omitempty"`
	DiscountValue  int64     `json:"discountValue"`
	BundlePrice    *int64    `json:"bundlePrice,omitempty"`
	IsActive       bool      `json:"isActive"`
	Priority       int       `json:"priority"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Input is the create/update payload.
type Input struct {
	Name           string  `json:"name" validate:"required"`
	Type           string  `json:"type" validate:"required,oneof=QUANTITY_BASED TOTAL_BASED"`
	ProductID      *string `json:"productId" validate:"required_if=Type QUANTITY_BASED,omitempty,min=1"`
	MinQuantity    *int    `json:"minQuantity" validate:"required_if=Type QUANTITY_BASED,omitempty,gte=1"`
	BundlePrice    *int64  `json:"bundlePrice" validate:"required_if=Type QUANTITY_BASED,omitempty,gte=0"`
	MinTotalAmount *int64  `json:"minTotalAmount" validate:"required_if=Type TOTAL_BASED,omitempty,gte=0"`
	DiscountValue  int64   `json:"discountValue" validate:"gte=0"`
	IsActive       *bool   `json:"isActive"`
	Priority       *int    `json:"priority"`
}

// definition applies defaults: active unless stated, priority 1 for item
// rules and 2 for cart rules.
func (in Input) definition() Definition {
	d := Definition{
		Name:           in.Name,
		Type:           in.Type,
		ProductID:      in.ProductID,
		MinQuantity:    in.MinQuantity,
		MinTotalAmount: in.MinTotalAmount,
		DiscountValue:  in.DiscountValue,
		BundlePrice:    in.BundlePrice,
		IsActive:       true,
		Priority:       1,
	}
	if in.Type == TypeTotalBased {
		d.Priority = 2
		d.ProductID, d.MinQuantity, d.BundlePrice = nil, nil, nil
	} else {
		d.MinTotalAmount = nil
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
	if in.Priority != nil {
		d.Priority = *in.Priority
	}
	return d
}

// ToRule converts the record into its pricing stage rule.
func (d Definition) ToRule() (pricing.Rule, error) {
	meta := pricing.RuleMeta{ID: d.ID, Name: d.Name, Priority: d.Priority}
	switch d.Type {
	case TypeQuantityBased:
		if d.ProductID == nil || d.MinQuantity == nil || d.BundlePrice == nil {
			return nil, fmt.Errorf("%w: %s needs productId, minQuantity and bundlePrice", ErrInvalidRule, d.ID)
		}
		return pricing.BundleRule{
			RuleMeta:    meta,
			ProductID:   *d.ProductID,
			Quantity:    *d.MinQuantity,
			BundlePrice: *d.BundlePrice,
		}, nil
	case TypeTotalBased:
		if d.MinTotalAmount == nil {
			return nil, fmt.Errorf("%w: %s needs minTotalAmount", ErrInvalidRule, d.ID)
		}
		return pricing.CartTotalRule{
			RuleMeta:  meta,
			MinAmount: *d.MinTotalAmount,
			Discount:  d.DiscountValue,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRule, d.Type)
	}
}

// DefaultDefinitions mirrors pricing.DefaultRules as records for seeding.
func DefaultDefinitions() []Input {
	ptr := func(s string) *string { return &s }
	intp := func(v int) *int { return &v }
	money := func(v int64) *int64 { return &v }
	return []Input{
		{Name: "3 of A for Rs 85", Type: TypeQuantityBased, ProductID: ptr("A"), MinQuantity: intp(3), BundlePrice: money(85)},
		{Name: "2 of B for Rs 35", Type: TypeQuantityBased, ProductID: ptr("B"), MinQuantity: intp(2), BundlePrice: money(35)},
		{Name: "Rs 20 off when total over Rs 150", Type: TypeTotalBased, MinTotalAmount: money(150), DiscountValue: 20},
	}
}
