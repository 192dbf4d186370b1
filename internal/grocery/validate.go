package grocery

import (
	"fmt"
)

// Normalize returns a copy of p with names normalized, after checking the
// values the store refuses to record.
func (p PriceObservation) Normalize() (PriceObservation, error) {
	var err error
	if p.ItemName, err = RequireName("item name", p.ItemName); err != nil {
		return p, err
	}
	if p.ItemBrand, err = RequireName("item brand", p.ItemBrand); err != nil {
		return p, err
	}
	if p.LogDate.IsZero() {
		return p, fmt.Errorf("log date is required")
	}
	if p.Price.IsNegative() {
		return p, fmt.Errorf("price %s must not be negative", p.Price)
	}
	if p.Quantity.Valid && p.Quantity.Decimal.IsNegative() {
		return p, fmt.Errorf("quantity %s must not be negative", p.Quantity.Decimal)
	}
	p.LogDate = Day(p.LogDate)
	p.QuantityType = NormalizeName(p.QuantityType)
	return p, nil
}

// Normalize returns a copy of c with names normalized, after checking the
// values the store refuses to record.
func (c Coupon) Normalize() (Coupon, error) {
	var err error
	if c.ItemName, err = RequireName("item name", c.ItemName); err != nil {
		return c, err
	}
	if c.ItemBrand, err = RequireName("item brand", c.ItemBrand); err != nil {
		return c, err
	}
	if c.ExpirationDate.IsZero() {
		return c, fmt.Errorf("expiration date is required")
	}
	if !c.DiscountType.Valid() {
		return c, fmt.Errorf("unknown discount type %d", int(c.DiscountType))
	}
	if c.DiscountValue.IsNegative() {
		return c, fmt.Errorf("discount value %s must not be negative", c.DiscountValue)
	}
	c.ExpirationDate = Day(c.ExpirationDate)
	c.CouponType = NormalizeName(c.CouponType)
	return c, nil
}
