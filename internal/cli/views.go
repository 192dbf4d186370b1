package cli

import (
	"github.com/roach88/grocer/internal/grocery"
)

// PriceView is the JSON shape of a price observation. Dates are YYYY-MM-DD
// and decimals are strings so no precision is lost.
type PriceView struct {
	Date       string  `json:"date"`
	Item       string  `json:"item"`
	Brand      string  `json:"brand"`
	Price      string  `json:"price"`
	Quantity   *string `json:"quantity"`
	Unit       string  `json:"unit,omitempty"`
	UnitValue  *string `json:"unit_value,omitempty"`
	CouponUsed bool    `json:"coupon_used"`
}

// CouponView is the JSON shape of a coupon.
type CouponView struct {
	Expires      string `json:"expires"`
	Item         string `json:"item"`
	Brand        string `json:"brand"`
	DiscountType string `json:"discount_type"`
	Value        string `json:"value"`
	CouponType   string `json:"coupon_type,omitempty"`
	StoreCard    bool   `json:"store_card"`
}

func priceView(p grocery.PriceObservation) PriceView {
	v := PriceView{
		Date:       grocery.FormatDate(p.LogDate),
		Item:       p.ItemName,
		Brand:      p.ItemBrand,
		Price:      p.Price.StringFixed(2),
		Unit:       p.QuantityType,
		CouponUsed: p.CouponUsed,
	}
	if p.Quantity.Valid {
		q := p.Quantity.Decimal.String()
		v.Quantity = &q
	}
	if uv, ok := p.UnitValue(); ok {
		s := uv.StringFixed(2)
		v.UnitValue = &s
	}
	return v
}

func priceViews(prices []grocery.PriceObservation) []PriceView {
	views := make([]PriceView, 0, len(prices))
	for _, p := range prices {
		views = append(views, priceView(p))
	}
	return views
}

func couponView(c grocery.Coupon) CouponView {
	return CouponView{
		Expires:      grocery.FormatDate(c.ExpirationDate),
		Item:         c.ItemName,
		Brand:        c.ItemBrand,
		DiscountType: c.DiscountType.String(),
		Value:        c.DiscountValue.String(),
		CouponType:   c.CouponType,
		StoreCard:    c.StoreCard,
	}
}

func couponViews(coupons []grocery.Coupon) []CouponView {
	views := make([]CouponView, 0, len(coupons))
	for _, c := range coupons {
		views = append(views, couponView(c))
	}
	return views
}

// quantityText renders "2 lb", "1 Unit", or "?" for an unknown quantity.
func (v PriceView) quantityText() string {
	q := "?"
	if v.Quantity != nil {
		q = *v.Quantity
	}
	if v.Unit == "" {
		return q
	}
	return q + " " + v.Unit
}

// discountText renders a coupon's discount for humans.
func (v CouponView) discountText() string {
	switch v.DiscountType {
	case grocery.DiscountPercent.String():
		return v.Value + "% off"
	case grocery.DiscountAmount.String():
		return v.Value + " off"
	case grocery.DiscountMultiBuy.String():
		return v.Value + " free"
	default:
		return v.Value + " (" + v.DiscountType + ")"
	}
}
