package grocery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Defaults applied by NewPriceObservation and NewCoupon.
const (
	DefaultQuantityType = "Unit"
	DefaultCouponType   = "Manufacturer"
)

// Store is a shop that carries items. Its name also serves as the brand of
// its in-house products.
type Store struct {
	Name string `json:"name" db:"STORENAME"`
}

// Item is a product identified by the (name, brand) pair.
type Item struct {
	Name  string `json:"name" db:"NAME"`
	Brand string `json:"brand" db:"BRAND"`
}

// PriceObservation records the price of an item seen on one calendar date.
// At most one observation exists per (LogDate, ItemName); the first write
// for a day wins.
type PriceObservation struct {
	LogDate      time.Time           `json:"log_date"`
	ItemName     string              `json:"item_name"`
	ItemBrand    string              `json:"item_brand"`
	Price        decimal.Decimal     `json:"price"`
	Quantity     decimal.NullDecimal `json:"quantity"`      // NULL when unknown
	QuantityType string              `json:"quantity_type"` // "" is stored as NULL
	CouponUsed   bool                `json:"coupon_used"`
}

// NewPriceObservation returns an observation with the defaults of the
// logging operation: price 0.00, one "Unit", no coupon, logged on today.
func NewPriceObservation(itemName, itemBrand string, today time.Time) PriceObservation {
	return PriceObservation{
		LogDate:      Day(today),
		ItemName:     itemName,
		ItemBrand:    itemBrand,
		Price:        decimal.Zero,
		Quantity:     decimal.NewNullDecimal(decimal.NewFromInt(1)),
		QuantityType: DefaultQuantityType,
	}
}

// UnitValue returns price divided by quantity. ok is false when the quantity
// is NULL or zero.
func (p PriceObservation) UnitValue() (value decimal.Decimal, ok bool) {
	if !p.Quantity.Valid || p.Quantity.Decimal.IsZero() {
		return decimal.Zero, false
	}
	return p.Price.Div(p.Quantity.Decimal), true
}

// DiscountType is the kind of reduction a coupon grants.
type DiscountType int

const (
	DiscountPercent DiscountType = iota // value is a percentage off
	DiscountAmount                      // value is a currency amount off
	DiscountMultiBuy                    // value is the number of free units
)

var discountTypeNames = map[DiscountType]string{
	DiscountPercent:  "percent",
	DiscountAmount:   "amount",
	DiscountMultiBuy: "multibuy",
}

func (t DiscountType) String() string {
	if name, ok := discountTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DiscountType(%d)", int(t))
}

// Valid reports whether t is one of the known discount types.
func (t DiscountType) Valid() bool {
	_, ok := discountTypeNames[t]
	return ok
}

// ParseDiscountType accepts a discount type name or its integer code.
func ParseDiscountType(s string) (DiscountType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range discountTypeNames {
		if name == s {
			return t, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err == nil && DiscountType(n).Valid() {
		return DiscountType(n), nil
	}
	return 0, fmt.Errorf("unknown discount type %q: must be one of percent, amount, multibuy", s)
}

// Coupon is a discount on an item, keyed by its expiration date.
type Coupon struct {
	ExpirationDate time.Time       `json:"expiration_date"`
	ItemName       string          `json:"item_name"`
	ItemBrand      string          `json:"item_brand"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	CouponType     string          `json:"coupon_type"`
	StoreCard      bool            `json:"store_card"`
}

// NewCoupon returns a manufacturer coupon without store card that expires
// today.
func NewCoupon(itemName, itemBrand string, discountType DiscountType, discountValue decimal.Decimal, today time.Time) Coupon {
	return Coupon{
		ExpirationDate: Day(today),
		ItemName:       itemName,
		ItemBrand:      itemBrand,
		DiscountType:   discountType,
		DiscountValue:  discountValue,
		CouponType:     DefaultCouponType,
	}
}

// StoreTag labels a store.
type StoreTag struct {
	Tag       string `json:"tag" db:"TAG"`
	StoreName string `json:"store_name" db:"STORENAME"`
}

// ItemTag labels an item by name.
type ItemTag struct {
	Tag      string `json:"tag" db:"TAG"`
	ItemName string `json:"item_name" db:"ITEMNAME"`
}

// Ranked is one row of an analytic ranking.
type Ranked struct {
	Label string  `json:"label" db:"LABEL"`
	Value float64 `json:"value" db:"VALUE"`
}

// Summary is the digest over all recorded prices. Parts that cannot be
// computed (for example on an empty store) are nil.
type Summary struct {
	DistinctItems int     `json:"distinct_items"`
	Observations  int     `json:"observations"`
	BestValue     *Ranked `json:"best_value,omitempty"`
	MostFrequent  *Ranked `json:"most_frequent,omitempty"`
	MostDiverse   *Ranked `json:"most_diverse,omitempty"`
}

// Snapshot holds the full contents of every table.
type Snapshot struct {
	Stores    []Store            `json:"stores"`
	Items     []Item             `json:"items"`
	Prices    []PriceObservation `json:"prices"`
	Coupons   []Coupon           `json:"coupons"`
	StoreTags []StoreTag         `json:"store_tags"`
	ItemTags  []ItemTag          `json:"item_tags"`
}
