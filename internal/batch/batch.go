// Package batch imports stores, items, tags, prices and coupons from a YAML
// file through the store's write operations.
//
// A batch is not a transaction. Every row is its own unit of work, so a
// failure part way leaves the earlier rows recorded. Because every write is
// insert-if-absent, re-running the same file is harmless.
package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/grocer/internal/grocery"
)

// File is the YAML document.
type File struct {
	Stores    []string      `yaml:"stores"`
	Items     []ItemRow     `yaml:"items"`
	StoreTags []StoreTagRow `yaml:"store_tags"`
	Prices    []PriceRow    `yaml:"prices"`
	Coupons   []CouponRow   `yaml:"coupons"`
}

// ItemRow adds an item and, optionally, tags on its name.
type ItemRow struct {
	Name  string   `yaml:"name"`
	Brand string   `yaml:"brand"`
	Tags  []string `yaml:"tags,omitempty"`
}

// StoreTagRow tags a store.
type StoreTagRow struct {
	Store string `yaml:"store"`
	Tag   string `yaml:"tag"`
}

// PriceRow logs a price. Decimal fields are strings so that 0.1 stays 0.1.
type PriceRow struct {
	Item       string  `yaml:"item"`
	Brand      string  `yaml:"brand"`
	Price      string  `yaml:"price"`
	Quantity   *string `yaml:"quantity,omitempty"` // default 1
	Unit       *string `yaml:"unit,omitempty"`     // default quantity type
	CouponUsed bool    `yaml:"coupon_used,omitempty"`
	Date       string  `yaml:"date,omitempty"` // YYYY-MM-DD, default today
}

// CouponRow records a coupon.
type CouponRow struct {
	Item         string `yaml:"item"`
	Brand        string `yaml:"brand"`
	DiscountType string `yaml:"discount_type"` // percent | amount | multibuy
	Value        string `yaml:"value"`
	CouponType   string `yaml:"coupon_type,omitempty"` // default Manufacturer
	StoreCard    bool   `yaml:"store_card,omitempty"`
	Expires      string `yaml:"expires,omitempty"` // YYYY-MM-DD, default today
}

// Writer is the subset of *store.Store a batch needs.
type Writer interface {
	AddStore(ctx context.Context, name string) error
	AddItem(ctx context.Context, name, brand string) error
	AddStoreTag(ctx context.Context, store, tag string) error
	AddItemTag(ctx context.Context, item, tag string) error
	AddPrice(ctx context.Context, p grocery.PriceObservation) error
	AddCoupon(ctx context.Context, c grocery.Coupon) error
}

// Options control how rows are completed and logged.
type Options struct {
	// Today supplies the date for rows without one. Defaults to time.Now.
	Today func() time.Time

	// NewID generates the batch id. Defaults to a UUIDv7.
	NewID func() string

	// DefaultQuantityType fills PriceRow.Unit when absent.
	// Defaults to grocery.DefaultQuantityType.
	DefaultQuantityType string

	Logger *slog.Logger
}

// Result counts the rows applied, duplicates included.
type Result struct {
	BatchID   string `json:"batch_id"`
	Stores    int    `json:"stores"`
	Items     int    `json:"items"`
	StoreTags int    `json:"store_tags"`
	ItemTags  int    `json:"item_tags"`
	Prices    int    `json:"prices"`
	Coupons   int    `json:"coupons"`
}

// Load reads and decodes a batch file. Unknown keys are rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a batch document.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

// Apply writes every row of f through w, in dependency order: stores,
// items with their tags, store tags, prices, coupons.
//
// All rows are parsed before anything is written, so a malformed value
// fails the batch without side effects. Write failures stop the batch at
// the failing row; the returned Result counts what was applied before it.
func Apply(ctx context.Context, w Writer, f *File, opts Options) (Result, error) {
	opts = opts.withDefaults()
	res := Result{BatchID: opts.NewID()}
	log := opts.Logger.With("batch_id", res.BatchID)

	today := opts.Today()
	prices, coupons, err := f.resolve(today, opts.DefaultQuantityType)
	if err != nil {
		return res, fmt.Errorf("invalid batch: %w", err)
	}

	log.Info("batch started",
		"stores", len(f.Stores), "items", len(f.Items), "store_tags", len(f.StoreTags),
		"prices", len(prices), "coupons", len(coupons))

	for i, name := range f.Stores {
		if err := w.AddStore(ctx, name); err != nil {
			return res, fmt.Errorf("stores[%d] %q: %w", i, name, err)
		}
		res.Stores++
	}

	for i, item := range f.Items {
		if err := w.AddItem(ctx, item.Name, item.Brand); err != nil {
			return res, fmt.Errorf("items[%d] %q: %w", i, item.Name, err)
		}
		res.Items++
		for _, tag := range item.Tags {
			if err := w.AddItemTag(ctx, item.Name, tag); err != nil {
				return res, fmt.Errorf("items[%d] %q tag %q: %w", i, item.Name, tag, err)
			}
			res.ItemTags++
		}
	}

	for i, st := range f.StoreTags {
		if err := w.AddStoreTag(ctx, st.Store, st.Tag); err != nil {
			return res, fmt.Errorf("store_tags[%d] %q: %w", i, st.Tag, err)
		}
		res.StoreTags++
	}

	for i, p := range prices {
		if err := w.AddPrice(ctx, p); err != nil {
			return res, fmt.Errorf("prices[%d] %q: %w", i, p.ItemName, err)
		}
		res.Prices++
	}

	for i, c := range coupons {
		if err := w.AddCoupon(ctx, c); err != nil {
			return res, fmt.Errorf("coupons[%d] %q: %w", i, c.ItemName, err)
		}
		res.Coupons++
	}

	log.Info("batch applied",
		"stores", res.Stores, "items", res.Items, "item_tags", res.ItemTags,
		"store_tags", res.StoreTags, "prices", res.Prices, "coupons", res.Coupons)
	return res, nil
}

func (o Options) withDefaults() Options {
	if o.Today == nil {
		o.Today = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	if o.DefaultQuantityType == "" {
		o.DefaultQuantityType = grocery.DefaultQuantityType
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// resolve turns the textual rows into domain values, reporting the first
// malformed row by section and index.
func (f *File) resolve(today time.Time, defaultUnit string) ([]grocery.PriceObservation, []grocery.Coupon, error) {
	if err := f.checkNames(); err != nil {
		return nil, nil, err
	}

	prices := make([]grocery.PriceObservation, 0, len(f.Prices))
	for i, row := range f.Prices {
		p, err := row.observation(today, defaultUnit)
		if err != nil {
			return nil, nil, fmt.Errorf("prices[%d]: %w", i, err)
		}
		prices = append(prices, p)
	}

	coupons := make([]grocery.Coupon, 0, len(f.Coupons))
	for i, row := range f.Coupons {
		c, err := row.coupon(today)
		if err != nil {
			return nil, nil, fmt.Errorf("coupons[%d]: %w", i, err)
		}
		coupons = append(coupons, c)
	}
	return prices, coupons, nil
}

// checkNames rejects blank store, item and tag names.
func (f *File) checkNames() error {
	for i, name := range f.Stores {
		if _, err := grocery.RequireName("store", name); err != nil {
			return fmt.Errorf("stores[%d]: %w", i, err)
		}
	}
	for i, item := range f.Items {
		if _, err := grocery.RequireName("item name", item.Name); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
		if _, err := grocery.RequireName("item brand", item.Brand); err != nil {
			return fmt.Errorf("items[%d]: %w", i, err)
		}
		for j, tag := range item.Tags {
			if _, err := grocery.RequireName("item tag", tag); err != nil {
				return fmt.Errorf("items[%d].tags[%d]: %w", i, j, err)
			}
		}
	}
	for i, st := range f.StoreTags {
		if _, err := grocery.RequireName("store", st.Store); err != nil {
			return fmt.Errorf("store_tags[%d]: %w", i, err)
		}
		if _, err := grocery.RequireName("store tag", st.Tag); err != nil {
			return fmt.Errorf("store_tags[%d]: %w", i, err)
		}
	}
	return nil
}

func (r PriceRow) observation(today time.Time, defaultUnit string) (grocery.PriceObservation, error) {
	date, err := dateOr(r.Date, today)
	if err != nil {
		return grocery.PriceObservation{}, err
	}
	p := grocery.NewPriceObservation(r.Item, r.Brand, date)
	p.QuantityType = defaultUnit
	p.CouponUsed = r.CouponUsed

	if r.Price == "" {
		return p, errors.New("price is required")
	}
	if p.Price, err = decimal.NewFromString(r.Price); err != nil {
		return p, fmt.Errorf("invalid price %q: %w", r.Price, err)
	}
	if r.Quantity != nil {
		q, err := decimal.NewFromString(*r.Quantity)
		if err != nil {
			return p, fmt.Errorf("invalid quantity %q: %w", *r.Quantity, err)
		}
		p.Quantity = decimal.NewNullDecimal(q)
	}
	if r.Unit != nil {
		p.QuantityType = *r.Unit
	}
	return p.Normalize()
}

func (r CouponRow) coupon(today time.Time) (grocery.Coupon, error) {
	expires, err := dateOr(r.Expires, today)
	if err != nil {
		return grocery.Coupon{}, err
	}
	dt, err := grocery.ParseDiscountType(r.DiscountType)
	if err != nil {
		return grocery.Coupon{}, err
	}
	if r.Value == "" {
		return grocery.Coupon{}, errors.New("value is required")
	}
	value, err := decimal.NewFromString(r.Value)
	if err != nil {
		return grocery.Coupon{}, fmt.Errorf("invalid value %q: %w", r.Value, err)
	}

	c := grocery.NewCoupon(r.Item, r.Brand, dt, value, expires)
	c.StoreCard = r.StoreCard
	if r.CouponType != "" {
		c.CouponType = r.CouponType
	}
	return c.Normalize()
}

func dateOr(s string, today time.Time) (time.Time, error) {
	if s == "" {
		return grocery.Day(today), nil
	}
	return grocery.ParseDate(s)
}
