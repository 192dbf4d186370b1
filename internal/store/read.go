package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/roach88/grocer/internal/grocery"
)

// Default result sizes for the rankings.
const (
	DefaultValueLimit     = 5
	DefaultFrequencyLimit = 3
	DefaultDiversityLimit = 4
)

// ValueRanking returns the observations with the lowest unit value
// (price / quantity), ascending. Ties keep storage order. Observations with
// a NULL or zero quantity have no unit value and are skipped.
//
// A limit <= 0 uses DefaultValueLimit.
func (s *Store) ValueRanking(ctx context.Context, limit int) ([]grocery.Ranked, error) {
	var ranked []grocery.Ranked
	err := s.withReadTx(ctx, "value ranking", func(tx *sqlx.Tx) error {
		var err error
		ranked, err = valueRanking(ctx, tx, orDefault(limit, DefaultValueLimit))
		return err
	})
	return ranked, err
}

// FrequencyRanking returns the items with the most observations,
// descending by count. Ties keep the order in which items were first seen.
//
// A limit <= 0 uses DefaultFrequencyLimit.
func (s *Store) FrequencyRanking(ctx context.Context, limit int) ([]grocery.Ranked, error) {
	var ranked []grocery.Ranked
	err := s.withReadTx(ctx, "frequency ranking", func(tx *sqlx.Tx) error {
		var err error
		ranked, err = frequencyRanking(ctx, tx, orDefault(limit, DefaultFrequencyLimit))
		return err
	})
	return ranked, err
}

// DiversityRanking returns the stores carrying the most distinct in-house
// items, descending. An item is in-house when its brand equals a store name.
//
// A limit <= 0 uses DefaultDiversityLimit.
func (s *Store) DiversityRanking(ctx context.Context, limit int) ([]grocery.Ranked, error) {
	var ranked []grocery.Ranked
	err := s.withReadTx(ctx, "diversity ranking", func(tx *sqlx.Tx) error {
		var err error
		ranked, err = diversityRanking(ctx, tx, orDefault(limit, DefaultDiversityLimit))
		return err
	})
	return ranked, err
}

// Summary computes the digest over all observations in one read
// transaction, so its parts agree with each other.
func (s *Store) Summary(ctx context.Context) (grocery.Summary, error) {
	var sum grocery.Summary
	err := s.withReadTx(ctx, "summary", func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &sum.DistinctItems, `SELECT COUNT(DISTINCT ITEMNAME) FROM PRICES`); err != nil {
			return fmt.Errorf("count items: %w", err)
		}
		if err := tx.GetContext(ctx, &sum.Observations, `SELECT COUNT(*) FROM PRICES`); err != nil {
			return fmt.Errorf("count observations: %w", err)
		}

		best, err := valueRanking(ctx, tx, 1)
		if err != nil {
			return err
		}
		sum.BestValue = first(best)

		frequent, err := frequencyRanking(ctx, tx, 1)
		if err != nil {
			return err
		}
		sum.MostFrequent = first(frequent)

		diverse, err := diversityRanking(ctx, tx, 1)
		if err != nil {
			return err
		}
		sum.MostDiverse = first(diverse)
		return nil
	})
	if err != nil {
		return grocery.Summary{}, err
	}
	return sum, nil
}

// valueRanking compares unit values rounded to 9 places so equal decimal
// ratios such as 0.1/1 and 0.3/3 tie and fall back to storage order.
func valueRanking(ctx context.Context, tx *sqlx.Tx, limit int) ([]grocery.Ranked, error) {
	return selectRanked(ctx, tx, "value ranking", `
		SELECT ITEMNAME AS LABEL, ROUND(CAST(PRICE AS REAL) / QUANTITY, 9) AS VALUE
		FROM PRICES
		WHERE QUANTITY IS NOT NULL AND QUANTITY <> 0
		ORDER BY VALUE ASC, rowid ASC
		LIMIT ?
	`, limit)
}

func frequencyRanking(ctx context.Context, tx *sqlx.Tx, limit int) ([]grocery.Ranked, error) {
	return selectRanked(ctx, tx, "frequency ranking", `
		SELECT ITEMNAME AS LABEL, COUNT(*) AS VALUE
		FROM PRICES
		GROUP BY ITEMNAME
		ORDER BY COUNT(*) DESC, MIN(rowid) ASC
		LIMIT ?
	`, limit)
}

func diversityRanking(ctx context.Context, tx *sqlx.Tx, limit int) ([]grocery.Ranked, error) {
	return selectRanked(ctx, tx, "diversity ranking", `
		SELECT ITEMS.BRAND AS LABEL, COUNT(DISTINCT ITEMS.NAME) AS VALUE
		FROM STORES
		INNER JOIN ITEMS ON ITEMS.BRAND = STORES.STORENAME
		GROUP BY ITEMS.BRAND
		ORDER BY COUNT(DISTINCT ITEMS.NAME) DESC, MIN(ITEMS.rowid) ASC
		LIMIT ?
	`, limit)
}

// selectRanked runs a (LABEL, VALUE) query.
// Returns an empty slice (not nil) when nothing matches.
func selectRanked(ctx context.Context, tx *sqlx.Tx, what, query string, args ...any) ([]grocery.Ranked, error) {
	ranked := []grocery.Ranked{}
	if err := tx.SelectContext(ctx, &ranked, query, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	return ranked, nil
}

// PriceHistory returns every observation of an item, oldest first.
func (s *Store) PriceHistory(ctx context.Context, itemName, itemBrand string) ([]grocery.PriceObservation, error) {
	const op = "price history"
	itemName, err := grocery.RequireName("item name", itemName)
	if err != nil {
		return nil, invalidArgument(op, err)
	}
	itemBrand, err = grocery.RequireName("item brand", itemBrand)
	if err != nil {
		return nil, invalidArgument(op, err)
	}

	var prices []grocery.PriceObservation
	err = s.withReadTx(ctx, op, func(tx *sqlx.Tx) error {
		var err error
		prices, err = selectPrices(ctx, tx, `
			SELECT LOGDATE, PRICE, QUANTITY, QUANTITYTYPE, COUPONUSED, ITEMNAME, ITEMBRAND
			FROM PRICES
			WHERE ITEMNAME = ? AND ITEMBRAND = ?
			ORDER BY LOGDATE ASC
		`, itemName, itemBrand)
		return err
	})
	return prices, err
}

// Coupons returns the coupons recorded for an item, soonest expiry first.
func (s *Store) Coupons(ctx context.Context, itemName, itemBrand string) ([]grocery.Coupon, error) {
	const op = "coupons"
	itemName, err := grocery.RequireName("item name", itemName)
	if err != nil {
		return nil, invalidArgument(op, err)
	}
	itemBrand, err = grocery.RequireName("item brand", itemBrand)
	if err != nil {
		return nil, invalidArgument(op, err)
	}

	var coupons []grocery.Coupon
	err = s.withReadTx(ctx, op, func(tx *sqlx.Tx) error {
		var err error
		coupons, err = selectCoupons(ctx, tx, `
			SELECT EXPDATE, DISCTYPE, DISCVALUE, STORECARD, COUPONTYPE, ITEMNAME, ITEMBRAND
			FROM COUPONS
			WHERE ITEMNAME = ? AND ITEMBRAND = ?
			ORDER BY EXPDATE ASC
		`, itemName, itemBrand)
		return err
	})
	return coupons, err
}

// ItemTags returns the tags attached to items with the given name.
func (s *Store) ItemTags(ctx context.Context, itemName string) ([]string, error) {
	const op = "item tags"
	itemName, err := grocery.RequireName("item name", itemName)
	if err != nil {
		return nil, invalidArgument(op, err)
	}

	tags := []string{}
	err = s.withReadTx(ctx, op, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &tags, `
			SELECT TAG FROM ITEMTAGS WHERE ITEMNAME = ? ORDER BY rowid ASC
		`, itemName)
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Dump returns the contents of every table in storage order.
func (s *Store) Dump(ctx context.Context) (grocery.Snapshot, error) {
	snap := grocery.Snapshot{
		Stores:    []grocery.Store{},
		Items:     []grocery.Item{},
		StoreTags: []grocery.StoreTag{},
		ItemTags:  []grocery.ItemTag{},
	}
	err := s.withReadTx(ctx, "dump", func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &snap.Stores, `SELECT STORENAME FROM STORES ORDER BY rowid`); err != nil {
			return fmt.Errorf("query stores: %w", err)
		}
		if err := tx.SelectContext(ctx, &snap.Items, `SELECT NAME, BRAND FROM ITEMS ORDER BY rowid`); err != nil {
			return fmt.Errorf("query items: %w", err)
		}

		var err error
		snap.Prices, err = selectPrices(ctx, tx, `
			SELECT LOGDATE, PRICE, QUANTITY, QUANTITYTYPE, COUPONUSED, ITEMNAME, ITEMBRAND
			FROM PRICES ORDER BY rowid
		`)
		if err != nil {
			return err
		}
		snap.Coupons, err = selectCoupons(ctx, tx, `
			SELECT EXPDATE, DISCTYPE, DISCVALUE, STORECARD, COUPONTYPE, ITEMNAME, ITEMBRAND
			FROM COUPONS ORDER BY rowid
		`)
		if err != nil {
			return err
		}

		if err := tx.SelectContext(ctx, &snap.StoreTags, `SELECT TAG, STORENAME FROM STORETAGS ORDER BY rowid`); err != nil {
			return fmt.Errorf("query store tags: %w", err)
		}
		if err := tx.SelectContext(ctx, &snap.ItemTags, `SELECT TAG, ITEMNAME FROM ITEMTAGS ORDER BY rowid`); err != nil {
			return fmt.Errorf("query item tags: %w", err)
		}
		return nil
	})
	if err != nil {
		return grocery.Snapshot{}, err
	}
	return snap, nil
}

// priceRow mirrors a PRICES row. Columns other than the key are nullable in
// files written by older tools.
type priceRow struct {
	LogDate      time.Time           `db:"LOGDATE"`
	Price        decimal.Decimal     `db:"PRICE"`
	Quantity     decimal.NullDecimal `db:"QUANTITY"`
	QuantityType sql.NullString      `db:"QUANTITYTYPE"`
	CouponUsed   sql.NullBool        `db:"COUPONUSED"`
	ItemName     string              `db:"ITEMNAME"`
	ItemBrand    string              `db:"ITEMBRAND"`
}

func (r priceRow) observation() grocery.PriceObservation {
	return grocery.PriceObservation{
		LogDate:      r.LogDate.UTC(),
		ItemName:     r.ItemName,
		ItemBrand:    r.ItemBrand,
		Price:        r.Price,
		Quantity:     r.Quantity,
		QuantityType: r.QuantityType.String,
		CouponUsed:   r.CouponUsed.Bool,
	}
}

// couponRow mirrors a COUPONS row.
type couponRow struct {
	ExpDate    time.Time           `db:"EXPDATE"`
	DiscType   sql.NullInt64       `db:"DISCTYPE"`
	DiscValue  decimal.NullDecimal `db:"DISCVALUE"`
	StoreCard  sql.NullBool        `db:"STORECARD"`
	CouponType sql.NullString      `db:"COUPONTYPE"`
	ItemName   string              `db:"ITEMNAME"`
	ItemBrand  string              `db:"ITEMBRAND"`
}

func (r couponRow) coupon() grocery.Coupon {
	return grocery.Coupon{
		ExpirationDate: r.ExpDate.UTC(),
		ItemName:       r.ItemName,
		ItemBrand:      r.ItemBrand,
		DiscountType:   grocery.DiscountType(r.DiscType.Int64),
		DiscountValue:  r.DiscValue.Decimal,
		CouponType:     r.CouponType.String,
		StoreCard:      r.StoreCard.Bool,
	}
}

func selectPrices(ctx context.Context, tx *sqlx.Tx, query string, args ...any) ([]grocery.PriceObservation, error) {
	var rows []priceRow
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	prices := make([]grocery.PriceObservation, 0, len(rows))
	for _, r := range rows {
		prices = append(prices, r.observation())
	}
	return prices, nil
}

func selectCoupons(ctx context.Context, tx *sqlx.Tx, query string, args ...any) ([]grocery.Coupon, error) {
	var rows []couponRow
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query coupons: %w", err)
	}
	coupons := make([]grocery.Coupon, 0, len(rows))
	for _, r := range rows {
		coupons = append(coupons, r.coupon())
	}
	return coupons, nil
}

func orDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func first(ranked []grocery.Ranked) *grocery.Ranked {
	if len(ranked) == 0 {
		return nil
	}
	r := ranked[0]
	return &r
}
