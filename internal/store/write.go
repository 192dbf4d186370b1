package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/grocer/internal/grocery"
)

// AddStore ensures a store with the given name exists.
// A store that is already present is left untouched and no error is returned.
func (s *Store) AddStore(ctx context.Context, name string) error {
	const op = "add store"
	name, err := grocery.RequireName("store name", name)
	if err != nil {
		return invalidArgument(op, err)
	}

	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		return s.insertIfAbsent(ctx, tx, op, `
			INSERT INTO STORES (STORENAME)
			VALUES (?)
			ON CONFLICT DO NOTHING
		`, name)
	})
}

// AddItem ensures an item with the given (name, brand) pair exists.
// The brand is not checked against STORES; in-house brands simply share the
// store's name.
func (s *Store) AddItem(ctx context.Context, name, brand string) error {
	const op = "add item"
	name, err := grocery.RequireName("item name", name)
	if err != nil {
		return invalidArgument(op, err)
	}
	brand, err = grocery.RequireName("item brand", brand)
	if err != nil {
		return invalidArgument(op, err)
	}

	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		return s.insertIfAbsent(ctx, tx, op, `
			INSERT INTO ITEMS (NAME, BRAND)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, name, brand)
	})
}

// AddStoreTag attaches tag to a store. Tag text is globally unique: if the
// tag is already attached to any store, the call is a no-op.
func (s *Store) AddStoreTag(ctx context.Context, store, tag string) error {
	const op = "add store tag"
	store, err := grocery.RequireName("store name", store)
	if err != nil {
		return invalidArgument(op, err)
	}
	tag, err = grocery.RequireName("tag", tag)
	if err != nil {
		return invalidArgument(op, err)
	}

	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if s.checkRefs {
			ok, err := exists(ctx, tx, `SELECT 1 FROM STORES WHERE STORENAME = ?`, store)
			if err != nil {
				return err
			}
			if !ok {
				return missingReference(op, fmt.Sprintf("store %q does not exist", store))
			}
		}
		return s.insertIfAbsent(ctx, tx, op, `
			INSERT INTO STORETAGS (TAG, STORENAME)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, tag, store)
	})
}

// AddItemTag attaches tag to every item with the given name, regardless of
// brand. Tag text is globally unique: if the tag is already attached to any
// item, the call is a no-op.
func (s *Store) AddItemTag(ctx context.Context, item, tag string) error {
	const op = "add item tag"
	item, err := grocery.RequireName("item name", item)
	if err != nil {
		return invalidArgument(op, err)
	}
	tag, err = grocery.RequireName("tag", tag)
	if err != nil {
		return invalidArgument(op, err)
	}

	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if s.checkRefs {
			ok, err := exists(ctx, tx, `SELECT 1 FROM ITEMS WHERE NAME = ?`, item)
			if err != nil {
				return err
			}
			if !ok {
				return missingReference(op, fmt.Sprintf("no item named %q", item))
			}
		}
		return s.insertIfAbsent(ctx, tx, op, `
			INSERT INTO ITEMTAGS (TAG, ITEMNAME)
			VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, tag, item)
	})
}

// AddPrice appends a price observation.
//
// Observations are keyed by (LogDate, ItemName). If one already exists for
// that day, it is kept and p is dropped: a price cannot be amended by
// logging it again. Build p with grocery.NewPriceObservation to get the
// standard defaults.
//
// With reference checks on (the default), the (ItemName, ItemBrand) item
// must have been added first.
func (s *Store) AddPrice(ctx context.Context, p grocery.PriceObservation) error {
	const op = "add price"
	p, err := p.Normalize()
	if err != nil {
		return invalidArgument(op, err)
	}

	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if err := s.requireItem(ctx, tx, op, p.ItemName, p.ItemBrand); err != nil {
			return err
		}
		return s.insertIfAbsent(ctx, tx, op, `
			INSERT INTO PRICES
			(LOGDATE, PRICE, QUANTITY, QUANTITYTYPE, COUPONUSED, ITEMNAME, ITEMBRAND)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			grocery.FormatDate(p.LogDate),
			p.Price,
			p.Quantity,
			nullString(p.QuantityType),
			p.CouponUsed,
			p.ItemName,
			p.ItemBrand,
		)
	})
}

// AddCoupon appends a coupon.
//
// Coupons are keyed by expiration date alone; a second coupon expiring on
// the same day is dropped, whatever item it is for. Build c with
// grocery.NewCoupon to get the standard defaults.
func (s *Store) AddCoupon(ctx context.Context, c grocery.Coupon) error {
	const op = "add coupon"
	c, err := c.Normalize()
	if err != nil {
		return invalidArgument(op, err)
	}

	return s.withTx(ctx, op, func(tx *sqlx.Tx) error {
		if err := s.requireItem(ctx, tx, op, c.ItemName, c.ItemBrand); err != nil {
			return err
		}
		return s.insertIfAbsent(ctx, tx, op, `
			INSERT INTO COUPONS
			(EXPDATE, DISCTYPE, DISCVALUE, STORECARD, COUPONTYPE, ITEMNAME, ITEMBRAND)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`,
			grocery.FormatDate(c.ExpirationDate),
			int(c.DiscountType),
			c.DiscountValue,
			c.StoreCard,
			nullString(c.CouponType),
			c.ItemName,
			c.ItemBrand,
		)
	})
}

// requireItem fails with CONSTRAINT_VIOLATION when reference checks are on
// and the (name, brand) item is absent.
func (s *Store) requireItem(ctx context.Context, tx *sqlx.Tx, op, name, brand string) error {
	if !s.checkRefs {
		return nil
	}
	ok, err := exists(ctx, tx, `SELECT 1 FROM ITEMS WHERE NAME = ? AND BRAND = ?`, name, brand)
	if err != nil {
		return err
	}
	if !ok {
		return missingReference(op, fmt.Sprintf("item %q (brand %q) does not exist", name, brand))
	}
	return nil
}

// insertIfAbsent runs an INSERT ... ON CONFLICT DO NOTHING statement.
// Zero affected rows means the key was already present.
func (s *Store) insertIfAbsent(ctx context.Context, tx *sqlx.Tx, op, query string, args ...any) error {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.log.Debug("duplicate key, kept existing row", "op", op, "key", args[0])
	} else {
		s.log.Debug("inserted", "op", op, "key", args[0])
	}
	return nil
}

// exists reports whether query returns at least one row.
func exists(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (bool, error) {
	var one int
	err := tx.GetContext(ctx, &one, query, args...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check reference: %w", err)
	}
	return true, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
