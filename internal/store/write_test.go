package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grocer/internal/grocery"
)

func TestAddStore_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddStore(ctx, "Winco"))
	require.NoError(t, s.AddStore(ctx, "Winco"), "duplicate store must not be an error")

	assert.Equal(t, 1, countRows(t, s, "STORES"))
}

func TestAddStore_NormalizesName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddStore(ctx, "Café Market"))
	require.NoError(t, s.AddStore(ctx, "  Café Market "))

	assert.Equal(t, 1, countRows(t, s, "STORES"))
}

func TestAddStore_EmptyName(t *testing.T) {
	s := createTestStore(t)

	err := s.AddStore(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
	assert.ErrorIs(t, err, grocery.ErrEmptyName)
	assert.Equal(t, 0, countRows(t, s, "STORES"))
}

func TestAddStore_QuotesAreData(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	name := `Trader Joe's "Express"); DROP TABLE STORES; --`
	require.NoError(t, s.AddStore(ctx, name))

	var stored string
	require.NoError(t, s.db.Get(&stored, `SELECT STORENAME FROM STORES`))
	assert.Equal(t, name, stored)
}

func TestAddItem_Uniqueness(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, "banana", "Winco"))
	require.NoError(t, s.AddItem(ctx, "banana", "Winco"))
	require.NoError(t, s.AddItem(ctx, "banana", "Dole"))

	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM ITEMS WHERE NAME = ? AND BRAND = ?`, "banana", "Winco"))
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, countRows(t, s, "ITEMS"))
}

func TestAddItem_BrandNotCheckedAgainstStores(t *testing.T) {
	s := createTestStore(t)

	// Brands are free text; only in-house brands match a store.
	require.NoError(t, s.AddItem(context.Background(), "cereal", "Kellogg"))
	assert.Equal(t, 0, countRows(t, s, "STORES"))
}

func TestAddItem_EmptyBrand(t *testing.T) {
	s := createTestStore(t)

	err := s.AddItem(context.Background(), "banana", "")
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
	assert.Contains(t, err.Error(), "item brand")
}

func TestAddPrice_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	p := grocery.NewPriceObservation("banana", "Winco", mustDate(t, "2018-05-12"))
	p.Price = decimal.RequireFromString("0.59")
	p.QuantityType = "lb"
	p.CouponUsed = true
	require.NoError(t, s.AddPrice(ctx, p))

	var (
		logDate      string
		price        float64
		quantity     float64
		quantityType string
		couponUsed   int
	)
	err := s.db.QueryRow(`
		SELECT CAST(LOGDATE AS TEXT), PRICE, QUANTITY, QUANTITYTYPE, CAST(COUPONUSED AS INTEGER)
		FROM PRICES WHERE ITEMNAME = 'banana'
	`).Scan(&logDate, &price, &quantity, &quantityType, &couponUsed)
	require.NoError(t, err)

	assert.Equal(t, "2018-05-12", logDate)
	assert.Equal(t, 0.59, price)
	assert.Equal(t, 1.0, quantity)
	assert.Equal(t, "lb", quantityType)
	assert.Equal(t, 1, couponUsed)
}

func TestAddPrice_FirstWriteWins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 10, 1)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 12, 1)),
		"same-day duplicate must be absorbed")

	history, err := s.PriceHistory(ctx, "banana", "Winco")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Price.Equal(decimal.NewFromInt(10)), "price = %s, want 10", history[0].Price)
}

func TestAddPrice_NextDayIsNewObservation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 10, 1)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-02", 12, 1)))

	assert.Equal(t, 2, countRows(t, s, "PRICES"))
}

func TestAddPrice_NullQuantityAndType(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	p := grocery.NewPriceObservation("banana", "Winco", mustDate(t, "2024-01-01"))
	p.Quantity = decimal.NullDecimal{}
	p.QuantityType = ""
	require.NoError(t, s.AddPrice(ctx, p))

	var nulls int
	require.NoError(t, s.db.Get(&nulls, `SELECT COUNT(*) FROM PRICES WHERE QUANTITY IS NULL AND QUANTITYTYPE IS NULL`))
	assert.Equal(t, 1, nulls)
}

func TestAddPrice_UnknownItem(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	err := s.AddPrice(ctx, observation(t, "banana", "Dole", "2024-01-01", 1, 1))
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err), "got %v", err)
	assert.Contains(t, err.Error(), "Dole")
	assert.Equal(t, 0, countRows(t, s, "PRICES"))
}

func TestAddPrice_UnknownItemAllowedWithoutReferenceChecks(t *testing.T) {
	s := createTestStore(t, WithReferenceChecks(false))

	require.NoError(t, s.AddPrice(context.Background(), observation(t, "ghost", "Nobody", "2024-01-01", 1, 1)))
	assert.Equal(t, 1, countRows(t, s, "PRICES"))
}

func TestAddPrice_InvalidInput(t *testing.T) {
	s := createTestStore(t)
	seedItem(t, s, "banana", "Winco")

	p := observation(t, "banana", "Winco", "2024-01-01", -1, 1)
	err := s.AddPrice(context.Background(), p)
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestAddCoupon_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	c := grocery.NewCoupon("banana", "Winco", grocery.DiscountPercent, decimal.NewFromInt(15), mustDate(t, "2024-02-01"))
	require.NoError(t, s.AddCoupon(ctx, c))

	coupons, err := s.Coupons(ctx, "banana", "Winco")
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	got := coupons[0]
	assert.Equal(t, "2024-02-01", grocery.FormatDate(got.ExpirationDate))
	assert.Equal(t, grocery.DiscountPercent, got.DiscountType)
	assert.True(t, got.DiscountValue.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "Manufacturer", got.CouponType)
	assert.False(t, got.StoreCard)
}

func TestAddCoupon_OnePerExpirationDate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")
	seedItem(t, s, "apple", "Winco")

	expires := mustDate(t, "2024-02-01")
	require.NoError(t, s.AddCoupon(ctx, grocery.NewCoupon("banana", "Winco", grocery.DiscountAmount, decimal.NewFromInt(1), expires)))
	require.NoError(t, s.AddCoupon(ctx, grocery.NewCoupon("apple", "Winco", grocery.DiscountAmount, decimal.NewFromInt(2), expires)))

	assert.Equal(t, 1, countRows(t, s, "COUPONS"))
	var item string
	require.NoError(t, s.db.Get(&item, `SELECT ITEMNAME FROM COUPONS`))
	assert.Equal(t, "banana", item)
}

func TestAddCoupon_UnknownItem(t *testing.T) {
	s := createTestStore(t)

	// Brands are case-sensitive: "winco" is not "Winco".
	seedItem(t, s, "banana", "Winco")
	c := grocery.NewCoupon("banana", "winco", grocery.DiscountPercent, decimal.NewFromInt(15), mustDate(t, "2024-02-01"))

	err := s.AddCoupon(context.Background(), c)
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))
}

func TestAddStoreTag(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddStore(ctx, "Winco"))
	require.NoError(t, s.AddStore(ctx, "Safeway"))

	require.NoError(t, s.AddStoreTag(ctx, "Winco", "cheap"))
	require.NoError(t, s.AddStoreTag(ctx, "Winco", "cheap"))
	require.NoError(t, s.AddStoreTag(ctx, "Safeway", "cheap"), "tag owned by another store is absorbed")

	assert.Equal(t, 1, countRows(t, s, "STORETAGS"))
	var owner string
	require.NoError(t, s.db.Get(&owner, `SELECT STORENAME FROM STORETAGS WHERE TAG = 'cheap'`))
	assert.Equal(t, "Winco", owner)
}

func TestAddStoreTag_UnknownStore(t *testing.T) {
	s := createTestStore(t)

	err := s.AddStoreTag(context.Background(), "Nowhere", "cheap")
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))
}

func TestAddItemTag(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	require.NoError(t, s.AddItemTag(ctx, "banana", "Potassium"))
	require.NoError(t, s.AddItemTag(ctx, "banana", "fruit"))
	require.NoError(t, s.AddItemTag(ctx, "banana", "fruit"))

	tags, err := s.ItemTags(ctx, "banana")
	require.NoError(t, err)
	assert.Equal(t, []string{"Potassium", "fruit"}, tags)
}

func TestAddItemTag_UnknownItem(t *testing.T) {
	s := createTestStore(t)

	err := s.AddItemTag(context.Background(), "durian", "smelly")
	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))

	lax := createTestStore(t, WithReferenceChecks(false))
	require.NoError(t, lax.AddItemTag(context.Background(), "durian", "smelly"))
}
