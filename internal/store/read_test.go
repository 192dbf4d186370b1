package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/grocer/internal/grocery"
)

func labels(ranked []grocery.Ranked) []string {
	out := make([]string, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.Label)
	}
	return out
}

func TestValueRanking_Ascending(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, item := range []string{"A", "B", "C"} {
		seedItem(t, s, item, "Winco")
	}

	require.NoError(t, s.AddPrice(ctx, observation(t, "A", "Winco", "2024-01-01", 10, 5)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "B", "Winco", "2024-01-01", 3, 1)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "C", "Winco", "2024-01-01", 20, 10)))

	ranked, err := s.ValueRanking(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, []string{"A", "C"}, labels(ranked))
	assert.InDelta(t, 2.0, ranked[0].Value, 1e-9)
	assert.InDelta(t, 2.0, ranked[1].Value, 1e-9)
}

func TestValueRanking_DefaultLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07"}
	for i, d := range dates {
		require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", d, int64(i+1), 1)))
	}

	ranked, err := s.ValueRanking(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, ranked, DefaultValueLimit)
	assert.InDelta(t, 1.0, ranked[0].Value, 1e-9)
}

func TestValueRanking_FewerRowsThanLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 1, 1)))

	ranked, err := s.ValueRanking(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, ranked, 1)
}

func TestValueRanking_SkipsMissingQuantity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "zero", "Winco")
	seedItem(t, s, "null", "Winco")
	seedItem(t, s, "real", "Winco")

	require.NoError(t, s.AddPrice(ctx, observation(t, "zero", "Winco", "2024-01-01", 5, 0)))

	p := grocery.NewPriceObservation("null", "Winco", mustDate(t, "2024-01-01"))
	p.Price = decimal.NewFromInt(1)
	p.Quantity = decimal.NullDecimal{}
	require.NoError(t, s.AddPrice(ctx, p))

	require.NoError(t, s.AddPrice(ctx, observation(t, "real", "Winco", "2024-01-01", 4, 2)))

	ranked, err := s.ValueRanking(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, labels(ranked))
}

func TestValueRanking_FractionalPrices(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "milk", "Winco")
	seedItem(t, s, "eggs", "Winco")

	milk := grocery.NewPriceObservation("milk", "Winco", mustDate(t, "2024-01-01"))
	milk.Price = decimal.RequireFromString("3.49")
	milk.Quantity = decimal.NewNullDecimal(decimal.NewFromInt(2))
	require.NoError(t, s.AddPrice(ctx, milk))

	eggs := grocery.NewPriceObservation("eggs", "Winco", mustDate(t, "2024-01-01"))
	eggs.Price = decimal.RequireFromString("1.50")
	require.NoError(t, s.AddPrice(ctx, eggs))

	ranked, err := s.ValueRanking(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"eggs", "milk"}, labels(ranked))
	assert.InDelta(t, 1.745, ranked[1].Value, 1e-9)
}

func TestValueRanking_EqualRatiosKeepStorageOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "first", "Winco")
	seedItem(t, s, "second", "Winco")

	first := grocery.NewPriceObservation("first", "Winco", mustDate(t, "2024-01-01"))
	first.Price = decimal.RequireFromString("0.1")
	require.NoError(t, s.AddPrice(ctx, first))

	second := grocery.NewPriceObservation("second", "Winco", mustDate(t, "2024-01-01"))
	second.Price = decimal.RequireFromString("0.3")
	second.Quantity = decimal.NewNullDecimal(decimal.NewFromInt(3))
	require.NoError(t, s.AddPrice(ctx, second))

	ranked, err := s.ValueRanking(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, labels(ranked))
	assert.Equal(t, ranked[0].Value, ranked[1].Value)
	assert.InDelta(t, 0.1, ranked[1].Value, 1e-12)
}

func TestValueRanking_Empty(t *testing.T) {
	s := createTestStore(t)

	ranked, err := s.ValueRanking(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestFrequencyRanking(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "X", "Winco")
	seedItem(t, s, "Y", "Winco")

	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"} {
		require.NoError(t, s.AddPrice(ctx, observation(t, "X", "Winco", d, 1, 1)))
	}
	for _, d := range []string{"2024-01-01", "2024-01-02"} {
		require.NoError(t, s.AddPrice(ctx, observation(t, "Y", "Winco", d, 1, 1)))
	}

	ranked, err := s.FrequencyRanking(ctx, 3)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, grocery.Ranked{Label: "X", Value: 5}, ranked[0])
	assert.Equal(t, grocery.Ranked{Label: "Y", Value: 2}, ranked[1])
}

func TestFrequencyRanking_TiesKeepFirstSeenOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, item := range []string{"pear", "apple", "fig"} {
		seedItem(t, s, item, "Winco")
		require.NoError(t, s.AddPrice(ctx, observation(t, item, "Winco", "2024-01-01", 1, 1)))
	}

	ranked, err := s.FrequencyRanking(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"pear", "apple", "fig"}, labels(ranked))
}

func TestFrequencyRanking_GroupsBrandsByName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")
	seedItem(t, s, "banana", "Dole")

	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 1, 1)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Dole", "2024-01-02", 1, 1)))

	ranked, err := s.FrequencyRanking(ctx, 3)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, 2.0, ranked[0].Value)
}

func TestDiversityRanking(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, item := range []string{"a", "b", "c"} {
		seedItem(t, s, item, "Acme")
	}
	seedItem(t, s, "a", "Beta")
	// Not a store brand.
	require.NoError(t, s.AddItem(ctx, "d", "Kellogg"))

	ranked, err := s.DiversityRanking(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, grocery.Ranked{Label: "Acme", Value: 3}, ranked[0])
	assert.Equal(t, grocery.Ranked{Label: "Beta", Value: 1}, ranked[1])
}

func TestDiversityRanking_Limit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, brand := range []string{"S1", "S2", "S3", "S4", "S5", "S6"} {
		seedItem(t, s, "milk", brand)
	}

	ranked, err := s.DiversityRanking(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2", "S3", "S4"}, labels(ranked))

	ranked, err = s.DiversityRanking(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}

func TestSummary_SingleObservation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")
	require.NoError(t, s.AddItemTag(ctx, "banana", "fruit"))
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 10, 1)))

	sum, err := s.Summary(ctx)
	require.NoError(t, err)

	tags, err := s.ItemTags(ctx, "banana")
	require.NoError(t, err)
	assert.Equal(t, []string{"fruit"}, tags)

	assert.Equal(t, 1, sum.DistinctItems)
	assert.Equal(t, 1, sum.Observations)
	require.NotNil(t, sum.BestValue)
	assert.Equal(t, "banana", sum.BestValue.Label)
	assert.InDelta(t, 10.0, sum.BestValue.Value, 1e-9)
	require.NotNil(t, sum.MostFrequent)
	assert.Equal(t, grocery.Ranked{Label: "banana", Value: 1}, *sum.MostFrequent)
	require.NotNil(t, sum.MostDiverse)
	assert.Equal(t, grocery.Ranked{Label: "Winco", Value: 1}, *sum.MostDiverse)
}

func TestSummary_Empty(t *testing.T) {
	s := createTestStore(t)

	sum, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.DistinctItems)
	assert.Equal(t, 0, sum.Observations)
	assert.Nil(t, sum.BestValue)
	assert.Nil(t, sum.MostFrequent)
	assert.Nil(t, sum.MostDiverse)
}

func TestSummary_CountsDistinctNames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")
	seedItem(t, s, "banana", "Dole")
	seedItem(t, s, "apple", "Winco")

	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 1, 1)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Dole", "2024-01-02", 1, 1)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "apple", "Winco", "2024-01-01", 1, 1)))

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.DistinctItems)
	assert.Equal(t, 3, sum.Observations)
}

func TestPriceHistory_OldestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-03-01", 3, 1)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 1, 1)))
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-02-01", 2, 1)))

	history, err := s.PriceHistory(ctx, "banana", "Winco")
	require.NoError(t, err)
	require.Len(t, history, 3)

	var got []string
	for _, p := range history {
		got = append(got, grocery.FormatDate(p.LogDate))
		assert.Equal(t, "banana", p.ItemName)
		assert.Equal(t, "Winco", p.ItemBrand)
		assert.Equal(t, "Unit", p.QuantityType)
	}
	assert.Equal(t, []string{"2024-01-01", "2024-02-01", "2024-03-01"}, got)
	assert.True(t, history[2].Price.Equal(decimal.NewFromInt(3)))
}

func TestPriceHistory_OtherBrandExcluded(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")
	seedItem(t, s, "banana", "Dole")
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Dole", "2024-01-01", 1, 1)))

	history, err := s.PriceHistory(ctx, "banana", "Winco")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPriceHistory_NormalizesLookup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "café", "Winco")
	require.NoError(t, s.AddPrice(ctx, observation(t, "café", "Winco", "2024-01-01", 1, 1)))

	history, err := s.PriceHistory(ctx, " café ", "Winco")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "café", history[0].ItemName)
}

func TestPriceHistory_EmptyName(t *testing.T) {
	s := createTestStore(t)

	_, err := s.PriceHistory(context.Background(), "", "Winco")
	require.Error(t, err)
	assert.True(t, IsInvalidArgument(err))
}

func TestCoupons_SoonestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	late := grocery.NewCoupon("banana", "Winco", grocery.DiscountMultiBuy, decimal.NewFromInt(2), mustDate(t, "2024-06-01"))
	late.StoreCard = true
	late.CouponType = "Store"
	require.NoError(t, s.AddCoupon(ctx, late))
	require.NoError(t, s.AddCoupon(ctx, grocery.NewCoupon("banana", "Winco", grocery.DiscountAmount, decimal.RequireFromString("0.5"), mustDate(t, "2024-03-01"))))

	coupons, err := s.Coupons(ctx, "banana", "Winco")
	require.NoError(t, err)
	require.Len(t, coupons, 2)

	assert.Equal(t, "2024-03-01", grocery.FormatDate(coupons[0].ExpirationDate))
	assert.Equal(t, grocery.DiscountAmount, coupons[0].DiscountType)
	assert.True(t, coupons[0].DiscountValue.Equal(decimal.RequireFromString("0.5")))

	assert.Equal(t, grocery.DiscountMultiBuy, coupons[1].DiscountType)
	assert.True(t, coupons[1].StoreCard)
	assert.Equal(t, "Store", coupons[1].CouponType)
}

func TestItemTags_Empty(t *testing.T) {
	s := createTestStore(t)

	tags, err := s.ItemTags(context.Background(), "banana")
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestDump(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")
	require.NoError(t, s.AddStoreTag(ctx, "Winco", "cheap"))
	require.NoError(t, s.AddItemTag(ctx, "banana", "fruit"))
	require.NoError(t, s.AddPrice(ctx, observation(t, "banana", "Winco", "2024-01-01", 2, 1)))
	require.NoError(t, s.AddCoupon(ctx, grocery.NewCoupon("banana", "Winco", grocery.DiscountPercent, decimal.NewFromInt(10), mustDate(t, "2024-02-01"))))

	snap, err := s.Dump(ctx)
	require.NoError(t, err)

	assert.Equal(t, []grocery.Store{{Name: "Winco"}}, snap.Stores)
	assert.Equal(t, []grocery.Item{{Name: "banana", Brand: "Winco"}}, snap.Items)
	assert.Equal(t, []grocery.StoreTag{{Tag: "cheap", StoreName: "Winco"}}, snap.StoreTags)
	assert.Equal(t, []grocery.ItemTag{{Tag: "fruit", ItemName: "banana"}}, snap.ItemTags)
	require.Len(t, snap.Prices, 1)
	assert.Equal(t, "2024-01-01", grocery.FormatDate(snap.Prices[0].LogDate))
	require.Len(t, snap.Coupons, 1)
	assert.Equal(t, grocery.DiscountPercent, snap.Coupons[0].DiscountType)
}

func TestDump_Empty(t *testing.T) {
	s := createTestStore(t)

	snap, err := s.Dump(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Stores)
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Prices)
	assert.Empty(t, snap.Coupons)
	assert.Empty(t, snap.StoreTags)
	assert.Empty(t, snap.ItemTags)
}

func TestRead_SchemaError(t *testing.T) {
	s := createTestStore(t)
	_, err := s.db.Exec(`DROP TABLE PRICES`)
	require.NoError(t, err)

	_, err = s.ValueRanking(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, IsSchemaError(err), "got %v", err)
}

func TestReads_ConcurrentWithWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	seedItem(t, s, "banana", "Winco")

	const n = 50
	start := mustDate(t, "2024-01-01")
	errs := make(chan error, 3*n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(3)
		go func(day int) {
			defer wg.Done()
			p := grocery.NewPriceObservation("banana", "Winco", start.Add(time.Duration(day)*24*time.Hour))
			p.Price = decimal.NewFromInt(int64(day + 1))
			errs <- s.AddPrice(ctx, p)
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.Summary(ctx)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := s.ValueRanking(ctx, 5)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, n, countRows(t, s, "PRICES"))

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, sum.Observations)
	require.NotNil(t, sum.BestValue)
	assert.InDelta(t, 1.0, sum.BestValue.Value, 1e-9)
}
