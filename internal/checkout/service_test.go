package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-patungan/internal/split"
	"github.com/noah-isme/backend-patungan/internal/store"
)

func itemRow(id uuid.UUID, name string, estimate *float64) store.Item {
	return store.Item{
		ID:            store.FromUUID(id),
		Name:          name,
		PriceEstimate: store.ToFloat8(estimate),
	}
}

func claimRow(itemID, userID uuid.UUID, pct float64) store.ItemClaim {
	return store.ItemClaim{
		ID:         store.FromUUID(uuid.New()),
		ItemID:     store.FromUUID(itemID),
		UserID:     store.FromUUID(userID),
		Percentage: pct,
	}
}

func f(v float64) *float64 { return &v }

func TestAssembleItemsJoinsClaims(t *testing.T) {
	itemA := uuid.New()
	itemB := uuid.New()
	u1 := uuid.New()
	u2 := uuid.New()

	items := assembleItems(
		[]store.Item{
			itemRow(itemA, "Milk", f(3.5)),
			itemRow(itemB, "Bread", nil),
		},
		[]store.ItemClaim{
			claimRow(itemA, u1, 0.5),
			claimRow(itemA, u2, 0.5),
			claimRow(itemB, u1, 1),
			claimRow(uuid.New(), u1, 1), // claim on unknown item is dropped
		},
	)

	require.Len(t, items, 2)
	require.Equal(t, "Milk", items[0].Name)
	require.NotNil(t, items[0].Estimate)
	require.Equal(t, 3.5, *items[0].Estimate)
	require.Len(t, items[0].Claims, 2)
	require.Nil(t, items[1].Estimate)
	require.Len(t, items[1].Claims, 1)
	require.Equal(t, u1, items[1].Claims[0].UserID)
}

func TestMockPricesPrefersEstimates(t *testing.T) {
	withEstimate := uuid.New()
	without := uuid.New()

	prices := mockPrices([]store.Item{
		itemRow(withEstimate, "Milk", f(2.25)),
		itemRow(without, "Bread", nil),
	}, 1.0)

	require.Equal(t, 2.25, prices[withEstimate])
	require.Equal(t, 1.0, prices[without])
}

func TestParsePrices(t *testing.T) {
	id := uuid.New()
	prices, err := parsePrices(map[string]float64{id.String(): 4.2})
	require.NoError(t, err)
	require.Equal(t, 4.2, prices[id])

	_, err = parsePrices(map[string]float64{"not-a-uuid": 1})
	require.Error(t, err)

	_, err = parsePrices(map[string]float64{id.String(): -1})
	require.Error(t, err)

	empty, err := parsePrices(nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestBuildOutputPreservesEngineOrder(t *testing.T) {
	itemA := uuid.New()
	itemB := uuid.New()
	u1 := uuid.New()
	u2 := uuid.New()

	items := []split.Item{
		{ID: itemA, Name: "A", Claims: []split.Claim{{UserID: u1, Percentage: 1}}},
		{ID: itemB, Name: "B", Claims: []split.Claim{
			{UserID: u1, Percentage: 0.5},
			{UserID: u2, Percentage: 0.5},
		}},
	}
	result := split.Compute(items, split.PriceMap{itemA: 10, itemB: 20}, split.Options{})

	billID := uuid.New()
	listID := uuid.New()
	out := buildOutput(store.Bill{
		ID:     store.FromUUID(billID),
		ListID: store.FromUUID(listID),
		Total:  result.Total,
		CreatedAt: pgtype.Timestamptz{
			Valid: true,
		},
	}, result)

	require.Equal(t, billID.String(), out.BillID)
	require.Equal(t, listID.String(), out.ListID)
	require.InDelta(t, 30.0, out.Total, 1e-9)
	require.Len(t, out.PerUser, 2)
	// first seen user comes first
	require.Equal(t, u1.String(), out.PerUser[0].UserID)
	require.InDelta(t, 20.0, out.PerUser[0].AmountOwed, 1e-9)
	require.Equal(t, u2.String(), out.PerUser[1].UserID)
	require.InDelta(t, 10.0, out.PerUser[1].AmountOwed, 1e-9)
	require.Len(t, out.PerUser[0].Items, 2)
	require.Equal(t, "A", out.PerUser[0].Items[0].ItemName)
}
