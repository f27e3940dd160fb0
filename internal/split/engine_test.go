package split_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-patungan/internal/split"
)

const tolerance = 1e-9

func ptr(v float64) *float64 { return &v }

func TestComputeScenario(t *testing.T) {
	// Item A: estimate 10, no override, fully claimed by u1.
	// Item B: estimate 15 overridden to 20, claimed 0.5/0.5 by u1 and u2.
	// Item C: no price, no claims; counts toward the total only.
	u1 := uuid.New()
	u2 := uuid.New()
	a := split.Item{ID: uuid.New(), Name: "A", Estimate: ptr(10.0), Claims: []split.Claim{{UserID: u1, Percentage: 1.0}}}
	b := split.Item{ID: uuid.New(), Name: "B", Estimate: ptr(15.0), Claims: []split.Claim{
		{UserID: u1, Percentage: 0.5},
		{UserID: u2, Percentage: 0.5},
	}}
	c := split.Item{ID: uuid.New(), Name: "C"}

	res := split.Compute([]split.Item{a, b, c}, split.PriceMap{b.ID: 20.0}, split.Options{})

	require.InDelta(t, 30.0, res.Total, tolerance)
	require.Equal(t, []uuid.UUID{u1, u2}, res.Users)
	require.InDelta(t, 20.0, res.Shares[u1].Amount, tolerance)
	require.InDelta(t, 10.0, res.Shares[u2].Amount, tolerance)

	require.Len(t, res.Shares[u1].Items, 2)
	require.Equal(t, a.ID, res.Shares[u1].Items[0].ItemID)
	require.Equal(t, b.ID, res.Shares[u1].Items[1].ItemID)

	for _, share := range res.Shares {
		for _, contrib := range share.Items {
			require.NotEqual(t, c.ID, contrib.ItemID)
		}
	}
}

func TestComputePriceResolution(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name   string
		item   split.Item
		prices split.PriceMap
		want   float64
	}{
		{"checkout price wins", split.Item{ID: id, Estimate: ptr(5.0)}, split.PriceMap{id: 7.5}, 7.5},
		{"explicit zero overrides estimate", split.Item{ID: id, Estimate: ptr(5.0)}, split.PriceMap{id: 0.0}, 0.0},
		{"estimate when absent", split.Item{ID: id, Estimate: ptr(5.0)}, split.PriceMap{}, 5.0},
		{"zero when nothing known", split.Item{ID: id}, nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, split.ResolvePrice(tt.item, tt.prices), tolerance)
		})
	}
}

func TestComputeSingleClaimGetsFullPrice(t *testing.T) {
	u := uuid.New()
	for _, p := range []float64{0.01, 0.4, 1.0} {
		it := split.Item{ID: uuid.New(), Name: "solo", Estimate: ptr(12.0), Claims: []split.Claim{{UserID: u, Percentage: p}}}
		res := split.Compute([]split.Item{it}, nil, split.Options{})
		require.InDelta(t, 12.0, res.Shares[u].Amount, tolerance, "percentage %v", p)
	}
}

func TestComputeProportionalShares(t *testing.T) {
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	it := split.Item{ID: uuid.New(), Name: "shared", Claims: []split.Claim{
		{UserID: u1, Percentage: 0.2},
		{UserID: u2, Percentage: 0.3},
		{UserID: u3, Percentage: 0.5},
	}}
	res := split.Compute([]split.Item{it}, split.PriceMap{it.ID: 50.0}, split.Options{})

	require.InDelta(t, 10.0, res.Shares[u1].Amount, tolerance)
	require.InDelta(t, 15.0, res.Shares[u2].Amount, tolerance)
	require.InDelta(t, 25.0, res.Shares[u3].Amount, tolerance)

	var claimed float64
	for _, share := range res.Shares {
		claimed += share.Amount
	}
	require.InDelta(t, 50.0, claimed, tolerance)
}

func TestComputeTotalsIncludeUnclaimed(t *testing.T) {
	u := uuid.New()
	claimed := split.Item{ID: uuid.New(), Name: "claimed", Estimate: ptr(8.0), Claims: []split.Claim{{UserID: u, Percentage: 1.0}}}
	unclaimed := split.Item{ID: uuid.New(), Name: "unclaimed", Estimate: ptr(4.0)}

	res := split.Compute([]split.Item{claimed, unclaimed}, nil, split.Options{})

	require.InDelta(t, 12.0, res.Total, tolerance)
	var owed float64
	for _, share := range res.Shares {
		owed += share.Amount
	}
	require.InDelta(t, 8.0, owed, tolerance)
}

func TestComputeAssignToOwner(t *testing.T) {
	owner := uuid.New()
	u := uuid.New()
	claimed := split.Item{ID: uuid.New(), Name: "claimed", Estimate: ptr(8.0), Claims: []split.Claim{{UserID: u, Percentage: 0.75}}}
	unclaimed := split.Item{ID: uuid.New(), Name: "unclaimed", Estimate: ptr(4.0)}

	res := split.Compute([]split.Item{claimed, unclaimed}, nil, split.Options{
		Unclaimed: split.UnclaimedAssignToOwner,
		OwnerID:   owner,
	})

	require.InDelta(t, 12.0, res.Total, tolerance)
	require.InDelta(t, 8.0, res.Shares[u].Amount, tolerance)
	require.InDelta(t, 4.0, res.Shares[owner].Amount, tolerance)
	require.Equal(t, "unclaimed", res.Shares[owner].Items[0].ItemName)
}

func TestComputeZeroWeightGuard(t *testing.T) {
	u := uuid.New()
	it := split.Item{ID: uuid.New(), Name: "degenerate", Estimate: ptr(10.0), Claims: []split.Claim{{UserID: u, Percentage: 0}}}

	res := split.Compute([]split.Item{it}, nil, split.Options{})

	require.InDelta(t, 10.0, res.Total, tolerance)
	require.InDelta(t, 0.0, res.Shares[u].Amount, tolerance)
}

func TestComputeIdempotent(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	items := []split.Item{
		{ID: uuid.New(), Name: "x", Estimate: ptr(3.0), Claims: []split.Claim{{UserID: u1, Percentage: 0.6}, {UserID: u2, Percentage: 0.4}}},
		{ID: uuid.New(), Name: "y", Estimate: ptr(9.0), Claims: []split.Claim{{UserID: u2, Percentage: 1.0}}},
	}
	prices := split.PriceMap{items[0].ID: 6.0}

	first := split.Compute(items, prices, split.Options{})
	second := split.Compute(items, prices, split.Options{})

	require.Equal(t, first.Total, second.Total)
	require.Equal(t, first.Users, second.Users)
	for id, share := range first.Shares {
		require.Equal(t, share.Amount, second.Shares[id].Amount)
		require.Equal(t, share.Items, second.Shares[id].Items)
	}
	// Inputs must not be mutated.
	require.InDelta(t, 3.0, *items[0].Estimate, tolerance)
	require.Len(t, items[0].Claims, 2)
}

func TestComputeOrderContract(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	first := split.Item{ID: uuid.New(), Name: "first", Estimate: ptr(2.0), Claims: []split.Claim{{UserID: u2, Percentage: 1.0}}}
	second := split.Item{ID: uuid.New(), Name: "second", Estimate: ptr(4.0), Claims: []split.Claim{
		{UserID: u1, Percentage: 0.5},
		{UserID: u2, Percentage: 0.5},
	}}

	res := split.Compute([]split.Item{first, second}, nil, split.Options{})

	// u2 appears first because its claim is seen first.
	require.Equal(t, []uuid.UUID{u2, u1}, res.Users)
	require.Equal(t, first.ID, res.Shares[u2].Items[0].ItemID)
	require.Equal(t, second.ID, res.Shares[u2].Items[1].ItemID)

	// Reversing item order changes only ordering, never amounts.
	rev := split.Compute([]split.Item{second, first}, nil, split.Options{})
	require.Equal(t, []uuid.UUID{u1, u2}, rev.Users)
	require.InDelta(t, res.Shares[u1].Amount, rev.Shares[u1].Amount, tolerance)
	require.InDelta(t, res.Shares[u2].Amount, rev.Shares[u2].Amount, tolerance)
}

func TestParseUnclaimedPolicy(t *testing.T) {
	policy, err := split.ParseUnclaimedPolicy("assign_owner")
	require.NoError(t, err)
	require.Equal(t, split.UnclaimedAssignToOwner, policy)

	policy, err = split.ParseUnclaimedPolicy("ignore")
	require.NoError(t, err)
	require.Equal(t, split.UnclaimedIgnore, policy)

	policy, err = split.ParseUnclaimedPolicy("")
	require.NoError(t, err)
	require.Equal(t, split.UnclaimedIgnore, policy)

	_, err = split.ParseUnclaimedPolicy("bogus")
	require.Error(t, err)
}
