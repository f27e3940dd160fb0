// Package split implements the bill split computation. It is pure: no I/O,
// no persistence, safe for concurrent use with independent inputs.
package split

import (
	"fmt"

	"github.com/google/uuid"
)

// Claim is one user's fractional stake in an item. Percentage is expected to
// be in (0, 1]; validation happens where claims are created, not here.
type Claim struct {
	UserID     uuid.UUID
	Percentage float64
}

// Item is a list item together with its claims, already loaded by the caller.
type Item struct {
	ID       uuid.UUID
	Name     string
	Estimate *float64
	Claims   []Claim
}

// PriceMap maps item ids to authoritative final prices supplied at checkout.
// Presence is what matters: an explicit 0.0 overrides the item's estimate.
type PriceMap map[uuid.UUID]float64

// UnclaimedPolicy controls how items without claims contribute to the
// per-user breakdown. They always count toward the total.
type UnclaimedPolicy string

const (
	// UnclaimedIgnore leaves unclaimed items out of every user's breakdown.
	UnclaimedIgnore UnclaimedPolicy = "ignore"
	// UnclaimedAssignToOwner attributes the full price of unclaimed items
	// to the list owner.
	UnclaimedAssignToOwner UnclaimedPolicy = "assign_owner"
)

// ParseUnclaimedPolicy maps a config string to a policy. The empty string
// defaults to ignore; any other unknown value is rejected.
func ParseUnclaimedPolicy(value string) (UnclaimedPolicy, error) {
	switch UnclaimedPolicy(value) {
	case "", UnclaimedIgnore:
		return UnclaimedIgnore, nil
	case UnclaimedAssignToOwner:
		return UnclaimedAssignToOwner, nil
	}
	return "", fmt.Errorf("unknown unclaimed policy %q", value)
}

// Options tunes a single computation.
type Options struct {
	Unclaimed UnclaimedPolicy
	// OwnerID receives unclaimed items under UnclaimedAssignToOwner.
	OwnerID uuid.UUID
}

// Contribution is one (item, amount) pair inside a user's breakdown.
type Contribution struct {
	ItemID   uuid.UUID
	ItemName string
	Amount   float64
}

// Share accumulates what a single user owes.
type Share struct {
	Amount float64
	Items  []Contribution
}

// Result is the full outcome of a split computation. Users lists user ids in
// the order they first appeared (item order, then claim order within an
// item), which also fixes the order of each Share's Items slice.
type Result struct {
	Total  float64
	Users  []uuid.UUID
	Shares map[uuid.UUID]*Share
}

// ResolvePrice picks the price used for an item: the checkout price when the
// map contains the item's id (including an explicit zero), else the item's
// estimate, else 0.
func ResolvePrice(it Item, prices PriceMap) float64 {
	if price, ok := prices[it.ID]; ok {
		return price
	}
	if it.Estimate != nil {
		return *it.Estimate
	}
	return 0
}

// Compute walks the items in order, resolves each price, and attributes each
// claimed item's price to its claimants proportionally to their percentages.
// Percentages are normalized against the sum on the same item, so a lone
// claim of 0.4 still receives the whole item.
func Compute(items []Item, prices PriceMap, opts Options) Result {
	res := Result{Shares: make(map[uuid.UUID]*Share)}

	assignOwner := opts.Unclaimed == UnclaimedAssignToOwner && opts.OwnerID != uuid.Nil

	for _, it := range items {
		price := ResolvePrice(it, prices)
		res.Total += price

		if len(it.Claims) == 0 {
			if assignOwner {
				res.add(opts.OwnerID, it, price)
			}
			continue
		}

		var sum float64
		for _, c := range it.Claims {
			sum += c.Percentage
		}
		if sum == 0 {
			// Unreachable while the (0,1] invariant holds; keeps the
			// division defined if it ever doesn't.
			sum = 1
		}

		for _, c := range it.Claims {
			res.add(c.UserID, it, price*(c.Percentage/sum))
		}
	}

	return res
}

func (r *Result) add(userID uuid.UUID, it Item, amount float64) {
	share, ok := r.Shares[userID]
	if !ok {
		share = &Share{}
		r.Shares[userID] = share
		r.Users = append(r.Users, userID)
	}
	share.Amount += amount
	share.Items = append(share.Items, Contribution{ItemID: it.ID, ItemName: it.Name, Amount: amount})
}
