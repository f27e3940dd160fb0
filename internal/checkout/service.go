package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-patungan/internal/common"
	"github.com/noah-isme/backend-patungan/internal/events"
	"github.com/noah-isme/backend-patungan/internal/lock"
	"github.com/noah-isme/backend-patungan/internal/obs"
	"github.com/noah-isme/backend-patungan/internal/split"
	"github.com/noah-isme/backend-patungan/internal/store"
)

// Input captures payload for a split checkout. Prices override item
// estimates per item id; an explicit zero counts as a real price.
type Input struct {
	ListID string             `json:"list_id"`
	Prices map[string]float64 `json:"prices"`
}

// Contribution is one item's share of a user's total.
type Contribution struct {
	ItemID   string  `json:"item_id"`
	ItemName string  `json:"item_name"`
	Amount   float64 `json:"amount"`
}

// UserShare is one user's slice of the bill.
type UserShare struct {
	UserID     string         `json:"user_id"`
	AmountOwed float64        `json:"amount_owed"`
	Items      []Contribution `json:"items"`
}

// Output is the recorded bill with its per-user breakdown.
type Output struct {
	BillID  string      `json:"bill_id"`
	ListID  string      `json:"list_id"`
	Total   float64     `json:"total"`
	PerUser []UserShare `json:"per_user"`
}

// Service runs checkout: it snapshots the list, computes the split, and
// records the bill atomically while holding a per-list lock.
type Service struct {
	Q                *store.Queries
	Pool             *pgxpool.Pool
	Locker           lock.Locker
	LockTTL          time.Duration
	Events           *events.Bus
	Policy           split.UnclaimedPolicy
	MockDefaultPrice float64
}

// Split performs a checkout with caller-provided prices.
func (s *Service) Split(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	lid, err := store.ToUUID(in.ListID)
	if err != nil {
		return Output{}, common.Invalid("list id must be a UUID", nil)
	}
	prices, err := parsePrices(in.Prices)
	if err != nil {
		return Output{}, err
	}
	return s.checkoutLocked(ctx, store.UUIDString(lid), prices, "split")
}

// Mock performs a checkout pricing every item by its estimate, falling back
// to the configured default for items without one.
func (s *Service) Mock(ctx context.Context, listID string) (Output, error) {
	if s == nil || s.Q == nil || s.Pool == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	lid, err := store.ToUUID(listID)
	if err != nil {
		return Output{}, common.Invalid("list id must be a UUID", nil)
	}
	items, err := s.Q.ListItemsByList(ctx, lid)
	if err != nil {
		return Output{}, err
	}
	prices := mockPrices(items, s.MockDefaultPrice)
	return s.checkoutLocked(ctx, store.UUIDString(lid), prices, "mock")
}

func (s *Service) checkoutLocked(ctx context.Context, listID string, prices split.PriceMap, mode string) (Output, error) {
	var out Output
	run := func(ctx context.Context) error {
		var err error
		out, err = s.checkout(ctx, listID, prices)
		return err
	}
	var err error
	if s.Locker.R != nil {
		err = s.Locker.WithLock(ctx, lock.ListKey(listID), s.LockTTL, run)
	} else {
		err = run(ctx)
	}
	s.count(mode, err)
	if err != nil {
		return Output{}, err
	}
	return out, nil
}

func (s *Service) checkout(ctx context.Context, listID string, prices split.PriceMap) (Output, error) {
	lid, err := store.ToUUID(listID)
	if err != nil {
		return Output{}, common.Invalid("list id must be a UUID", nil)
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)

	listRow, err := qtx.GetListByID(ctx, lid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Output{}, common.NotFound("list")
		}
		return Output{}, err
	}
	if listRow.Status == store.ListStatusCheckedOut {
		return Output{}, common.Conflict("ALREADY_CHECKED_OUT", "list already checked out")
	}
	itemRows, err := qtx.ListItemsByList(ctx, lid)
	if err != nil {
		return Output{}, err
	}
	claimRows, err := qtx.ListClaimsForList(ctx, lid)
	if err != nil {
		return Output{}, err
	}

	result := split.Compute(assembleItems(itemRows, claimRows), prices, split.Options{
		Unclaimed: s.Policy,
		OwnerID:   store.UUIDValue(listRow.OwnerID),
	})

	bill, err := qtx.CreateBill(ctx, store.CreateBillParams{
		ListID: lid,
		Total:  result.Total,
	})
	if err != nil {
		return Output{}, err
	}
	for _, userID := range result.Users {
		share := result.Shares[userID]
		for _, c := range share.Items {
			if err := qtx.CreateBillLine(ctx, store.CreateBillLineParams{
				BillID: bill.ID,
				ItemID: store.FromUUID(c.ItemID),
				UserID: store.FromUUID(userID),
				Amount: c.Amount,
			}); err != nil {
				return Output{}, err
			}
		}
	}
	if err := qtx.UpdateListStatus(ctx, store.UpdateListStatusParams{
		ID:     lid,
		Status: store.ListStatusCheckedOut,
	}); err != nil {
		return Output{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	if obs.BillTotalAmount != nil {
		obs.BillTotalAmount.Observe(result.Total)
	}
	if s.Events != nil {
		// best effort, the bus logs persist failures
		_, _ = s.Events.Emit(ctx, events.TopicBillCreated, bill.ID, map[string]any{
			"billId": store.UUIDString(bill.ID),
			"listId": listID,
			"total":  result.Total,
		})
	}
	return buildOutput(bill, result), nil
}

func (s *Service) count(mode string, err error) {
	if obs.CheckoutTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < 500 {
			result = "rejected"
		}
	}
	obs.CheckoutTotal.WithLabelValues(mode, result).Inc()
}

func parsePrices(raw map[string]float64) (split.PriceMap, error) {
	if len(raw) == 0 {
		return split.PriceMap{}, nil
	}
	prices := make(split.PriceMap, len(raw))
	for key, price := range raw {
		id, err := store.ToUUID(key)
		if err != nil {
			return nil, common.Invalid("price keys must be item UUIDs", map[string]any{"key": key})
		}
		if price < 0 {
			return nil, common.Invalid("prices must not be negative", map[string]any{"key": key})
		}
		prices[store.UUIDValue(id)] = price
	}
	return prices, nil
}

// mockPrices synthesizes an override for every item so the engine prices the
// whole list deterministically: the estimate when present, def otherwise.
func mockPrices(items []store.Item, def float64) split.PriceMap {
	if def <= 0 {
		def = 1.0
	}
	prices := make(split.PriceMap, len(items))
	for _, it := range items {
		if it.PriceEstimate.Valid {
			prices[store.UUIDValue(it.ID)] = it.PriceEstimate.Float64
		} else {
			prices[store.UUIDValue(it.ID)] = def
		}
	}
	return prices
}

// assembleItems joins item rows with their claims in stored order.
func assembleItems(itemRows []store.Item, claimRows []store.ItemClaim) []split.Item {
	items := make([]split.Item, 0, len(itemRows))
	index := make(map[string]int, len(itemRows))
	for _, row := range itemRows {
		index[store.UUIDString(row.ID)] = len(items)
		items = append(items, split.Item{
			ID:       store.UUIDValue(row.ID),
			Name:     row.Name,
			Estimate: store.Float8Ptr(row.PriceEstimate),
		})
	}
	for _, row := range claimRows {
		i, ok := index[store.UUIDString(row.ItemID)]
		if !ok {
			continue
		}
		items[i].Claims = append(items[i].Claims, split.Claim{
			UserID:     store.UUIDValue(row.UserID),
			Percentage: row.Percentage,
		})
	}
	return items
}

func buildOutput(bill store.Bill, result split.Result) Output {
	breakdown := make([]UserShare, 0, len(result.Users))
	for _, userID := range result.Users {
		share := result.Shares[userID]
		contributions := make([]Contribution, 0, len(share.Items))
		for _, c := range share.Items {
			contributions = append(contributions, Contribution{
				ItemID:   c.ItemID.String(),
				ItemName: c.ItemName,
				Amount:   c.Amount,
			})
		}
		breakdown = append(breakdown, UserShare{
			UserID:     userID.String(),
			AmountOwed: share.Amount,
			Items:      contributions,
		})
	}
	return Output{
		BillID:  store.UUIDString(bill.ID),
		ListID:  store.UUIDString(bill.ListID),
		Total:   bill.Total,
		PerUser: breakdown,
	}
}
