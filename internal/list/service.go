package list

import (
	"context"
	"errors"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-patungan/internal/common"
	"github.com/noah-isme/backend-patungan/internal/events"
	"github.com/noah-isme/backend-patungan/internal/obs"
	"github.com/noah-isme/backend-patungan/internal/store"
)

// List is the API-facing view of a shared list.
type List struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"owner_id"`
	Status     string    `json:"status"`
	InviteCode string    `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Claim is the API-facing view of an item claim.
type Claim struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	Percentage float64 `json:"percentage"`
}

// Item is the API-facing view of a list item with its claims.
type Item struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	PriceEstimate *float64 `json:"price_estimate,omitempty"`
	AddedBy       string   `json:"added_by"`
	Claims        []Claim  `json:"claims"`
}

// Detail combines a list with its items and claims.
type Detail struct {
	List  List   `json:"list"`
	Items []Item `json:"items"`
}

// ItemInput captures payload for adding an item.
type ItemInput struct {
	Name          string   `validate:"required"`
	PriceEstimate *float64 `validate:"omitempty,gt=0"`
}

// ClaimInput captures payload for claiming an item. Percentages are
// fractions, a claim for the whole item is 1.
type ClaimInput struct {
	Percentage float64 `validate:"required,gt=0,lte=1"`
}

// Querier is the subset of store queries the service needs outside of
// transactions.
type Querier interface {
	GetListByID(ctx context.Context, id pgtype.UUID) (store.SharedList, error)
	AddListMember(ctx context.Context, arg store.AddListMemberParams) error
	UpdateListStatus(ctx context.Context, arg store.UpdateListStatusParams) error
	CreateItem(ctx context.Context, arg store.CreateItemParams) (store.Item, error)
	ListItemsByList(ctx context.Context, listID pgtype.UUID) ([]store.Item, error)
	GetListItem(ctx context.Context, arg store.GetListItemParams) (store.Item, error)
	CreateClaim(ctx context.Context, arg store.CreateClaimParams) (store.ItemClaim, error)
	ListClaimsForList(ctx context.Context, listID pgtype.UUID) ([]store.ItemClaim, error)
}

// Service orchestrates shared list operations.
type Service struct {
	Q        Querier
	Pool     *pgxpool.Pool
	Validate *validator.Validate
	Events   *events.Bus
}

// Create opens a new shared list owned by ownerID. The owner becomes the
// list's admin member in the same transaction.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, name string) (List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return List{}, common.Invalid("name is required", nil)
	}
	if s.Pool == nil {
		return List{}, errors.New("list: pool not configured")
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return List{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	qtx := store.New(tx)
	created, err := qtx.CreateList(ctx, store.CreateListParams{
		Name:       name,
		OwnerID:    store.FromUUID(ownerID),
		InviteCode: store.ToText(newInviteCode()),
	})
	if err != nil {
		return List{}, err
	}
	if err := qtx.AddListMember(ctx, store.AddListMemberParams{
		ListID: created.ID,
		UserID: created.OwnerID,
		Role:   store.MemberRoleAdmin,
	}); err != nil {
		return List{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return List{}, err
	}

	s.emit(ctx, events.TopicListCreated, created.ID, map[string]any{
		"listId": store.UUIDString(created.ID),
		"name":   created.Name,
	})
	return convertList(created), nil
}

// Get returns a list with its items and claims.
func (s *Service) Get(ctx context.Context, listID string) (Detail, error) {
	row, err := s.getList(ctx, listID)
	if err != nil {
		return Detail{}, err
	}
	items, err := s.itemsWithClaims(ctx, row.ID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{List: convertList(row), Items: items}, nil
}

// AddItem appends an item to an open list. The caller is registered as an
// editor member on first write.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, listID string, input ItemInput) (Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate(input); err != nil {
		return Item{}, err
	}
	row, err := s.getList(ctx, listID)
	if err != nil {
		return Item{}, err
	}
	if row.Status != store.ListStatusOpen {
		return Item{}, common.Conflict("LIST_NOT_OPEN", "list no longer accepts changes")
	}
	if err := s.Q.AddListMember(ctx, store.AddListMemberParams{
		ListID: row.ID,
		UserID: store.FromUUID(userID),
		Role:   store.MemberRoleEditor,
	}); err != nil {
		return Item{}, err
	}
	created, err := s.Q.CreateItem(ctx, store.CreateItemParams{
		ListID:        row.ID,
		Name:          input.Name,
		PriceEstimate: store.ToFloat8(input.PriceEstimate),
		AddedByUserID: store.FromUUID(userID),
	})
	if err != nil {
		return Item{}, err
	}
	return convertItem(created, nil), nil
}

// Items returns the list's items with their claims.
func (s *Service) Items(ctx context.Context, listID string) ([]Item, error) {
	row, err := s.getList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return s.itemsWithClaims(ctx, row.ID)
}

// AddClaim records that userID claims a fraction of the given item.
func (s *Service) AddClaim(ctx context.Context, userID uuid.UUID, listID, itemID string, input ClaimInput) (Claim, error) {
	if err := s.validate(input); err != nil {
		return Claim{}, err
	}
	row, err := s.getList(ctx, listID)
	if err != nil {
		return Claim{}, err
	}
	if row.Status != store.ListStatusOpen {
		return Claim{}, common.Conflict("LIST_NOT_OPEN", "list no longer accepts changes")
	}
	iid, err := store.ToUUID(itemID)
	if err != nil {
		return Claim{}, common.Invalid("item id must be a UUID", nil)
	}
	item, err := s.Q.GetListItem(ctx, store.GetListItemParams{ID: iid, ListID: row.ID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, common.NotFound("item")
		}
		return Claim{}, err
	}
	if err := s.Q.AddListMember(ctx, store.AddListMemberParams{
		ListID: row.ID,
		UserID: store.FromUUID(userID),
		Role:   store.MemberRoleEditor,
	}); err != nil {
		return Claim{}, err
	}
	created, err := s.Q.CreateClaim(ctx, store.CreateClaimParams{
		ItemID:     item.ID,
		UserID:     store.FromUUID(userID),
		Percentage: input.Percentage,
	})
	if err != nil {
		return Claim{}, err
	}
	if obs.ClaimsCreatedTotal != nil {
		obs.ClaimsCreatedTotal.Inc()
	}
	return convertClaim(created), nil
}

// Lock freezes the list so checkout can run against a stable snapshot. Only
// the owner may lock.
func (s *Service) Lock(ctx context.Context, userID uuid.UUID, listID string) (List, error) {
	row, err := s.getList(ctx, listID)
	if err != nil {
		s.countLock("error")
		return List{}, err
	}
	if !store.UUIDEqual(row.OwnerID, store.FromUUID(userID)) {
		s.countLock("forbidden")
		return List{}, common.Forbidden("only the list owner can lock it")
	}
	switch row.Status {
	case store.ListStatusLocked:
		// locking twice is a no-op
		s.countLock("noop")
		return convertList(row), nil
	case store.ListStatusCheckedOut:
		s.countLock("conflict")
		return List{}, common.Conflict("LIST_CHECKED_OUT", "list already checked out")
	}
	if err := s.Q.UpdateListStatus(ctx, store.UpdateListStatusParams{
		ID:     row.ID,
		Status: store.ListStatusLocked,
	}); err != nil {
		s.countLock("error")
		return List{}, err
	}
	row.Status = store.ListStatusLocked
	s.countLock("locked")

	s.emit(ctx, events.TopicListLocked, row.ID, map[string]any{
		"listId": store.UUIDString(row.ID),
	})
	return convertList(row), nil
}

func (s *Service) getList(ctx context.Context, listID string) (store.SharedList, error) {
	lid, err := store.ToUUID(listID)
	if err != nil {
		return store.SharedList{}, common.Invalid("list id must be a UUID", nil)
	}
	row, err := s.Q.GetListByID(ctx, lid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.SharedList{}, common.NotFound("list")
		}
		return store.SharedList{}, err
	}
	return row, nil
}

func (s *Service) itemsWithClaims(ctx context.Context, listID pgtype.UUID) ([]Item, error) {
	rows, err := s.Q.ListItemsByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	claims, err := s.Q.ListClaimsForList(ctx, listID)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string][]Claim, len(rows))
	for _, c := range claims {
		key := store.UUIDString(c.ItemID)
		byItem[key] = append(byItem[key], convertClaim(c))
	}
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, convertItem(row, byItem[store.UUIDString(row.ID)]))
	}
	return items, nil
}

func (s *Service) validate(v any) error {
	if s.Validate == nil {
		return nil
	}
	if err := s.Validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return common.Invalid("validation failed", map[string]any{"fields": fields})
		}
		return common.Invalid("validation failed", nil)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, topic string, aggregate pgtype.UUID, payload any) {
	if s.Events == nil {
		return
	}
	// best effort, the bus logs persist failures
	_, _ = s.Events.Emit(ctx, topic, aggregate, payload)
}

func (s *Service) countLock(result string) {
	if obs.ListLockTotal != nil {
		obs.ListLockTotal.WithLabelValues(result).Inc()
	}
}

func newInviteCode() string {
	return uuid.NewString()[:8]
}

func convertList(row store.SharedList) List {
	l := List{
		ID:      store.UUIDString(row.ID),
		Name:    row.Name,
		OwnerID: store.UUIDString(row.OwnerID),
		Status:  row.Status,
	}
	if row.InviteCode.Valid {
		l.InviteCode = row.InviteCode.String
	}
	if row.CreatedAt.Valid {
		l.CreatedAt = row.CreatedAt.Time
	}
	return l
}

func convertItem(row store.Item, claims []Claim) Item {
	if claims == nil {
		claims = []Claim{}
	}
	return Item{
		ID:            store.UUIDString(row.ID),
		Name:          row.Name,
		PriceEstimate: store.Float8Ptr(row.PriceEstimate),
		AddedBy:       store.UUIDString(row.AddedByUserID),
		Claims:        claims,
	}
}

func convertClaim(row store.ItemClaim) Claim {
	return Claim{
		ID:         store.UUIDString(row.ID),
		UserID:     store.UUIDString(row.UserID),
		Percentage: row.Percentage,
	}
}
