package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreateUserParams struct {
	Name      string
	AvatarURL pgtype.Text
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO users (name, avatar_url)
		 VALUES ($1, $2)
		 RETURNING id, name, avatar_url, created_at`,
		arg.Name, arg.AvatarURL,
	)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.AvatarURL, &u.CreatedAt)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, name, avatar_url, created_at FROM users WHERE id = $1`,
		id,
	)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.AvatarURL, &u.CreatedAt)
	return u, err
}

type UpsertUserParams struct {
	ID   pgtype.UUID
	Name string
}

// UpsertUser creates the user when missing and keeps the stored name when the
// row already exists. Used by header identity resolution.
func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO users (id, name)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = users.name
		 RETURNING id, name, avatar_url, created_at`,
		arg.ID, arg.Name,
	)
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.AvatarURL, &u.CreatedAt)
	return u, err
}

type CreateListParams struct {
	Name       string
	OwnerID    pgtype.UUID
	InviteCode pgtype.Text
}

func (q *Queries) CreateList(ctx context.Context, arg CreateListParams) (SharedList, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO shared_lists (name, owner_id, invite_code)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, owner_id, status, invite_code, created_at`,
		arg.Name, arg.OwnerID, arg.InviteCode,
	)
	var l SharedList
	err := row.Scan(&l.ID, &l.Name, &l.OwnerID, &l.Status, &l.InviteCode, &l.CreatedAt)
	return l, err
}

func (q *Queries) GetListByID(ctx context.Context, id pgtype.UUID) (SharedList, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, name, owner_id, status, invite_code, created_at
		 FROM shared_lists WHERE id = $1`,
		id,
	)
	var l SharedList
	err := row.Scan(&l.ID, &l.Name, &l.OwnerID, &l.Status, &l.InviteCode, &l.CreatedAt)
	return l, err
}

type AddListMemberParams struct {
	ListID pgtype.UUID
	UserID pgtype.UUID
	Role   string
}

func (q *Queries) AddListMember(ctx context.Context, arg AddListMemberParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO shared_list_members (list_id, user_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (list_id, user_id) DO NOTHING`,
		arg.ListID, arg.UserID, arg.Role,
	)
	return err
}

type UpdateListStatusParams struct {
	ID     pgtype.UUID
	Status string
}

func (q *Queries) UpdateListStatus(ctx context.Context, arg UpdateListStatusParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE shared_lists SET status = $2 WHERE id = $1`,
		arg.ID, arg.Status,
	)
	return err
}

type CreateItemParams struct {
	ListID        pgtype.UUID
	Name          string
	PriceEstimate pgtype.Float8
	AddedByUserID pgtype.UUID
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO items (list_id, name, price_estimate, added_by_user_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, list_id, name, price_estimate, added_by_user_id, created_at`,
		arg.ListID, arg.Name, arg.PriceEstimate, arg.AddedByUserID,
	)
	var it Item
	err := row.Scan(&it.ID, &it.ListID, &it.Name, &it.PriceEstimate, &it.AddedByUserID, &it.CreatedAt)
	return it, err
}

func (q *Queries) ListItemsByList(ctx context.Context, listID pgtype.UUID) ([]Item, error) {
	rows, err := q.db.Query(ctx,
		`SELECT id, list_id, name, price_estimate, added_by_user_id, created_at
		 FROM items WHERE list_id = $1 ORDER BY created_at, id`,
		listID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ListID, &it.Name, &it.PriceEstimate, &it.AddedByUserID, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type GetListItemParams struct {
	ID     pgtype.UUID
	ListID pgtype.UUID
}

func (q *Queries) GetListItem(ctx context.Context, arg GetListItemParams) (Item, error) {
	row := q.db.QueryRow(ctx,
		`SELECT id, list_id, name, price_estimate, added_by_user_id, created_at
		 FROM items WHERE id = $1 AND list_id = $2`,
		arg.ID, arg.ListID,
	)
	var it Item
	err := row.Scan(&it.ID, &it.ListID, &it.Name, &it.PriceEstimate, &it.AddedByUserID, &it.CreatedAt)
	return it, err
}

type CreateClaimParams struct {
	ItemID     pgtype.UUID
	UserID     pgtype.UUID
	Percentage float64
}

func (q *Queries) CreateClaim(ctx context.Context, arg CreateClaimParams) (ItemClaim, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO item_claims (item_id, user_id, percentage)
		 VALUES ($1, $2, $3)
		 RETURNING id, item_id, user_id, percentage, created_at`,
		arg.ItemID, arg.UserID, arg.Percentage,
	)
	var c ItemClaim
	err := row.Scan(&c.ID, &c.ItemID, &c.UserID, &c.Percentage, &c.CreatedAt)
	return c, err
}

// ListClaimsForList returns every claim on the list's items, ordered the way
// the split engine consumes them: item order first, then claim creation order.
func (q *Queries) ListClaimsForList(ctx context.Context, listID pgtype.UUID) ([]ItemClaim, error) {
	rows, err := q.db.Query(ctx,
		`SELECT c.id, c.item_id, c.user_id, c.percentage, c.created_at
		 FROM item_claims c
		 JOIN items i ON i.id = c.item_id
		 WHERE i.list_id = $1
		 ORDER BY i.created_at, i.id, c.created_at, c.id`,
		listID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var claims []ItemClaim
	for rows.Next() {
		var c ItemClaim
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.Percentage, &c.CreatedAt); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

type CreateBillParams struct {
	ListID pgtype.UUID
	Total  float64
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO bills (list_id, total)
		 VALUES ($1, $2)
		 RETURNING id, list_id, total, created_at`,
		arg.ListID, arg.Total,
	)
	var b Bill
	err := row.Scan(&b.ID, &b.ListID, &b.Total, &b.CreatedAt)
	return b, err
}

type CreateBillLineParams struct {
	BillID pgtype.UUID
	ItemID pgtype.UUID
	UserID pgtype.UUID
	Amount float64
}

func (q *Queries) CreateBillLine(ctx context.Context, arg CreateBillLineParams) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO bill_lines (bill_id, item_id, user_id, amount)
		 VALUES ($1, $2, $3, $4)`,
		arg.BillID, arg.ItemID, arg.UserID, arg.Amount,
	)
	return err
}

type InsertDomainEventParams struct {
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
}

func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) (DomainEvent, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO domain_events (topic, aggregate_id, payload)
		 VALUES ($1, $2, $3)
		 RETURNING id, topic, aggregate_id, payload, occurred_at`,
		arg.Topic, arg.AggregateID, arg.Payload,
	)
	var ev DomainEvent
	err := row.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}
