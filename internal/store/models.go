package store

import "github.com/jackc/pgx/v5/pgtype"

// List status values. A list starts open, can be locked by its owner, and is
// marked checked out after a bill has been recorded for it.
const (
	ListStatusOpen       = "open"
	ListStatusLocked     = "locked"
	ListStatusCheckedOut = "checked_out"
)

// Member roles within a shared list.
const (
	MemberRoleAdmin  = "admin"
	MemberRoleEditor = "editor"
	MemberRoleViewer = "viewer"
)

type User struct {
	ID        pgtype.UUID
	Name      string
	AvatarURL pgtype.Text
	CreatedAt pgtype.Timestamptz
}

type SharedList struct {
	ID         pgtype.UUID
	Name       string
	OwnerID    pgtype.UUID
	Status     string
	InviteCode pgtype.Text
	CreatedAt  pgtype.Timestamptz
}

type ListMember struct {
	ListID pgtype.UUID
	UserID pgtype.UUID
	Role   string
}

type Item struct {
	ID            pgtype.UUID
	ListID        pgtype.UUID
	Name          string
	PriceEstimate pgtype.Float8
	AddedByUserID pgtype.UUID
	CreatedAt     pgtype.Timestamptz
}

type ItemClaim struct {
	ID         pgtype.UUID
	ItemID     pgtype.UUID
	UserID     pgtype.UUID
	Percentage float64
	CreatedAt  pgtype.Timestamptz
}

type Bill struct {
	ID        pgtype.UUID
	ListID    pgtype.UUID
	Total     float64
	CreatedAt pgtype.Timestamptz
}

type BillLine struct {
	ID     pgtype.UUID
	BillID pgtype.UUID
	ItemID pgtype.UUID
	UserID pgtype.UUID
	Amount float64
}

type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
