package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-patungan/internal/common"
	"github.com/noah-isme/backend-patungan/internal/store"
)

// Profile represents a user in API-friendly format.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Input captures payload for creating a user.
type Input struct {
	Name      string
	AvatarURL string
}

// Querier is the subset of store queries the service needs. It is an
// interface so handler tests can substitute a fake.
type Querier interface {
	CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
}

// Service orchestrates user profile operations.
type Service struct {
	Q Querier
}

// NewService constructs a user service.
func NewService(q Querier) *Service {
	return &Service{Q: q}
}

// Create registers a new user profile.
func (s *Service) Create(ctx context.Context, input Input) (Profile, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Profile{}, common.Invalid("name is required", nil)
	}
	created, err := s.Q.CreateUser(ctx, store.CreateUserParams{
		Name:      name,
		AvatarURL: store.ToText(strings.TrimSpace(input.AvatarURL)),
	})
	if err != nil {
		return Profile{}, err
	}
	return convertUser(created), nil
}

// Get fetches a user profile by id.
func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	uid, err := store.ToUUID(id)
	if err != nil {
		return Profile{}, common.Invalid("user id must be a UUID", nil)
	}
	row, err := s.Q.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, common.NotFound("user")
		}
		return Profile{}, err
	}
	return convertUser(row), nil
}

func convertUser(row store.User) Profile {
	p := Profile{
		ID:   store.UUIDString(row.ID),
		Name: row.Name,
	}
	if row.AvatarURL.Valid {
		p.AvatarURL = row.AvatarURL.String
	}
	if row.CreatedAt.Valid {
		p.CreatedAt = row.CreatedAt.Time
	}
	return p
}
