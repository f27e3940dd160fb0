package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-patungan/internal/store"
)

// Fixed ids so reseeding stays idempotent and the demo curl snippets in the
// README keep working across resets.
var (
	aliceID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	bobID   = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	citraID = uuid.MustParse("33333333-3333-4333-8333-333333333333")
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.RunMigrations(dbURL); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	q := store.New(pool)

	seedUsers(ctx, q)
	listID := seedList(ctx, q)
	seedItems(ctx, q, listID)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, q *store.Queries) {
	users := []struct {
		ID   uuid.UUID
		Name string
	}{
		{aliceID, "Alice"},
		{bobID, "Budi Santoso"},
		{citraID, "Citra Lestari"},
	}

	log.Println("Seeding users...")
	for _, u := range users {
		if _, err := q.UpsertUser(ctx, store.UpsertUserParams{
			ID:   store.FromUUID(u.ID),
			Name: u.Name,
		}); err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.Name, err)
		}
	}
}

func seedList(ctx context.Context, q *store.Queries) uuid.UUID {
	log.Println("Seeding shared list...")
	list, err := q.CreateList(ctx, store.CreateListParams{
		Name:       "Weekly Groceries",
		OwnerID:    store.FromUUID(aliceID),
		InviteCode: store.ToText(uuid.NewString()[:8]),
	})
	if err != nil {
		log.Fatalf("Failed to seed list: %v", err)
	}

	members := []struct {
		ID   uuid.UUID
		Role string
	}{
		{aliceID, "admin"},
		{bobID, "editor"},
		{citraID, "editor"},
	}
	for _, m := range members {
		if err := q.AddListMember(ctx, store.AddListMemberParams{
			ListID: list.ID,
			UserID: store.FromUUID(m.ID),
			Role:   m.Role,
		}); err != nil {
			log.Fatalf("Failed to add member %s: %v", m.ID, err)
		}
	}
	return store.UUIDValue(list.ID)
}

func seedItems(ctx context.Context, q *store.Queries, listID uuid.UUID) {
	type claim struct {
		UserID     uuid.UUID
		Percentage float64
	}
	items := []struct {
		Name     string
		Estimate *float64
		AddedBy  uuid.UUID
		Claims   []claim
	}{
		{"Milk 1L", price(2.5), aliceID, []claim{{aliceID, 0.5}, {bobID, 0.5}}},
		{"Bread", price(1.8), bobID, []claim{{bobID, 1}}},
		{"Eggs (dozen)", price(3.2), aliceID, []claim{{aliceID, 0.4}, {bobID, 0.3}, {citraID, 0.3}}},
		{"Coffee beans", price(9.0), citraID, []claim{{citraID, 1}}},
		{"Snacks", nil, bobID, nil}, // unclaimed, no estimate
	}

	log.Println("Seeding items and claims...")
	for _, it := range items {
		row, err := q.CreateItem(ctx, store.CreateItemParams{
			ListID:        store.FromUUID(listID),
			Name:          it.Name,
			PriceEstimate: store.ToFloat8(it.Estimate),
			AddedByUserID: store.FromUUID(it.AddedBy),
		})
		if err != nil {
			log.Fatalf("Failed to seed item %s: %v", it.Name, err)
		}
		for _, c := range it.Claims {
			if _, err := q.CreateClaim(ctx, store.CreateClaimParams{
				ItemID:     row.ID,
				UserID:     store.FromUUID(c.UserID),
				Percentage: c.Percentage,
			}); err != nil {
				log.Fatalf("Failed to seed claim on %s: %v", it.Name, err)
			}
		}
	}
}

func price(v float64) *float64 { return &v }
