package list

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-patungan/internal/common"
	"github.com/noah-isme/backend-patungan/internal/store"
)

type fakeQuerier struct {
	lists  map[uuid.UUID]store.SharedList
	items  map[uuid.UUID]store.Item
	claims []store.ItemClaim
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		lists: map[uuid.UUID]store.SharedList{},
		items: map[uuid.UUID]store.Item{},
	}
}

func (f *fakeQuerier) addList(owner uuid.UUID, status string) store.SharedList {
	id := uuid.New()
	l := store.SharedList{
		ID:        store.FromUUID(id),
		Name:      "groceries",
		OwnerID:   store.FromUUID(owner),
		Status:    status,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.lists[id] = l
	return l
}

func (f *fakeQuerier) GetListByID(_ context.Context, id pgtype.UUID) (store.SharedList, error) {
	l, ok := f.lists[store.UUIDValue(id)]
	if !ok {
		return store.SharedList{}, pgx.ErrNoRows
	}
	return l, nil
}

func (f *fakeQuerier) AddListMember(context.Context, store.AddListMemberParams) error {
	return nil
}

func (f *fakeQuerier) UpdateListStatus(_ context.Context, arg store.UpdateListStatusParams) error {
	l := f.lists[store.UUIDValue(arg.ID)]
	l.Status = arg.Status
	f.lists[store.UUIDValue(arg.ID)] = l
	return nil
}

func (f *fakeQuerier) CreateItem(_ context.Context, arg store.CreateItemParams) (store.Item, error) {
	id := uuid.New()
	it := store.Item{
		ID:            store.FromUUID(id),
		ListID:        arg.ListID,
		Name:          arg.Name,
		PriceEstimate: arg.PriceEstimate,
		AddedByUserID: arg.AddedByUserID,
		CreatedAt:     pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.items[id] = it
	return it, nil
}

func (f *fakeQuerier) ListItemsByList(_ context.Context, listID pgtype.UUID) ([]store.Item, error) {
	var out []store.Item
	for _, it := range f.items {
		if store.UUIDEqual(it.ListID, listID) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeQuerier) GetListItem(_ context.Context, arg store.GetListItemParams) (store.Item, error) {
	it, ok := f.items[store.UUIDValue(arg.ID)]
	if !ok || !store.UUIDEqual(it.ListID, arg.ListID) {
		return store.Item{}, pgx.ErrNoRows
	}
	return it, nil
}

func (f *fakeQuerier) CreateClaim(_ context.Context, arg store.CreateClaimParams) (store.ItemClaim, error) {
	c := store.ItemClaim{
		ID:         store.FromUUID(uuid.New()),
		ItemID:     arg.ItemID,
		UserID:     arg.UserID,
		Percentage: arg.Percentage,
		CreatedAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.claims = append(f.claims, c)
	return c, nil
}

func (f *fakeQuerier) ListClaimsForList(_ context.Context, listID pgtype.UUID) ([]store.ItemClaim, error) {
	var out []store.ItemClaim
	for _, c := range f.claims {
		it, ok := f.items[store.UUIDValue(c.ItemID)]
		if ok && store.UUIDEqual(it.ListID, listID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func newRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/v1/lists", h.Create)
	r.Get("/api/v1/lists/{listID}", h.Get)
	r.Post("/api/v1/lists/{listID}/items", h.AddItem)
	r.Get("/api/v1/lists/{listID}/items", h.Items)
	r.Post("/api/v1/lists/{listID}/items/{itemID}/claims", h.AddClaim)
	r.Post("/api/v1/lists/{listID}/lock", h.Lock)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(common.WithUserID(req.Context(), userID.String()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func newHandler(q *fakeQuerier) *Handler {
	return &Handler{Service: &Service{Q: q, Validate: validator.New()}}
}

func TestAddItem(t *testing.T) {
	q := newFakeQuerier()
	owner := uuid.New()
	l := q.addList(owner, store.ListStatusOpen)
	router := newRouter(newHandler(q))

	rr := doJSON(t, router, http.MethodPost, "/api/v1/lists/"+store.UUIDString(l.ID)+"/items",
		`{"name":"Milk","price_estimate":3.5}`, owner)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"Milk"`)
	require.Contains(t, rr.Body.String(), `3.5`)
}

func TestAddItemListNotOpen(t *testing.T) {
	q := newFakeQuerier()
	owner := uuid.New()
	l := q.addList(owner, store.ListStatusLocked)
	router := newRouter(newHandler(q))

	rr := doJSON(t, router, http.MethodPost, "/api/v1/lists/"+store.UUIDString(l.ID)+"/items",
		`{"name":"Milk"}`, owner)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "LIST_NOT_OPEN")
}

func TestAddItemUnknownList(t *testing.T) {
	router := newRouter(newHandler(newFakeQuerier()))
	rr := doJSON(t, router, http.MethodPost, "/api/v1/lists/"+uuid.NewString()+"/items",
		`{"name":"Milk"}`, uuid.New())
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAddClaimValidation(t *testing.T) {
	q := newFakeQuerier()
	owner := uuid.New()
	l := q.addList(owner, store.ListStatusOpen)
	item, err := q.CreateItem(context.Background(), store.CreateItemParams{
		ListID: l.ID, Name: "Eggs", AddedByUserID: store.FromUUID(owner),
	})
	require.NoError(t, err)
	router := newRouter(newHandler(q))
	base := "/api/v1/lists/" + store.UUIDString(l.ID) + "/items/" + store.UUIDString(item.ID) + "/claims"

	for _, bad := range []string{`{"percentage":0}`, `{"percentage":1.5}`, `{"percentage":-0.2}`} {
		rr := doJSON(t, router, http.MethodPost, base, bad, owner)
		require.Equal(t, http.StatusBadRequest, rr.Code, "payload %s", bad)
	}

	rr := doJSON(t, router, http.MethodPost, base, `{"percentage":0.5}`, owner)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `0.5`)
}

func TestAddClaimUnknownItem(t *testing.T) {
	q := newFakeQuerier()
	owner := uuid.New()
	l := q.addList(owner, store.ListStatusOpen)
	router := newRouter(newHandler(q))

	rr := doJSON(t, router, http.MethodPost,
		"/api/v1/lists/"+store.UUIDString(l.ID)+"/items/"+uuid.NewString()+"/claims",
		`{"percentage":1}`, owner)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLockOwnerOnly(t *testing.T) {
	q := newFakeQuerier()
	owner := uuid.New()
	stranger := uuid.New()
	l := q.addList(owner, store.ListStatusOpen)
	router := newRouter(newHandler(q))
	path := "/api/v1/lists/" + store.UUIDString(l.ID) + "/lock"

	rr := doJSON(t, router, http.MethodPost, path, "", stranger)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doJSON(t, router, http.MethodPost, path, "", owner)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), store.ListStatusLocked)

	// relocking is a no-op
	rr = doJSON(t, router, http.MethodPost, path, "", owner)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestLockCheckedOutConflicts(t *testing.T) {
	q := newFakeQuerier()
	owner := uuid.New()
	l := q.addList(owner, store.ListStatusCheckedOut)
	router := newRouter(newHandler(q))

	rr := doJSON(t, router, http.MethodPost, "/api/v1/lists/"+store.UUIDString(l.ID)+"/lock", "", owner)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "LIST_CHECKED_OUT")
}

func TestGetDetailIncludesClaims(t *testing.T) {
	q := newFakeQuerier()
	owner := uuid.New()
	l := q.addList(owner, store.ListStatusOpen)
	item, err := q.CreateItem(context.Background(), store.CreateItemParams{
		ListID: l.ID, Name: "Bread", AddedByUserID: store.FromUUID(owner),
	})
	require.NoError(t, err)
	_, err = q.CreateClaim(context.Background(), store.CreateClaimParams{
		ItemID: item.ID, UserID: store.FromUUID(owner), Percentage: 1,
	})
	require.NoError(t, err)

	router := newRouter(newHandler(q))
	rr := doJSON(t, router, http.MethodGet, "/api/v1/lists/"+store.UUIDString(l.ID), "", owner)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data Detail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	require.Len(t, resp.Data.Items[0].Claims, 1)
	require.Equal(t, 1.0, resp.Data.Items[0].Claims[0].Percentage)
}

func TestCreateRequiresName(t *testing.T) {
	router := newRouter(newHandler(newFakeQuerier()))
	rr := doJSON(t, router, http.MethodPost, "/api/v1/lists", `{"name":"  "}`, uuid.New())
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
