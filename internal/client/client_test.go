package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"inventory-crud/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	listCalls   atomic.Int32
	lastMethod  atomic.Value
	stock       atomic.Int32
	productID   primitive.ObjectID
	failListing atomic.Bool
}

func newFakeAPI(t *testing.T) (*fakeAPI, *ProductClient) {
	t.Helper()
	api := &fakeAPI{productID: primitive.NewObjectID()}
	api.stock.Store(20)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		api.lastMethod.Store(r.Method)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			api.listCalls.Add(1)
			if api.failListing.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: model.ErrCodeInternalError, Message: "boom"})
				return
			}
			_ = json.NewEncoder(w).Encode(model.Page{
				Products: []model.Product{{ID: api.productID, Name: "Rice 1kg", Price: 60, Stock: int(api.stock.Load())}},
				Count:    1,
				Page:     1,
				PageSize: 10,
			})
		case http.MethodPost:
			var req model.ProductRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Name == "dup" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: model.ErrCodeDuplicateProduct, Message: "Product already exists", IsDuplicate: true})
				return
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(model.Product{ID: api.productID, Name: req.Name, Price: req.Price, Stock: req.Stock})
		case http.MethodPatch:
			var req model.ProductRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			api.stock.Store(int32(req.Stock))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(model.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1})
		case http.MethodDelete:
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(model.DeleteResult{Acknowledged: true, DeletedCount: 1})
		}
	})
	mux.HandleFunc("/api/product", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("id") != api.productID.Hex() {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: model.ErrCodeProductNotFound, Message: "Product not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(model.Product{ID: api.productID, Name: "Rice 1kg", Price: 60, Stock: int(api.stock.Load())})
	})
	mux.HandleFunc("/api/product/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rice", r.URL.Query().Get("name"))
		_ = json.NewEncoder(w).Encode([]model.Product{})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewProductClient(NewHTTPClient(srv.URL+"/", 2*time.Second), WithClientClock(func() time.Time { return fixedNow }))
	return api, c
}

func validRequest() *model.ProductRequest {
	return &model.ProductRequest{Name: "Rice 1kg", Price: 60, Stock: 20}
}

func TestProductClient_ListCachesListing(t *testing.T) {
	api, c := newFakeAPI(t)
	assert.Nil(t, c.Listing())

	listing, err := c.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, listing.Products, 1)
	assert.Equal(t, int64(1), listing.Count)
	assert.Equal(t, fixedNow, listing.FetchedAt)
	assert.Equal(t, int32(1), api.listCalls.Load())

	cached := c.Listing()
	cached.Products[0].Name = "mutated"
	assert.Equal(t, "Rice 1kg", c.Listing().Products[0].Name)
}

func TestProductClient_MutationsRefetch(t *testing.T) {
	api, c := newFakeAPI(t)
	ctx := context.Background()

	_, err := c.List(ctx, 1)
	require.NoError(t, err)

	created, err := c.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, api.productID, created.ID)
	assert.Equal(t, int32(2), api.listCalls.Load())

	req := validRequest()
	req.ID = api.productID.Hex()
	req.Stock = 15
	res, err := c.Update(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int32(3), api.listCalls.Load())
	assert.Equal(t, 15, c.Listing().Products[0].Stock)

	del, err := c.Delete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)
	assert.Equal(t, int32(4), api.listCalls.Load())
	assert.Equal(t, http.MethodGet, api.lastMethod.Load())
}

func TestProductClient_FailedRefetchClearsListing(t *testing.T) {
	api, c := newFakeAPI(t)
	ctx := context.Background()

	_, err := c.List(ctx, 1)
	require.NoError(t, err)

	api.failListing.Store(true)
	_, err = c.Create(ctx, validRequest())
	require.NoError(t, err)
	assert.Nil(t, c.Listing())
}

func TestProductClient_ValidationBlocksRequest(t *testing.T) {
	api, c := newFakeAPI(t)
	ctx := context.Background()
	expired := "2020-01-01"

	tests := []struct {
		name string
		req  *model.ProductRequest
	}{
		{name: "missing fields", req: &model.ProductRequest{Name: "Rice"}},
		{name: "negative price", req: &model.ProductRequest{Name: "Rice", Price: -1, Stock: 3}},
		{name: "expired", req: &model.ProductRequest{Name: "Rice", Price: 1, Stock: 3, ExpiryDate: &expired}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Create(ctx, tt.req)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}

	_, err := c.Update(ctx, validRequest())
	assert.ErrorIs(t, err, model.ErrMissingID)
	_, err = c.Delete(ctx, validRequest())
	assert.ErrorIs(t, err, model.ErrMissingID)

	assert.Nil(t, api.lastMethod.Load())
}

func TestProductClient_APIErrors(t *testing.T) {
	api, c := newFakeAPI(t)
	ctx := context.Background()

	_, err := c.Get(ctx, primitive.NewObjectID().Hex())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, model.ErrCodeProductNotFound, apiErr.Code)
	assert.Equal(t, "Product not found", apiErr.Message)

	dup := validRequest()
	dup.Name = "dup"
	_, err = c.Create(ctx, dup)
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsDuplicate)
	assert.Equal(t, int32(0), api.listCalls.Load())

	p, err := c.Get(ctx, api.productID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 20, p.Stock)
}

func TestProductClient_Search(t *testing.T) {
	_, c := newFakeAPI(t)

	found, err := c.Search(context.Background(), "rice")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSendSetsHeadersAndQuery(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	hc := NewHTTPClient(srv.URL, time.Second)
	hc.SetDefaultHeader("X-Client", "cli")

	resp, err := Send[map[string]string](context.Background(), hc, RequestOptions{
		Method:      http.MethodPost,
		URL:         "items",
		QueryParams: map[string]string{"q": "a b"},
		Body:        map[string]int{"n": 1},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "ok", resp.Data["value"])

	assert.Equal(t, "/items", got.URL.Path)
	assert.Equal(t, "a b", got.URL.Query().Get("q"))
	assert.Equal(t, "cli", got.Header.Get("X-Client"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
}

func TestSendReturnsNonSuccessWithoutDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	resp, err := Send[model.Product](context.Background(), NewHTTPClient(srv.URL, time.Second), RequestOptions{Method: http.MethodGet, URL: "/"})
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	apiErr := newAPIError(resp.StatusCode, resp.RawBody)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "502")
}
