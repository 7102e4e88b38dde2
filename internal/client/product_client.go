package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"inventory-crud/internal/logger"
	"inventory-crud/internal/model"

	"go.opentelemetry.io/otel"
)

var ProductClientTracer = otel.Tracer("ProductClient")

// APIError is returned for any non-2xx answer from the API.
type APIError struct {
	StatusCode  int
	Code        string
	Message     string
	IsDuplicate bool
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}
	var body model.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
		apiErr.IsDuplicate = body.IsDuplicate
	}
	return apiErr
}

// Listing is the last page fetched by the client.
type Listing struct {
	model.Page
	FetchedAt time.Time
}

// ProductClient talks to the inventory API. After every successful
// mutation it refetches the last listed page so Listing never holds
// stale rows.
type ProductClient struct {
	http        *HTTPClient
	constraints model.Constraints
	now         func() time.Time

	mu       sync.Mutex
	listing  *Listing
	lastPage int
}

type ProductClientOption func(*ProductClient)

func WithClientConstraints(c model.Constraints) ProductClientOption {
	return func(p *ProductClient) { p.constraints = c }
}

func WithClientClock(now func() time.Time) ProductClientOption {
	return func(p *ProductClient) { p.now = now }
}

func NewProductClient(hc *HTTPClient, opts ...ProductClientOption) *ProductClient {
	c := &ProductClient{
		http:        hc,
		constraints: model.DefaultConstraints(),
		now:         time.Now,
		lastPage:    1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listing returns a copy of the cached page, or nil before the first List.
func (c *ProductClient) Listing() *Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listing == nil {
		return nil
	}
	cp := *c.listing
	cp.Products = append([]model.Product(nil), c.listing.Products...)
	return &cp
}

func (c *ProductClient) List(ctx context.Context, page int) (*Listing, error) {
	ctx, span := ProductClientTracer.Start(ctx, "ProductClient.List")
	defer span.End()

	resp, err := Send[model.Page](ctx, c.http, RequestOptions{
		Method:      http.MethodGet,
		URL:         "/api/products",
		QueryParams: map[string]string{"page": strconv.Itoa(page)},
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode, resp.RawBody)
	}

	listing := &Listing{Page: resp.Data, FetchedAt: c.now()}
	c.mu.Lock()
	c.listing = listing
	c.lastPage = resp.Data.Page
	c.mu.Unlock()

	return c.Listing(), nil
}

func (c *ProductClient) Search(ctx context.Context, name string) ([]model.Product, error) {
	ctx, span := ProductClientTracer.Start(ctx, "ProductClient.Search")
	defer span.End()

	resp, err := Send[[]model.Product](ctx, c.http, RequestOptions{
		Method:      http.MethodGet,
		URL:         "/api/product/search",
		QueryParams: map[string]string{"name": name},
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode, resp.RawBody)
	}
	return resp.Data, nil
}

func (c *ProductClient) Get(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductClientTracer.Start(ctx, "ProductClient.Get")
	defer span.End()

	resp, err := Send[model.Product](ctx, c.http, RequestOptions{
		Method:      http.MethodGet,
		URL:         "/api/product",
		QueryParams: map[string]string{"id": id},
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode, resp.RawBody)
	}
	return &resp.Data, nil
}

func (c *ProductClient) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	ctx, span := ProductClientTracer.Start(ctx, "ProductClient.Create")
	defer span.End()

	if err := c.validate(req); err != nil {
		return nil, err
	}
	resp, err := Send[model.Product](ctx, c.http, RequestOptions{
		Method: http.MethodPost,
		URL:    "/api/products",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode, resp.RawBody)
	}

	c.refetch(ctx)
	return &resp.Data, nil
}

func (c *ProductClient) Update(ctx context.Context, req *model.ProductRequest) (*model.UpdateResult, error) {
	ctx, span := ProductClientTracer.Start(ctx, "ProductClient.Update")
	defer span.End()

	if err := c.validate(req); err != nil {
		return nil, err
	}
	if req.Identifier() == "" {
		return nil, model.ErrMissingID
	}
	resp, err := Send[model.UpdateResult](ctx, c.http, RequestOptions{
		Method: http.MethodPatch,
		URL:    "/api/products",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode, resp.RawBody)
	}

	c.refetch(ctx)
	return &resp.Data, nil
}

func (c *ProductClient) Delete(ctx context.Context, req *model.ProductRequest) (*model.DeleteResult, error) {
	ctx, span := ProductClientTracer.Start(ctx, "ProductClient.Delete")
	defer span.End()

	if err := model.CheckBody(req); err != nil {
		return nil, err
	}
	if req.Identifier() == "" {
		return nil, model.ErrMissingID
	}
	resp, err := Send[model.DeleteResult](ctx, c.http, RequestOptions{
		Method: http.MethodDelete,
		URL:    "/api/products",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode, resp.RawBody)
	}

	c.refetch(ctx)
	return &resp.Data, nil
}

// validate applies the same checks the server runs, so a bad form never
// leaves the client.
func (c *ProductClient) validate(req *model.ProductRequest) error {
	if err := model.CheckBody(req); err != nil {
		return err
	}
	p, err := req.ToProduct()
	if err != nil {
		return err
	}
	return model.Validate(p, c.constraints, c.now())
}

// refetch drops the cached listing and reloads the last listed page. A
// failed reload leaves the cache empty.
func (c *ProductClient) refetch(ctx context.Context) {
	c.mu.Lock()
	c.listing = nil
	page := c.lastPage
	c.mu.Unlock()

	if _, err := c.List(ctx, page); err != nil {
		logger.Warn(ctx, "Failed to refetch products after mutation",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
	}
}
