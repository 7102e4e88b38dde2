package service

import (
	"context"
	"log/slog"
	"time"

	"inventory-crud/internal/logger"
	"inventory-crud/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
)

// ProductRepository is the storage contract the service depends on.
type ProductRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	SearchByName(ctx context.Context, fragment string) ([]model.Product, error)
	List(ctx context.Context, page, pageSize int) ([]model.Product, error)
	Count(ctx context.Context) (int64, error)
	IsDuplicate(ctx context.Context, candidate *model.Product) (bool, error)
	Create(ctx context.Context, candidate *model.Product) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) (*model.UpdateResult, error)
	Delete(ctx context.Context, product *model.Product) (*model.DeleteResult, error)
}

type ProductService struct {
	repo        ProductRepository
	pageSize    int
	constraints model.Constraints
	now         func() time.Time
}

var ProductServiceTracer = otel.Tracer("ProductService")

type Option func(*ProductService)

func WithPageSize(n int) Option {
	return func(s *ProductService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithConstraints(c model.Constraints) Option {
	return func(s *ProductService) { s.constraints = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *ProductService) { s.now = now }
}

func NewProductService(repo ProductRepository, opts ...Option) *ProductService {
	s := &ProductService{
		repo:        repo,
		pageSize:    10,
		constraints: model.DefaultConstraints(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.GetByID")
	defer span.End()

	if id == "" {
		return nil, model.ErrMissingID
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrInvalidID
	}
	return s.repo.FindByID(ctx, objID)
}

func (s *ProductService) Search(ctx context.Context, name string) ([]model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Search")
	defer span.End()

	return s.repo.SearchByName(ctx, name)
}

// List returns the requested page together with the collection total.
// Pages below 1 are served as page 1.
func (s *ProductService) List(ctx context.Context, page int) (*model.Page, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.List")
	defer span.End()

	if page < 1 {
		page = 1
	}

	products, err := s.repo.List(ctx, page, s.pageSize)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Page{
		Products: products,
		Count:    count,
		Page:     page,
		PageSize: s.pageSize,
	}, nil
}

func (s *ProductService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Create")
	defer span.End()

	if err := model.CheckBody(req); err != nil {
		return nil, err
	}
	candidate, err := req.ToProduct()
	if err != nil {
		return nil, err
	}
	if err := model.Validate(candidate, s.constraints, s.now()); err != nil {
		return nil, err
	}

	dup, err := s.repo.IsDuplicate(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if dup {
		logger.Info(ctx, "Rejected duplicate product",
			slog.String("name", candidate.Name),
			slog.Float64("price", candidate.Price),
			slog.Int("stock", candidate.Stock),
		)
		return nil, model.ErrDuplicateProduct
	}

	return s.repo.Create(ctx, candidate)
}

func (s *ProductService) Update(ctx context.Context, req *model.ProductRequest) (*model.UpdateResult, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Update")
	defer span.End()

	product, err := s.identified(req)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(product, s.constraints, s.now()); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, product)
}

func (s *ProductService) Delete(ctx context.Context, req *model.ProductRequest) (*model.DeleteResult, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	product, err := s.identified(req)
	if err != nil {
		return nil, err
	}

	return s.repo.Delete(ctx, product)
}

// identified runs the body check and requires a well-formed id, the
// common prelude of update and delete.
func (s *ProductService) identified(req *model.ProductRequest) (*model.Product, error) {
	if err := model.CheckBody(req); err != nil {
		return nil, err
	}
	if req.Identifier() == "" {
		return nil, model.ErrMissingID
	}
	return req.ToProduct()
}
