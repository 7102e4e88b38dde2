package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-crud/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) SearchByName(ctx context.Context, fragment string) ([]model.Product, error) {
	args := m.Called(ctx, fragment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, page, pageSize int) ([]model.Product, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) IsDuplicate(ctx context.Context, candidate *model.Product) (bool, error) {
	args := m.Called(ctx, candidate)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, candidate *model.Product) (*model.Product, error) {
	args := m.Called(ctx, candidate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) (*model.UpdateResult, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UpdateResult), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, product *model.Product) (*model.DeleteResult, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeleteResult), args.Error(1)
}

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestService(repo ProductRepository) *ProductService {
	return NewProductService(repo, WithPageSize(10), WithClock(func() time.Time { return fixedNow }))
}

func TestProductService_GetByID(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()

	t.Run("found", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("FindByID", mock.Anything, id).Return(&model.Product{ID: id, Name: "Rice"}, nil)

		p, err := newTestService(repo).GetByID(ctx, id.Hex())
		require.NoError(t, err)
		assert.Equal(t, "Rice", p.Name)
		repo.AssertExpectations(t)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := newTestService(new(MockProductRepository)).GetByID(ctx, "")
		assert.ErrorIs(t, err, model.ErrMissingID)
	})

	t.Run("malformed id never reaches storage", func(t *testing.T) {
		repo := new(MockProductRepository)
		_, err := newTestService(repo).GetByID(ctx, "xyz")
		assert.ErrorIs(t, err, model.ErrInvalidID)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("not found propagates", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("FindByID", mock.Anything, id).Return(nil, model.ErrProductNotFound)

		_, err := newTestService(repo).GetByID(ctx, id.Hex())
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()
	products := []model.Product{{Name: "A"}, {Name: "B"}}

	tests := []struct {
		name     string
		page     int
		wantPage int
	}{
		{name: "requested page", page: 3, wantPage: 3},
		{name: "zero clamps to one", page: 0, wantPage: 1},
		{name: "negative clamps to one", page: -2, wantPage: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProductRepository)
			repo.On("List", mock.Anything, tt.wantPage, 10).Return(products, nil)
			repo.On("Count", mock.Anything).Return(int64(42), nil)

			page, err := newTestService(repo).List(ctx, tt.page)
			require.NoError(t, err)
			assert.Equal(t, products, page.Products)
			assert.Equal(t, int64(42), page.Count)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, 10, page.PageSize)
			repo.AssertExpectations(t)
		})
	}

	t.Run("storage error", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("List", mock.Anything, 1, 10).Return(nil, errors.New("db down"))

		_, err := newTestService(repo).List(ctx, 1)
		assert.EqualError(t, err, "db down")
		repo.AssertNotCalled(t, "Count", mock.Anything)
	})
}

func TestProductService_Search(t *testing.T) {
	repo := new(MockProductRepository)
	repo.On("SearchByName", mock.Anything, "WID").Return([]model.Product{{Name: "widget"}}, nil)

	found, err := newTestService(repo).Search(context.Background(), "WID")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	past := "2026-10-13"

	tests := []struct {
		name        string
		req         *model.ProductRequest
		duplicate   bool
		expectRepo  bool
		expectErrIs error
		expectValid bool
	}{
		{name: "creates valid product", req: &model.ProductRequest{Name: "Rice 1kg", Price: 60, Stock: 20}, expectRepo: true},
		{name: "missing fields", req: &model.ProductRequest{Name: "Rice"}, expectValid: true},
		{name: "negative price violates policy", req: &model.ProductRequest{Name: "Rice", Price: -1, Stock: 5}, expectValid: true},
		{name: "past expiry violates policy", req: &model.ProductRequest{Name: "Milk", Price: 2, Stock: 5, ExpiryDate: &past}, expectValid: true},
		{name: "duplicate is refused", req: &model.ProductRequest{Name: "Rice 1kg", Price: 60, Stock: 20}, duplicate: true, expectErrIs: model.ErrDuplicateProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockProductRepository)
			reachesDupCheck := tt.expectRepo || tt.duplicate
			if reachesDupCheck {
				repo.On("IsDuplicate", mock.Anything, mock.MatchedBy(func(p *model.Product) bool {
					return p.Name == tt.req.Name && p.Price == tt.req.Price && p.Stock == tt.req.Stock
				})).Return(tt.duplicate, nil)
			}
			if tt.expectRepo {
				repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Product")).
					Return(&model.Product{ID: primitive.NewObjectID(), Name: tt.req.Name, Price: tt.req.Price, Stock: tt.req.Stock, CreatedAt: fixedNow}, nil)
			}

			created, err := newTestService(repo).Create(ctx, tt.req)

			switch {
			case tt.expectValid:
				var verr *model.ValidationError
				assert.True(t, errors.As(err, &verr))
				repo.AssertNotCalled(t, "IsDuplicate", mock.Anything, mock.Anything)
			case tt.expectErrIs != nil:
				assert.ErrorIs(t, err, tt.expectErrIs)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			default:
				require.NoError(t, err)
				assert.False(t, created.ID.IsZero())
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()

	t.Run("updates supplied fields", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(p *model.Product) bool {
			return p.ID == id && p.Stock == 15 && p.Name == "Rice 1kg"
		})).Return(&model.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil)

		res, err := newTestService(repo).Update(ctx, &model.ProductRequest{ID: id.Hex(), Name: "Rice 1kg", Price: 60, Stock: 15})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.ModifiedCount)
		repo.AssertExpectations(t)
	})

	t.Run("failed body check short-circuits", func(t *testing.T) {
		repo := new(MockProductRepository)
		_, err := newTestService(repo).Update(ctx, &model.ProductRequest{ID: id.Hex(), Name: "Rice"})

		var verr *model.ValidationError
		assert.True(t, errors.As(err, &verr))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("id required", func(t *testing.T) {
		_, err := newTestService(new(MockProductRepository)).Update(ctx, &model.ProductRequest{Name: "Rice", Price: 1, Stock: 1})
		assert.ErrorIs(t, err, model.ErrMissingID)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := newTestService(new(MockProductRepository)).Update(ctx, &model.ProductRequest{ID: "bad", Name: "Rice", Price: 1, Stock: 1})
		assert.ErrorIs(t, err, model.ErrInvalidID)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil, model.ErrProductNotFound)

		_, err := newTestService(repo).Update(ctx, &model.ProductRequest{ID: id.Hex(), Name: "Rice", Price: 1, Stock: 1})
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()

	t.Run("deletes by id", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("Delete", mock.Anything, mock.MatchedBy(func(p *model.Product) bool { return p.ID == id })).
			Return(&model.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil)

		res, err := newTestService(repo).Delete(ctx, &model.ProductRequest{ID: id.Hex(), Name: "Rice", Price: 60, Stock: 15})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.DeletedCount)
	})

	t.Run("failed body check short-circuits", func(t *testing.T) {
		repo := new(MockProductRepository)
		_, err := newTestService(repo).Delete(ctx, &model.ProductRequest{ID: id.Hex()})

		var verr *model.ValidationError
		assert.True(t, errors.As(err, &verr))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing record", func(t *testing.T) {
		repo := new(MockProductRepository)
		repo.On("Delete", mock.Anything, mock.Anything).Return(nil, model.ErrProductNotFound)

		_, err := newTestService(repo).Delete(ctx, &model.ProductRequest{ID: id.Hex(), Name: "Rice", Price: 60, Stock: 15})
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthService_Check(t *testing.T) {
	up := NewHealthService(stubPinger{}).Check(context.Background())
	assert.Equal(t, StatusUp, up.Mongo)
	assert.Equal(t, StatusUp, up.Overall())

	down := NewHealthService(stubPinger{err: errors.New("no route")}).Check(context.Background())
	assert.Equal(t, StatusDown, down.Mongo)
	assert.Equal(t, StatusDown, down.Overall())
}

func TestHealthService_WatchReportsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reports := make(chan HealthStatus, 8)

	done := make(chan struct{})
	go func() {
		NewHealthService(stubPinger{}).Watch(ctx, 5*time.Millisecond, func(s HealthStatus) { reports <- s })
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case s := <-reports:
			assert.Equal(t, StatusUp, s.Overall())
		case <-time.After(time.Second):
			t.Fatal("no health report")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
