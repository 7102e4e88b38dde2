package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"inventory-crud/internal/logger"
	"inventory-crud/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	CollectionName  = "product"
	DefaultPageSize = 10

	uniqueIndexName = "name_price_stock_unique"
)

type ProductRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

var ProductRepositoryTracer = otel.Tracer("ProductRepository")

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(CollectionName),
		now:        time.Now,
	}
}

// EnsureIndexes creates the name index used for sorting and the unique
// (name, price, stock) index that backs the duplicate check.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.EnsureIndexes")
	defer span.End()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_asc"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}, {Key: "price", Value: 1}, {Key: "stock", Value: 1}},
			Options: options.Index().SetName(uniqueIndexName).SetUnique(true),
		},
	}
	names, err := r.collection.Indexes().CreateMany(ctx, models)
	if err != nil {
		span.RecordError(err)
		logger.Warn(ctx, "Failed to create product indexes", slog.String("error", err.Error()))
		return fmt.Errorf("create product indexes: %w", err)
	}

	logger.Info(ctx, "Product indexes ready", slog.Any("indexes", names))
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id.Hex()))

	var product model.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

// SearchPattern builds the case-insensitive regex for a name fragment.
// The fragment is quoted so user input only ever matches literally.
func SearchPattern(fragment string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(fragment), Options: "i"}
}

func (r *ProductRepository) SearchByName(ctx context.Context, fragment string) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.SearchByName")
	defer span.End()
	span.SetAttributes(attribute.String("product.search", fragment))

	filter := bson.M{"name": bson.M{"$regex": SearchPattern(fragment)}}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	products, err := r.find(ctx, filter, opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search products by name: %w", err)
	}
	return products, nil
}

// PageOptions computes skip/limit for a 1-indexed page. Out of range
// inputs are clamped to page 1 and DefaultPageSize.
func PageOptions(page, pageSize int) (skip, limit int64) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return int64(pageSize) * int64(page-1), int64(pageSize)
}

// List returns one page sorted by name. _id breaks ties so consecutive
// pages never overlap.
func (r *ProductRepository) List(ctx context.Context, page, pageSize int) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	skip, limit := PageOptions(page, pageSize)
	span.SetAttributes(attribute.Int64("page.skip", skip), attribute.Int64("page.limit", limit))

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	products, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Count")
	defer span.End()

	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// IsDuplicate reports whether a product with the same name, price and
// stock already exists.
func (r *ProductRepository) IsDuplicate(ctx context.Context, candidate *model.Product) (bool, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.IsDuplicate")
	defer span.End()

	filter := bson.M{"name": candidate.Name, "price": candidate.Price, "stock": candidate.Stock}
	err := r.collection.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("check duplicate product: %w", err)
	}
	return true, nil
}

// Create assigns the id and creation time and stores the document. A
// concurrent identical create loses on the unique index.
func (r *ProductRepository) Create(ctx context.Context, candidate *model.Product) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	product := *candidate
	product.ID = primitive.NewObjectID()
	product.CreatedAt = r.now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, &product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, model.ErrDuplicateProduct
		}
		span.RecordError(err)
		return nil, fmt.Errorf("insert product: %w", err)
	}

	span.SetAttributes(attribute.String("product.id", product.ID.Hex()))
	return &product, nil
}

// Update writes name, price and stock of the stored record in one
// operation. The expiry date changes only when the caller set or cleared
// it. id and createdAt are never written.
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) (*model.UpdateResult, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Update")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", product.ID.Hex()))

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": product.ID}, updateDocument(product))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, model.ErrDuplicateProduct
		}
		span.RecordError(err)
		return nil, fmt.Errorf("update product %s: %w", product.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return nil, model.ErrProductNotFound
	}

	return &model.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
	}, nil
}

func updateDocument(product *model.Product) bson.M {
	set := bson.M{
		"name":  product.Name,
		"price": product.Price,
		"stock": product.Stock,
	}
	update := bson.M{"$set": set}
	switch {
	case product.ExpiryDate != nil:
		set["expiryDate"] = product.ExpiryDate
	case product.ClearExpiry:
		update["$unset"] = bson.M{"expiryDate": ""}
	}
	return update
}

func (r *ProductRepository) Delete(ctx context.Context, product *model.Product) (*model.DeleteResult, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", product.ID.Hex()))

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": product.ID})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("delete product %s: %w", product.ID.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return nil, model.ErrProductNotFound
	}

	return &model.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *ProductRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]model.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]model.Product, 0)
	for cursor.Next(ctx) {
		var product model.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
