package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DateLayout = "2006-01-02"

type Product struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Price      float64            `json:"price" bson:"price"`
	Stock      int                `json:"stock" bson:"stock"`
	ExpiryDate *time.Time         `json:"expiryDate,omitempty" bson:"expiryDate,omitempty"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`

	// ClearExpiry asks an update to remove the stored expiry date. It is
	// set only when a request sends an explicitly blank expiryDate.
	ClearExpiry bool `json:"-" bson:"-"`
}

// ProductRequest is the JSON body accepted by the collection endpoint.
// Browser clients built against the original API send the id as "_id".
// A nil ExpiryDate leaves the stored date alone on update; a blank one
// clears it.
type ProductRequest struct {
	ID         string  `json:"id,omitempty"`
	LegacyID   string  `json:"_id,omitempty"`
	Name       string  `json:"name" validate:"required"`
	Price      float64 `json:"price" validate:"required"`
	Stock      int     `json:"stock" validate:"required"`
	ExpiryDate *string `json:"expiryDate,omitempty"`
}

func (r *ProductRequest) Identifier() string {
	if r.ID != "" {
		return r.ID
	}
	return r.LegacyID
}

// ToProduct converts the request into an entity. The id is parsed only
// when present; an empty id yields a zero ObjectID.
func (r *ProductRequest) ToProduct() (*Product, error) {
	p := &Product{
		Name:  r.Name,
		Price: r.Price,
		Stock: r.Stock,
	}

	if id := r.Identifier(); id != "" {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, ErrInvalidID
		}
		p.ID = oid
	}

	if r.ExpiryDate != nil {
		expiry, err := ParseDate(*r.ExpiryDate)
		if err != nil {
			return nil, NewValidationError(ErrCodeInvalidField, []string{"expiryDate"}, "Date must be YYYY-MM-DD or RFC 3339")
		}
		p.ExpiryDate = expiry
		p.ClearExpiry = expiry == nil
	}

	return p, nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp. Blank input
// means no date.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FromProduct is the inverse used by clients editing an existing record.
func FromProduct(p *Product) ProductRequest {
	req := ProductRequest{
		Name:  p.Name,
		Price: p.Price,
		Stock: p.Stock,
	}
	if !p.ID.IsZero() {
		req.ID = p.ID.Hex()
	}
	if p.ExpiryDate != nil {
		expiry := p.ExpiryDate.Format(DateLayout)
		req.ExpiryDate = &expiry
	}
	return req
}

// Page is one slice of the name-sorted listing plus the collection total.
type Page struct {
	Products []Product `json:"products"`
	Count    int64     `json:"count"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// UpdateResult acknowledges a replace; it does not carry the document.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}
