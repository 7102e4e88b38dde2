package model

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CheckBody verifies name, price and stock are present. Zero values count
// as absent, so a price or stock of 0 fails here.
func CheckBody(req *ProductRequest) error {
	if req == nil {
		return NewValidationError(ErrCodeMissingField, []string{"name", "price", "stock"}, "Request parameters are not present")
	}

	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return NewValidationError(ErrCodeMissingField, fields, "Request parameters are not present")
}

// Constraints configures the domain policy shared by the add and edit
// flows. Price and stock bounds are exclusive.
type Constraints struct {
	MinPrice        float64
	MinStock        int
	AllowPastExpiry bool
}

// DefaultConstraints: price > 0, stock > 0, expiry today or later.
func DefaultConstraints() Constraints {
	return Constraints{}
}

// Validate applies c to p. now decides what "today" is; both values are
// read in UTC and only their calendar dates are compared.
func Validate(p *Product, c Constraints, now time.Time) error {
	var fields []string
	if strings.TrimSpace(p.Name) == "" {
		fields = append(fields, "name")
	}
	if p.Price <= c.MinPrice {
		fields = append(fields, "price")
	}
	if p.Stock <= c.MinStock {
		fields = append(fields, "stock")
	}
	if p.ExpiryDate != nil && !c.AllowPastExpiry && dateOnly(*p.ExpiryDate).Before(dateOnly(now)) {
		fields = append(fields, "expiryDate")
	}

	if len(fields) > 0 {
		return NewValidationError(ErrCodeInvalidField, fields, "Fields violate product constraints")
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
