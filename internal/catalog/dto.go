package catalog

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/gastaldl/lojaflow/pkg/errors"
)

const taxIDDigits = 11

var validate = validator.New()

// CreateCategoryInput holds the payload to create a category.
type CreateCategoryInput struct {
	Name        string
	Description *string
}

// CreateProductInput holds the payload to create a product. New products start active.
type CreateProductInput struct {
	CategoryID  int64
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
}

// UpdateProductInput holds optional product changes; nil fields are left untouched.
type UpdateProductInput struct {
	CategoryID  *int64
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Active      *bool
}

// ListProductsInput narrows ListProducts.
type ListProductsInput struct {
	CategoryID int64
	ActiveOnly bool
}

// CreateCustomerInput holds the payload to register a customer.
type CreateCustomerInput struct {
	Name       string
	Email      string
	Phone      *string
	TaxID      *string
	Address    *string
	City       *string
	State      *string
	PostalCode *string
}

// UpdateCustomerInput holds optional customer changes; nil fields are left untouched.
type UpdateCustomerInput struct {
	Name       *string
	Email      *string
	Phone      *string
	TaxID      *string
	Address    *string
	City       *string
	State      *string
	PostalCode *string
	Active     *bool
}

// StockLevel is the absolute stock requested for one product in a batch update.
type StockLevel struct {
	ProductID int64
	Stock     int
}

func (in *CreateCategoryInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	in.Description = trimOptional(in.Description)
	return nil
}

func (in *CreateProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.CategoryID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id required")
	}
	if in.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if in.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if in.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	in.Description = trimOptional(in.Description)
	return nil
}

func (in *UpdateProductInput) validate() error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		in.Name = &name
	}
	if in.CategoryID != nil && *in.CategoryID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id must be positive")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	in.Description = trimOptional(in.Description)
	return nil
}

func (in *CreateCustomerInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	in.Email = email
	taxID, err := sanitizeTaxID(in.TaxID)
	if err != nil {
		return err
	}
	in.TaxID = taxID
	return nil
}

func (in *UpdateCustomerInput) validate() error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "customer name cannot be empty")
		}
		in.Name = &name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return err
		}
		in.Email = &email
	}
	if in.TaxID != nil {
		taxID, err := sanitizeTaxID(in.TaxID)
		if err != nil {
			return err
		}
		in.TaxID = taxID
		if in.TaxID == nil {
			empty := ""
			in.TaxID = &empty
		}
	}
	return nil
}

func validateStockLevels(levels []StockLevel) error {
	if len(levels) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one stock level required")
	}
	seen := make(map[int64]struct{}, len(levels))
	for _, level := range levels {
		if level.ProductID <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if level.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative").
				WithDetails(map[string]any{"product_id": level.ProductID, "stock": level.Stock})
		}
		if _, dup := seen[level.ProductID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "product listed more than once").
				WithDetails(map[string]any{"product_id": level.ProductID})
		}
		seen[level.ProductID] = struct{}{}
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email").
			WithDetails(map[string]any{"email": email})
	}
	return email, nil
}

// sanitizeTaxID keeps only digits. A blank value means no tax id.
func sanitizeTaxID(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, *raw)
	if len(digits) != taxIDDigits {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax id must have 11 digits").
			WithDetails(map[string]any{"digits": len(digits)})
	}
	return &digits, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
