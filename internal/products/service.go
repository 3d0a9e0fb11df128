package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const defaultLowStockThreshold = 5

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, input ListInput) (pagination.Result[ProductDTO], error)
	GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error)
	GetBySlug(ctx context.Context, slug string, includeInactive bool) (*ProductDTO, error)
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListInput mirrors the public query parameters of the product listing.
type ListInput struct {
	CategoryID      *uuid.UUID
	CategorySlug    string
	Search          string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	InStock         *bool
	Featured        *bool
	Sort            enums.ProductSort
	Page            pagination.Page
	IncludeInactive bool
}

type CreateInput struct {
	CategoryID        *uuid.UUID
	Name              string
	Slug              string
	SKU               *string
	Description       *string
	ShortDescription  *string
	Price             decimal.Decimal
	OriginalPrice     *decimal.Decimal
	Stock             int
	LowStockThreshold *int
	TrackQuantity     *bool
	IsActive          *bool
	IsFeatured        bool
	Images            []ImageInput
}

// UpdateInput carries optional changes. A non-nil Images replaces the gallery.
type UpdateInput struct {
	CategoryID        types.NullableUUID
	Name              *string
	Slug              *string
	SKU               *string
	Description       *string
	ShortDescription  *string
	Price             *decimal.Decimal
	OriginalPrice     *decimal.Decimal
	ClearOriginal     bool
	Stock             *int
	LowStockThreshold *int
	TrackQuantity     *bool
	IsActive          *bool
	IsFeatured        *bool
	Images            *[]ImageInput
}

type service struct {
	dbClient *db.Client
	repo     *Repository
}

func NewService(dbClient *db.Client, repository *Repository) (Service, error) {
	if dbClient == nil {
		return nil, errors.New("db client required")
	}
	if repository == nil {
		return nil, errors.New("product repository required")
	}
	return &service{dbClient: dbClient, repo: repository}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (pagination.Result[ProductDTO], error) {
	page := input.Page.Normalize()
	if input.MinPrice != nil && input.MaxPrice != nil && input.MinPrice.GreaterThan(*input.MaxPrice) {
		return pagination.Result[ProductDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}

	filter := ListFilter{
		CategoryID:      input.CategoryID,
		Search:          input.Search,
		MinPrice:        input.MinPrice,
		MaxPrice:        input.MaxPrice,
		InStock:         input.InStock,
		Featured:        input.Featured,
		IncludeInactive: input.IncludeInactive,
		Sort:            sortOrder(input.Sort),
		Page:            page,
	}
	if filter.CategoryID == nil && strings.TrimSpace(input.CategorySlug) != "" {
		categoryID, err := s.repo.CategoryIDBySlug(ctx, strings.TrimSpace(input.CategorySlug))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pagination.NewResult[ProductDTO](nil, page, 0), nil
		}
		if err != nil {
			return pagination.Result[ProductDTO]{}, repo.Classify(err, "", "resolve category slug")
		}
		filter.CategoryID = &categoryID
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return pagination.Result[ProductDTO]{}, repo.Classify(err, "", "list products")
	}
	items := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToDTO(row))
	}
	return pagination.NewResult(items, page, total), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID, includeInactive bool) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	return s.visible(product, err, includeInactive)
}

func (s *service) GetBySlug(ctx context.Context, productSlug string, includeInactive bool) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(productSlug))
	return s.visible(product, err, includeInactive)
}

func (s *service) visible(product *models.Product, err error, includeInactive bool) (*ProductDTO, error) {
	if err != nil {
		return nil, repo.Classify(err, "product not found", "load product")
	}
	if !product.IsActive && !includeInactive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := ToDTO(*product)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validateAmounts(input.Price, input.OriginalPrice, input.Stock); err != nil {
		return nil, err
	}
	productSlug, err := resolveSlug(input.Slug, name)
	if err != nil {
		return nil, err
	}
	sku := normalizeSKU(input.SKU)

	product := &models.Product{
		CategoryID:        input.CategoryID,
		Name:              name,
		Slug:              productSlug,
		SKU:               sku,
		Description:       input.Description,
		ShortDescription:  input.ShortDescription,
		Price:             input.Price.Round(2),
		OriginalPrice:     roundPtr(input.OriginalPrice),
		Stock:             input.Stock,
		LowStockThreshold: defaultLowStockThreshold,
		TrackQuantity:     true,
		IsActive:          true,
		IsFeatured:        input.IsFeatured,
		Images:            toImages(input.Images),
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}
	if input.TrackQuantity != nil {
		product.TrackQuantity = *input.TrackQuantity
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := ensureUnique(ctx, txRepo, product, uuid.Nil); err != nil {
			return err
		}
		if err := ensureCategory(ctx, txRepo, product.CategoryID); err != nil {
			return err
		}
		return txRepo.Create(ctx, product)
	})
	if err != nil {
		return nil, repo.Classify(err, "", "insert product")
	}
	return s.GetByID(ctx, product.ID, true)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindByID(ctx, id)
		if err != nil {
			return repo.Classify(err, "product not found", "load product")
		}
		if err := applyUpdate(product, input); err != nil {
			return err
		}
		if err := validateAmounts(product.Price, product.OriginalPrice, product.Stock); err != nil {
			return err
		}
		if err := ensureUnique(ctx, txRepo, product, id); err != nil {
			return err
		}
		if input.CategoryID.Valid {
			if err := ensureCategory(ctx, txRepo, product.CategoryID); err != nil {
				return err
			}
		}
		if err := txRepo.Update(ctx, product); err != nil {
			return err
		}
		if input.Stock != nil {
			if err := txRepo.SetStock(ctx, id, *input.Stock); err != nil {
				return err
			}
		}
		if input.Images != nil {
			return txRepo.ReplaceImages(ctx, id, toImages(*input.Images))
		}
		return nil
	})
	if err != nil {
		return nil, repo.Classify(err, "", "update product")
	}
	return s.GetByID(ctx, id, true)
}

// Delete hard-deletes the product together with its images. Order items keep
// their snapshots.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var affected int64
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.WithTx(tx).Delete(ctx, id)
		affected = n
		return err
	})
	if err != nil {
		return repo.Classify(err, "", "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func applyUpdate(product *models.Product, input UpdateInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Slug != nil {
		productSlug, err := resolveSlug(*input.Slug, product.Name)
		if err != nil {
			return err
		}
		product.Slug = productSlug
	}
	if input.SKU != nil {
		product.SKU = normalizeSKU(input.SKU)
	}
	if input.CategoryID.Valid {
		product.CategoryID = input.CategoryID.Value
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.ShortDescription != nil {
		product.ShortDescription = input.ShortDescription
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	switch {
	case input.ClearOriginal:
		product.OriginalPrice = nil
	case input.OriginalPrice != nil:
		product.OriginalPrice = roundPtr(input.OriginalPrice)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.LowStockThreshold != nil {
		product.LowStockThreshold = *input.LowStockThreshold
	}
	if input.TrackQuantity != nil {
		product.TrackQuantity = *input.TrackQuantity
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	return nil
}

func ensureUnique(ctx context.Context, r *Repository, product *models.Product, exclude uuid.UUID) error {
	taken, err := r.SlugTaken(ctx, product.Slug, exclude)
	if err != nil {
		return repo.Classify(err, "", "check product slug")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists").
			WithDetails(map[string]any{"slug": product.Slug})
	}
	if product.SKU == nil {
		return nil
	}
	taken, err = r.SKUTaken(ctx, *product.SKU, exclude)
	if err != nil {
		return repo.Classify(err, "", "check product sku")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "product sku already exists").
			WithDetails(map[string]any{"sku": *product.SKU})
	}
	return nil
}

func ensureCategory(ctx context.Context, r *Repository, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	ok, err := r.CategoryExists(ctx, *categoryID)
	if err != nil {
		return repo.Classify(err, "", "check category")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
	}
	return nil
}

func validateAmounts(price decimal.Decimal, original *decimal.Decimal, stock int) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if original != nil && original.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "originalPrice cannot be negative")
	}
	if stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

func resolveSlug(requested, name string) (string, error) {
	source := strings.TrimSpace(requested)
	if source == "" {
		source = name
	}
	out := slug.Make(source)
	if out == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "slug cannot be derived from name")
	}
	return out, nil
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func roundPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	rounded := d.Round(2)
	return &rounded
}
