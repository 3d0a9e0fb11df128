package wishlist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ItemDTO wraps the product bookmarked by a wishlist row.
type ItemDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	Product   *products.ProductDTO `json:"product,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetItems(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.CursorResult[ItemDTO], error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	RemoveByProductID(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	IsInWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	GetCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo     *Repository
	products *products.Repository
}

func NewService(repository *Repository, productRepo *products.Repository) (Service, error) {
	if repository == nil {
		return nil, errors.New("wishlist repo is required")
	}
	if productRepo == nil {
		return nil, errors.New("product repo is required")
	}
	return &service{repo: repository, products: productRepo}, nil
}

// GetItems pages newest first. Rows whose product was deleted are dropped
// from the page but still advance the cursor.
func (s *service) GetItems(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.CursorResult[ItemDTO], error) {
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return pagination.CursorResult[ItemDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, userID, cursor, params.Limit)
	if err != nil {
		return pagination.CursorResult[ItemDTO]{}, repo.Classify(err, "", "list wishlist")
	}
	page := pagination.NewCursorResult(rows, params.Limit, func(item models.WishlistItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	})

	ids := make([]uuid.UUID, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return pagination.CursorResult[ItemDTO]{}, repo.Classify(err, "", "load wishlist products")
	}

	items := make([]ItemDTO, 0, len(page.Items))
	for _, item := range page.Items {
		product, ok := catalog[item.ProductID]
		if !ok {
			continue
		}
		dto := products.ToDTO(product)
		items = append(items, ItemDTO{ID: item.ID, ProductID: item.ProductID, Product: &dto, CreatedAt: item.CreatedAt})
	}
	return pagination.CursorResult[ItemDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

// AddItem bookmarks an active product. A product already on the list is a
// CONFLICT.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, repo.Classify(err, "product not found", "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	item, created, err := s.repo.Add(ctx, userID, productID)
	if err != nil {
		return nil, repo.Classify(err, "", "add wishlist item")
	}
	if !created {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is already in the wishlist")
	}
	dto := products.ToDTO(*product)
	return &ItemDTO{ID: item.ID, ProductID: productID, Product: &dto, CreatedAt: item.CreatedAt}, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	affected, err := s.repo.DeleteOwned(ctx, userID, itemID)
	if err != nil {
		return repo.Classify(err, "", "remove wishlist item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}

func (s *service) RemoveByProductID(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.DeleteByProduct(ctx, userID, productID); err != nil {
		return repo.Classify(err, "", "remove wishlist product")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return repo.Classify(err, "", "clear wishlist")
	}
	return nil
}

func (s *service) IsInWishlist(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	_, err := s.repo.FindByProduct(ctx, userID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, repo.Classify(err, "", "check wishlist")
	}
	return true, nil
}

func (s *service) GetCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.Count(ctx, userID)
	if err != nil {
		return 0, repo.Classify(err, "", "count wishlist")
	}
	return count, nil
}
