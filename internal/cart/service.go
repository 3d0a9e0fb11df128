package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// MaxQuantity bounds a single cart line.
const MaxQuantity = 99

// Service manages a user's persisted cart.
type Service interface {
	GetItems(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*ItemDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	GetSummary(ctx context.Context, userID uuid.UUID) (Summary, error)
}

type service struct {
	dbClient *db.Client
	repo     *Repository
	products *products.Repository
}

func NewService(dbClient *db.Client, repository *Repository, productRepo *products.Repository) (Service, error) {
	if dbClient == nil {
		return nil, errors.New("db client required")
	}
	if repository == nil {
		return nil, errors.New("cart repository required")
	}
	if productRepo == nil {
		return nil, errors.New("product repository required")
	}
	return &service{dbClient: dbClient, repo: repository, products: productRepo}, nil
}

// GetItems omits lines whose product no longer exists.
func (s *service) GetItems(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	items, catalog, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		product, ok := catalog[item.ProductID]
		if !ok {
			continue
		}
		out = append(out, toItemDTO(item, product))
	}
	return out, nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*ItemDTO, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 99")
	}

	var (
		line    models.CartItem
		product *models.Product
	)
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var err error
		product, err = s.products.WithTx(tx).FindByID(ctx, productID)
		if err != nil {
			return repo.Classify(err, "product not found", "load product")
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeUnavailable, "product is not available")
		}

		existing, err := txRepo.FindByProduct(ctx, userID, productID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.Classify(err, "", "load cart item")
		}
		merged := quantity
		if existing != nil {
			merged += existing.Quantity
		}
		if product.TrackQuantity && merged > product.Stock {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "not enough stock for requested quantity").
				WithDetails(map[string]any{"available": product.Stock, "requested": merged})
		}
		if merged > MaxQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart line cannot exceed 99 units")
		}

		if existing != nil {
			if err := txRepo.SetQuantity(ctx, existing.ID, merged); err != nil {
				return repo.Classify(err, "", "update cart item")
			}
			existing.Quantity = merged
			line = *existing
			return nil
		}
		line = models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
		if err := txRepo.Create(ctx, &line); err != nil {
			return repo.Classify(err, "", "insert cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toItemDTO(line, *product)
	return &dto, nil
}

// UpdateQuantity sets an absolute quantity; zero or less removes the line and
// returns nil.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemDTO, error) {
	if quantity <= 0 {
		return nil, s.RemoveItem(ctx, userID, itemID)
	}
	if quantity > MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot exceed 99")
	}

	var (
		line    *models.CartItem
		product *models.Product
	)
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var err error
		line, err = txRepo.FindOwned(ctx, userID, itemID)
		if err != nil {
			return repo.Classify(err, "cart item not found", "load cart item")
		}
		product, err = s.products.WithTx(tx).FindByID(ctx, line.ProductID)
		if err != nil {
			return repo.Classify(err, "product not found", "load product")
		}
		if product.TrackQuantity && quantity > product.Stock {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
				WithDetails(map[string]any{"available": product.Stock, "requested": quantity})
		}
		if err := txRepo.SetQuantity(ctx, line.ID, quantity); err != nil {
			return repo.Classify(err, "", "update cart item")
		}
		line.Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := toItemDTO(*line, *product)
	return &dto, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.repo.DeleteOwned(ctx, userID, itemID); err != nil {
		return repo.Classify(err, "", "delete cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return repo.Classify(err, "", "clear cart")
	}
	return nil
}

func (s *service) GetSummary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	items, catalog, err := s.resolve(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	var (
		count    int
		subtotal = decimal.Zero
		savings  = decimal.Zero
	)
	for _, item := range items {
		product, ok := catalog[item.ProductID]
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		count += item.Quantity
		subtotal = subtotal.Add(product.Price.Mul(qty))
		if product.OriginalPrice != nil && product.OriginalPrice.GreaterThan(product.Price) {
			savings = savings.Add(product.OriginalPrice.Sub(product.Price).Mul(qty))
		}
	}
	return Summary{
		ItemCount: count,
		Subtotal:  types.NewMoney(subtotal),
		Savings:   types.NewMoney(savings),
	}, nil
}

func (s *service) resolve(ctx context.Context, userID uuid.UUID) ([]models.CartItem, map[uuid.UUID]models.Product, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, repo.Classify(err, "", "list cart items")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, repo.Classify(err, "", "load cart products")
	}
	return items, catalog, nil
}
