package categories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/slug"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service exposes category browsing and admin management.
type Service interface {
	GetAll(ctx context.Context) ([]CategoryDTO, error)
	GetFeatured(ctx context.Context) ([]CategoryDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
	Create(ctx context.Context, input CreateInput) (*CategoryDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CategoryDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ToggleFeatured(ctx context.Context, id uuid.UUID) (*CategoryDTO, error)
}

// CreateInput holds a validated category payload.
type CreateInput struct {
	Name        string
	Slug        string
	Description *string
	ImageURL    *string
	ParentID    *uuid.UUID
	IsFeatured  bool
	IsActive    *bool
	SortOrder   int
}

// UpdateInput carries optional changes; ParentID distinguishes absent from null.
type UpdateInput struct {
	Name        *string
	Slug        *string
	Description *string
	ImageURL    *string
	ParentID    types.NullableUUID
	IsFeatured  *bool
	IsActive    *bool
	SortOrder   *int
}

type service struct {
	repo *Repository
}

func NewService(repository *Repository) (Service, error) {
	if repository == nil {
		return nil, errors.New("category repository required")
	}
	return &service{repo: repository}, nil
}

func (s *service) GetAll(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, repo.Classify(err, "", "list categories")
	}
	return toDTOs(rows), nil
}

func (s *service) GetFeatured(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return nil, repo.Classify(err, "", "list featured categories")
	}
	return toDTOs(rows), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Classify(err, "category not found", "load category")
	}
	dto := fromRow(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	categorySlug, err := resolveSlug(input.Slug, name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, categorySlug, uuid.Nil); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := s.ensureParent(ctx, uuid.Nil, *input.ParentID); err != nil {
			return nil, err
		}
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	category := &models.Category{
		Name:        name,
		Slug:        categorySlug,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		ParentID:    input.ParentID,
		IsFeatured:  input.IsFeatured,
		IsActive:    active,
		SortOrder:   input.SortOrder,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, repo.Classify(err, "", "insert category")
	}
	dto := fromModel(*category, 0)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*CategoryDTO, error) {
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, repo.Classify(err, "category not found", "load category")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		category.Name = name
	}
	if input.Slug != nil {
		categorySlug, err := resolveSlug(*input.Slug, category.Name)
		if err != nil {
			return nil, err
		}
		if categorySlug != category.Slug {
			if err := s.ensureSlugFree(ctx, categorySlug, id); err != nil {
				return nil, err
			}
			category.Slug = categorySlug
		}
	}
	if input.ParentID.Valid {
		if input.ParentID.Value != nil {
			if err := s.ensureParent(ctx, id, *input.ParentID.Value); err != nil {
				return nil, err
			}
		}
		category.ParentID = input.ParentID.Value
	}
	if input.Description != nil {
		category.Description = input.Description
	}
	if input.ImageURL != nil {
		category.ImageURL = input.ImageURL
	}
	if input.IsFeatured != nil {
		category.IsFeatured = *input.IsFeatured
	}
	if input.IsActive != nil {
		category.IsActive = *input.IsActive
	}
	if input.SortOrder != nil {
		category.SortOrder = *input.SortOrder
	}

	if err := s.repo.Save(ctx, category); err != nil {
		return nil, repo.Classify(err, "", "update category")
	}
	return s.GetByID(ctx, id)
}

// Delete refuses while products or child categories still point at the row.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	products, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return repo.Classify(err, "", "count category products")
	}
	if products > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products").
			WithDetails(map[string]any{"productCount": products})
	}
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return repo.Classify(err, "", "count child categories")
	}
	if children > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has subcategories")
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return repo.Classify(err, "", "delete category")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) ToggleFeatured(ctx context.Context, id uuid.UUID) (*CategoryDTO, error) {
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, repo.Classify(err, "category not found", "load category")
	}
	category.IsFeatured = !category.IsFeatured
	if err := s.repo.Save(ctx, category); err != nil {
		return nil, repo.Classify(err, "", "toggle featured")
	}
	return s.GetByID(ctx, id)
}

func (s *service) ensureSlugFree(ctx context.Context, categorySlug string, exclude uuid.UUID) error {
	taken, err := s.repo.SlugTaken(ctx, categorySlug, exclude)
	if err != nil {
		return repo.Classify(err, "", "check category slug")
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists").
			WithDetails(map[string]any{"slug": categorySlug})
	}
	return nil
}

func (s *service) ensureParent(ctx context.Context, self, parentID uuid.UUID) error {
	if parentID == self {
		return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
	}
	if _, err := s.repo.Get(ctx, parentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "parent category does not exist")
		}
		return repo.Classify(err, "", "load parent category")
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

func toDTOs(rows []categoryRow) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out
}
