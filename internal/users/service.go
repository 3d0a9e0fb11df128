package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service covers the profile and the admin user directory.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserDTO, error)
	ListUsers(ctx context.Context, input ListInput) (pagination.Result[UserDTO], error)
	ToggleBlock(ctx context.Context, adminID, userID uuid.UUID) (*UserDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repository *Repository) (Service, error) {
	if repository == nil {
		return nil, errors.New("user repository required")
	}
	return &service{repo: repository}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repo.Classify(err, "user not found", "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repo.Classify(err, "user not found", "load user")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		user.Name = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			user.Phone = nil
		} else {
			user.Phone = &phone
		}
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, repo.Classify(err, "user not found", "update user")
	}
	return FromModel(user), nil
}

func (s *service) ListUsers(ctx context.Context, input ListInput) (pagination.Result[UserDTO], error) {
	page := pagination.Page{Page: input.Page, Limit: input.Limit}.Normalize()
	rows, total, err := s.repo.List(ctx, input.Search, page)
	if err != nil {
		return pagination.Result[UserDTO]{}, repo.Classify(err, "", "list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return pagination.NewResult(items, page, total), nil
}

// ToggleBlock flips the blocked flag. Admins cannot block themselves.
func (s *service) ToggleBlock(ctx context.Context, adminID, userID uuid.UUID) (*UserDTO, error) {
	if adminID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "you cannot block your own account")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, repo.Classify(err, "user not found", "load user")
	}
	found, err := s.repo.SetBlocked(ctx, userID, !user.IsBlocked)
	if err != nil {
		return nil, repo.Classify(err, "", "update user")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.GetProfile(ctx, userID)
}
