package address

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a user's address book. At most one address per user is the
// default; the first saved address becomes it.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	// SnapshotFor resolves a saved address for order placement.
	SnapshotFor(ctx context.Context, userID, id uuid.UUID) (types.AddressSnapshot, error)
}

type service struct {
	tx   txRunner
	repo *Repository
}

func NewService(tx txRunner, repository *Repository) (Service, error) {
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if repository == nil {
		return nil, errors.New("address repository required")
	}
	return &service{tx: tx, repo: repository}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, repo.Classify(err, "", "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	row, err := s.repo.FindOwned(ctx, userID, id)
	if err != nil {
		return nil, repo.Classify(err, "address not found", "load address")
	}
	dto := toDTO(*row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*AddressDTO, error) {
	snapshot := input.AddressSnapshot.Normalize()
	if missing := snapshot.Missing(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}

	address := models.Address{UserID: userID, Label: trimmed(input.Label)}
	applySnapshot(&address, snapshot)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		count, err := txRepo.CountByUser(ctx, userID)
		if err != nil {
			return repo.Classify(err, "", "count addresses")
		}
		address.IsDefault = input.IsDefault || count == 0
		if address.IsDefault {
			if err := txRepo.ClearDefault(ctx, userID); err != nil {
				return repo.Classify(err, "", "clear default address")
			}
		}
		return repo.Classify(txRepo.Create(ctx, &address), "", "insert address")
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(address)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*AddressDTO, error) {
	address, err := s.repo.FindOwned(ctx, userID, id)
	if err != nil {
		return nil, repo.Classify(err, "address not found", "load address")
	}

	snapshot := Snapshot(*address)
	setString(&snapshot.FullName, input.FullName)
	setString(&snapshot.Line1, input.Line1)
	setString(&snapshot.City, input.City)
	setString(&snapshot.State, input.State)
	setString(&snapshot.PostalCode, input.PostalCode)
	setString(&snapshot.Country, input.Country)
	if input.Line2 != nil {
		snapshot.Line2 = input.Line2
	}
	if input.Phone != nil {
		snapshot.Phone = input.Phone
	}
	snapshot = snapshot.Normalize()
	if missing := snapshot.Missing(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	applySnapshot(address, snapshot)
	if input.Label != nil {
		address.Label = trimmed(input.Label)
	}

	if err := s.repo.Save(ctx, address); err != nil {
		return nil, repo.Classify(err, "", "update address")
	}
	dto := toDTO(*address)
	return &dto, nil
}

// Delete promotes the newest remaining address when the default is removed.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		address, err := txRepo.FindOwned(ctx, userID, id)
		if err != nil {
			return repo.Classify(err, "address not found", "load address")
		}
		if _, err := txRepo.Delete(ctx, userID, id); err != nil {
			return repo.Classify(err, "", "delete address")
		}
		if !address.IsDefault {
			return nil
		}
		next, err := txRepo.Newest(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return repo.Classify(err, "", "load next default address")
		}
		return repo.Classify(txRepo.SetDefault(ctx, next.ID), "", "promote default address")
	})
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindOwned(ctx, userID, id); err != nil {
			return repo.Classify(err, "address not found", "load address")
		}
		if err := txRepo.ClearDefault(ctx, userID); err != nil {
			return repo.Classify(err, "", "clear default address")
		}
		return repo.Classify(txRepo.SetDefault(ctx, id), "", "set default address")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, id)
}

func (s *service) SnapshotFor(ctx context.Context, userID, id uuid.UUID) (types.AddressSnapshot, error) {
	address, err := s.repo.FindOwned(ctx, userID, id)
	if err != nil {
		return types.AddressSnapshot{}, repo.Classify(err, "address not found", "load address")
	}
	return Snapshot(*address), nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	if out == "" {
		return nil
	}
	return &out
}
