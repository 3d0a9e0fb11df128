package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// AddressDTO is one saved address.
type AddressDTO struct {
	ID        uuid.UUID `json:"id"`
	Label     *string   `json:"label,omitempty"`
	IsDefault bool      `json:"isDefault"`
	types.AddressSnapshot
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Input is the writable part of an address.
type Input struct {
	Label *string `json:"label,omitempty" validate:"omitempty,max=60"`
	types.AddressSnapshot
	IsDefault bool `json:"isDefault"`
}

// UpdateInput carries optional changes to an address.
type UpdateInput struct {
	Label      *string `json:"label,omitempty" validate:"omitempty,max=60"`
	FullName   *string `json:"fullName,omitempty" validate:"omitempty,max=120"`
	Line1      *string `json:"line1,omitempty" validate:"omitempty,max=200"`
	Line2      *string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
	Country    *string `json:"country,omitempty" validate:"omitempty,len=2"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// Snapshot copies a saved address into the immutable form stored on orders.
func Snapshot(a models.Address) types.AddressSnapshot {
	return types.AddressSnapshot{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

func toDTO(a models.Address) AddressDTO {
	return AddressDTO{
		ID:              a.ID,
		Label:           a.Label,
		IsDefault:       a.IsDefault,
		AddressSnapshot: Snapshot(a),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func applySnapshot(a *models.Address, s types.AddressSnapshot) {
	a.FullName = s.FullName
	a.Line1 = s.Line1
	a.Line2 = s.Line2
	a.City = s.City
	a.State = s.State
	a.PostalCode = s.PostalCode
	a.Country = s.Country
	a.Phone = s.Phone
}
