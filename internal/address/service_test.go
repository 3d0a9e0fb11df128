package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, uuid.UUID) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(db.NewFromGorm(conn), NewRepository(conn))
	require.NoError(t, err)
	return svc, dbtest.SeedUser(t, conn, enums.UserRoleCustomer).ID
}

func sampleInput(name string) Input {
	return Input{AddressSnapshot: types.AddressSnapshot{
		FullName:   name,
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "us",
	}}
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	svc, userID := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, userID, sampleInput("Home"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "US", first.Country)

	second, err := svc.Create(ctx, userID, sampleInput("Work"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	_, err = svc.SetDefault(ctx, userID, second.ID)
	require.NoError(t, err)

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestDeleteDefaultPromotesRemaining(t *testing.T) {
	svc, userID := newTestService(t)
	ctx := context.Background()
	first, err := svc.Create(ctx, userID, sampleInput("Home"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, userID, sampleInput("Work"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, first.ID))
	got, err := svc.Get(ctx, userID, second.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)

	err = svc.Delete(ctx, userID, first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateRejectsIncompleteAddress(t *testing.T) {
	svc, userID := newTestService(t)
	input := sampleInput(" ")
	_, err := svc.Create(context.Background(), userID, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAndOwnership(t *testing.T) {
	svc, userID := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, userID, sampleInput("Home"))
	require.NoError(t, err)

	city := "Shelbyville"
	updated, err := svc.Update(ctx, userID, created.ID, UpdateInput{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Shelbyville", updated.City)

	_, err = svc.Update(ctx, uuid.New(), created.ID, UpdateInput{City: &city})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	snapshot, err := svc.SnapshotFor(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shelbyville", snapshot.City)

	_, err = svc.SnapshotFor(ctx, uuid.New(), created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
