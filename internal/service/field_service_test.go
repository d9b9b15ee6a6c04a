package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldhealth-service/internal/model"
)

func TestFieldService_CreateDerivesGeometry(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	principal := model.Principal{UserID: uuid.New()}

	field, err := env.fields.Create(ctx, principal, CreateFieldInput{
		Name:     "canal side",
		Boundary: testBoundary,
		CropType: "wheat",
		State:    "Punjab",
	})
	require.NoError(t, err)

	assert.Equal(t, principal.UserID, field.UserID)
	assert.InDelta(t, 31.05, field.CentroidLat, 1e-9)
	assert.InDelta(t, 75.05, field.CentroidLon, 1e-9)
	assert.InDelta(t, 12351.87, field.AreaHa, 0.5)
	assert.Equal(t, "Unknown", field.District)
}

func TestFieldService_CreateRejectsBadInput(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	principal := model.Principal{UserID: uuid.New()}

	_, err := env.fields.Create(ctx, principal, CreateFieldInput{Boundary: testBoundary})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.fields.Create(ctx, principal, CreateFieldInput{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.fields.Create(ctx, principal, CreateFieldInput{
		Name:     "x",
		Boundary: `{"type":"Point","coordinates":[75.0,31.0]}`,
	})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestFieldService_UpdateBoundaryRecomputesGeometry(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	principal := model.Principal{UserID: uuid.New()}

	field, err := env.fields.Create(ctx, principal, CreateFieldInput{
		Name:     "canal side",
		Boundary: testBoundary,
		State:    "Punjab",
	})
	require.NoError(t, err)

	moved := `{"type":"Polygon","coordinates":[[[72.0,23.0],[72.2,23.0],[72.2,23.2],[72.0,23.2],[72.0,23.0]]]}`
	state := "Gujarat"
	updated, err := env.fields.Update(ctx, principal, field.ID, UpdateFieldInput{
		Boundary: &moved,
		State:    &state,
	})
	require.NoError(t, err)

	assert.InDelta(t, 23.1, updated.CentroidLat, 1e-9)
	assert.InDelta(t, 72.1, updated.CentroidLon, 1e-9)
	assert.Greater(t, updated.AreaHa, field.AreaHa)
	assert.Equal(t, "Gujarat", updated.State)
	assert.Equal(t, "canal side", updated.Name, "untouched fields survive a partial update")
}

func TestFieldService_OwnershipChecks(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	owner := model.Principal{UserID: uuid.New()}
	stranger := model.Principal{UserID: uuid.New()}
	admin := model.Principal{UserID: uuid.New(), Role: "ADMIN"}

	field, err := env.fields.Create(ctx, owner, CreateFieldInput{
		Name:     "canal side",
		Boundary: testBoundary,
	})
	require.NoError(t, err)

	_, err = env.fields.Get(ctx, stranger, field.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = env.fields.Get(ctx, admin, field.ID)
	assert.NoError(t, err)

	err = env.fields.Delete(ctx, stranger, field.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, env.fields.Delete(ctx, owner, field.ID))
	_, err = env.fields.Get(ctx, owner, field.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
