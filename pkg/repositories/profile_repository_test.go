//go:build integration

package repositories

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

func TestProfileRepository_EnsureExists(t *testing.T) {
	tc := setupRepoTest(t)
	id := uuid.New()
	email := "first@example.com"
	name := "Asha"

	created, err := tc.profiles.EnsureExists(tc.ctx, &models.Profile{ID: id, Email: &email, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, created.Role)
	require.NotNil(t, created.Email)
	assert.Equal(t, email, *created.Email)

	require.NoError(t, tc.profiles.UpdateRole(tc.ctx, id, models.RoleAdmin))

	newEmail := "second@example.com"
	again, err := tc.profiles.EnsureExists(tc.ctx, &models.Profile{ID: id, Email: &newEmail, Role: models.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, again.Role, "existing role is never changed")
	assert.Equal(t, newEmail, *again.Email)
	assert.Equal(t, name, *again.FullName)
}

func TestProfileRepository_UpdateRole(t *testing.T) {
	tc := setupRepoTest(t)
	p := tc.createProfile(models.RoleUser)

	err := tc.profiles.UpdateRole(tc.ctx, p.ID, "owner")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidRole))

	err = tc.profiles.UpdateRole(tc.ctx, uuid.New(), models.RoleAdmin)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = tc.profiles.GetByID(tc.ctx, uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
