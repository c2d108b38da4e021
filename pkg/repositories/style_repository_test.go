//go:build integration

package repositories

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

func TestStyleRepository_UpsertBySlug(t *testing.T) {
	tc := setupRepoTest(t)

	first := tc.createStyle("straight", "Straight")
	desc := "Clean lines"
	second := &models.KurtiStyle{Slug: "straight", Name: "Straight Cut", Description: &desc, IsActive: true}
	require.NoError(t, tc.styles.Upsert(tc.ctx, second))
	assert.Equal(t, first.ID, second.ID, "upsert keeps the row id")

	got, err := tc.styles.GetBySlug(tc.ctx, "straight")
	require.NoError(t, err)
	assert.Equal(t, "Straight Cut", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)

	_, err = tc.styles.GetBySlug(tc.ctx, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestStyleRepository_ListActiveByName(t *testing.T) {
	tc := setupRepoTest(t)

	tc.createStyle("straight", "Straight")
	tc.createStyle("a-line", "A-Line")
	hidden := &models.KurtiStyle{Slug: "retired", Name: "Retired", IsActive: false}
	require.NoError(t, tc.styles.Upsert(tc.ctx, hidden))

	styles, err := tc.styles.ListActive(tc.ctx)
	require.NoError(t, err)
	require.Len(t, styles, 2)
	assert.Equal(t, "A-Line", styles[0].Name)
	assert.Equal(t, "Straight", styles[1].Name)
}
