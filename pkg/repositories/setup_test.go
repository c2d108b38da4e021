//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/testhelpers"
)

// repoTestContext holds the repositories under test on a clean database.
type repoTestContext struct {
	t           *testing.T
	ctx         context.Context
	testDB      *testhelpers.TestDB
	fabrics     FabricRepository
	styles      StyleRepository
	profiles    ProfileRepository
	generations GenerationRepository
}

// setupRepoTest truncates every table of the shared test database.
func setupRepoTest(t *testing.T) *repoTestContext {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	testDB.Truncate(t, "generations", "fabrics", "kurti_styles", "profiles")

	return &repoTestContext{
		t:           t,
		ctx:         context.Background(),
		testDB:      testDB,
		fabrics:     NewFabricRepository(testDB.DB),
		styles:      NewStyleRepository(testDB.DB),
		profiles:    NewProfileRepository(testDB.DB),
		generations: NewGenerationRepository(testDB.DB),
	}
}

func (tc *repoTestContext) createProfile(role string) *models.Profile {
	tc.t.Helper()
	p, err := tc.profiles.EnsureExists(tc.ctx, &models.Profile{ID: uuid.New(), Role: role})
	if err != nil {
		tc.t.Fatalf("failed to create profile: %v", err)
	}
	return p
}

func (tc *repoTestContext) createFabric(name string, active bool) *models.Fabric {
	tc.t.Helper()
	f := &models.Fabric{Name: name, ImageURL: "http://storage.test/fabrics/" + name + ".jpg", IsActive: active}
	if err := tc.fabrics.Create(tc.ctx, f); err != nil {
		tc.t.Fatalf("failed to create fabric: %v", err)
	}
	return f
}

func (tc *repoTestContext) createStyle(slug, name string) *models.KurtiStyle {
	tc.t.Helper()
	s := &models.KurtiStyle{Slug: slug, Name: name, IsActive: true}
	if err := tc.styles.Upsert(tc.ctx, s); err != nil {
		tc.t.Fatalf("failed to create style: %v", err)
	}
	return s
}
