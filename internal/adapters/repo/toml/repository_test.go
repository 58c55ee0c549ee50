package toml

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/recallo/recallo-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

func newTestRepository(t *testing.T, path string) *Repository {
	t.Helper()

	repo, err := NewRepository(path, stubClock{now: time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profile.toml"))
	profile := domain.Profile{OwnerID: "owner-1", Email: "student@example.com", SecretRef: "recallo://owner-1/access_token"}

	require.NoError(t, repo.Save(context.Background(), profile))

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, profile, got)

	owner, err := repo.OwnerID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OwnerID("owner-1"), owner)
}

func TestRepositorySaveReplacesProfile(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profile.toml"))
	require.NoError(t, repo.Save(context.Background(), domain.Profile{OwnerID: "owner-1"}))
	require.NoError(t, repo.Save(context.Background(), domain.Profile{OwnerID: "owner-2", Email: "two@example.com"}))

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OwnerID("owner-2"), got.OwnerID)
	assert.Equal(t, "two@example.com", got.Email)
}

func TestRepositorySaveRequiresOwner(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profile.toml"))
	err := repo.Save(context.Background(), domain.Profile{Email: "nobody@example.com"})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRepositorySaveCreatesDirectoryAndEnforcesPermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ".recallo", "profile.toml")
	repo := newTestRepository(t, path)

	require.NoError(t, repo.Save(context.Background(), domain.Profile{OwnerID: "owner-1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "profile.toml"))

	_, err := repo.Get(context.Background())
	require.ErrorIs(t, err, domain.ErrProfileNotFound)

	_, err = repo.OwnerID(context.Background())
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRepositoryMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(path, []byte("profile = ["), 0o600))

	repo := newTestRepository(t, path)
	_, err := repo.Get(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode profile file")

	_, err = repo.OwnerID(context.Background())
	assert.NotErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profile.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.Profile{OwnerID: "owner-1"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRepositoryConcurrentSavesAcrossInstancesStayReadable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.toml")
	repoA := newTestRepository(t, path)
	repoB := newTestRepository(t, path)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	write := func(repo *Repository, prefix string) {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repo.Save(context.Background(), domain.Profile{OwnerID: domain.OwnerID(prefix + strconv.Itoa(i))})
		}
	}
	go write(repoA, "a-")
	go write(repoB, "b-")

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	got, err := repoA.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(got.OwnerID), "a-") || strings.HasPrefix(string(got.OwnerID), "b-"))
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.toml")
	repo := newTestRepository(t, path)

	require.NoError(t, repo.Save(context.Background(), domain.Profile{OwnerID: "owner-1"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "owner_id = 'owner-1'")
	assert.Contains(t, string(data), "updated_at = '2026-02-14T11:00:00Z'")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"version = 999",
		"",
		"[profile]",
		"owner_id = 'owner-1'",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, path)
	_, err := repo.Get(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported profile schema version")
}

func TestNewRepositoryRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewRepository("  ", nil)
	require.Error(t, err)
}
