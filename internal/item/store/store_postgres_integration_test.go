//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lostfound/internal/item/store"
	"lostfound/pkg/platform/sentinel"
	"lostfound/pkg/requestcontext"
	"lostfound/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "items"))
}

func (s *PostgresStoreSuite) TestUpsertPreservesCreatedAt() {
	ctx := context.Background()
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	_, err := s.store.Upsert(requestcontext.WithTime(ctx, first), "PG-1", "111", "one")
	s.Require().NoError(err)
	saved, err := s.store.Upsert(requestcontext.WithTime(ctx, second), "PG-1", "222", "two")
	s.Require().NoError(err)

	s.True(saved.CreatedAt.Equal(first))
	s.True(saved.UpdatedAt.Equal(second))
	s.Equal("222", saved.ContactDigits)
	s.Equal(int64(2), saved.Version)
}

func (s *PostgresStoreSuite) TestFindUnknown() {
	_, err := s.store.FindByIdentifier(context.Background(), "nope")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentUpsertSingleRow verifies that racing upserts for one identifier
// all succeed and leave exactly one row.
func (s *PostgresStoreSuite) TestConcurrentUpsertSingleRow() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Upsert(ctx, "SHARED", fmt.Sprintf("%010d", i), "m"); err == nil {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(goroutines), successCount.Load(), "every upsert should succeed")

	var rows int
	err := s.postgres.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE identifier = $1`, "SHARED").Scan(&rows)
	s.Require().NoError(err)
	s.Equal(1, rows)
}
