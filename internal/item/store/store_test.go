package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lostfound/pkg/platform/sentinel"
	"lostfound/pkg/requestcontext"
)

// BackendSuite runs the same behavioural checks against every local backend.
type BackendSuite struct {
	suite.Suite
	newBackend func(t *testing.T) Backend
	store      Backend
	ctx        context.Context
}

func (s *BackendSuite) SetupTest() {
	s.store = s.newBackend(s.T())
	s.ctx = context.Background()
}

func TestInMemoryBackendSuite(t *testing.T) {
	suite.Run(t, &BackendSuite{newBackend: func(*testing.T) Backend {
		return NewInMemory()
	}})
}

func TestSQLiteBackendSuite(t *testing.T) {
	suite.Run(t, &BackendSuite{newBackend: func(t *testing.T) Backend {
		st, err := OpenSQLite(filepath.Join(t.TempDir(), "items.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		if err := st.EnsureSchema(context.Background()); err != nil {
			t.Fatalf("ensure schema: %v", err)
		}
		return st
	}})
}

func (s *BackendSuite) TestUpsertAndFind() {
	s.Run("stores and returns the record", func() {
		saved, err := s.store.Upsert(s.ctx, "BAG-1", "9876543210", "Call me")
		s.Require().NoError(err)
		s.Equal("BAG-1", saved.Identifier)
		s.Equal(int64(1), saved.Version)

		found, err := s.store.FindByIdentifier(s.ctx, "BAG-1")
		s.Require().NoError(err)
		s.Equal("9876543210", found.ContactDigits)
		s.Equal("Call me", found.Message)
	})

	s.Run("returns ErrNotFound for unknown identifier", func() {
		_, err := s.store.FindByIdentifier(s.ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("identifiers are case sensitive", func() {
		_, err := s.store.Upsert(s.ctx, "Case", "1", "m")
		s.Require().NoError(err)

		_, err = s.store.FindByIdentifier(s.ctx, "case")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *BackendSuite) TestUpsertOverwrites() {
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	_, err := s.store.Upsert(requestcontext.WithTime(s.ctx, first), "X", "111", "old")
	s.Require().NoError(err)
	saved, err := s.store.Upsert(requestcontext.WithTime(s.ctx, second), "X", "222", "new")
	s.Require().NoError(err)
	s.Equal(int64(2), saved.Version, "each upsert bumps the version")

	found, err := s.store.FindByIdentifier(s.ctx, "X")
	s.Require().NoError(err)
	s.Equal("222", found.ContactDigits)
	s.Equal("new", found.Message)
	s.True(found.CreatedAt.Equal(first), "created_at is kept from the first registration")
	s.True(found.UpdatedAt.Equal(second), "updated_at follows the latest registration")
}

// TestConcurrentUpsertSameIdentifier verifies that racing registrations leave
// exactly one record holding one of the submitted payloads.
func (s *BackendSuite) TestConcurrentUpsertSameIdentifier() {
	const goroutines = 20
	written := make(map[string]bool, goroutines)

	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := range goroutines {
		contact := fmt.Sprintf("90000000%02d", i)
		written[contact] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Upsert(s.ctx, "RACE", contact, "msg "+contact); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	found, err := s.store.FindByIdentifier(s.ctx, "RACE")
	s.Require().NoError(err)
	s.True(written[found.ContactDigits], "stored contact must be one of the written values")
	s.Equal("msg "+found.ContactDigits, found.Message, "contact and message come from the same write")
	s.Equal(int64(goroutines), found.Version, "every write is counted once")
}

func (s *BackendSuite) TestConcurrentUpsertDistinctIdentifiers() {
	const goroutines = 20

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Upsert(s.ctx, fmt.Sprintf("ID-%d", i), "1234", "m")
			s.NoError(err)
		}()
	}
	wg.Wait()

	for i := range goroutines {
		_, err := s.store.FindByIdentifier(s.ctx, fmt.Sprintf("ID-%d", i))
		s.NoError(err)
	}
}

func (s *BackendSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
