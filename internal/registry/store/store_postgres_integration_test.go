//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sealedreg/internal/enclave"
	"sealedreg/internal/registry/models"
	"sealedreg/internal/registry/store"
	"sealedreg/pkg/platform/sentinel"
	"sealedreg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "participants"))
}

func newTestRecord(owner string) *models.Record {
	return &models.Record{
		Owner:             owner,
		EncryptedName:     enclave.Ciphertext("n-" + owner),
		EncryptedAge:      enclave.Ciphertext("a-" + owner),
		EncryptedContact:  enclave.Ciphertext("c-" + owner),
		EncryptedCategory: enclave.Ciphertext("k-" + owner),
		Category:          models.CategoryEndurance,
		SubmittedAt:       time.Now().UTC().Truncate(time.Microsecond),
		State:             models.StateSubmitted,
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	record := newTestRecord("alice")
	s.Require().NoError(s.store.Insert(ctx, record))

	found, err := s.store.Get(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(record.Owner, found.Owner)
	s.Equal(record.Category, found.Category)
	s.True(record.EncryptedName.Equal(found.EncryptedName))
	s.Equal(models.StateSubmitted, found.State)
	s.Nil(found.DecryptedAt)

	s.Require().ErrorIs(s.store.Insert(ctx, newTestRecord("alice")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestBatchAtomicity() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, newTestRecord("dup")))

	batch := []*models.Record{newTestRecord("x"), newTestRecord("dup"), newTestRecord("y")}
	s.Require().ErrorIs(s.store.InsertBatch(ctx, batch), sentinel.ErrConflict)

	owners, err := s.store.ListOwners(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"dup"}, owners)
}

func (s *PostgresStoreSuite) TestMarkDecryptedTransitions() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Insert(ctx, newTestRecord("ada")))

	updated, err := s.store.MarkDecrypted(ctx, "ada", "Ada", 20, "ada@example.com", now)
	s.Require().NoError(err)
	s.Equal(models.StateDecrypted, updated.State)
	s.Require().NotNil(updated.DecryptedAt)
	s.Equal("Ada", updated.PlainName)

	_, err = s.store.MarkDecrypted(ctx, "ada", "Mallory", 30, "evil@example.com", now.Add(time.Hour))
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.MarkDecrypted(ctx, "ghost", "G", 20, "g@example.com", now)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListOwnersOrder() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.Insert(ctx, newTestRecord(fmt.Sprintf("owner-%d", i))))
	}
	owners, err := s.store.ListOwners(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"owner-0", "owner-1", "owner-2", "owner-3", "owner-4"}, owners)
}

// TestConcurrentUniqueOwnerViolation verifies that racing admissions for one
// owner result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentUniqueOwnerViolation() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Insert(ctx, newTestRecord("contended"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}
