//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"scanpoint/internal/ledger/store"
	"scanpoint/pkg/testutil/containers"
)

type PostgresScanStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	base     time.Time
}

func TestPostgresScanStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresScanStoreSuite))
}

func (s *PostgresScanStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
	s.base = time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)
}

func (s *PostgresScanStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "scans"))
}

func (s *PostgresScanStoreSuite) TestAppendAssignsIncreasingSeq() {
	ctx := context.Background()

	first, err := s.store.Append(ctx, "A1", s.base)
	s.Require().NoError(err)
	second, err := s.store.Append(ctx, "B2", s.base.Add(time.Minute))
	s.Require().NoError(err)

	s.Less(first.Seq, second.Seq)
}

func (s *PostgresScanStoreSuite) TestListRecentOrdersNewestFirstWithSeqTieBreak() {
	ctx := context.Background()

	_, err := s.store.Append(ctx, "A1", s.base)
	s.Require().NoError(err)
	_, err = s.store.Append(ctx, "B2", s.base.Add(time.Minute))
	s.Require().NoError(err)
	// same second as B2: seq decides
	_, err = s.store.Append(ctx, "C3", s.base.Add(time.Minute))
	s.Require().NoError(err)

	events, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal("C3", events[0].Identifier)
	s.Equal("B2", events[1].Identifier)
	s.Equal("A1", events[2].Identifier)
}

func (s *PostgresScanStoreSuite) TestCountByIdentifierAndClear() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.store.Append(ctx, "A1", s.base.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(err)
	}
	_, err := s.store.Append(ctx, "B2", s.base)
	s.Require().NoError(err)

	counts, err := s.store.CountByIdentifier(ctx)
	s.Require().NoError(err)
	s.Equal(3, counts["A1"])
	s.Equal(1, counts["B2"])

	s.Require().NoError(s.store.Clear(ctx))
	events, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Empty(events)
}
