package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"scanpoint/internal/registry/models"
	"scanpoint/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) identity(id, name, group string) models.Identity {
	return models.Identity{Identifier: id, DisplayName: name, GroupLabel: group}
}

func (s *MemoryStoreSuite) TestInsertAndFind() {
	s.Run("inserts and finds by exact identifier", func() {
		s.Require().NoError(s.store.Insert(s.ctx, s.identity("A1", "Sunny Gran", "23TEP")))

		found, err := s.store.Find(s.ctx, "A1")
		s.Require().NoError(err)
		s.Equal("Sunny Gran", found.DisplayName)
		s.Equal("23TEP", found.GroupLabel)
	})

	s.Run("returns ErrNotFound for unknown identifier", func() {
		_, err := s.store.Find(s.ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("does not match partial identifiers", func() {
		s.Require().NoError(s.store.Insert(s.ctx, s.identity("1095297406", "Sunny Gran", "23TEP")))
		_, err := s.store.Find(s.ctx, "109529740")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestInsertRejectsDuplicates() {
	s.Require().NoError(s.store.Insert(s.ctx, s.identity("A1", "Sunny Gran", "23TEP")))

	err := s.store.Insert(s.ctx, s.identity("A1", "Someone Else", "24XYZ"))
	s.Require().ErrorIs(err, sentinel.ErrDuplicateKey)

	// first identity's fields survive the rejected insert
	found, err := s.store.Find(s.ctx, "A1")
	s.Require().NoError(err)
	s.Equal("Sunny Gran", found.DisplayName)
	s.Equal("23TEP", found.GroupLabel)
}

func (s *MemoryStoreSuite) TestInsertIfAbsent() {
	s.Run("inserts a new identity", func() {
		s.Require().NoError(s.store.InsertIfAbsent(s.ctx, s.identity("B2", "Eveline Lim", "23TEI")))
		found, err := s.store.Find(s.ctx, "B2")
		s.Require().NoError(err)
		s.Equal("Eveline Lim", found.DisplayName)
	})

	s.Run("leaves an existing identity untouched", func() {
		s.Require().NoError(s.store.Insert(s.ctx, s.identity("C3", "Cleo", "23TEX")))
		s.Require().NoError(s.store.InsertIfAbsent(s.ctx, s.identity("C3", "Overwriter", "00AAA")))

		found, err := s.store.Find(s.ctx, "C3")
		s.Require().NoError(err)
		s.Equal("Cleo", found.DisplayName)
	})
}

func (s *MemoryStoreSuite) TestDelete() {
	s.Require().NoError(s.store.Insert(s.ctx, s.identity("A1", "Sunny Gran", "23TEP")))

	s.Require().NoError(s.store.Delete(s.ctx, "A1"))
	_, err := s.store.Find(s.ctx, "A1")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// deleting a missing identifier is a no-op
	s.Require().NoError(s.store.Delete(s.ctx, "A1"))
}

func (s *MemoryStoreSuite) TestListIsOrderedByIdentifier() {
	s.Require().NoError(s.store.Insert(s.ctx, s.identity("B2", "Eveline Lim", "23TEI")))
	s.Require().NoError(s.store.Insert(s.ctx, s.identity("A1", "Sunny Gran", "23TEP")))
	s.Require().NoError(s.store.Insert(s.ctx, s.identity("C3", "Cleo", "23TEX")))

	identities, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(identities, 3)
	s.Equal("A1", identities[0].Identifier)
	s.Equal("B2", identities[1].Identifier)
	s.Equal("C3", identities[2].Identifier)
}

func (s *MemoryStoreSuite) TestCount() {
	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)

	s.Require().NoError(s.store.Insert(s.ctx, s.identity("A1", "Sunny Gran", "23TEP")))
	s.Require().NoError(s.store.Insert(s.ctx, s.identity("B2", "Eveline Lim", "23TEI")))

	n, err = s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *MemoryStoreSuite) TestClear() {
	s.Require().NoError(s.store.Insert(s.ctx, s.identity("A1", "Sunny Gran", "23TEP")))
	s.Require().NoError(s.store.Clear(s.ctx))

	identities, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(identities)
}

func (s *MemoryStoreSuite) TestSeedIsIdempotentAndNonOverwriting() {
	s.Require().NoError(Seed(s.ctx, s.store))
	s.Require().NoError(Seed(s.ctx, s.store))

	identities, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(identities, 2)

	// a pre-existing row with a seed identifier is never overwritten
	s.Require().NoError(s.store.Clear(s.ctx))
	s.Require().NoError(s.store.Insert(s.ctx, s.identity("1095297406", "Replacement", "24ABC")))
	s.Require().NoError(Seed(s.ctx, s.store))

	found, err := s.store.Find(s.ctx, "1095297406")
	s.Require().NoError(err)
	s.Equal("Replacement", found.DisplayName)
}
