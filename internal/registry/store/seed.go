package store

import (
	"context"

	"scanpoint/internal/registry/models"
)

// Seeder is the store fragment seeding needs.
type Seeder interface {
	InsertIfAbsent(ctx context.Context, identity models.Identity) error
}

// seedIdentities are the fixed card holders present after first
// initialization. They are inserted if absent and never overwritten, so an
// operator who re-registers one of these cards keeps their own record.
var seedIdentities = []models.Identity{
	{Identifier: "1095297406", DisplayName: "Sunny Gran", GroupLabel: "23TEP"},
	{Identifier: "0271340527", DisplayName: "Eveline Lim", GroupLabel: "23TEI"},
}

// Seed inserts the fixed identities. Idempotent.
func Seed(ctx context.Context, s Seeder) error {
	for _, identity := range seedIdentities {
		if err := s.InsertIfAbsent(ctx, identity); err != nil {
			return err
		}
	}
	return nil
}
