// Package repository defines the career profile store interface and errors.
package repository

import (
	"context"

	"github.com/loggers/logbook/internal/domain/model"
	"github.com/loggers/logbook/internal/domain/types"
)

// Store provides read/write access to pilot careers.
type Store interface {
	// Name identifies the store when it runs as an output consumer.
	Name() string

	// Consume merges one finalized mission into the affected careers.
	Consume(ctx context.Context, meta model.MissionMeta, pilots map[string]types.PilotStats) error

	// Profile returns the career for identity.
	// Returns ErrNotFound if the identity is unknown.
	Profile(ctx context.Context, identity string) (types.Profile, error)

	// Rank returns the leaderboard entry for identity.
	// Returns ErrNotFound if the identity is unknown.
	Rank(ctx context.Context, identity string) (types.Entry, error)

	// TopN returns the top-N entries ordered by total kills desc, identity asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of careers tracked.
	Count(ctx context.Context) int
}
