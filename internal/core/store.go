package core

import "context"

// Store is the external record store the commit executor writes to.
//
// Implementations decide per entity type whether Save inserts or upserts;
// the freshness rule is applied by the caller before Save.
type Store interface {
	// Lookup returns what is stored for a natural key of the given kind.
	// A missing record is not an error.
	Lookup(ctx context.Context, kind, key string) (Existing, error)

	// Save writes one entity attributed to actor.
	Save(ctx context.Context, actor Actor, e Entity) error
}
