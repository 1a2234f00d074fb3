package importer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"asset-ledger-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolResolver resolves names straight from Postgres.
type PoolResolver struct {
	Pool *pgxpool.Pool
}

func NewPoolResolver(pool *pgxpool.Pool) *PoolResolver {
	return &PoolResolver{Pool: pool}
}

func (r *PoolResolver) AssetTypeID(ctx context.Context, name string) (int64, error) {
	return r.lookup(ctx, `SELECT id FROM asset_types WHERE lower(name) = lower($1) AND is_active`, strings.TrimSpace(name))
}

func (r *PoolResolver) LocationID(ctx context.Context, code string) (int64, error) {
	return r.lookup(ctx, `SELECT id FROM locations WHERE code = upper($1) AND is_active`, strings.TrimSpace(code))
}

func (r *PoolResolver) lookup(ctx context.Context, query, arg string) (int64, error) {
	var id int64
	err := r.Pool.QueryRow(ctx, query, arg).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUnknown
	}
	return id, err
}

// Catalog is the part of the ledger store a StoreResolver reads.
type Catalog interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	ListAssetTypes(ctx context.Context) ([]models.AssetType, error)
}

// StoreResolver loads the reference data once per resolver and answers from
// memory. Use a fresh one per import.
type StoreResolver struct {
	catalog Catalog

	mu     sync.Mutex
	types  map[string]int64
	bases  map[string]int64
	loaded bool
}

func NewStoreResolver(c Catalog) *StoreResolver {
	return &StoreResolver{catalog: c}
}

func (r *StoreResolver) load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}
	types, err := r.catalog.ListAssetTypes(ctx)
	if err != nil {
		return err
	}
	locs, err := r.catalog.ListLocations(ctx)
	if err != nil {
		return err
	}
	r.types = make(map[string]int64, len(types))
	for _, t := range types {
		if t.IsActive {
			r.types[strings.ToLower(t.Name)] = t.ID
		}
	}
	r.bases = make(map[string]int64, len(locs))
	for _, l := range locs {
		if l.IsActive {
			r.bases[strings.ToUpper(l.Code)] = l.ID
		}
	}
	r.loaded = true
	return nil
}

// Reset drops the cached reference data.
func (r *StoreResolver) Reset() {
	r.mu.Lock()
	r.loaded = false
	r.mu.Unlock()
}

func (r *StoreResolver) AssetTypeID(ctx context.Context, name string) (int64, error) {
	if err := r.load(ctx); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.types[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, ErrUnknown
	}
	return id, nil
}

func (r *StoreResolver) LocationID(ctx context.Context, code string) (int64, error) {
	if err := r.load(ctx); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.bases[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, ErrUnknown
	}
	return id, nil
}
