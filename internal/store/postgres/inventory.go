package postgres

import (
	"context"
	"database/sql"
	"errors"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"

	"github.com/shopspring/decimal"
)

const itemCols = `id, reference, asset_type_id, location_id, on_hand, opening_balance, origin, status, unit_cost, notes, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*models.InventoryItem, error) {
	var it models.InventoryItem
	var cost decimal.NullDecimal
	var notes sql.NullString
	if err := row.Scan(&it.ID, &it.Reference, &it.AssetTypeID, &it.LocationID, &it.OnHand, &it.OpeningBalance,
		&it.Origin, &it.Status, &cost, &notes, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	if cost.Valid {
		it.UnitCost = &cost.Decimal
	}
	it.Notes = stringPtr(notes)
	return &it, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func origin(o string) string {
	if o == "" {
		return models.OriginCount
	}
	return o
}

func (s *Store) GetInventoryItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	return scanItem(s.q(ctx).QueryRowContext(ctx, `SELECT `+itemCols+` FROM inventory_items WHERE id = $1`, id))
}

func (s *Store) FindInventoryItem(ctx context.Context, assetTypeID, locationID int64) (*models.InventoryItem, error) {
	return scanItem(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM inventory_items WHERE asset_type_id = $1 AND location_id = $2`, assetTypeID, locationID))
}

func (s *Store) ListInventoryItems(ctx context.Context, f ledger.InventoryFilter) ([]models.InventoryItem, int, error) {
	w := &where{}
	if f.LocationID != nil {
		w.add("location_id = $%d", *f.LocationID)
	}
	if f.AssetTypeID != nil {
		w.add("asset_type_id = $%d", *f.AssetTypeID)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	total, err := s.count(ctx, "inventory_items", w)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+itemCols+` FROM inventory_items`+w.String()+` ORDER BY id`+limitOffset(f.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []models.InventoryItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *it)
	}
	return out, total, rows.Err()
}

func (s *Store) CreateInventoryItem(ctx context.Context, it *models.InventoryItem) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO inventory_items (reference, asset_type_id, location_id, on_hand, opening_balance, origin, status, unit_cost, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		it.Reference, it.AssetTypeID, it.LocationID, it.OnHand, it.OpeningBalance, origin(it.Origin), it.Status, nullDecimal(it.UnitCost), it.Notes,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	return translate(err)
}

func (s *Store) UpdateInventoryItem(ctx context.Context, it *models.InventoryItem) error {
	got, err := scanItem(s.q(ctx).QueryRowContext(ctx, `
		UPDATE inventory_items SET status = $2, unit_cost = $3, notes = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+itemCols, it.ID, it.Status, nullDecimal(it.UnitCost), it.Notes))
	if err != nil {
		return err
	}
	*it = *got
	return nil
}

// DeleteInventoryItem is refused by the foreign keys once any transfer,
// assignment or expenditure names the item.
func (s *Store) DeleteInventoryItem(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

// AdjustOnHand is a single conditional UPDATE, so concurrent debits are
// serialised by the row lock and none can take on_hand below zero.
func (s *Store) AdjustOnHand(ctx context.Context, id int64, delta int) (*models.InventoryItem, error) {
	it, err := scanItem(s.q(ctx).QueryRowContext(ctx, `
		UPDATE inventory_items
		SET on_hand = on_hand + $2, updated_at = now()
		WHERE id = $1 AND on_hand + $2 >= 0
		RETURNING `+itemCols, id, delta))
	if !errors.Is(err, ledger.ErrNotFound) {
		return it, err
	}
	// No row matched: either the item is gone or the guard refused.
	var exists bool
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_items WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ledger.ErrInsufficientQuantity
	}
	return nil, ledger.ErrNotFound
}

// CreditInventory upserts on the (asset_type_id, location_id) unique index.
// xmax is zero only on a freshly inserted row.
func (s *Store) CreditInventory(ctx context.Context, tmpl models.InventoryItem, qty int) (*models.InventoryItem, bool, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO inventory_items (reference, asset_type_id, location_id, on_hand, opening_balance, origin, status, unit_cost, notes)
		VALUES ($1, $2, $3, $4, $4, $5, $6, $7, $8)
		ON CONFLICT (asset_type_id, location_id)
		DO UPDATE SET on_hand = inventory_items.on_hand + EXCLUDED.on_hand, updated_at = now()
		RETURNING `+itemCols+`, (xmax = 0) AS inserted`,
		tmpl.Reference, tmpl.AssetTypeID, tmpl.LocationID, qty, origin(tmpl.Origin), tmpl.Status, nullDecimal(tmpl.UnitCost), tmpl.Notes)

	var it models.InventoryItem
	var cost decimal.NullDecimal
	var notes sql.NullString
	var inserted bool
	if err := row.Scan(&it.ID, &it.Reference, &it.AssetTypeID, &it.LocationID, &it.OnHand, &it.OpeningBalance,
		&it.Origin, &it.Status, &cost, &notes, &it.CreatedAt, &it.UpdatedAt, &inserted); err != nil {
		return nil, false, translate(err)
	}
	if cost.Valid {
		it.UnitCost = &cost.Decimal
	}
	it.Notes = stringPtr(notes)
	return &it, inserted, nil
}
