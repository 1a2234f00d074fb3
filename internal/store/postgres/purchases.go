package postgres

import (
	"context"
	"database/sql"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

const purchaseCols = `id, reference, asset_type_id, location_id, quantity, unit_cost, total_cost, purchase_date,
	purchased_by, supplier, invoice_number, notes, created_at, updated_at`

func scanPurchase(row interface{ Scan(...any) error }) (*models.PurchaseRecord, error) {
	var p models.PurchaseRecord
	var invoice, notes sql.NullString
	if err := row.Scan(&p.ID, &p.Reference, &p.AssetTypeID, &p.LocationID, &p.Quantity, &p.UnitCost, &p.TotalCost,
		&p.PurchaseDate, &p.PurchasedBy, &p.Supplier, &invoice, &notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	p.InvoiceNumber = invoice.String
	p.Notes = notes.String
	return &p, nil
}

func (s *Store) CreatePurchase(ctx context.Context, p *models.PurchaseRecord) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO purchases (reference, asset_type_id, location_id, quantity, unit_cost, total_cost, purchase_date,
			purchased_by, supplier, invoice_number, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		p.Reference, p.AssetTypeID, p.LocationID, p.Quantity, p.UnitCost, p.TotalCost, p.PurchaseDate,
		p.PurchasedBy, p.Supplier, nullString(p.InvoiceNumber), nullString(p.Notes),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

func (s *Store) GetPurchase(ctx context.Context, id int64) (*models.PurchaseRecord, error) {
	return scanPurchase(s.q(ctx).QueryRowContext(ctx, `SELECT `+purchaseCols+` FROM purchases WHERE id = $1`, id))
}

func (s *Store) ListPurchases(ctx context.Context, f ledger.PurchaseFilter) ([]models.PurchaseRecord, int, error) {
	w := &where{}
	if f.LocationID != nil {
		w.add("location_id = $%d", *f.LocationID)
	}
	if f.AssetTypeID != nil {
		w.add("asset_type_id = $%d", *f.AssetTypeID)
	}
	w.dates("purchase_date", f.Dates)

	total, err := s.count(ctx, "purchases", w)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+purchaseCols+` FROM purchases`+w.String()+` ORDER BY purchase_date DESC, id DESC`+limitOffset(f.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []models.PurchaseRecord{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdatePurchase(ctx context.Context, p *models.PurchaseRecord) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		UPDATE purchases
		SET quantity = $2, unit_cost = $3, total_cost = $4, purchase_date = $5, supplier = $6,
			invoice_number = $7, notes = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.Quantity, p.UnitCost, p.TotalCost, p.PurchaseDate, p.Supplier, nullString(p.InvoiceNumber), nullString(p.Notes),
	).Scan(&p.UpdatedAt)
	return translate(err)
}

func (s *Store) DeletePurchase(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
