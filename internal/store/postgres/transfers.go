package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"

	"github.com/lib/pq"
)

const transferCols = `t.id, t.reference, t.item_id, t.asset_type_id, t.quantity, t.from_location_id, t.to_location_id, t.initiated_by,
	t.approved_by, t.status, t.priority, t.transfer_date, t.notes, t.created_at, t.updated_at`

func scanTransfer(row interface{ Scan(...any) error }) (*models.TransferRecord, error) {
	var t models.TransferRecord
	var approvedBy sql.NullInt64
	var date sql.NullTime
	var notes sql.NullString
	if err := row.Scan(&t.ID, &t.Reference, &t.ItemID, &t.AssetTypeID, &t.Quantity, &t.FromLocationID, &t.ToLocationID, &t.InitiatedBy,
		&approvedBy, &t.Status, &t.Priority, &date, &notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	t.ApprovedBy = int64Ptr(approvedBy)
	t.TransferDate = timePtr(date)
	t.Notes = notes.String
	return &t, nil
}

func (s *Store) CreateTransfer(ctx context.Context, t *models.TransferRecord) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO transfers (reference, item_id, asset_type_id, quantity, from_location_id, to_location_id, initiated_by,
			approved_by, status, priority, transfer_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`,
		t.Reference, t.ItemID, t.AssetTypeID, t.Quantity, t.FromLocationID, t.ToLocationID, t.InitiatedBy,
		nullInt64(t.ApprovedBy), t.Status, t.Priority, nullTime(t.TransferDate), nullString(t.Notes),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return translate(err)
}

func (s *Store) GetTransfer(ctx context.Context, id int64) (*models.TransferRecord, error) {
	return scanTransfer(s.q(ctx).QueryRowContext(ctx, `SELECT `+transferCols+` FROM transfers t WHERE t.id = $1`, id))
}

func (s *Store) ListTransfers(ctx context.Context, f ledger.TransferFilter) ([]models.TransferRecord, int, error) {
	w := &where{}
	if len(f.Statuses) > 0 {
		w.add("t.status = ANY($%d)", pq.Array(f.Statuses))
	}
	if f.FromLocationID != nil {
		w.add("t.from_location_id = $%d", *f.FromLocationID)
	}
	if f.ToLocationID != nil {
		w.add("t.to_location_id = $%d", *f.ToLocationID)
	}
	if f.EitherLocationID != nil {
		w.args = append(w.args, *f.EitherLocationID)
		n := len(w.args)
		w.raw(fmt.Sprintf("(t.from_location_id = $%d OR t.to_location_id = $%d)", n, n))
	}
	if f.AssetTypeID != nil {
		w.add("t.asset_type_id = $%d", *f.AssetTypeID)
	}
	w.dates("t.created_at", f.Dates)

	total, err := s.count(ctx, "transfers t", w)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+transferCols+` FROM transfers t`+w.String()+` ORDER BY t.created_at DESC, t.id DESC`+limitOffset(f.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []models.TransferRecord{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

// UpdateTransfer writes the mutable fields only while the stored status still
// equals expectStatus.
func (s *Store) UpdateTransfer(ctx context.Context, t *models.TransferRecord, expectStatus string) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		UPDATE transfers
		SET status = $2, approved_by = $3, transfer_date = $4, priority = $5, notes = $6, updated_at = now()
		WHERE id = $1 AND status = $7
		RETURNING updated_at`,
		t.ID, t.Status, nullInt64(t.ApprovedBy), nullTime(t.TransferDate), t.Priority, nullString(t.Notes), expectStatus,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s.staleOrMissing(ctx, "transfers", t.ID)
	}
	return translate(err)
}

// staleOrMissing tells a refused status guard apart from a missing row.
func (s *Store) staleOrMissing(ctx context.Context, table string, id int64) error {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ledger.ErrStaleState
	}
	return ledger.ErrNotFound
}
