package postgres

import (
	"context"
	"database/sql"
	"errors"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"

	"github.com/lib/pq"
)

const assignmentCols = `a.id, a.reference, a.item_id, a.quantity, a.assigned_to, a.rank, a.unit, a.location_id, a.assigned_by,
	a.assignment_date, a.expected_return_date, a.actual_return_date, a.purpose, a.status, a.notes, a.created_at, a.updated_at`

func scanAssignment(row interface{ Scan(...any) error }) (*models.AssignmentRecord, error) {
	var a models.AssignmentRecord
	var rank, unit, purpose, notes sql.NullString
	var expected, actual sql.NullTime
	if err := row.Scan(&a.ID, &a.Reference, &a.ItemID, &a.Quantity, &a.AssignedTo, &rank, &unit, &a.LocationID, &a.AssignedBy,
		&a.AssignmentDate, &expected, &actual, &purpose, &a.Status, &notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	a.Rank = rank.String
	a.Unit = unit.String
	a.Purpose = purpose.String
	a.Notes = notes.String
	a.ExpectedReturnDate = timePtr(expected)
	a.ActualReturnDate = timePtr(actual)
	return &a, nil
}

func (s *Store) CreateAssignment(ctx context.Context, a *models.AssignmentRecord) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO assignments (reference, item_id, quantity, assigned_to, rank, unit, location_id, assigned_by,
			assignment_date, expected_return_date, purpose, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		a.Reference, a.ItemID, a.Quantity, a.AssignedTo, nullString(a.Rank), nullString(a.Unit), a.LocationID, a.AssignedBy,
		a.AssignmentDate, nullTime(a.ExpectedReturnDate), nullString(a.Purpose), a.Status, nullString(a.Notes),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return translate(err)
}

func (s *Store) GetAssignment(ctx context.Context, id int64) (*models.AssignmentRecord, error) {
	return scanAssignment(s.q(ctx).QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments a WHERE a.id = $1`, id))
}

func (s *Store) ListAssignments(ctx context.Context, f ledger.AssignmentFilter) ([]models.AssignmentRecord, int, error) {
	w := &where{}
	from := "assignments a"
	if f.LocationID != nil {
		w.add("a.location_id = $%d", *f.LocationID)
	}
	if len(f.Statuses) > 0 {
		w.add("a.status = ANY($%d)", pq.Array(f.Statuses))
	}
	if f.AssetTypeID != nil {
		from = "assignments a JOIN inventory_items i ON i.id = a.item_id"
		w.add("i.asset_type_id = $%d", *f.AssetTypeID)
	}
	w.dates("a.assignment_date", f.Dates)

	total, err := s.count(ctx, from, w)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+assignmentCols+` FROM `+from+w.String()+` ORDER BY a.assignment_date DESC, a.id DESC`+limitOffset(f.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []models.AssignmentRecord{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateAssignment(ctx context.Context, a *models.AssignmentRecord, expectStatus string) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		UPDATE assignments
		SET assigned_to = $2, rank = $3, unit = $4, expected_return_date = $5, actual_return_date = $6,
			purpose = $7, status = $8, notes = $9, updated_at = now()
		WHERE id = $1 AND status = $10
		RETURNING updated_at`,
		a.ID, a.AssignedTo, nullString(a.Rank), nullString(a.Unit), nullTime(a.ExpectedReturnDate), nullTime(a.ActualReturnDate),
		nullString(a.Purpose), a.Status, nullString(a.Notes), expectStatus,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s.staleOrMissing(ctx, "assignments", a.ID)
	}
	return translate(err)
}
