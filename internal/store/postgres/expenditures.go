package postgres

import (
	"context"
	"database/sql"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

const expenditureCols = `id, item_id, location_id, quantity, reason, description, expended_by, expended_date,
	approved, approved_by, approved_date, notes, created_at, updated_at`

func scanExpenditure(row interface{ Scan(...any) error }) (*models.ExpenditureRecord, error) {
	var e models.ExpenditureRecord
	var desc, notes sql.NullString
	var approved sql.NullBool
	var approvedBy sql.NullInt64
	var approvedDate sql.NullTime
	if err := row.Scan(&e.ID, &e.ItemID, &e.LocationID, &e.Quantity, &e.Reason, &desc, &e.ExpendedBy, &e.ExpendedDate,
		&approved, &approvedBy, &approvedDate, &notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	e.Description = desc.String
	e.Notes = notes.String
	if approved.Valid {
		v := approved.Bool
		e.Approved = &v
	}
	e.ApprovedBy = int64Ptr(approvedBy)
	e.ApprovedDate = timePtr(approvedDate)
	return &e, nil
}

func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func (s *Store) CreateExpenditure(ctx context.Context, e *models.ExpenditureRecord) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO expenditures (item_id, location_id, quantity, reason, description, expended_by, expended_date,
			approved, approved_by, approved_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		e.ItemID, e.LocationID, e.Quantity, e.Reason, nullString(e.Description), e.ExpendedBy, e.ExpendedDate,
		nullBool(e.Approved), nullInt64(e.ApprovedBy), nullTime(e.ApprovedDate), nullString(e.Notes),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return translate(err)
}

func (s *Store) GetExpenditure(ctx context.Context, id int64) (*models.ExpenditureRecord, error) {
	return scanExpenditure(s.q(ctx).QueryRowContext(ctx, `SELECT `+expenditureCols+` FROM expenditures WHERE id = $1`, id))
}

func expenditureWhere(f ledger.ExpenditureFilter) *where {
	w := &where{}
	if f.LocationID != nil {
		w.add("location_id = $%d", *f.LocationID)
	}
	if f.ItemID != nil {
		w.add("item_id = $%d", *f.ItemID)
	}
	if f.Reason != "" {
		w.add("reason = $%d", f.Reason)
	}
	switch f.Approval {
	case ledger.ApprovalPending:
		w.raw("approved IS NULL")
	case ledger.ApprovalApproved:
		w.raw("approved IS TRUE")
	case ledger.ApprovalRejected:
		w.raw("approved IS FALSE")
	}
	w.dates("expended_date", f.Dates)
	return w
}

func (s *Store) ListExpenditures(ctx context.Context, f ledger.ExpenditureFilter) ([]models.ExpenditureRecord, int, error) {
	w := expenditureWhere(f)
	total, err := s.count(ctx, "expenditures", w)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+expenditureCols+` FROM expenditures`+w.String()+` ORDER BY expended_date DESC, id DESC`+limitOffset(f.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []models.ExpenditureRecord{}
	for rows.Next() {
		e, err := scanExpenditure(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateExpenditure(ctx context.Context, e *models.ExpenditureRecord) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		UPDATE expenditures
		SET reason = $2, description = $3, expended_date = $4, approved = $5, approved_by = $6,
			approved_date = $7, notes = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		e.ID, e.Reason, nullString(e.Description), e.ExpendedDate, nullBool(e.Approved), nullInt64(e.ApprovedBy),
		nullTime(e.ApprovedDate), nullString(e.Notes),
	).Scan(&e.UpdatedAt)
	return translate(err)
}

func (s *Store) DeleteExpenditure(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM expenditures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (s *Store) ExpenditureStats(ctx context.Context, f ledger.ExpenditureFilter) ([]models.ExpenditureStat, error) {
	w := expenditureWhere(f)
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT reason, COUNT(*), COALESCE(SUM(quantity), 0)
		FROM expenditures`+w.String()+`
		GROUP BY reason
		ORDER BY SUM(quantity) DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.ExpenditureStat{}
	for rows.Next() {
		var st models.ExpenditureStat
		if err := rows.Scan(&st.Reason, &st.Count, &st.TotalQuantity); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
