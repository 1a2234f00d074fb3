package postgres

import (
	"context"
	"database/sql"

	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
)

const locationCols = `id, name, code, place, is_active, created_at, updated_at`

func scanLocation(row interface{ Scan(...any) error }) (*models.Location, error) {
	var loc models.Location
	var place sql.NullString
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Code, &place, &loc.IsActive, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	loc.Place = stringPtr(place)
	return &loc, nil
}

func (s *Store) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	return scanLocation(s.q(ctx).QueryRowContext(ctx, `SELECT `+locationCols+` FROM locations WHERE id = $1`, id))
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+locationCols+` FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *loc)
	}
	return out, rows.Err()
}

func (s *Store) CreateLocation(ctx context.Context, loc *models.Location) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO locations (name, code, place, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		loc.Name, loc.Code, loc.Place, loc.IsActive,
	).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
	return translate(err)
}

func (s *Store) UpdateLocation(ctx context.Context, loc *models.Location) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		UPDATE locations SET name = $2, code = $3, place = $4, is_active = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		loc.ID, loc.Name, loc.Code, loc.Place, loc.IsActive,
	).Scan(&loc.UpdatedAt)
	return translate(err)
}

const assetTypeCols = `id, name, category, unit, is_consumable, description, is_active, created_at, updated_at`

func scanAssetType(row interface{ Scan(...any) error }) (*models.AssetType, error) {
	var at models.AssetType
	var desc sql.NullString
	if err := row.Scan(&at.ID, &at.Name, &at.Category, &at.Unit, &at.IsConsumable, &desc, &at.IsActive, &at.CreatedAt, &at.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	at.Description = stringPtr(desc)
	return &at, nil
}

func (s *Store) GetAssetType(ctx context.Context, id int64) (*models.AssetType, error) {
	return scanAssetType(s.q(ctx).QueryRowContext(ctx, `SELECT `+assetTypeCols+` FROM asset_types WHERE id = $1`, id))
}

func (s *Store) ListAssetTypes(ctx context.Context) ([]models.AssetType, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+assetTypeCols+` FROM asset_types ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.AssetType{}
	for rows.Next() {
		at, err := scanAssetType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *at)
	}
	return out, rows.Err()
}

func (s *Store) CreateAssetType(ctx context.Context, at *models.AssetType) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO asset_types (name, category, unit, is_consumable, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		at.Name, at.Category, at.Unit, at.IsConsumable, at.Description, at.IsActive,
	).Scan(&at.ID, &at.CreatedAt, &at.UpdatedAt)
	return translate(err)
}

func (s *Store) UpdateAssetType(ctx context.Context, at *models.AssetType) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		UPDATE asset_types
		SET name = $2, category = $3, unit = $4, is_consumable = $5, description = $6, is_active = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		at.ID, at.Name, at.Category, at.Unit, at.IsConsumable, at.Description, at.IsActive,
	).Scan(&at.UpdatedAt)
	return translate(err)
}

// DeleteAssetType relies on the foreign keys from inventory_items, purchases
// and transfers to refuse a type that is still in use.
func (s *Store) DeleteAssetType(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM asset_types WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

const userCols = `id, username, email, password_hash, role, location_id, is_active, created_at, updated_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var loc sql.NullInt64
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &loc, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &lastLogin); err != nil {
		return nil, translate(err)
	}
	u.LocationID = int64Ptr(loc)
	u.LastLoginAt = timePtr(lastLogin)
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(s.q(ctx).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(s.q(ctx).QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (s *Store) ListUsers(ctx context.Context, f ledger.UserFilter) ([]models.User, int, error) {
	w := &where{}
	if f.Role != "" {
		w.add("role = $%d", f.Role)
	}
	if f.LocationID != nil {
		w.add("location_id = $%d", *f.LocationID)
	}
	if f.Active != nil {
		w.add("is_active = $%d", *f.Active)
	}
	total, err := s.count(ctx, "users", w)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+userCols+` FROM users`+w.String()+` ORDER BY username`+limitOffset(f.Page), w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, role = $5, location_id = $6, is_active = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, nullInt64(u.LocationID), u.IsActive,
	).Scan(&u.UpdatedAt)
	return translate(err)
}

// DeleteUser fails with ErrInUse once the user has signed any ledger record.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	return expectOne(res)
}

func (s *Store) TouchLastLogin(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// CreateUser inserts an account. PasswordHash must already be a bcrypt hash.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.q(ctx).QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, location_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		u.Username, u.Email, u.PasswordHash, u.Role, nullInt64(u.LocationID), u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translate(err)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
