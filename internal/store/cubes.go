package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cubelog/cubelog/internal/model"
)

const cubeColumns = `id, cube_type, brand, model, purchase_date, notes, is_active, created_at`

func scanCube(row rowScanner) (model.Cube, error) {
	var cube model.Cube
	var active int
	var createdAt string
	if err := row.Scan(&cube.ID, &cube.CubeType, &cube.Brand, &cube.Model, &cube.PurchaseDate,
		&cube.Notes, &active, &createdAt); err != nil {
		return model.Cube{}, err
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return model.Cube{}, err
	}
	cube.Active = active != 0
	cube.CreatedAt = parsed
	return cube, nil
}

// CreateCube registers a new active cube.
func (s *Store) CreateCube(ctx context.Context, in model.CubeInput) (model.Cube, error) {
	cubeType := strings.TrimSpace(in.CubeType)
	if cubeType == "" {
		return model.Cube{}, fmt.Errorf("%w: cube type is required", model.ErrInvalidInput)
	}
	purchase := ""
	if strings.TrimSpace(in.PurchaseDate) != "" {
		parsed, err := model.ParseDate(in.PurchaseDate)
		if err != nil {
			return model.Cube{}, err
		}
		purchase = parsed
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cubes (cube_type, brand, model, purchase_date, notes, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		cubeType, in.Brand, in.Model, purchase, in.Notes, formatTime(s.now()))
	if err != nil {
		return model.Cube{}, storageErr("insert cube", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Cube{}, storageErr("insert cube", err)
	}
	return s.GetCube(ctx, id)
}

// GetCube loads one cube.
func (s *Store) GetCube(ctx context.Context, id int64) (model.Cube, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cubeColumns+` FROM cubes WHERE id = ?`, id)
	cube, err := scanCube(row)
	if err != nil {
		return model.Cube{}, notFound("get cube", "cube", id, err)
	}
	return cube, nil
}

// ListCubes returns cubes newest first.
func (s *Store) ListCubes(ctx context.Context, activeOnly bool) ([]model.Cube, error) {
	query := `SELECT ` + cubeColumns + ` FROM cubes`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr("list cubes", err)
	}
	defer closeRows(rows)

	var cubes []model.Cube
	for rows.Next() {
		cube, err := scanCube(rows)
		if err != nil {
			return nil, storageErr("list cubes", err)
		}
		cubes = append(cubes, cube)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list cubes", err)
	}
	return cubes, nil
}

// UpdateCube changes the provided cube fields.
func (s *Store) UpdateCube(ctx context.Context, id int64, upd model.CubeUpdate) (model.Cube, error) {
	sets := []string{}
	args := []any{}
	if upd.CubeType != nil {
		if strings.TrimSpace(*upd.CubeType) == "" {
			return model.Cube{}, fmt.Errorf("%w: cube type is required", model.ErrInvalidInput)
		}
		sets = append(sets, "cube_type = ?")
		args = append(args, strings.TrimSpace(*upd.CubeType))
	}
	if upd.Brand != nil {
		sets = append(sets, "brand = ?")
		args = append(args, *upd.Brand)
	}
	if upd.Model != nil {
		sets = append(sets, "model = ?")
		args = append(args, *upd.Model)
	}
	if upd.PurchaseDate != nil {
		purchase := ""
		if strings.TrimSpace(*upd.PurchaseDate) != "" {
			parsed, err := model.ParseDate(*upd.PurchaseDate)
			if err != nil {
				return model.Cube{}, err
			}
			purchase = parsed
		}
		sets = append(sets, "purchase_date = ?")
		args = append(args, purchase)
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *upd.Notes)
	}
	if upd.Active != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, boolInt(*upd.Active))
	}
	if len(sets) == 0 {
		return model.Cube{}, fmt.Errorf("%w: nothing to update", model.ErrInvalidInput)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE cubes SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return model.Cube{}, storageErr("update cube", err)
	}
	if err := expectAffected(res, "cube", id); err != nil {
		return model.Cube{}, err
	}
	return s.GetCube(ctx, id)
}

// RetireCube marks a cube inactive. Sessions keep pointing at it.
func (s *Store) RetireCube(ctx context.Context, id int64) error {
	active := false
	_, err := s.UpdateCube(ctx, id, model.CubeUpdate{Active: &active})
	return err
}

func cubeExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var found int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM cubes WHERE id = ?`, id).Scan(&found); err != nil {
		return notFound("find cube", "cube", id, err)
	}
	return nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
