package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

const relationColumns = `id, type, from_id, to_id, lag, created_at`

// SQLiteRelationRepo implements RelationRepo using a SQLite database.
// Only follows relations are stored; precedes relations are normalised on
// write and the hierarchy lives in work_items.parent_id.
type SQLiteRelationRepo struct {
	db db.DBTX
}

// NewSQLiteRelationRepo creates a new SQLiteRelationRepo.
func NewSQLiteRelationRepo(conn db.DBTX) *SQLiteRelationRepo {
	return &SQLiteRelationRepo{db: conn}
}

func (r *SQLiteRelationRepo) Create(ctx context.Context, rel *domain.Relation) error {
	if !rel.IsScheduling() {
		return fmt.Errorf("%w: only follows and precedes relations are stored", domain.ErrInvalidRelation)
	}
	n := rel.Normalize()
	query := `INSERT INTO relations (` + relationColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, string(n.Type), n.FromID, n.ToID, n.Lag, n.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting relation: %w", err)
	}
	*rel = n
	return nil
}

func (r *SQLiteRelationRepo) GetByID(ctx context.Context, id string) (*domain.Relation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+relationColumns+` FROM relations WHERE id = ?`, id)
	rel, err := scanRelation(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("relation: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning relation: %w", err)
	}
	return &rel, nil
}

func (r *SQLiteRelationRepo) UpdateLag(ctx context.Context, id string, lag int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE relations SET lag = ? WHERE id = ?`, lag, id)
	if err != nil {
		return fmt.Errorf("updating relation lag: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("relation: %w", ErrNotFound)
	}
	return nil
}

func (r *SQLiteRelationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM relations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting relation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("relation: %w", ErrNotFound)
	}
	return nil
}

// ListFor returns every relation with either endpoint in ids.
func (r *SQLiteRelationRepo) ListFor(ctx context.Context, ids []string) ([]domain.Relation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	query := `SELECT ` + relationColumns + ` FROM relations
		WHERE from_id IN ` + in + ` OR to_id IN ` + in + `
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, append(args, args...)...)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

func (r *SQLiteRelationRepo) ListAll(ctx context.Context) ([]domain.Relation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+relationColumns+` FROM relations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	defer rows.Close()
	return scanRelations(rows)
}

// CountBetween counts follows relations from successorID to predecessorID.
func (r *SQLiteRelationRepo) CountBetween(ctx context.Context, successorID, predecessorID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM relations WHERE from_id = ? AND to_id = ?`,
		successorID, predecessorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting relations: %w", err)
	}
	return count, nil
}

// scanRelations scans multiple relation rows from *sql.Rows.
func scanRelations(rows *sql.Rows) ([]domain.Relation, error) {
	var rels []domain.Relation
	for rows.Next() {
		rel, err := scanRelation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}
	return rels, nil
}

func scanRelation(scan func(dest ...any) error) (domain.Relation, error) {
	var (
		rel       domain.Relation
		typ       string
		createdAt string
	)
	if err := scan(&rel.ID, &typ, &rel.FromID, &rel.ToID, &rel.Lag, &createdAt); err != nil {
		return domain.Relation{}, err
	}
	rel.Type = domain.RelationType(typ)
	rel.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return rel, nil
}
