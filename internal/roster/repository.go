package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ringside-app/ringside/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for the roster.
//
// Expected schema: roster_entities (id, entity_type, name, deleted_at,
// created_at, updated_at), roster_periods (id, entity_type, entity_id,
// dimension, started_at, ended_at) with a partial unique index on open
// periods per (entity, dimension), and roster_memberships (id, member_type,
// member_id, group_type, group_id, joined_at, left_at).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction. All mutations of
// one handle() call go through a single callback so a failure anywhere rolls
// back everything.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetEntity returns the stored identity row.
func (r *Repository) GetEntity(ctx context.Context, ref Ref) (EntityRecord, error) {
	return getEntity(ctx, r.pool, ref, false)
}

// ListEntities returns a page of entities of one type plus the total count.
func (r *Repository) ListEntities(ctx context.Context, t EntityType, limit, offset int) ([]EntityRecord, int, error) {
	const query = `
		SELECT id, entity_type, name, deleted_at, created_at, updated_at
		FROM roster_entities
		WHERE entity_type = $1 AND deleted_at IS NULL
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(t), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []EntityRecord
	for rows.Next() {
		rec, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM roster_entities WHERE entity_type = $1 AND deleted_at IS NULL`,
		string(t)).Scan(&total); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// GetSnapshot loads the full aggregate without locking.
func (r *Repository) GetSnapshot(ctx context.Context, ref Ref) (*Snapshot, error) {
	return getSnapshot(ctx, r.pool, ref, false)
}

// ListCurrentMemberships returns every open membership touching the entity.
func (r *Repository) ListCurrentMemberships(ctx context.Context, ref Ref) ([]*Membership, error) {
	return listCurrentMemberships(ctx, r.pool, ref, false)
}

// Transactional operations.

// GetSnapshotForUpdate loads the aggregate with its entity row and period
// rows locked for the duration of the transaction.
func (t *txRepo) GetSnapshotForUpdate(ctx context.Context, ref Ref) (*Snapshot, error) {
	return getSnapshot(ctx, t.tx, ref, true)
}

func (t *txRepo) ListCurrentMembershipsForUpdate(ctx context.Context, ref Ref) ([]*Membership, error) {
	return listCurrentMemberships(ctx, t.tx, ref, true)
}

func (t *txRepo) CreateEntity(ctx context.Context, et EntityType, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO roster_entities (entity_type, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id
	`, string(et), name).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateEntityName(ctx context.Context, ref Ref, name string) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE roster_entities SET name = $3, updated_at = NOW()
		WHERE entity_type = $1 AND id = $2
	`, string(ref.Type), ref.ID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) OpenPeriod(ctx context.Context, ref Ref, d Dimension, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO roster_periods (entity_type, entity_id, dimension, started_at)
		VALUES ($1, $2, $3, $4)
	`, string(ref.Type), ref.ID, string(d), at)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s %s", ErrPeriodConflict, entityLabel(ref.Type), d)
		}
		return err
	}
	return nil
}

func (t *txRepo) ClosePeriod(ctx context.Context, ref Ref, d Dimension, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE roster_periods SET ended_at = $4
		WHERE entity_type = $1 AND entity_id = $2 AND dimension = $3 AND ended_at IS NULL
	`, string(ref.Type), ref.ID, string(d), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", ErrNoOpenPeriod, entityLabel(ref.Type), d)
	}
	return nil
}

func (t *txRepo) RewritePeriodStart(ctx context.Context, ref Ref, d Dimension, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE roster_periods SET started_at = $4
		WHERE entity_type = $1 AND entity_id = $2 AND dimension = $3 AND ended_at IS NULL
	`, string(ref.Type), ref.ID, string(d), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", ErrNoOpenPeriod, entityLabel(ref.Type), d)
	}
	return nil
}

func (t *txRepo) EndMembership(ctx context.Context, membershipID int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE roster_memberships SET left_at = $2
		WHERE id = $1 AND left_at IS NULL
	`, membershipID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: membership %d", ErrNotFound, membershipID)
	}
	return nil
}

func (t *txRepo) CreateMembership(ctx context.Context, m Membership) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO roster_memberships (member_type, member_id, group_type, group_id, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, string(m.Member.Type), m.Member.ID, string(m.Group.Type), m.Group.ID, m.JoinedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: overlapping membership", ErrMembershipConflict)
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) SoftDelete(ctx context.Context, ref Ref, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE roster_entities SET deleted_at = $3, updated_at = NOW()
		WHERE entity_type = $1 AND id = $2 AND deleted_at IS NULL
	`, string(ref.Type), ref.ID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyDeleted
	}
	return nil
}

func (t *txRepo) Restore(ctx context.Context, ref Ref) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE roster_entities SET deleted_at = NULL, updated_at = NOW()
		WHERE entity_type = $1 AND id = $2 AND deleted_at IS NOT NULL
	`, string(ref.Type), ref.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotDeleted
	}
	return nil
}

// Shared query helpers. querier covers both the pool and a transaction.

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

func getEntity(ctx context.Context, q querier, ref Ref, forUpdate bool) (EntityRecord, error) {
	query := `
		SELECT id, entity_type, name, deleted_at, created_at, updated_at
		FROM roster_entities
		WHERE entity_type = $1 AND id = $2` + lockClause(forUpdate)
	rec, err := scanEntity(q.QueryRow(ctx, query, string(ref.Type), ref.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return EntityRecord{}, fmt.Errorf("%w: %s %d", ErrNotFound, entityLabel(ref.Type), ref.ID)
		}
		return EntityRecord{}, err
	}
	return rec, nil
}

func getSnapshot(ctx context.Context, q querier, ref Ref, forUpdate bool) (*Snapshot, error) {
	rec, err := getEntity(ctx, q, ref, forUpdate)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(rec.Ref, rec.Name)
	snap.DeletedAt = rec.DeletedAt

	query := `
		SELECT id, dimension, started_at, ended_at
		FROM roster_periods
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY started_at, id` + lockClause(forUpdate)
	rows, err := q.Query(ctx, query, string(ref.Type), ref.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id      int64
			dim     string
			started time.Time
			ended   *time.Time
		)
		if err := rows.Scan(&id, &dim, &started, &ended); err != nil {
			return nil, err
		}
		d := Dimension(dim)
		snap.Periods[d] = append(snap.Periods[d], Period{ID: id, StartedAt: started, EndedAt: ended})
	}
	return snap, rows.Err()
}

func listCurrentMemberships(ctx context.Context, q querier, ref Ref, forUpdate bool) ([]*Membership, error) {
	query := `
		SELECT id, member_type, member_id, group_type, group_id, joined_at, left_at
		FROM roster_memberships
		WHERE left_at IS NULL
		  AND ((member_type = $1 AND member_id = $2) OR (group_type = $1 AND group_id = $2))
		ORDER BY id` + lockClause(forUpdate)
	rows, err := q.Query(ctx, query, string(ref.Type), ref.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*Membership
	for rows.Next() {
		var (
			m                     Membership
			memberType, groupType string
			memberID, groupID     int64
		)
		if err := rows.Scan(&m.ID, &memberType, &memberID, &groupType, &groupID, &m.JoinedAt, &m.LeftAt); err != nil {
			return nil, err
		}
		m.Member = Ref{Type: EntityType(memberType), ID: memberID}
		m.Group = Ref{Type: EntityType(groupType), ID: groupID}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (EntityRecord, error) {
	var (
		rec EntityRecord
		et  string
	)
	if err := row.Scan(&rec.Ref.ID, &et, &rec.Name, &rec.DeletedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return EntityRecord{}, err
	}
	rec.Ref.Type = EntityType(et)
	return rec, nil
}
