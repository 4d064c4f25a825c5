package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type AllocationAttempt struct {
	ID               int64
	BatchID          string
	ClientExternalID string
	RangeToken       string
	Quantity         int64
	Outcome          string
	ResponseExcerpt  string
	CreatedAt        int64
}

const createAllocationAttempt = `
INSERT INTO allocation_attempt (
    batch_id, client_external_id, range_token,
    quantity, outcome, response_excerpt, created_at
)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateAllocationAttemptParams struct {
	BatchID          string
	ClientExternalID string
	RangeToken       string
	Quantity         int64
	Outcome          string
	ResponseExcerpt  string
	CreatedAt        int64
}

func (q *Queries) CreateAllocationAttempt(ctx context.Context, arg CreateAllocationAttemptParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createAllocationAttempt,
		arg.BatchID,
		arg.ClientExternalID,
		arg.RangeToken,
		arg.Quantity,
		arg.Outcome,
		arg.ResponseExcerpt,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listRecentAllocationAttempts = `
SELECT id, batch_id, client_external_id, range_token,
       quantity, outcome, response_excerpt, created_at
FROM allocation_attempt
ORDER BY created_at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListRecentAllocationAttempts(ctx context.Context, limit int64) ([]AllocationAttempt, error) {
	rows, err := q.db.QueryContext(ctx, listRecentAllocationAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AllocationAttempt
	for rows.Next() {
		var i AllocationAttempt
		err := rows.Scan(
			&i.ID,
			&i.BatchID,
			&i.ClientExternalID,
			&i.RangeToken,
			&i.Quantity,
			&i.Outcome,
			&i.ResponseExcerpt,
			&i.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
