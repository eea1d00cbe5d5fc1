package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"alertpnl/types"
)

// SaveAlert persists an alert, assigning an id when it has none.
func (db *Database) SaveAlert(ctx context.Context, alert types.StoredAlert) (types.StoredAlert, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if err := db.alerts.InsertAlert(ctx, alert); err != nil {
		return types.StoredAlert{}, err
	}
	return alert, nil
}

// GetAlert retrieves a single alert by id.
func (db *Database) GetAlert(ctx context.Context, id string) (types.StoredAlert, error) {
	alert, err := db.alerts.GetAlert(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.StoredAlert{}, fmt.Errorf("alert %s %w", id, ErrAlertNotFound)
		}
		return types.StoredAlert{}, err
	}
	return alert, nil
}

// ListAlerts returns every stored alert ordered by creation time.
func (db *Database) ListAlerts(ctx context.Context) ([]types.StoredAlert, error) {
	return db.alerts.ListAlerts(ctx)
}

// ListAlertsByStrategy returns the alerts of one strategy ordered by
// creation time.
func (db *Database) ListAlertsByStrategy(ctx context.Context, strategy string) ([]types.StoredAlert, error) {
	return db.alerts.ListAlertsByStrategy(ctx, strategy)
}

// UpdateAlert replaces the mutable fields of an existing alert.
func (db *Database) UpdateAlert(ctx context.Context, alert types.StoredAlert) error {
	affected, err := db.alerts.UpdateAlert(ctx, alert)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("alert %s %w", alert.ID, ErrAlertNotFound)
	}
	return nil
}

// DeleteAlert removes an alert by id.
func (db *Database) DeleteAlert(ctx context.Context, id string) error {
	affected, err := db.alerts.DeleteAlert(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("alert %s %w", id, ErrAlertNotFound)
	}
	return nil
}

const insertAlertSQL = `
INSERT INTO alerts (id, strategy, contract, trade_type, quantity, price, secret_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const selectAlertSQL = `
SELECT id, strategy, contract, trade_type, quantity, price, secret_key, created_at
FROM alerts`

func (q *queries) InsertAlert(ctx context.Context, alert types.StoredAlert) error {
	_, err := q.conn.Exec(ctx, insertAlertSQL,
		alert.ID, alert.Strategy, alert.Contract, alert.TradeType,
		alert.Quantity, alert.Price, alert.SecretKey, alert.Timestamp)
	return err
}

func (q *queries) GetAlert(ctx context.Context, id string) (types.StoredAlert, error) {
	row := q.conn.QueryRow(ctx, selectAlertSQL+" WHERE id = $1", id)
	return scanAlert(row)
}

func (q *queries) ListAlerts(ctx context.Context) ([]types.StoredAlert, error) {
	rows, err := q.conn.Query(ctx, selectAlertSQL+" ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	return collectAlerts(rows)
}

func (q *queries) ListAlertsByStrategy(ctx context.Context, strategy string) ([]types.StoredAlert, error) {
	rows, err := q.conn.Query(ctx, selectAlertSQL+" WHERE strategy = $1 ORDER BY created_at, id", strategy)
	if err != nil {
		return nil, err
	}
	return collectAlerts(rows)
}

const updateAlertSQL = `
UPDATE alerts
SET strategy = $2, contract = $3, trade_type = $4, quantity = $5, price = $6, created_at = $7
WHERE id = $1`

func (q *queries) UpdateAlert(ctx context.Context, alert types.StoredAlert) (int64, error) {
	tag, err := q.conn.Exec(ctx, updateAlertSQL,
		alert.ID, alert.Strategy, alert.Contract, alert.TradeType,
		alert.Quantity, alert.Price, alert.Timestamp)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *queries) DeleteAlert(ctx context.Context, id string) (int64, error) {
	tag, err := q.conn.Exec(ctx, "DELETE FROM alerts WHERE id = $1", id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAlert(row pgx.Row) (types.StoredAlert, error) {
	var a types.StoredAlert
	err := row.Scan(&a.ID, &a.Strategy, &a.Contract, &a.TradeType,
		&a.Quantity, &a.Price, &a.SecretKey, &a.Timestamp)
	return a, err
}

func collectAlerts(rows pgx.Rows) ([]types.StoredAlert, error) {
	defer rows.Close()
	var alerts []types.StoredAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
