package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"alertpnl/types"
)

// GenerateSecretKey returns a random URL-safe secret.
func GenerateSecretKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateKey mints a new secret key bound to a strategy.
func (db *Database) CreateKey(ctx context.Context, strategy, description string) (types.StrategyKey, error) {
	secret, err := GenerateSecretKey()
	if err != nil {
		return types.StrategyKey{}, err
	}
	key := types.StrategyKey{
		ID:          uuid.NewString(),
		SecretKey:   secret,
		Strategy:    strategy,
		Description: description,
	}
	if err := db.keys.InsertKey(ctx, key); err != nil {
		return types.StrategyKey{}, err
	}
	return key, nil
}

// KeyBySecret resolves a secret to its strategy binding.
func (db *Database) KeyBySecret(ctx context.Context, secret string) (types.StrategyKey, error) {
	key, err := db.keys.GetKeyBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.StrategyKey{}, ErrKeyNotFound
		}
		return types.StrategyKey{}, err
	}
	return key, nil
}

// ListKeys returns every registered key.
func (db *Database) ListKeys(ctx context.Context) ([]types.StrategyKey, error) {
	return db.keys.ListKeys(ctx)
}

// DeleteKey removes a key by id.
func (db *Database) DeleteKey(ctx context.Context, id string) error {
	affected, err := db.keys.DeleteKey(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("key %s %w", id, ErrKeyNotFound)
	}
	return nil
}

const selectKeySQL = `
SELECT id, secret_key, strategy, description
FROM secret_keys`

func (q *queries) InsertKey(ctx context.Context, key types.StrategyKey) error {
	_, err := q.conn.Exec(ctx,
		"INSERT INTO secret_keys (id, secret_key, strategy, description) VALUES ($1, $2, $3, $4)",
		key.ID, key.SecretKey, key.Strategy, key.Description)
	return err
}

func (q *queries) GetKeyBySecret(ctx context.Context, secret string) (types.StrategyKey, error) {
	var k types.StrategyKey
	err := q.conn.QueryRow(ctx, selectKeySQL+" WHERE secret_key = $1", secret).
		Scan(&k.ID, &k.SecretKey, &k.Strategy, &k.Description)
	return k, err
}

func (q *queries) ListKeys(ctx context.Context) ([]types.StrategyKey, error) {
	rows, err := q.conn.Query(ctx, selectKeySQL+" ORDER BY strategy, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []types.StrategyKey
	for rows.Next() {
		var k types.StrategyKey
		if err := rows.Scan(&k.ID, &k.SecretKey, &k.Strategy, &k.Description); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (q *queries) DeleteKey(ctx context.Context, id string) (int64, error) {
	tag, err := q.conn.Exec(ctx, "DELETE FROM secret_keys WHERE id = $1", id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
