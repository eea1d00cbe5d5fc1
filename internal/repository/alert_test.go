package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"alertpnl/types"
)

type mockAlertsRepository struct {
	sqlError error
	inserted []types.StoredAlert
	affected int64
}

func (m *mockAlertsRepository) InsertAlert(_ context.Context, alert types.StoredAlert) error {
	if m.sqlError != nil {
		return m.sqlError
	}
	m.inserted = append(m.inserted, alert)
	return nil
}

func (m *mockAlertsRepository) GetAlert(_ context.Context, id string) (types.StoredAlert, error) {
	if m.sqlError != nil {
		return types.StoredAlert{}, m.sqlError
	}
	return types.StoredAlert{
		ID:        id,
		Strategy:  "alpha",
		TradeType: "buy",
		Quantity:  decimal.NewFromInt(2),
		Price:     decimal.NewFromInt(100),
		Timestamp: time.UnixMilli(1).UTC(),
	}, nil
}

func (m *mockAlertsRepository) ListAlerts(_ context.Context) ([]types.StoredAlert, error) {
	return nil, m.sqlError
}

func (m *mockAlertsRepository) ListAlertsByStrategy(_ context.Context, _ string) ([]types.StoredAlert, error) {
	return nil, m.sqlError
}

func (m *mockAlertsRepository) UpdateAlert(_ context.Context, _ types.StoredAlert) (int64, error) {
	return m.affected, m.sqlError
}

func (m *mockAlertsRepository) DeleteAlert(_ context.Context, _ string) (int64, error) {
	return m.affected, m.sqlError
}

func TestDatabase_GetAlert(t *testing.T) {
	tests := []struct {
		name    string
		sqlErr  error
		wantErr error
	}{
		{"should throw ErrAlertNotFound", pgx.ErrNoRows, ErrAlertNotFound},
		{"should return alert", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{alerts: &mockAlertsRepository{sqlError: tt.sqlErr}}
			got, err := db.GetAlert(context.Background(), "a-1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetAlert() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetAlert() error = %v", err)
			}
			if got.ID != "a-1" || got.Strategy != "alpha" {
				t.Errorf("GetAlert() = %+v, want id a-1 strategy alpha", got)
			}
		})
	}
}

func TestDatabase_SaveAlertAssignsID(t *testing.T) {
	mock := &mockAlertsRepository{}
	db := &Database{alerts: mock}

	saved, err := db.SaveAlert(context.Background(), types.StoredAlert{Strategy: "alpha"})
	if err != nil {
		t.Fatalf("SaveAlert() error = %v", err)
	}
	if saved.ID == "" {
		t.Error("SaveAlert() left id empty")
	}
	if len(mock.inserted) != 1 || mock.inserted[0].ID != saved.ID {
		t.Errorf("inserted = %+v, want one alert with id %s", mock.inserted, saved.ID)
	}
}

func TestDatabase_SaveAlertKeepsID(t *testing.T) {
	mock := &mockAlertsRepository{}
	db := &Database{alerts: mock}

	saved, err := db.SaveAlert(context.Background(), types.StoredAlert{ID: "fixed", Strategy: "alpha"})
	if err != nil {
		t.Fatalf("SaveAlert() error = %v", err)
	}
	if saved.ID != "fixed" {
		t.Errorf("SaveAlert() id = %s, want fixed", saved.ID)
	}
}

func TestDatabase_UpdateAlert(t *testing.T) {
	db := &Database{alerts: &mockAlertsRepository{affected: 0}}
	err := db.UpdateAlert(context.Background(), types.StoredAlert{ID: "ghost"})
	if !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("UpdateAlert() error = %v, want ErrAlertNotFound", err)
	}

	db = &Database{alerts: &mockAlertsRepository{affected: 1}}
	if err := db.UpdateAlert(context.Background(), types.StoredAlert{ID: "a-1"}); err != nil {
		t.Errorf("UpdateAlert() error = %v", err)
	}
}

func TestDatabase_DeleteAlert(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		sqlErr   error
		wantErr  error
	}{
		{"should throw ErrAlertNotFound when nothing deleted", 0, nil, ErrAlertNotFound},
		{"should delete alert", 1, nil, nil},
		{"should pass through sql errors", 0, errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{alerts: &mockAlertsRepository{sqlError: tt.sqlErr, affected: tt.affected}}
			err := db.DeleteAlert(context.Background(), "a-1")
			switch {
			case tt.sqlErr != nil:
				if !errors.Is(err, tt.sqlErr) {
					t.Errorf("DeleteAlert() error = %v, want %v", err, tt.sqlErr)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DeleteAlert() error = %v, wantErr %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Errorf("DeleteAlert() error = %v", err)
				}
			}
		})
	}
}
