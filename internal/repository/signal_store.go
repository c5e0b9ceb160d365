package repository

import (
	"context"
	"database/sql"
	"fmt"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	pkgch "SigPulse/pkg/clickhouse"
)

const signalSchema = `
CREATE TABLE IF NOT EXISTS %s (
    ts         DateTime64(3),
    pair       LowCardinality(String),
    action     LowCardinality(String),
    price      Float64,
    score      Float64,
    confidence Float64,
    stop_loss  Float64,
    take_profit Float64,
    reason     String,
    source     LowCardinality(String)
) ENGINE = MergeTree()
ORDER BY (pair, ts)
TTL toDateTime(ts) + INTERVAL 90 DAY
`

// CHSignalStore persists evaluation results in ClickHouse.
type CHSignalStore struct {
	client *pkgch.Client
	table  string
}

// NewCHSignalStore creates a ClickHouse-backed signal store.
func NewCHSignalStore(client *pkgch.Client, table string) repository.SignalStore {
	if table == "" {
		table = "signals"
	}
	return &CHSignalStore{client: client, table: table}
}

func (s *CHSignalStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, []string{fmt.Sprintf(signalSchema, s.table)})
}

func (s *CHSignalStore) Store(ctx context.Context, sig *models.Signal) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (ts, pair, action, price, score, confidence, stop_loss, take_profit, reason, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.table)
	_, err := s.client.DB().ExecContext(ctx, q,
		sig.Timestamp,
		sig.Pair,
		string(sig.Action),
		sig.Price,
		sig.Score,
		sig.Confidence,
		sig.StopLoss,
		sig.TakeProfit,
		sig.Reason,
		sig.Source,
	)
	return err
}

func (s *CHSignalStore) Recent(ctx context.Context, pair string, limit int) ([]*models.Signal, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if pair != "" {
		q := fmt.Sprintf(
			"SELECT ts, pair, action, price, score, confidence, stop_loss, take_profit, reason, source FROM %s WHERE pair = ? ORDER BY ts DESC LIMIT ?",
			s.table)
		rows, err = s.client.DB().QueryContext(ctx, q, pair, limit)
	} else {
		q := fmt.Sprintf(
			"SELECT ts, pair, action, price, score, confidence, stop_loss, take_profit, reason, source FROM %s ORDER BY ts DESC LIMIT ?",
			s.table)
		rows, err = s.client.DB().QueryContext(ctx, q, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Signal
	for rows.Next() {
		var sig models.Signal
		var action string
		if err := rows.Scan(&sig.Timestamp, &sig.Pair, &action, &sig.Price, &sig.Score,
			&sig.Confidence, &sig.StopLoss, &sig.TakeProfit, &sig.Reason, &sig.Source); err != nil {
			return nil, err
		}
		sig.Action = models.Action(action)
		out = append(out, &sig)
	}
	return out, rows.Err()
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // client lifetime managed by the app
}
