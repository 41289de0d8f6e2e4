package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/llmbridge/internal/llm"
)

// UsageLedger persists tracked requests. It implements llm.UsageRecorder.
type UsageLedger struct {
	db             *DB
	conversationID string
}

// NewUsageLedger creates a ledger using the given database.
func NewUsageLedger(db *DB) *UsageLedger {
	return &UsageLedger{db: db}
}

// ForConversation returns a ledger that tags records with a conversation id.
func (l *UsageLedger) ForConversation(id string) *UsageLedger {
	return &UsageLedger{db: l.db, conversationID: id}
}

// RecordUsage stores one usage record.
func (l *UsageLedger) RecordUsage(ctx context.Context, rec llm.UsageRecord) error {
	at := rec.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := l.db.sql.ExecContext(ctx,
		`INSERT INTO usage_records (id, conversation_id, provider, model, input_tokens, output_tokens,
		                            input_cost, output_cost, total_cost, estimated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), l.conversationID, rec.Provider, rec.Model, rec.Input, rec.Output,
		rec.Cost.InputCost, rec.Cost.OutputCost, rec.Cost.TotalCost, rec.Estimated,
		at.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("recording usage: %w", err)
	}
	return nil
}

// ModelTotals aggregates the ledger for one provider/model pair.
type ModelTotals struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Requests  int    `json:"requests"`
	Input     int    `json:"inputTokens"`
	Output    int    `json:"outputTokens"`
	Estimated int    `json:"estimatedRequests"`
	TotalCost string `json:"totalCost"`
}

// Totals aggregates records created at or after since, per model. A zero
// since covers the whole ledger.
func (l *UsageLedger) Totals(ctx context.Context, since time.Time) ([]ModelTotals, error) {
	rows, err := l.db.sql.QueryContext(ctx,
		`SELECT provider, model, COUNT(*), SUM(input_tokens), SUM(output_tokens),
		        SUM(estimated), SUM(CAST(total_cost AS REAL))
		 FROM usage_records
		 WHERE created_at >= ?
		 GROUP BY provider, model
		 ORDER BY provider, model`,
		since.UTC().Format(time.DateTime),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModelTotals
	for rows.Next() {
		var t ModelTotals
		var cost float64
		if err := rows.Scan(&t.Provider, &t.Model, &t.Requests, &t.Input, &t.Output, &t.Estimated, &cost); err != nil {
			return nil, err
		}
		t.TotalCost = strconv.FormatFloat(cost, 'f', 6, 64)
		out = append(out, t)
	}
	return out, rows.Err()
}
