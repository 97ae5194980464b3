package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type sequenceRepository struct {
	BaseRepository
}

// issuedCodes maps a sequence name to the table and column holding the codes
// it has issued.
var issuedCodes = map[string]struct{ table, column string }{
	"patient":     {"patients", "patient_code"},
	"appointment": {"appointments", "appointment_code"},
	"treatment":   {"treatments", "treatment_code"},
}

// Next relies on the row lock taken by UPDATE, so concurrent transactions
// allocating from the same sequence are serialized until commit.
func (r *sequenceRepository) Next(ctx context.Context, name string) (int, bool, error) {
	query := `
		UPDATE id_sequences
		SET last_value = last_value + 1, updated_at = NOW()
		WHERE name = $1
		RETURNING last_value
	`
	var value int
	err := sqlx.GetContext(ctx, r.q, &value, query, name)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, true, nil
}

func (r *sequenceRepository) Seed(ctx context.Context, name string, value int) error {
	query := `
		INSERT INTO id_sequences (name, last_value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := r.q.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", name, err)
	}
	return nil
}

// LastIssued orders by length first so that P100 sorts after P99.
func (r *sequenceRepository) LastIssued(ctx context.Context, name string) (string, error) {
	src, ok := issuedCodes[name]
	if !ok {
		return "", fmt.Errorf("unknown sequence %q", name)
	}

	query := fmt.Sprintf(
		`SELECT %[2]s FROM %[1]s ORDER BY length(%[2]s) DESC, %[2]s DESC LIMIT 1`,
		src.table, src.column,
	)
	var code string
	err := sqlx.GetContext(ctx, r.q, &code, query)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last %s code: %w", name, err)
	}
	return code, nil
}
