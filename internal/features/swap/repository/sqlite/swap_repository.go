package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"

	sqlite3 "github.com/mattn/go-sqlite3"

	"xforce-terminal-backend/internal/common/errors"
	"xforce-terminal-backend/internal/features/swap/models"
)

const swapColumns = `id, user_id, signature, input_mint, output_mint,
	input_amount, output_amount, price_impact, slippage_bps, status,
	error_message, created_at, confirmed_at`

// SwapRepository records swap transactions.
type SwapRepository struct {
	db *sql.DB
}

func NewSwapRepository(db *sql.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

func scanSwap(row interface{ Scan(...interface{}) error }) (*models.Swap, error) {
	var s models.Swap
	err := row.Scan(
		&s.ID, &s.UserID, &s.Signature, &s.InputMint, &s.OutputMint,
		&s.InputAmount, &s.OutputAmount, &s.PriceImpact, &s.SlippageBps,
		&s.Status, &s.ErrorMessage, &s.CreatedAt, &s.ConfirmedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a pending swap and returns the stored row.
func (r *SwapRepository) Create(ctx context.Context, userID int64, signature, inputMint, outputMint string, inputAmount, outputAmount int64, priceImpact *float64, slippageBps *int64) (*models.Swap, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO swaps (user_id, signature, input_mint, output_mint, input_amount, output_amount, price_impact, slippage_bps, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, signature, inputMint, outputMint, inputAmount, outputAmount, priceImpact, slippageBps, models.StatusPending,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if stderrors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, errors.NewConflictError("swap", "A transaction with this signature was already submitted")
		}
		return nil, errors.NewDatabaseError("create swap", err)
	}
	return r.BySignature(ctx, signature)
}

func (r *SwapRepository) BySignature(ctx context.Context, signature string) (*models.Swap, error) {
	s, err := scanSwap(r.db.QueryRowContext(ctx, `SELECT `+swapColumns+` FROM swaps WHERE signature = ?`, signature))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewDatabaseError("swap by signature", err)
	}
	return s, nil
}

// UpdateStatus transitions a swap. Confirmed swaps get a confirmation
// timestamp, failed ones keep the error message.
func (r *SwapRepository) UpdateStatus(ctx context.Context, signature, status string, errorMessage *string) error {
	var err error
	switch status {
	case models.StatusConfirmed:
		_, err = r.db.ExecContext(ctx, `
			UPDATE swaps SET status = ?, confirmed_at = CURRENT_TIMESTAMP, error_message = NULL WHERE signature = ?`,
			status, signature)
	case models.StatusFailed:
		_, err = r.db.ExecContext(ctx, `
			UPDATE swaps SET status = ?, error_message = ? WHERE signature = ?`,
			status, errorMessage, signature)
	default:
		_, err = r.db.ExecContext(ctx, `
			UPDATE swaps SET status = ? WHERE signature = ?`, status, signature)
	}
	if err != nil {
		return errors.NewDatabaseError("update swap status", err)
	}
	return nil
}

// ListByUser returns the user's swaps, newest first.
func (r *SwapRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Swap, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+swapColumns+` FROM swaps WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, errors.NewDatabaseError("list swaps", err)
	}
	defer rows.Close()

	var swaps []models.Swap
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return nil, errors.NewDatabaseError("scan swap", err)
		}
		swaps = append(swaps, *s)
	}
	return swaps, rows.Err()
}
