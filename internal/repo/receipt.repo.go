package repo

import (
	"context"
	"time"

	"conecta-ongs/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type ReceiptRepo interface {
	// Save is a no-op when the session generation already has a receipt.
	Save(ctx context.Context, r *domain.Receipt) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Receipt, error)
	List(ctx context.Context, limit, offset int) ([]domain.Receipt, error)
}

type receiptRow struct {
	ID            uuid.UUID       `db:"id"`
	SessionID     uuid.UUID       `db:"session_id"`
	Generation    int64           `db:"generation"`
	TransactionID string          `db:"transaction_id"`
	Method        string          `db:"method"`
	Amount        decimal.Decimal `db:"amount"`
	CardLast4     string          `db:"card_last4"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r receiptRow) toDomain() domain.Receipt {
	return domain.Receipt{
		ID:            r.ID,
		SessionID:     r.SessionID,
		Generation:    uint64(r.Generation),
		TransactionID: r.TransactionID,
		Method:        domain.PaymentMethod(r.Method),
		Amount:        r.Amount,
		CardLast4:     r.CardLast4,
		CreatedAt:     r.CreatedAt,
	}
}

const receiptColumns = `id, session_id, generation, transaction_id, method, amount, card_last4, created_at`

type receiptRepo struct {
	db *sqlx.DB
}

func NewReceiptRepo(db *sqlx.DB) ReceiptRepo {
	return &receiptRepo{db: db}
}

func (r *receiptRepo) Save(ctx context.Context, rc *domain.Receipt) error {
	row := receiptRow{
		ID:            rc.ID,
		SessionID:     rc.SessionID,
		Generation:    int64(rc.Generation),
		TransactionID: rc.TransactionID,
		Method:        string(rc.Method),
		Amount:        rc.Amount,
		CardLast4:     rc.CardLast4,
		CreatedAt:     rc.CreatedAt,
	}
	query := `INSERT INTO donation_receipts (` + receiptColumns + `)
		VALUES (:id, :session_id, :generation, :transaction_id, :method, :amount, :card_last4, :created_at)
		ON CONFLICT (session_id, generation) DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.Wrap(err, "insert receipt")
	}
	return nil
}

func (r *receiptRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Receipt, error) {
	var rows []receiptRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+receiptColumns+` FROM donation_receipts WHERE session_id = $1 ORDER BY generation`,
		sessionID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list receipts by session")
	}
	return toReceipts(rows), nil
}

func (r *receiptRepo) List(ctx context.Context, limit, offset int) ([]domain.Receipt, error) {
	var rows []receiptRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+receiptColumns+` FROM donation_receipts ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list receipts")
	}
	return toReceipts(rows), nil
}

func toReceipts(rows []receiptRow) []domain.Receipt {
	receipts := make([]domain.Receipt, 0, len(rows))
	for _, row := range rows {
		receipts = append(receipts, row.toDomain())
	}
	return receipts
}
