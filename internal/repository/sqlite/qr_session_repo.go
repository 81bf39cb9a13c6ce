package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

const qrSessionColumns = `id, code, poll_token_hash, user_id, created_at, expires_at, used, bound_at, claimed`

type qrSessionRow struct {
	ID            uuid.UUID  `db:"id"`
	Code          string     `db:"code"`
	PollTokenHash []byte     `db:"poll_token_hash"`
	UserID        *uuid.UUID `db:"user_id"`
	CreatedAt     int64      `db:"created_at"`
	ExpiresAt     int64      `db:"expires_at"`
	Used          bool       `db:"used"`
	BoundAt       *int64     `db:"bound_at"`
	Claimed       bool       `db:"claimed"`
}

func (r qrSessionRow) toDomain() *domain.QRSession {
	return &domain.QRSession{
		ID:            r.ID,
		Code:          r.Code,
		PollTokenHash: r.PollTokenHash,
		UserID:        r.UserID,
		CreatedAt:     fromMillis(r.CreatedAt),
		ExpiresAt:     fromMillis(r.ExpiresAt),
		Used:          r.Used,
		BoundAt:       fromNullMillis(r.BoundAt),
		Claimed:       r.Claimed,
	}
}

type QRSessionRepository struct {
	db *sqlx.DB
}

func NewQRSessionRepo(db *sqlx.DB) *QRSessionRepository {
	return &QRSessionRepository{db: db}
}

func (r *QRSessionRepository) Create(ctx context.Context, session *domain.QRSession) error {
	const query = `
        INSERT INTO qr_session (id, code, poll_token_hash, created_at, expires_at, used, claimed)
        VALUES (?, ?, ?, ?, ?, 0, 0)
    `
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, query, session.ID, session.Code, session.PollTokenHash, toMillis(session.CreatedAt), toMillis(session.ExpiresAt))
	return mapUniqueViolation(err)
}

func (r *QRSessionRepository) FindByCode(ctx context.Context, code string) (*domain.QRSession, error) {
	const query = `SELECT ` + qrSessionColumns + ` FROM qr_session WHERE code = ?`
	var row qrSessionRow
	if err := r.db.GetContext(ctx, &row, query, code); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *QRSessionRepository) Bind(ctx context.Context, code string, userID uuid.UUID, now time.Time) (*domain.QRSession, error) {
	const query = `
        UPDATE qr_session
        SET used = 1, user_id = ?, bound_at = ?
        WHERE code = ? AND used = 0 AND expires_at > ?
        RETURNING ` + qrSessionColumns
	nowMillis := toMillis(now)
	var row qrSessionRow
	if err := r.db.QueryRowxContext(ctx, query, userID, nowMillis, code, nowMillis).StructScan(&row); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *QRSessionRepository) Claim(ctx context.Context, code string, pollTokenHash []byte, now time.Time) (*domain.QRSession, error) {
	const query = `
        UPDATE qr_session
        SET claimed = 1
        WHERE code = ? AND poll_token_hash = ? AND used = 1 AND claimed = 0 AND expires_at > ?
        RETURNING ` + qrSessionColumns
	var row qrSessionRow
	if err := r.db.QueryRowxContext(ctx, query, code, pollTokenHash, toMillis(now)).StructScan(&row); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
