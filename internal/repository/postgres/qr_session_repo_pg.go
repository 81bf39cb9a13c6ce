package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

const qrSessionColumns = `id, code, poll_token_hash, user_id, created_at, expires_at, used, bound_at, claimed`

type QRSessionRepository struct {
	db *sqlx.DB
}

func NewQRSessionRepo(db *sqlx.DB) *QRSessionRepository {
	return &QRSessionRepository{db: db}
}

func (r *QRSessionRepository) Create(ctx context.Context, session *domain.QRSession) error {
	const query = `
        INSERT INTO qr_session (id, code, poll_token_hash, created_at, expires_at, used, claimed)
        VALUES ($1, $2, $3, $4, $5, FALSE, FALSE)
    `
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if _, err := r.db.ExecContext(ctx, query, session.ID, session.Code, session.PollTokenHash, session.CreatedAt, session.ExpiresAt); err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *QRSessionRepository) FindByCode(ctx context.Context, code string) (*domain.QRSession, error) {
	const query = `
        SELECT ` + qrSessionColumns + `
        FROM qr_session
        WHERE code = $1
    `
	var session domain.QRSession
	if err := r.db.GetContext(ctx, &session, query, code); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *QRSessionRepository) Bind(ctx context.Context, code string, userID uuid.UUID, now time.Time) (*domain.QRSession, error) {
	const query = `
        UPDATE qr_session
        SET used = TRUE,
            user_id = $2,
            bound_at = $3
        WHERE code = $1 AND used = FALSE AND expires_at > $3
        RETURNING ` + qrSessionColumns
	var session domain.QRSession
	if err := r.db.QueryRowxContext(ctx, query, code, userID, now).StructScan(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *QRSessionRepository) Claim(ctx context.Context, code string, pollTokenHash []byte, now time.Time) (*domain.QRSession, error) {
	const query = `
        UPDATE qr_session
        SET claimed = TRUE
        WHERE code = $1 AND poll_token_hash = $2 AND used = TRUE AND claimed = FALSE AND expires_at > $3
        RETURNING ` + qrSessionColumns
	var session domain.QRSession
	if err := r.db.QueryRowxContext(ctx, query, code, pollTokenHash, now).StructScan(&session); err != nil {
		return nil, err
	}
	return &session, nil
}
