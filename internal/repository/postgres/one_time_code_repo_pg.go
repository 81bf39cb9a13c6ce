package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
)

type OneTimeCodeRepository struct {
	db *sqlx.DB
}

func NewOneTimeCodeRepo(db *sqlx.DB) *OneTimeCodeRepository {
	return &OneTimeCodeRepository{db: db}
}

// Create inserts the code only when no other unused, unexpired record holds
// the same digits.
func (r *OneTimeCodeRepository) Create(ctx context.Context, code *domain.OneTimeCode) error {
	const query = `
        INSERT INTO one_time_code (id, user_id, code, purpose, created_at, expires_at, used)
        SELECT $1::uuid, $2::uuid, $3::text, $4::text, $5::timestamptz, $6::timestamptz, FALSE
        WHERE NOT EXISTS (
            SELECT 1 FROM one_time_code
            WHERE code = $3::text AND used = FALSE AND expires_at > $5::timestamptz
        )
    `
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	res, err := r.db.ExecContext(ctx, query, code.ID, code.UserID, code.Code, string(code.Purpose), code.CreatedAt, code.ExpiresAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrDuplicateKey
	}
	return nil
}

// Consume flips used on the matching code and reads its owner inside one
// transaction. A concurrent consumer re-evaluates the WHERE clause after the
// row lock is released and matches nothing.
func (r *OneTimeCodeRepository) Consume(ctx context.Context, userID uuid.UUID, code string, purpose domain.OTPPurpose, now time.Time) (*domain.User, error) {
	const consume = `
        UPDATE one_time_code
        SET used = TRUE,
            used_at = $5
        WHERE user_id = $1 AND code = $2 AND purpose = $3 AND used = FALSE AND expires_at > $4
        RETURNING id
    `
	const owner = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE id = $1
    `
	var user domain.User
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id uuid.UUID
		if err := tx.QueryRowxContext(ctx, consume, userID, code, string(purpose), now, now).Scan(&id); err != nil {
			return err
		}
		return tx.GetContext(ctx, &user, owner, userID)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
