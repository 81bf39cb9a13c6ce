package sqlite

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

func (r *OneTimeCodeRepository) Create(ctx context.Context, code *domain.OneTimeCode) error {
	const query = `
        INSERT INTO one_time_code (id, user_id, code, purpose, created_at, expires_at, used)
        SELECT ?, ?, ?, ?, ?, ?, 0
        WHERE NOT EXISTS (
            SELECT 1 FROM one_time_code
            WHERE code = ? AND used = 0 AND expires_at > ?
        )
    `
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	created := toMillis(code.CreatedAt)
	res, err := r.db.ExecContext(ctx, query,
		code.ID, code.UserID, code.Code, string(code.Purpose), created, toMillis(code.ExpiresAt),
		code.Code, created,
	)
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

func (r *OneTimeCodeRepository) Consume(ctx context.Context, userID uuid.UUID, code string, purpose domain.OTPPurpose, now time.Time) (*domain.User, error) {
	const consume = `
        UPDATE one_time_code
        SET used = 1, used_at = ?
        WHERE id = (
            SELECT id FROM one_time_code
            WHERE user_id = ? AND code = ? AND purpose = ? AND used = 0 AND expires_at > ?
            LIMIT 1
        ) AND used = 0
        RETURNING id
    `
	nowMillis := toMillis(now)
	var user *domain.User
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id uuid.UUID
		if err := tx.QueryRowxContext(ctx, consume, nowMillis, userID, code, string(purpose), nowMillis).Scan(&id); err != nil {
			return err
		}
		u, err := findUserByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
