package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

const userColumns = `id, username, password_hash, phone_number, email, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (id, username, password_hash, phone_number, email, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING ` + userColumns

	id := user.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := r.db.QueryRowxContext(ctx, query, id, user.Username, user.PasswordHash, user.PhoneNumber, user.Email)
	var created domain.User
	if err := row.StructScan(&created); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &created, nil
}

// FindByPhoneOrUsername matches exactly. A phone match wins over a username
// that happens to look like someone else's phone number.
func (r *UserRepository) FindByPhoneOrUsername(ctx context.Context, key string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE phone_number = $1 OR username = $1
        ORDER BY CASE WHEN phone_number = $1 THEN 0 ELSE 1 END
        LIMIT 1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, key); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE id = $1
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, passwordHash)
	return err
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET username = $2,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns
	row := r.db.QueryRowxContext(ctx, query, id, username)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &user, nil
}

func (r *UserRepository) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) (*domain.User, error) {
	const query = `
        UPDATE user_account
        SET phone_number = $2,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns
	row := r.db.QueryRowxContext(ctx, query, id, phone)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        ORDER BY created_at, id
        LIMIT $1 OFFSET $2
    `
	users := make([]domain.User, 0, limit)
	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, err
	}
	return users, nil
}
