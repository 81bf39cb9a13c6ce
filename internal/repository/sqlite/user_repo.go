package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

const userColumns = `id, username, password_hash, phone_number, email, created_at, updated_at`

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	PhoneNumber  *string   `db:"phone_number"`
	Email        *string   `db:"email"`
	CreatedAt    int64     `db:"created_at"`
	UpdatedAt    int64     `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		PhoneNumber:  r.PhoneNumber,
		Email:        r.Email,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

type UserRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (id, username, password_hash, phone_number, email, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        RETURNING ` + userColumns
	id := user.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := toMillis(r.now())
	var row userRow
	if err := r.db.QueryRowxContext(ctx, query, id, user.Username, user.PasswordHash, user.PhoneNumber, user.Email, now, now).StructScan(&row); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByPhoneOrUsername(ctx context.Context, key string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE phone_number = ? OR username = ?
        ORDER BY CASE WHEN phone_number = ? THEN 0 ELSE 1 END
        LIMIT 1
    `
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, key, key, key); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return findUserByID(ctx, r.db, id)
}

func findUserByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM user_account WHERE id = ?`
	var row userRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE user_account SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, passwordHash, toMillis(r.now()), id)
	return err
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*domain.User, error) {
	const query = `UPDATE user_account SET username = ?, updated_at = ? WHERE id = ? RETURNING ` + userColumns
	var row userRow
	if err := r.db.QueryRowxContext(ctx, query, username, toMillis(r.now()), id).StructScan(&row); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) (*domain.User, error) {
	const query = `UPDATE user_account SET phone_number = ?, updated_at = ? WHERE id = ? RETURNING ` + userColumns
	var row userRow
	if err := r.db.QueryRowxContext(ctx, query, phone, toMillis(r.now()), id).StructScan(&row); err != nil {
		return nil, mapUniqueViolation(err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        ORDER BY created_at, id
        LIMIT ? OFFSET ?
    `
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, *row.toDomain())
	}
	return users, nil
}
