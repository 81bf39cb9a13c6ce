package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByPhoneOrUsername(ctx context.Context, key string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*domain.User, error)
	UpdatePhone(ctx context.Context, id uuid.UUID, phone string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]domain.User, error)
}
