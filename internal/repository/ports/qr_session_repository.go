package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

type QRSessionRepository interface {
	Create(ctx context.Context, session *domain.QRSession) error
	FindByCode(ctx context.Context, code string) (*domain.QRSession, error)
	// Bind sets the user and flips used in one conditional write. Only an
	// open, unexpired session matches; otherwise sql.ErrNoRows.
	Bind(ctx context.Context, code string, userID uuid.UUID, now time.Time) (*domain.QRSession, error)
	// Claim flips claimed on a bound, unexpired session whose poll token hash
	// matches; otherwise sql.ErrNoRows.
	Claim(ctx context.Context, code string, pollTokenHash []byte, now time.Time) (*domain.QRSession, error)
}
