package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
)

type OneTimeCodeRepository interface {
	// Create stores an issued code. It returns ErrDuplicateKey when another
	// unused, unexpired record already carries the same code.
	Create(ctx context.Context, code *domain.OneTimeCode) error
	// Consume marks the matching unused, unexpired code as used and loads its
	// owner in the same transaction. sql.ErrNoRows means nothing matched.
	Consume(ctx context.Context, userID uuid.UUID, code string, purpose domain.OTPPurpose, now time.Time) (*domain.User, error)
}
