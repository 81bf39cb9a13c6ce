package service

import (
	"bytes"
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	createInput *domain.User
	createErr   error

	updatePasswordInput struct {
		id   uuid.UUID
		hash string
	}
	updatePasswordErr error

	listInputs []struct {
		limit  int
		offset int
	}
	findErr error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createInput = user
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.users {
		if existing.Username == user.Username || (user.PhoneNumber != nil && existing.Phone() == *user.PhoneNumber) {
			return nil, ports.ErrDuplicateKey
		}
	}
	copied := *user
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	f.users[copied.ID] = &copied
	return &copied, nil
}

func (f *fakeUserRepo) FindByPhoneOrUsername(ctx context.Context, key string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Phone() == key {
			copied := *u
			return &copied, nil
		}
	}
	for _, u := range f.users {
		if u.Username == key {
			copied := *u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatePasswordInput.id = id
	f.updatePasswordInput.hash = passwordHash
	if f.updatePasswordErr != nil {
		return f.updatePasswordErr
	}
	if u, ok := f.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (f *fakeUserRepo) UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for otherID, u := range f.users {
		if otherID != id && u.Username == username {
			return nil, ports.ErrDuplicateKey
		}
	}
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.Username = username
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for otherID, u := range f.users {
		if otherID != id && u.Phone() == phone {
			return nil, ports.ErrDuplicateKey
		}
	}
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.PhoneNumber = &phone
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listInputs = append(f.listInputs, struct {
		limit  int
		offset int
	}{limit: limit, offset: offset})
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

type fakeCodeRepo struct {
	mu    sync.Mutex
	users *fakeUserRepo
	codes []*domain.OneTimeCode

	createCalls  int
	collisions   int
	createErr    error
	consumeCalls int
}

func (f *fakeCodeRepo) Create(ctx context.Context, code *domain.OneTimeCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if f.collisions > 0 {
		f.collisions--
		return ports.ErrDuplicateKey
	}
	for _, existing := range f.codes {
		if existing.Code == code.Code && !existing.Used && existing.ExpiresAt.After(code.CreatedAt) {
			return ports.ErrDuplicateKey
		}
	}
	copied := *code
	f.codes = append(f.codes, &copied)
	return nil
}

func (f *fakeCodeRepo) Consume(ctx context.Context, userID uuid.UUID, code string, purpose domain.OTPPurpose, now time.Time) (*domain.User, error) {
	f.mu.Lock()
	f.consumeCalls++
	var match *domain.OneTimeCode
	for _, c := range f.codes {
		if c.UserID == userID && c.Code == code && c.Purpose == purpose && !c.Used && c.ExpiresAt.After(now) {
			match = c
			break
		}
	}
	if match == nil {
		f.mu.Unlock()
		return nil, sql.ErrNoRows
	}
	match.Used = true
	usedAt := now
	match.UsedAt = &usedAt
	f.mu.Unlock()
	return f.users.FindByID(ctx, userID)
}

type fakeSender struct {
	mu       sync.Mutex
	messages []ports.OTPMessage
	err      error
	block    bool
}

func (f *fakeSender) SendOTP(ctx context.Context, msg ports.OTPMessage) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.err
}

func (f *fakeSender) last() (ports.OTPMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ports.OTPMessage{}, false
	}
	return f.messages[len(f.messages)-1], true
}

type fakeQRRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.QRSession
	findErr  error
}

func newFakeQRRepo() *fakeQRRepo {
	return &fakeQRRepo{sessions: make(map[string]*domain.QRSession)}
}

func (f *fakeQRRepo) Create(ctx context.Context, session *domain.QRSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session.Code]; ok {
		return ports.ErrDuplicateKey
	}
	copied := *session
	f.sessions[session.Code] = &copied
	return nil
}

func (f *fakeQRRepo) FindByCode(ctx context.Context, code string) (*domain.QRSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	s, ok := f.sessions[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeQRRepo) Bind(ctx context.Context, code string, userID uuid.UUID, now time.Time) (*domain.QRSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[code]
	if !ok || s.Used || !s.ExpiresAt.After(now) {
		return nil, sql.ErrNoRows
	}
	s.Used = true
	id := userID
	s.UserID = &id
	boundAt := now
	s.BoundAt = &boundAt
	copied := *s
	return &copied, nil
}

func (f *fakeQRRepo) Claim(ctx context.Context, code string, pollTokenHash []byte, now time.Time) (*domain.QRSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[code]
	if !ok || !s.Used || s.Claimed || !s.ExpiresAt.After(now) || !bytes.Equal(s.PollTokenHash, pollTokenHash) {
		return nil, sql.ErrNoRows
	}
	s.Claimed = true
	copied := *s
	return &copied, nil
}

var testHasher = util.NewPasswordHasher(util.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

func mustHash(password string) string {
	hash, err := testHasher.Hash(password)
	if err != nil {
		panic(err)
	}
	return hash
}

func newTestUser(username, phone, password string) *domain.User {
	return &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: mustHash(password),
		PhoneNumber:  &phone,
	}
}
