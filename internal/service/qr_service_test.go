package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/domain"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/notify"
)

func newQRServiceForTests(users ...*domain.User) (*QRService, *fakeQRRepo) {
	repo := newFakeQRRepo()
	svc := NewQRService(repo, newFakeUserRepo(users...), notify.NewMemoryNotifier(), nil, QRServiceConfig{TTL: 5 * time.Minute, MaxPollWait: 2 * time.Second})
	return svc, repo
}

func TestQRServiceGenerate(t *testing.T) {
	svc, repo := newQRServiceForTests()
	challenge, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(challenge.Code) < 43 || challenge.PollToken == "" {
		t.Fatalf("expected high-entropy code and poll token, got %+v", challenge)
	}
	stored, ok := repo.sessions[challenge.Code]
	if !ok {
		t.Fatalf("expected session to be stored")
	}
	if string(stored.PollTokenHash) == challenge.PollToken {
		t.Fatalf("poll token must not be stored in the clear")
	}
	if stored.Used || stored.UserID != nil {
		t.Fatalf("expected new session to be open")
	}
}

func TestQRServiceBindSingleWinner(t *testing.T) {
	svc, _ := newQRServiceForTests()
	challenge, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Bind(context.Background(), challenge.Code, uuid.New()); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, ErrQRInvalidOrExpired) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one bind to win, got %d", wins)
	}
}

func TestQRServiceBindExpired(t *testing.T) {
	svc, _ := newQRServiceForTests()
	start := time.Now()
	svc.now = func() time.Time { return start }
	challenge, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	svc.now = func() time.Time { return start.Add(6 * time.Minute) }
	if _, err := svc.Bind(context.Background(), challenge.Code, uuid.New()); !errors.Is(err, ErrQRInvalidOrExpired) {
		t.Fatalf("expected ErrQRInvalidOrExpired, got %v", err)
	}
	status, err := svc.Status(context.Background(), challenge.Code, challenge.PollToken)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status != domain.QRStatusExpired {
		t.Fatalf("expected expired status, got %s", status)
	}
}

func TestQRServiceClaimWaitsForBind(t *testing.T) {
	user := newTestUser("alice", "0912345678", "secret1")
	svc, _ := newQRServiceForTests(user)
	challenge, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		if _, err := svc.Bind(context.Background(), challenge.Code, user.ID); err != nil {
			t.Errorf("Bind returned error: %v", err)
		}
	}()

	got, status, err := svc.Claim(context.Background(), challenge.Code, challenge.PollToken, time.Second)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if status != domain.QRStatusClaimed || got == nil || got.ID != user.ID {
		t.Fatalf("expected claimed session for user, got status=%s user=%v", status, got)
	}

	if _, _, err := svc.Claim(context.Background(), challenge.Code, challenge.PollToken, 0); !errors.Is(err, ErrQRInvalidOrExpired) {
		t.Fatalf("expected second claim to fail, got %v", err)
	}
}

func TestQRServiceClaimTimesOutPending(t *testing.T) {
	svc, _ := newQRServiceForTests()
	challenge, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	user, status, err := svc.Claim(context.Background(), challenge.Code, challenge.PollToken, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Claim returned error: %v", err)
	}
	if status != domain.QRStatusPending || user != nil {
		t.Fatalf("expected pending, got %s", status)
	}
}

func TestQRServiceClaimRejectsWrongPollToken(t *testing.T) {
	user := newTestUser("alice", "0912345678", "secret1")
	svc, _ := newQRServiceForTests(user)
	challenge, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := svc.Bind(context.Background(), challenge.Code, user.ID); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if _, _, err := svc.Claim(context.Background(), challenge.Code, "not-the-token", 0); !errors.Is(err, ErrQRInvalidOrExpired) {
		t.Fatalf("expected ErrQRInvalidOrExpired, got %v", err)
	}
}

func TestQRServiceClaimAlreadyBound(t *testing.T) {
	user := newTestUser("alice", "0912345678", "secret1")
	svc, _ := newQRServiceForTests(user)
	challenge, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := svc.Bind(context.Background(), challenge.Code, user.ID); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	status, err := svc.Status(context.Background(), challenge.Code, challenge.PollToken)
	if err != nil || status != domain.QRStatusBound {
		t.Fatalf("expected bound status, got %s (%v)", status, err)
	}
	got, status, err := svc.Claim(context.Background(), challenge.Code, challenge.PollToken, 0)
	if err != nil || status != domain.QRStatusClaimed || got.ID != user.ID {
		t.Fatalf("expected immediate claim, got status=%s err=%v", status, err)
	}
}

func TestQRServiceClaimHonoursContext(t *testing.T) {
	svc, _ := newQRServiceForTests()
	challenge, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if _, _, err := svc.Claim(ctx, challenge.Code, challenge.PollToken, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
