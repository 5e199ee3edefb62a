package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fuelstop/fuelstop-api/internal/domain/account"
	"github.com/fuelstop/fuelstop-api/internal/pkg/jwt"
	"github.com/fuelstop/fuelstop-api/internal/pkg/password"
)

type fakeAccounts struct {
	byID    map[uuid.UUID]*account.Account
	byEmail map[string]*account.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		byID:    make(map[uuid.UUID]*account.Account),
		byEmail: make(map[string]*account.Account),
	}
}

func (f *fakeAccounts) Create(ctx context.Context, params account.NewAccountParams) (*account.Account, error) {
	email := strings.ToLower(params.Email)
	if _, ok := f.byEmail[email]; ok {
		return nil, account.ErrEmailTaken
	}
	code, _ := account.NewReferralCode()
	acc := &account.Account{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        email,
		Phone:        params.Phone,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		ReferralCode: code,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	f.byID[acc.ID] = acc
	f.byEmail[email] = acc
	return acc, nil
}

func (f *fakeAccounts) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if acc, ok := f.byID[id]; ok {
		return acc, nil
	}
	return nil, account.ErrNotFound
}

func (f *fakeAccounts) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	if acc, ok := f.byEmail[strings.ToLower(email)]; ok {
		return acc, nil
	}
	return nil, account.ErrNotFound
}

func (f *fakeAccounts) GetByReferralCode(ctx context.Context, code string) (*account.Account, error) {
	for _, acc := range f.byID {
		if strings.EqualFold(acc.ReferralCode, code) {
			return acc, nil
		}
	}
	return nil, account.ErrNotFound
}

func (f *fakeAccounts) UpdateProfile(ctx context.Context, id uuid.UUID, params account.UpdateParams) (*account.Account, error) {
	acc, ok := f.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	if params.Name != nil {
		acc.Name = *params.Name
	}
	if params.Phone != nil {
		acc.Phone = *params.Phone
	}
	return acc, nil
}

func (f *fakeAccounts) SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error {
	return nil
}

func (f *fakeAccounts) Deactivate(ctx context.Context, id uuid.UUID) error {
	acc, ok := f.byID[id]
	if !ok {
		return account.ErrNotFound
	}
	acc.IsActive = false
	return nil
}

func (f *fakeAccounts) Reactivate(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (f *fakeAccounts) ListCustomers(ctx context.Context, filters account.ListFilters) ([]account.Account, int, error) {
	return nil, 0, nil
}

func (f *fakeAccounts) TopCustomers(ctx context.Context, limit int) ([]account.Account, error) {
	return nil, nil
}

func (f *fakeAccounts) AdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

type captureHook struct {
	account *account.Account
	code    string
	calls   int
}

func (c *captureHook) OnRegister(ctx context.Context, newAccount *account.Account, suppliedCode string) {
	c.account = newAccount
	c.code = suppliedCode
	c.calls++
}

func newTestService(hook ReferralHook) (*Service, *fakeAccounts) {
	accounts := newFakeAccounts()
	jwtSvc := jwt.NewService("test-secret", 15*time.Minute, 7*24*time.Hour)
	return NewService(accounts, jwtSvc, nil, hook), accounts
}

func TestRegisterIssuesTokensAndRunsReferralHook(t *testing.T) {
	hook := &captureHook{}
	svc, _ := newTestService(hook)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Name:         "Ravi Kumar",
		Email:        "Ravi@Example.com",
		Phone:        "9876543210",
		Password:     "supersecret",
		ReferralCode: "fuel-abc123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens issued")
	}
	if resp.Tokens.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %s", resp.Tokens.TokenType)
	}
	if resp.Account.Email != "ravi@example.com" {
		t.Fatalf("expected normalized email, got %s", resp.Account.Email)
	}

	if hook.calls != 1 {
		t.Fatalf("expected referral hook called once, got %d", hook.calls)
	}
	if hook.code != "fuel-abc123" {
		t.Fatalf("expected supplied code passed through, got %s", hook.code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(nil)

	req := &RegisterRequest{Name: "A", Email: "dup@test.com", Phone: "1", Password: "supersecret"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "B", Email: "DUP@test.com", Phone: "2", Password: "supersecret"})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, accounts := newTestService(nil)

	hash, _ := password.Hash("rightpassword")
	accounts.Create(context.Background(), account.NewAccountParams{
		Name: "C", Email: "c@test.com", Phone: "3", PasswordHash: hash, Role: account.RoleCustomer,
	})

	_, err := svc.Login(context.Background(), &LoginRequest{Email: "c@test.com", Password: "wrongpassword"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Login(context.Background(), &LoginRequest{Email: "c@test.com", Password: "rightpassword"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	svc, accounts := newTestService(nil)

	hash, _ := password.Hash("supersecret")
	acc, _ := accounts.Create(context.Background(), account.NewAccountParams{
		Name: "D", Email: "d@test.com", Phone: "4", PasswordHash: hash, Role: account.RoleCustomer,
	})
	accounts.Deactivate(context.Background(), acc.ID)

	_, err := svc.Login(context.Background(), &LoginRequest{Email: "d@test.com", Password: "supersecret"})
	if !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, _ := newTestService(nil)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		Name: "E", Email: "e@test.com", Phone: "5", Password: "supersecret",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), resp.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed.Tokens.AccessToken == "" {
		t.Fatal("expected new access token")
	}

	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrRefreshTokenRequired) {
		t.Fatalf("expected ErrRefreshTokenRequired, got %v", err)
	}
}
