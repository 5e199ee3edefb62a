package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fuelstop/fuelstop-api/internal/domain/account"
	"github.com/fuelstop/fuelstop-api/internal/pkg/jwt"
	"github.com/fuelstop/fuelstop-api/internal/pkg/password"
)

// ReferralHook runs after a successful registration. Implemented by the
// referral bonus processor; a nil hook disables the program.
type ReferralHook interface {
	OnRegister(ctx context.Context, newAccount *account.Account, suppliedCode string)
}

// Service handles registration, login and token lifecycle
type Service struct {
	accounts   account.Service
	jwtService *jwt.Service
	redis      *redis.Client // nil if Redis disabled
	referral   ReferralHook
}

// NewService creates auth service
func NewService(accounts account.Service, jwtService *jwt.Service, redisClient *redis.Client, referral ReferralHook) *Service {
	return &Service{
		accounts:   accounts,
		jwtService: jwtService,
		redis:      redisClient,
		referral:   referral,
	}
}

// Register creates a new customer account
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	// 1. Check if email exists
	existing, _ := s.accounts.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	// 2. Hash password
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	// 3. Create account. Registration is always as customer,
	// admins are provisioned out of band.
	acc, err := s.accounts.Create(ctx, account.NewAccountParams{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		PasswordHash:  hash,
		Role:          account.RoleCustomer,
		VehicleNumber: req.VehicleNumber,
	})
	if err != nil {
		if err == account.ErrEmailTaken {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	// 4. Referral bonus, best effort. An unknown code never fails registration.
	if s.referral != nil {
		s.referral.OnRegister(ctx, acc, req.ReferralCode)
	}

	// 5. Generate tokens
	return s.generateTokens(ctx, acc)
}

// Login authenticates an account
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	// 1. Find account
	acc, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil || acc == nil {
		return nil, ErrInvalidCredentials
	}

	// 2. Verify password
	if !password.Verify(req.Password, acc.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !acc.IsActive {
		return nil, ErrAccountDeactivated
	}

	// 3. Generate tokens
	return s.generateTokens(ctx, acc)
}

// Refresh rotates the refresh token and issues a new access token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	// 1. Validate refresh token JWT
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// 2. With Redis configured, the stored hash must still exist (rotation)
	refreshHash := jwt.HashRefreshToken(refreshToken)
	if s.redis != nil {
		if _, err := s.getRefreshToken(ctx, refreshHash); err != nil {
			return nil, ErrInvalidRefreshToken
		}
	}

	// 3. Get account
	acc, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil || acc == nil {
		return nil, ErrAccountNotFound
	}
	if !acc.IsActive {
		return nil, ErrAccountDeactivated
	}

	// 4. Delete old refresh token (token rotation)
	_ = s.deleteRefreshToken(ctx, refreshHash)

	// 5. Generate new tokens
	return s.generateTokens(ctx, acc)
}

// Logout invalidates the refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil // Nothing to logout
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	return s.deleteRefreshToken(ctx, refreshHash)
}

// GetCurrentAccount returns the authenticated account
func (s *Service) GetCurrentAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil || acc == nil {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// UpdateProfile applies profile changes for the authenticated account
func (s *Service) UpdateProfile(ctx context.Context, accountID uuid.UUID, req *UpdateProfileRequest) (*account.Account, error) {
	acc, err := s.accounts.UpdateProfile(ctx, accountID, account.UpdateParams{
		Name:          req.Name,
		Phone:         req.Phone,
		VehicleNumber: req.VehicleNumber,
	})
	if err != nil {
		if err == account.ErrNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// generateTokens creates access and refresh tokens
func (s *Service) generateTokens(ctx context.Context, acc *account.Account) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(acc.ID, string(acc.Role), acc.IsActive)
	if err != nil {
		return nil, err
	}

	refreshToken, _, _, err := s.jwtService.GenerateRefreshToken(acc.ID)
	if err != nil {
		return nil, err
	}

	// Store hash(refresh) in Redis
	refreshHash := jwt.HashRefreshToken(refreshToken)
	if err := s.storeRefreshToken(ctx, refreshHash, acc.ID); err != nil {
		return nil, err
	}

	return &AuthResponse{
		Account: account.ToResponse(acc),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken, // return raw refresh to client
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}

// Redis helpers (handle nil redis gracefully)
func (s *Service) storeRefreshToken(ctx context.Context, tokenHash string, accountID uuid.UUID) error {
	if s.redis == nil {
		return nil // Skip if Redis not configured
	}
	return s.redis.Set(ctx, "refresh:"+tokenHash, accountID.String(), s.jwtService.GetRefreshTTL()).Err()
}

func (s *Service) getRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	val, err := s.redis.Get(ctx, "refresh:"+tokenHash).Result()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (s *Service) deleteRefreshToken(ctx context.Context, tokenHash string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, "refresh:"+tokenHash).Err()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
