package referral

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fuelstop/fuelstop-api/internal/domain/account"
	"github.com/fuelstop/fuelstop-api/internal/domain/ledger"
)

// CodeLookup resolves referral codes and records who referred whom.
type CodeLookup interface {
	GetByReferralCode(ctx context.Context, code string) (*account.Account, error)
	SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) error
}

// PointsLedger credits bonus points to the referrer.
type PointsLedger interface {
	Credit(ctx context.Context, accountID uuid.UUID, points float64, entryType ledger.EntryType, meta ledger.Meta) error
}

// BonusRecorder writes the zero-amount referral transaction for the audit trail.
type BonusRecorder interface {
	RecordReferralBonus(ctx context.Context, referrerID, referredID uuid.UUID, points float64, referredName string) error
}

// Notifier tells the referrer their bonus landed.
type Notifier interface {
	NotifyReferralBonus(ctx context.Context, accountID uuid.UUID, points float64, referredName string)
}

// Service credits referral bonuses on registration.
type Service struct {
	accounts    CodeLookup
	points      PointsLedger
	recorder    BonusRecorder
	notifier    Notifier
	bonusPoints float64
}

// NewService creates the referral bonus processor. recorder and notifier
// may be nil.
func NewService(accounts CodeLookup, points PointsLedger, recorder BonusRecorder, notifier Notifier, bonusPoints float64) *Service {
	return &Service{
		accounts:    accounts,
		points:      points,
		recorder:    recorder,
		notifier:    notifier,
		bonusPoints: bonusPoints,
	}
}

// OnRegister runs after a successful registration. An empty or unknown code
// is ignored silently, registration must never fail because of a bad code.
func (s *Service) OnRegister(ctx context.Context, newAccount *account.Account, suppliedCode string) {
	code := strings.TrimSpace(suppliedCode)
	if code == "" || newAccount == nil {
		return
	}

	referrer, err := s.accounts.GetByReferralCode(ctx, code)
	if err != nil || referrer == nil {
		log.Debug().Str("code", code).Msg("referral code not matched")
		return
	}

	// Using your own code earns nothing
	if referrer.ID == newAccount.ID {
		return
	}

	if err := s.accounts.SetReferredBy(ctx, newAccount.ID, referrer.ID); err != nil {
		log.Warn().Err(err).Str("account_id", newAccount.ID.String()).Msg("failed to record referrer")
		return
	}

	err = s.points.Credit(ctx, referrer.ID, s.bonusPoints, ledger.EntryTypeReferral, ledger.Meta{
		RelatedEntityType: "account",
		RelatedEntityID:   newAccount.ID,
		Description:       "referral bonus for " + newAccount.Name,
	})
	if err != nil {
		log.Error().Err(err).Str("referrer_id", referrer.ID.String()).Msg("failed to credit referral bonus")
		return
	}

	if s.recorder != nil {
		if err := s.recorder.RecordReferralBonus(ctx, referrer.ID, newAccount.ID, s.bonusPoints, newAccount.Name); err != nil {
			log.Warn().Err(err).Str("referrer_id", referrer.ID.String()).Msg("failed to record referral transaction")
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyReferralBonus(ctx, referrer.ID, s.bonusPoints, newAccount.Name)
	}
}
