package services

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
)

// authService manages the profile's local-auth credentials: the PIN that
// unlocks the app and the optional trading password confirmed before orders.
type authService struct {
	store *ProfileStore
}

// NewAuthService creates a new AuthServicer.
func NewAuthService(store *ProfileStore) AuthServicer {
	return &authService{store: store}
}

// SetPIN hashes and stores the unlock PIN. Fails if one is already set;
// changing a PIN requires verifying the old one first.
func (s *authService) SetPIN(ctx context.Context, pin string) error {
	current := s.store.Current()
	if current.HasPIN() {
		return apperrors.ErrPINAlreadySet
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	_, err = s.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		p.PINHash = string(hash)
		return p, nil
	})
	return err
}

// VerifyPIN checks the given PIN against the stored hash.
func (s *authService) VerifyPIN(pin string) error {
	profile := s.store.Current()
	if !profile.HasPIN() {
		return apperrors.ErrPINNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PINHash), []byte(pin)); err != nil {
		return apperrors.ErrInvalidPIN
	}
	return nil
}

// ChangePIN replaces the stored PIN after verifying the current one.
func (s *authService) ChangePIN(ctx context.Context, currentPIN, newPIN string) error {
	if err := s.VerifyPIN(currentPIN); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPIN), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	_, err = s.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		p.PINHash = string(hash)
		return p, nil
	})
	return err
}

// SetTradingPassword hashes and stores the trading password.
func (s *authService) SetTradingPassword(ctx context.Context, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	_, err = s.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		p.TradingPasswordHash = string(hash)
		return p, nil
	})
	return err
}

// VerifyTradingPassword checks the given trading password against the stored
// hash. Profiles without a trading password accept any input: the check is
// an optional extra confirmation, not a lock.
func (s *authService) VerifyTradingPassword(password string) error {
	profile := s.store.Current()
	if !profile.HasTradingPassword() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.TradingPasswordHash), []byte(password)); err != nil {
		return apperrors.ErrInvalidTradingPassword
	}
	return nil
}

// SetBiometry toggles the biometric-unlock flag on the profile.
func (s *authService) SetBiometry(ctx context.Context, enabled bool) error {
	_, err := s.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		p.BiometryEnabled = enabled
		return p, nil
	})
	return err
}
