package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Rebalancer-Backend/internal/repository"
)

// quoteAPIKeySetting is the system_setting key holding the fernet-encrypted
// quote provider API key.
const quoteAPIKeySetting = "quote_api_key"

// SettingsService manages runtime settings, most notably the quote provider
// API key which is stored fernet-encrypted at rest.
//
// The ALPHAVANTAGE_API_KEY environment variable, when set, overrides the
// stored key; the stored key exists so deployments can rotate the key through
// the API without a restart.
type SettingsService struct {
	settingRepo *repository.SettingRepository
	envAPIKey   string
	fernetKeys  []*fernet.Key
}

// NewSettingsService creates a new SettingsService. fernetKey may be empty, in
// which case storing a key through the API is rejected and only the
// environment key is usable.
func NewSettingsService(settingRepo *repository.SettingRepository, envAPIKey, fernetKey string) (*SettingsService, error) {
	s := &SettingsService{
		settingRepo: settingRepo,
		envAPIKey:   envAPIKey,
	}

	if fernetKey != "" {
		keys, err := fernet.DecodeKeys(fernetKey)
		if err != nil {
			return nil, fmt.Errorf("invalid fernet key: %w", err)
		}
		s.fernetKeys = keys
	}

	return s, nil
}

// SetQuoteAPIKey encrypts and stores the quote provider API key.
func (s *SettingsService) SetQuoteAPIKey(ctx context.Context, apiKey string) error {
	if len(s.fernetKeys) == 0 {
		return fmt.Errorf("%w: FERNET_KEY not configured", apperrors.ErrFailedToStoreAPIKey)
	}

	token, err := fernet.EncryptAndSign([]byte(apiKey), s.fernetKeys[0])
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToStoreAPIKey, err)
	}

	if err := s.settingRepo.Set(ctx, quoteAPIKeySetting, string(token)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToStoreAPIKey, err)
	}

	return nil
}

// QuoteAPIKey returns the quote provider API key: the environment override if
// set, otherwise the decrypted stored key.
func (s *SettingsService) QuoteAPIKey(ctx context.Context) (string, error) {
	if s.envAPIKey != "" {
		return s.envAPIKey, nil
	}

	token, err := s.settingRepo.Get(ctx, quoteAPIKeySetting)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrAPIKeyNotConfigured
	}
	if err != nil {
		return "", err
	}

	if len(s.fernetKeys) == 0 {
		return "", apperrors.ErrAPIKeyNotConfigured
	}

	// TTL 0: stored keys do not expire.
	apiKey := fernet.VerifyAndDecrypt([]byte(token), 0, s.fernetKeys)
	if apiKey == nil {
		return "", fmt.Errorf("%w: stored key failed verification", apperrors.ErrAPIKeyNotConfigured)
	}

	return string(apiKey), nil
}
