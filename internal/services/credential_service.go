package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"

	"promptforge/internal/config"
	apperrors "promptforge/internal/errors"
)

const keyringServiceName = "promptforge"

// CredentialService resolves provider API keys: the environment first, then the OS keyring.
type CredentialService interface {
	APIKey(provider string) (string, error)
	Store(provider, apiKey string) error
	Delete(provider string) error
}

type credentialService struct {
	env  map[string]string
	ring keyring.Keyring
}

// NewCredentialService uses env as the primary source; ring may be nil.
func NewCredentialService(env map[string]string, ring keyring.Keyring) CredentialService {
	if env == nil {
		env = map[string]string{}
	}
	return &credentialService{env: env, ring: ring}
}

// OpenKeyring opens the platform keyring for promptforge credentials.
func OpenKeyring() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName:              keyringServiceName,
		KeychainTrustApplication: true,
	})
}

func (s *credentialService) APIKey(provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", errors.New("provider is required")
	}
	if key := strings.TrimSpace(s.env[provider]); key != "" {
		return key, nil
	}
	if s.ring != nil {
		item, err := s.ring.Get(provider)
		if err == nil && len(item.Data) > 0 {
			return strings.TrimSpace(string(item.Data)), nil
		}
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("read %s key from keyring: %w", provider, err)
		}
	}
	return "", apperrors.NewConfiguration(config.ProviderEnvVar(provider) + " not configured")
}

func (s *credentialService) Store(provider, apiKey string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("API key is empty")
	}
	if s.ring == nil {
		return apperrors.NewConfiguration("keyring is not enabled")
	}
	return s.ring.Set(keyring.Item{
		Key:         provider,
		Data:        []byte(strings.TrimSpace(apiKey)),
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by promptforge",
	})
}

func (s *credentialService) Delete(provider string) error {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return errors.New("provider is required")
	}
	if s.ring == nil {
		return apperrors.NewConfiguration("keyring is not enabled")
	}
	return s.ring.Remove(provider)
}
