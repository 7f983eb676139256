package ai

import "github.com/sebkrier/alexandria-sub000/types"

// New builds a Provider for a configured provider family. The API key
// arrives already decrypted; this package never sees ciphertext.
func New(providerType, apiKey, modelID string) (Provider, error) {
	if apiKey == "" {
		return nil, &types.ProviderConfigurationError{Reason: "provider has no API key"}
	}
	switch providerType {
	case "anthropic":
		return NewAnthropic(apiKey, modelID), nil
	case "openai":
		return NewOpenAI(apiKey, modelID), nil
	case "google":
		return NewGoogle(apiKey, modelID), nil
	default:
		return nil, &types.ProviderConfigurationError{Reason: "unknown provider type " + providerType}
	}
}
