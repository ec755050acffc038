// Package llm wraps the generative model used to enrich products in-process.
package llm

// ModelTier represents the capability level of a model
type ModelTier string

const (
	// TierLite is for short single-facet requests
	TierLite ModelTier = "lite"
	// TierStandard is for full multi-facet enrichment
	TierStandard ModelTier = "standard"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider
const ProviderGemini Provider = "gemini"

// Config holds the model configuration
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default Gemini configuration
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		Temperature: 0.4,
	}
}

// GetModel returns the model name for a tier, falling back to the standard
// model and then the lite model.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of c with model set for tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return next
}
