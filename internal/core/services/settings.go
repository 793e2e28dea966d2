package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize       = "pipeline.chunk_size"
	keyChunkOverlap    = "pipeline.chunk_overlap"
	keyMaxFileSize     = "pipeline.max_file_size"
	keyRetrievalTopK   = "pipeline.retrieval_top_k_default"
	keyRerankTopK      = "pipeline.rerank_top_k_default"
	keyMaxTopK         = "pipeline.max_top_k"
	keyMaxOutputTokens = "pipeline.max_output_tokens"
	keyTemperature     = "pipeline.temperature"
	keyQueryTimeout    = "pipeline.query_timeout_seconds"
	keyNoAnswerPhrases = "pipeline.no_answer_phrases"
	keyInputCost       = "pipeline.input_cost_per_1k"
	keyOutputCost      = "pipeline.output_cost_per_1k"
	keyInterCaseDelay  = "evaluation.inter_case_delay_ms"
	keyFailurePhrases  = "evaluation.failure_phrases"
	keyVectorBackend   = "vector.backend"
	keyVectorAddress   = "vector.address"
	keyVectorAPIKey    = "vector.api_key"
	keyVectorColl      = "vector.collection"
	keyVectorDims      = "vector.dimensions"
	keyServerAddress   = "server.address"
	keyServerOrigins   = "server.allowed_origins"
)

// Provider roles accepted by SetProvider.
const (
	RoleEmbedding = "embedding"
	RoleLLM       = "llm"
	RoleRerank    = "rerank"
)

// DefaultOllamaURL is used for local providers without a base URL.
const DefaultOllamaURL = "http://localhost:11434"

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindStrings
)

// knownKeys lists every settable key and its value type.
var knownKeys = map[string]valueKind{
	keyChunkSize:       kindInt,
	keyChunkOverlap:    kindInt,
	keyMaxFileSize:     kindInt,
	keyRetrievalTopK:   kindInt,
	keyRerankTopK:      kindInt,
	keyMaxTopK:         kindInt,
	keyMaxOutputTokens: kindInt,
	keyTemperature:     kindFloat,
	keyQueryTimeout:    kindInt,
	keyNoAnswerPhrases: kindStrings,
	keyInputCost:       kindFloat,
	keyOutputCost:      kindFloat,
	keyInterCaseDelay:  kindInt,
	keyFailurePhrases:  kindStrings,
	keyVectorBackend:   kindString,
	keyVectorAddress:   kindString,
	keyVectorAPIKey:    kindString,
	keyVectorColl:      kindString,
	keyVectorDims:      kindInt,
	keyServerAddress:   kindString,
	keyServerOrigins:   kindStrings,
}

func init() {
	for _, role := range []string{RoleEmbedding, RoleLLM, RoleRerank} {
		for _, field := range []string{"provider", "model", "base_url", "api_key"} {
			knownKeys[role+"."+field] = kindString
		}
	}
}

// KnownKeys returns every configuration key SettingsService understands, sorted.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService maps the flat configuration store onto domain.AppSettings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, filling unset keys with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()
	r := reader{store: s.configStore}

	settings := &domain.AppSettings{
		Pipeline: domain.PipelineSettings{
			ChunkSize:       r.integer(keyChunkSize, d.Pipeline.ChunkSize),
			ChunkOverlap:    r.integer(keyChunkOverlap, d.Pipeline.ChunkOverlap),
			MaxFileSizeMB:   r.integer(keyMaxFileSize, d.Pipeline.MaxFileSizeMB),
			RetrievalTopK:   r.integer(keyRetrievalTopK, d.Pipeline.RetrievalTopK),
			RerankTopK:      r.integer(keyRerankTopK, d.Pipeline.RerankTopK),
			MaxTopK:         r.integer(keyMaxTopK, d.Pipeline.MaxTopK),
			MaxOutputTokens: r.integer(keyMaxOutputTokens, d.Pipeline.MaxOutputTokens),
			Temperature:     r.number(keyTemperature, d.Pipeline.Temperature),
			QueryTimeout: time.Duration(r.integer(keyQueryTimeout,
				int(d.Pipeline.QueryTimeout/time.Second))) * time.Second,
			NoAnswerPhrases: r.list(keyNoAnswerPhrases, d.Pipeline.NoAnswerPhrases),
			InputCostPer1K:  r.number(keyInputCost, d.Pipeline.InputCostPer1K),
			OutputCostPer1K: r.number(keyOutputCost, d.Pipeline.OutputCostPer1K),
		},
		Evaluation: domain.EvaluationSettings{
			InterCaseDelay: time.Duration(r.integer(keyInterCaseDelay,
				int(d.Evaluation.InterCaseDelay/time.Millisecond))) * time.Millisecond,
			FailurePhrases: r.list(keyFailurePhrases, d.Evaluation.FailurePhrases),
		},
		Embedding: r.provider(RoleEmbedding, d.Embedding),
		LLM:       r.provider(RoleLLM, d.LLM),
		Rerank:    r.provider(RoleRerank, d.Rerank),
		Vector: domain.VectorSettings{
			Backend:    domain.VectorBackend(r.str(keyVectorBackend, string(d.Vector.Backend))),
			Address:    r.str(keyVectorAddress, d.Vector.Address),
			APIKey:     r.str(keyVectorAPIKey, d.Vector.APIKey),
			Collection: r.str(keyVectorColl, d.Vector.Collection),
			Dimensions: r.integer(keyVectorDims, d.Vector.Dimensions),
		},
		Server: domain.ServerSettings{
			Address:        r.str(keyServerAddress, d.Server.Address),
			AllowedOrigins: r.list(keyServerOrigins, d.Server.AllowedOrigins),
		},
	}

	return settings, nil
}

// Set updates a single configuration key. String values are converted to
// the key's type. The change is rejected if it would leave the pipeline
// settings invalid.
func (s *SettingsService) Set(key string, value any) error {
	kind, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	converted, err := convertValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	preview := &SettingsService{configStore: overlayStore{ConfigStore: s.configStore, key: key, value: converted}}
	if err := preview.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, converted); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Reset unsets a configuration key so it reads as its default. Like Set,
// it is rejected if the default would leave the pipeline invalid.
func (s *SettingsService) Reset(key string) error {
	if _, ok := knownKeys[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	preview := &SettingsService{configStore: overlayStore{ConfigStore: s.configStore, key: key, unset: true}}
	if err := preview.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Delete(key); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}

// SetProvider configures the AI provider for a role.
func (s *SettingsService) SetProvider(role string, provider domain.AIProvider, model, apiKey string) error {
	var allowed []domain.AIProvider
	var defaults map[domain.AIProvider]string

	switch role {
	case RoleEmbedding:
		allowed, defaults = domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels()
	case RoleLLM:
		allowed, defaults = domain.AllLLMProviders(), domain.DefaultLLMModels()
	case RoleRerank:
		allowed = []domain.AIProvider{domain.AIProviderCohere}
		defaults = map[domain.AIProvider]string{domain.AIProviderCohere: "rerank-english-v3.0"}
	default:
		return fmt.Errorf("%w: unknown provider role %q", domain.ErrInvalidInput, role)
	}

	if !slices.Contains(allowed, provider) {
		return fmt.Errorf("%w: provider %s does not support %s", domain.ErrInvalidInput, provider, role)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}
	if model == "" {
		model = defaults[provider]
	}

	baseURL := ""
	if provider == domain.AIProviderOllama {
		baseURL = s.configStore.GetString(role + ".base_url")
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
	}

	values := []struct {
		field string
		value string
	}{
		{"provider", provider.String()},
		{"model", model},
		{"base_url", baseURL},
		{"api_key", apiKey},
	}
	for _, v := range values {
		if err := s.configStore.Set(role+"."+v.field, v.value); err != nil {
			return fmt.Errorf("save %s.%s: %w", role, v.field, err)
		}
	}

	if role == RoleEmbedding {
		if dims, ok := domain.EmbeddingDimensions()[model]; ok {
			if err := s.configStore.Set(keyVectorDims, dims); err != nil {
				return fmt.Errorf("save %s: %w", keyVectorDims, err)
			}
		}
	}
	return nil
}

// Validate checks that the pipeline can be assembled from current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Pipeline.Validate(); err != nil {
		return err
	}
	if !settings.Vector.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", domain.ErrConfiguration, settings.Vector.Backend)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys lists every settable configuration key, sorted.
func (s *SettingsService) Keys() []string {
	return KnownKeys()
}

// ConfigPath returns the backing configuration file.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// reader reads typed values with defaults for missing keys.
type reader struct {
	store driven.ConfigStore
}

func (r reader) str(key, def string) string {
	if v := r.store.GetString(key); v != "" {
		return v
	}
	return def
}

func (r reader) integer(key string, def int) int {
	if _, ok := r.store.Get(key); !ok {
		return def
	}
	return r.store.GetInt(key)
}

func (r reader) number(key string, def float64) float64 {
	v, ok := r.store.Get(key)
	if !ok {
		return def
	}
	f, err := toFloat(v)
	if err != nil {
		return def
	}
	return f
}

func (r reader) list(key string, def []string) []string {
	if v := r.store.GetStringSlice(key); len(v) > 0 {
		return v
	}
	return def
}

func (r reader) provider(role string, def domain.ProviderSettings) domain.ProviderSettings {
	p := domain.ProviderSettings{
		Provider: domain.AIProvider(r.str(role+".provider", string(def.Provider))),
		Model:    r.str(role+".model", def.Model),
		BaseURL:  r.str(role+".base_url", def.BaseURL),
		APIKey:   r.str(role+".api_key", def.APIKey),
	}
	if !p.Provider.IsValid() {
		p.Provider = def.Provider
	}
	return p
}

func convertValue(kind valueKind, value any) (any, error) {
	raw, isString := value.(string)
	switch kind {
	case kindInt:
		if !isString {
			return toInt(value)
		}
		return strconv.Atoi(strings.TrimSpace(raw))
	case kindFloat:
		if !isString {
			return toFloat(value)
		}
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case kindStrings:
		if list, ok := value.([]string); ok {
			return list, nil
		}
		if !isString {
			return nil, fmt.Errorf("expected a list of strings")
		}
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	default:
		if !isString {
			return nil, fmt.Errorf("expected a string")
		}
		return raw, nil
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// overlayStore shows a single pending change on top of a ConfigStore.
// With unset, the key reads as missing.
type overlayStore struct {
	driven.ConfigStore
	key   string
	value any
	unset bool
}

func (o overlayStore) Get(key string) (any, bool) {
	if key == o.key {
		return o.value, !o.unset
	}
	return o.ConfigStore.Get(key)
}

func (o overlayStore) GetString(key string) string {
	if key == o.key {
		s, _ := o.value.(string)
		return s
	}
	return o.ConfigStore.GetString(key)
}

func (o overlayStore) GetInt(key string) int {
	if key == o.key {
		n, _ := toInt(o.value)
		return n
	}
	return o.ConfigStore.GetInt(key)
}

func (o overlayStore) GetStringSlice(key string) []string {
	if key == o.key {
		list, _ := o.value.([]string)
		return list
	}
	return o.ConfigStore.GetStringSlice(key)
}
