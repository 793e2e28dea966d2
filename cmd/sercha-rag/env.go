package main

import (
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// homeEnv relocates config, prompts and data under one directory.
const homeEnv = "SERCHA_RAG_HOME"

// paths are the on-disk locations used by bootstrap. Empty fields use the
// adapters' defaults under ~/.sercha-rag.
type paths struct {
	ConfigDir string
	PromptDir string
	DataDir   string
}

func envPaths(getenv func(string) string) paths {
	home := strings.TrimSpace(getenv(homeEnv))
	if home == "" {
		return paths{}
	}
	return paths{
		ConfigDir: home,
		PromptDir: filepath.Join(home, "prompts"),
		DataDir:   filepath.Join(home, "data"),
	}
}

// providerKeyEnv names the conventional API key variable for each provider.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
	domain.AIProviderGemini:    "GEMINI_API_KEY",
	domain.AIProviderCohere:    "COHERE_API_KEY",
}

// applyEnv overlays API keys from the environment onto settings without
// persisting them. SERCHA_RAG_<ROLE>_API_KEY always wins; the provider's
// conventional variable only fills an empty key.
func applyEnv(settings *domain.AppSettings, getenv func(string) string) {
	overlay := func(role string, p *domain.ProviderSettings) {
		if v := getenv("SERCHA_RAG_" + strings.ToUpper(role) + "_API_KEY"); v != "" {
			p.APIKey = v
			return
		}
		if p.APIKey != "" {
			return
		}
		if name, ok := providerKeyEnv[p.Provider]; ok {
			p.APIKey = getenv(name)
		}
	}

	overlay("embedding", &settings.Embedding)
	overlay("llm", &settings.LLM)
	overlay("rerank", &settings.Rerank)

	if v := getenv("SERCHA_RAG_VECTOR_API_KEY"); v != "" {
		settings.Vector.APIKey = v
	}
}
