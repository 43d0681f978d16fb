package bootstrap

import (
	"context"
	"strings"

	appconfig "github.com/wolfman30/healthhub-platform/internal/config"
	"github.com/wolfman30/healthhub-platform/internal/symptoms"
	"github.com/wolfman30/healthhub-platform/pkg/logging"
)

// BuildDictionary loads the configured symptom dictionary. Any load failure
// falls back to the built-in table so classification keeps working.
func BuildDictionary(ctx context.Context, cfg *appconfig.Config, loader *symptoms.DictionaryLoader, logger *logging.Logger) symptoms.Dictionary {
	if logger == nil {
		logger = logging.Default()
	}
	uri := ""
	if cfg != nil {
		uri = strings.TrimSpace(cfg.SymptomDictionaryURI)
	}
	if uri == "" {
		return symptoms.DefaultDictionary()
	}
	if loader == nil {
		loader = symptoms.NewDictionaryLoader(nil)
	}

	dict, err := loader.Load(ctx, uri)
	if err != nil {
		logger.Warn("symptom dictionary unavailable; using built-in table", "uri", uri, "error", err)
		return symptoms.DefaultDictionary()
	}
	logger.Info("symptom dictionary loaded", "uri", uri, "keywords", len(dict))
	return dict
}
