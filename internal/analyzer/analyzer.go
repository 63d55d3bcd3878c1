// Package analyzer scores trade descriptions for MEV risk. The real
// adapter calls an external reasoning service; when that is not
// configured or misbehaves in any way, callers still receive a
// well-formed fallback assessment. Analyze never fails outward.
package analyzer

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/mevshield/mevshield/internal/config"
	"github.com/mevshield/mevshield/pkg/models"
)

// Analyzer scores a trade description or transaction token.
type Analyzer interface {
	Analyze(ctx context.Context, tradeText string) models.RiskAssessment
}

// New selects the adapter at construction time: the reasoning-service
// client when an API key is configured, the static fallback otherwise.
// The submission pipeline is identical regardless of which is active.
func New(logger *zap.Logger, cfg config.AnalyzerConfig) Analyzer {
	if cfg.APIKey == "" {
		logger.Info("Analyzer reasoning service not configured, using fallback assessments")
		return &fallbackAnalyzer{cfg: cfg}
	}
	return newReasoningAnalyzer(logger, cfg)
}

// fallbackAnalyzer answers every request with the fixed unavailable
// assessment.
type fallbackAnalyzer struct {
	cfg config.AnalyzerConfig
}

func (f *fallbackAnalyzer) Analyze(ctx context.Context, tradeText string) models.RiskAssessment {
	return models.RiskAssessment{
		RiskScore:  f.cfg.FallbackScore,
		AttackType: models.AttackTypeUnavailable,
		Rationale:  "Risk analysis service is not configured; returning a neutral baseline assessment.",
	}
}

// errorAssessment is returned when the configured call fails or its
// response cannot be parsed into the expected shape.
func errorAssessment(cfg config.AnalyzerConfig) models.RiskAssessment {
	return models.RiskAssessment{
		RiskScore:  cfg.FallbackScore,
		AttackType: models.AttackTypeError,
		Rationale:  "Risk analysis service returned an unusable response; returning a neutral baseline assessment.",
	}
}

var txTokenPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{16,}$`)

// looksLikeTxToken reports whether the input is an opaque transaction
// token rather than a free-text trade description. Tokens get the
// attack-simulation prompt so the synthetic feed can share this entry
// point with user-submitted descriptions.
func looksLikeTxToken(s string) bool {
	return txTokenPattern.MatchString(s)
}
