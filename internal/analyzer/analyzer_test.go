package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mevshield/mevshield/internal/config"
	"github.com/mevshield/mevshield/pkg/models"
)

func baseConfig() config.AnalyzerConfig {
	return config.AnalyzerConfig{
		Model:         "test-model",
		Timeout:       2 * time.Second,
		FallbackScore: 50,
	}
}

// chatServer returns an httptest server answering chat-completion
// requests with the given message content.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestAnalyzer(t *testing.T, serverURL string) Analyzer {
	t.Helper()
	cfg := baseConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = serverURL
	return New(zap.NewNop(), cfg)
}

func TestAnalyzeUnconfiguredReturnsUnavailableFallback(t *testing.T) {
	a := New(zap.NewNop(), baseConfig()) // no API key

	got := a.Analyze(context.Background(), "")
	assert.Equal(t, 50, got.RiskScore)
	assert.Equal(t, models.AttackTypeUnavailable, got.AttackType)
	assert.NotEmpty(t, got.Rationale)
}

func TestAnalyzePassesThroughValidAssessment(t *testing.T) {
	srv := chatServer(t, `{"risk_score": 87, "attack_type": "Sandwich Attack", "rationale": "High slippage tolerance."}`)
	defer srv.Close()

	got := newTestAnalyzer(t, srv.URL).Analyze(context.Background(), "swap 100 ETH for USDC with 5% slippage")
	assert.Equal(t, models.RiskAssessment{
		RiskScore:  87,
		AttackType: "Sandwich Attack",
		Rationale:  "High slippage tolerance.",
	}, got)
}

func TestAnalyzeAcceptsFencedJSON(t *testing.T) {
	srv := chatServer(t, "```json\n{\"risk_score\": 12, \"attack_type\": \"none\", \"rationale\": \"Benign transfer.\"}\n```")
	defer srv.Close()

	got := newTestAnalyzer(t, srv.URL).Analyze(context.Background(), "send 1 ETH to a friend")
	assert.Equal(t, 12, got.RiskScore)
	assert.Equal(t, "none", got.AttackType)
}

func TestAnalyzeFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	got := newTestAnalyzer(t, srv.URL).Analyze(context.Background(), "anything")
	assert.Equal(t, 50, got.RiskScore)
	assert.Equal(t, models.AttackTypeError, got.AttackType)
	assert.NotEmpty(t, got.Rationale)
}

func TestAnalyzeFallsBackOnUnreachableService(t *testing.T) {
	got := newTestAnalyzer(t, "http://127.0.0.1:1").Analyze(context.Background(), "anything")
	assert.Equal(t, models.AttackTypeError, got.AttackType)
}

func TestAnalyzeFallsBackOnMalformedContent(t *testing.T) {
	cases := map[string]string{
		"not json":          "the risk is high, trust me",
		"missing fields":    `{"risk_score": 40}`,
		"empty attack type": `{"risk_score": 40, "attack_type": "", "rationale": "x"}`,
		"score out of band": `{"risk_score": 250, "attack_type": "Front-Running", "rationale": "x"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			srv := chatServer(t, content)
			defer srv.Close()

			got := newTestAnalyzer(t, srv.URL).Analyze(context.Background(), "anything")
			assert.Equal(t, 50, got.RiskScore)
			assert.Equal(t, models.AttackTypeError, got.AttackType)
			assert.NotEmpty(t, got.Rationale)
		})
	}
}

func TestPromptSelectionByInputShape(t *testing.T) {
	token := "0xdeadbeefdeadbeefdeadbeef"
	require.True(t, looksLikeTxToken(token))
	assert.Contains(t, promptFor(token), "Simulate")

	assert.False(t, looksLikeTxToken("swap 100 ETH for USDC"))
	assert.Contains(t, promptFor("swap 100 ETH for USDC"), "Assess")

	// Short hex prefixes are not opaque tokens.
	assert.False(t, looksLikeTxToken("0xabc"))
}

func TestFallbackScoreIsConfigurable(t *testing.T) {
	cfg := baseConfig()
	cfg.FallbackScore = 75
	got := New(zap.NewNop(), cfg).Analyze(context.Background(), "anything")
	assert.Equal(t, 75, got.RiskScore)
}
