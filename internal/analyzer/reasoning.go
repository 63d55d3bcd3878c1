package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mevshield/mevshield/internal/config"
	"github.com/mevshield/mevshield/pkg/models"
)

const systemPrompt = "You are an MEV risk analyst. Respond with a single JSON object " +
	`of the form {"risk_score": <integer 0-100>, "attack_type": "<category>", "rationale": "<one sentence>"} ` +
	"and nothing else."

// reasoningAnalyzer scores trades through an OpenAI-compatible
// chat-completions endpoint. One request, one response; no retries, no
// streaming. Every failure path degrades to the error fallback.
type reasoningAnalyzer struct {
	logger *zap.Logger
	cfg    config.AnalyzerConfig
	client *http.Client
}

func newReasoningAnalyzer(logger *zap.Logger, cfg config.AnalyzerConfig) *reasoningAnalyzer {
	return &reasoningAnalyzer{
		logger: logger,
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// assessmentPayload mirrors models.RiskAssessment with pointer fields
// so a response missing any of the three expected fields is detectable.
type assessmentPayload struct {
	RiskScore  *int    `json:"risk_score"`
	AttackType *string `json:"attack_type"`
	Rationale  *string `json:"rationale"`
}

func (r *reasoningAnalyzer) Analyze(ctx context.Context, tradeText string) models.RiskAssessment {
	assessment, err := r.call(ctx, tradeText)
	if err != nil {
		r.logger.Warn("Risk analysis call failed, using fallback assessment", zap.Error(err))
		return errorAssessment(r.cfg)
	}
	return assessment
}

func (r *reasoningAnalyzer) call(ctx context.Context, tradeText string) (models.RiskAssessment, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: promptFor(tradeText)},
		},
	})
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("failed to encode request: %w", err)
	}

	url := strings.TrimSuffix(r.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("reasoning service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.RiskAssessment{}, fmt.Errorf("reasoning service returned status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return models.RiskAssessment{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return models.RiskAssessment{}, fmt.Errorf("response contained no choices")
	}

	return parseAssessment(chat.Choices[0].Message.Content)
}

// promptFor selects the outbound template by input shape: opaque
// transaction tokens get the simulation template, free text gets the
// assessment template.
func promptFor(tradeText string) string {
	if looksLikeTxToken(strings.TrimSpace(tradeText)) {
		return fmt.Sprintf("Simulate an MEV attack scenario against pending transaction %s and score its risk.", tradeText)
	}
	return fmt.Sprintf("Assess the MEV risk of this described trade: %s", tradeText)
}

// parseAssessment decodes the model's reply. The reply must carry all
// three expected fields with a score in [0, 100]; anything else is an
// error and the caller falls back.
func parseAssessment(content string) (models.RiskAssessment, error) {
	content = strings.TrimSpace(content)
	// Models sometimes wrap the object in a markdown fence.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return models.RiskAssessment{}, fmt.Errorf("failed to parse assessment: %w", err)
	}
	if payload.RiskScore == nil || payload.AttackType == nil || payload.Rationale == nil {
		return models.RiskAssessment{}, fmt.Errorf("assessment missing required fields")
	}
	if *payload.RiskScore < 0 || *payload.RiskScore > 100 {
		return models.RiskAssessment{}, fmt.Errorf("assessment risk score %d out of range", *payload.RiskScore)
	}
	if *payload.AttackType == "" || *payload.Rationale == "" {
		return models.RiskAssessment{}, fmt.Errorf("assessment contains empty fields")
	}

	return models.RiskAssessment{
		RiskScore:  *payload.RiskScore,
		AttackType: *payload.AttackType,
		Rationale:  *payload.Rationale,
	}, nil
}
