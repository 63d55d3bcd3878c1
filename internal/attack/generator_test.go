package attack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mevshield/mevshield/internal/config"
	"github.com/mevshield/mevshield/pkg/models"
)

func testConfig() config.AttackConfig {
	return config.AttackConfig{RiskScoreMin: 50, RiskScoreMax: 99}
}

func TestGenerateIncrementsIDs(t *testing.T) {
	gen := NewGenerator(zap.NewNop(), testConfig())

	var last uint64
	for i := 0; i < 100; i++ {
		ev := gen.Generate()
		assert.Greater(t, ev.ID, last, "ids must strictly increase")
		last = ev.ID
	}
}

func TestGenerateStaysWithinRiskBand(t *testing.T) {
	gen := NewGenerator(zap.NewNop(), testConfig())

	for i := 0; i < 200; i++ {
		ev := gen.Generate()
		assert.GreaterOrEqual(t, ev.RiskScore, 50)
		assert.LessOrEqual(t, ev.RiskScore, 99)
		assert.Equal(t, 100, ev.MaxRiskScore)
	}
}

func TestGenerateShapesEvent(t *testing.T) {
	gen := NewGenerator(zap.NewNop(), testConfig())
	ev := gen.Generate()

	assert.Contains(t, models.AttackMethods, ev.Method)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, ev.TxRef)
	assert.Equal(t, "ETH", ev.ValueUnit)
	assert.True(t, ev.EstimatedValue.IsPositive())
	assert.NotEmpty(t, ev.Rationale)
	assert.Equal(t, EventStatus, ev.Status)
	assert.NotEmpty(t, ev.Timestamp)
}

func TestGenerateTxRefsDistinctWithinSession(t *testing.T) {
	gen := NewGenerator(zap.NewNop(), testConfig())

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		ev := gen.Generate()
		_, dup := seen[ev.TxRef]
		assert.False(t, dup, "tx refs should not collide within a session")
		seen[ev.TxRef] = struct{}{}
	}
}

func TestGenerateRespectsConfiguredBand(t *testing.T) {
	gen := NewGenerator(zap.NewNop(), config.AttackConfig{RiskScoreMin: 70, RiskScoreMax: 70})
	for i := 0; i < 20; i++ {
		assert.Equal(t, 70, gen.Generate().RiskScore)
	}
}
