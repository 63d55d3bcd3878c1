package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attack method labels broadcast with synthetic events.
const (
	MethodSandwich     = "Sandwich Attack"
	MethodFrontRunning = "Front-Running"
	MethodBackRunning  = "Back-Running"
	MethodArbitrage    = "Arbitrage"
	MethodLiquidation  = "Liquidation"
)

// AttackMethods is the fixed set of synthetic attack categories.
var AttackMethods = []string{
	MethodSandwich,
	MethodFrontRunning,
	MethodBackRunning,
	MethodArbitrage,
	MethodLiquidation,
}

// Sentinel attack types returned by the analyzer when no real
// assessment is available.
const (
	AttackTypeUnavailable = "unavailable"
	AttackTypeError       = "error"
)

// AttackEvent is one synthetic attack detection, broadcast to every
// connected session. Events are ephemeral and never persisted.
type AttackEvent struct {
	ID             uint64          `json:"id"`
	TxRef          string          `json:"tx_ref"`
	Method         string          `json:"method"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	ValueUnit      string          `json:"value_unit"`
	RiskScore      int             `json:"risk_score"`
	MaxRiskScore   int             `json:"max_risk_score"`
	Rationale      string          `json:"rationale"`
	Status         string          `json:"status"`
	Timestamp      string          `json:"timestamp"`
}

// RiskAssessment is the result of analyzing a single trade description.
// It is produced per call and consumed once by the caller.
type RiskAssessment struct {
	RiskScore  int    `json:"risk_score"`
	AttackType string `json:"attack_type"`
	Rationale  string `json:"rationale"`
}

// TradeStatusProtected is the terminal status assigned to every stored
// trade. No further transitions exist.
const TradeStatusProtected = "submitted_protected"

// ProtectedTrade is the durable record of a trade submitted for
// protected relay. Records are append-only and immutable.
type ProtectedTrade struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RawTransaction string    `json:"raw_transaction" gorm:"type:text;not null" validate:"required"`
	RelayTxHash    string    `json:"relay_tx_hash" gorm:"index"`
	Status         string    `json:"status"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// SubmissionResult is the acknowledgment returned for a protected-trade
// submission.
type SubmissionResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	RelayTxHash string `json:"relay_tx_hash,omitempty"`
	ID          uint   `json:"id,omitempty"`
}
