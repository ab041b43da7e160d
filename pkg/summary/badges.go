package summary

import "strings"

// RiskLevel classifies a success probability for the metrics panel.
type RiskLevel string

const (
	RiskSuccess RiskLevel = "success"
	RiskWarning RiskLevel = "warning"
	RiskDanger  RiskLevel = "danger"
)

// RiskLevelOf maps p to success (>= 0.8), warning (>= 0.6) or danger.
func RiskLevelOf(p float64) RiskLevel {
	switch {
	case p >= highProbability:
		return RiskSuccess
	case p >= moderateProbability:
		return RiskWarning
	default:
		return RiskDanger
	}
}

// Color returns the panel color of the level.
func (l RiskLevel) Color() string {
	switch l {
	case RiskSuccess:
		return "#1B4332"
	case RiskWarning:
		return "#6D4C41"
	default:
		return "#4A148C"
	}
}

// Badge is the delivery-type badge class.
type Badge string

const (
	BadgeExpress  Badge = "express"
	BadgeStandard Badge = "standard"
	BadgeOther    Badge = "other"
)

// DeliveryBadge maps the service's delivery type label to a badge class.
func DeliveryBadge(deliveryType string) Badge {
	switch strings.ToUpper(strings.TrimSpace(deliveryType)) {
	case "EXPRESS":
		return BadgeExpress
	case "STANDARD":
		return BadgeStandard
	default:
		return BadgeOther
	}
}

// Icon is the glyph printed before the delivery type.
func (b Badge) Icon() string {
	switch b {
	case BadgeExpress:
		return "⚡"
	case BadgeStandard:
		return "📦"
	default:
		return "📋"
	}
}

// Color is the badge background.
func (b Badge) Color() string {
	switch b {
	case BadgeExpress:
		return "#1B4332"
	case BadgeStandard:
		return "#6D4C41"
	default:
		return "#2D5016"
	}
}
