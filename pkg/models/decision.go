package models

import "strings"

// Decision is the classifier's verdict for routing one user turn.
type Decision string

// Decision values.
const (
	DecisionTool               Decision = "tool"
	DecisionNoTool             Decision = "no_tool"
	DecisionAskClarification   Decision = "ask_clarification"
	DecisionInappropriateBlock Decision = "inappropriate_block"
	DecisionGibberish          Decision = "gibberish"
)

// ParseDecision maps raw classifier output onto a Decision.
// Out-of-vocabulary values fall back to DecisionNoTool so an
// imaginative classifier can never stall a request.
func ParseDecision(raw string) Decision {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionTool:
		return DecisionTool
	case DecisionNoTool:
		return DecisionNoTool
	case DecisionAskClarification:
		return DecisionAskClarification
	case DecisionInappropriateBlock:
		return DecisionInappropriateBlock
	case DecisionGibberish:
		return DecisionGibberish
	default:
		return DecisionNoTool
	}
}
