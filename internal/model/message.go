package model

// CalculationMessage is an informational note attached to a result, for
// example when a statutory cap reduced an amount.
type CalculationMessage struct {
	ID       int      `json:"id"`
	Level    string   `json:"level"`
	Code     string   `json:"code"`
	Category Category `json:"category,omitempty"`
	Message  string   `json:"message"`
}

const LevelInfo = "INFO"
