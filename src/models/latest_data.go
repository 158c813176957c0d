package models

// -----------------------------------------------------------------------------
// Websocket protocol
// -----------------------------------------------------------------------------

const (
	CommandCompute = "compute"
	CommandSymbols = "symbols"

	MessageDashboard = "DASHBOARD"
	MessageSymbols   = "SYMBOLS"
	MessageError     = "ERROR"
)

// MClientCommand is sent by the page to request a recomputation.
type MClientCommand struct {
	Command      string  `json:"command"`
	Symbol       string  `json:"symbol"`
	Start        string  `json:"start"` // YYYY-MM-DD
	End          string  `json:"end"`
	Contribution float64 `json:"contribution"`
}

// MServerMessage is pushed to websocket clients.
type MServerMessage struct {
	Type      string      `json:"type"`
	Dashboard *MDashboard `json:"dashboard,omitempty"`
	Symbols   []string    `json:"symbols,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp int64       `json:"timestamp"`
}
