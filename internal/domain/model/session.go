package model

import "github.com/shopspring/decimal"

// SessionKey is the fixed record key holding the last-used form state.
const SessionKey = "last-session"

// DefaultSymbol is shown next to an amount before a currency is chosen.
const DefaultSymbol = "#"

// SessionState is the persisted form state. Field names in JSON match the
// record layout written by earlier releases.
type SessionState struct {
	FromCountry string          `json:"fromCountry"`
	FromAmount  decimal.Decimal `json:"fromAmount"`
	FromSymbol  string          `json:"fromSymbol"`
	ToCountry   string          `json:"toCountry"`
	ToAmount    decimal.Decimal `json:"toAmount"`
	ToSymbol    string          `json:"toSymbol"`
}

// DefaultSessionState returns the state of a freshly reset form.
func DefaultSessionState() SessionState {
	return SessionState{
		FromAmount: decimal.Zero,
		FromSymbol: DefaultSymbol,
		ToAmount:   decimal.Zero,
		ToSymbol:   DefaultSymbol,
	}
}
