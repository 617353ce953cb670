package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CountryResponse is the JSON representation of a supported currency.
type CountryResponse struct {
	CurrencyID  string `json:"currency_id"`
	CountryName string `json:"country_name"`
	Symbol      string `json:"symbol"`
}

func toCountryResponses(countries []model.CountryEntry) []CountryResponse {
	resp := make([]CountryResponse, 0, len(countries))
	for _, c := range countries {
		resp = append(resp, CountryResponse{
			CurrencyID:  c.CurrencyID,
			CountryName: c.CountryName,
			Symbol:      c.Symbol,
		})
	}
	return resp
}

// ConvertQuery holds the validated query parameters of GET /api/v1/convert.
type ConvertQuery struct {
	From   string `validate:"required,alphanum,max=10"`
	To     string `validate:"required,alphanum,max=10"`
	Amount string `validate:"required,numeric"`
}

// ConversionResponse is the JSON representation of a conversion.
type ConversionResponse struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Amount  decimal.Decimal `json:"amount"`
	Rate    float64         `json:"rate"`
	Result  decimal.Decimal `json:"result"`
	Message string          `json:"message"`
}

func toConversionResponse(c model.Conversion) ConversionResponse {
	return ConversionResponse{
		From:    c.From,
		To:      c.To,
		Amount:  c.Amount,
		Rate:    c.Rate,
		Result:  c.Result,
		Message: c.Message(),
	}
}

// SessionRequest is the body of PUT /api/v1/session.
type SessionRequest struct {
	FromCountry string          `json:"from_country" validate:"omitempty,alphanum,max=10"`
	FromAmount  decimal.Decimal `json:"from_amount"`
	FromSymbol  string          `json:"from_symbol" validate:"max=8"`
	ToCountry   string          `json:"to_country" validate:"omitempty,alphanum,max=10"`
	ToAmount    decimal.Decimal `json:"to_amount"`
	ToSymbol    string          `json:"to_symbol" validate:"max=8"`
}

func (r SessionRequest) toModel() model.SessionState {
	state := model.SessionState{
		FromCountry: r.FromCountry,
		FromAmount:  r.FromAmount,
		FromSymbol:  r.FromSymbol,
		ToCountry:   r.ToCountry,
		ToAmount:    r.ToAmount,
		ToSymbol:    r.ToSymbol,
	}
	if state.FromSymbol == "" {
		state.FromSymbol = model.DefaultSymbol
	}
	if state.ToSymbol == "" {
		state.ToSymbol = model.DefaultSymbol
	}
	return state
}

// SessionResponse is the JSON representation of the saved form state.
type SessionResponse struct {
	FromCountry string          `json:"from_country"`
	FromAmount  decimal.Decimal `json:"from_amount"`
	FromSymbol  string          `json:"from_symbol"`
	ToCountry   string          `json:"to_country"`
	ToAmount    decimal.Decimal `json:"to_amount"`
	ToSymbol    string          `json:"to_symbol"`
	Restored    bool            `json:"restored"`
}

func toSessionResponse(s model.SessionState, restored bool) SessionResponse {
	return SessionResponse{
		FromCountry: s.FromCountry,
		FromAmount:  s.FromAmount,
		FromSymbol:  s.FromSymbol,
		ToCountry:   s.ToCountry,
		ToAmount:    s.ToAmount,
		ToSymbol:    s.ToSymbol,
		Restored:    restored,
	}
}

// WorkerMessageRequest is the body of POST /api/v1/worker/messages.
type WorkerMessageRequest struct {
	Action string `json:"action" validate:"required,max=64"`
}

// WorkerResponse describes the static asset cache worker.
type WorkerResponse struct {
	Cache string   `json:"cache"`
	State string   `json:"state"`
	URLs  []string `json:"urls"`
}

// UpdateResponse describes the latest published release.
type UpdateResponse struct {
	Current     string `json:"current"`
	Available   bool   `json:"available"`
	Latest      string `json:"latest,omitempty"`
	Name        string `json:"name,omitempty"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Storage modes reported by the health endpoint.
const (
	StorageSQLite      = "sqlite"
	StorageNetworkOnly = "network-only"
)

// HealthResponse is the JSON representation of a health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version"`
	Storage string `json:"storage"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
