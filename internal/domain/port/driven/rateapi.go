package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

var (
	// ErrOffline is returned when the remote API cannot be reached. It is the
	// only error class rendered to the user.
	ErrOffline = errors.New("requires internet connection")

	// ErrEmptyResponse means the API answered without usable data.
	ErrEmptyResponse = errors.New("got empty response")
)

// RateAPI is the remote currency API.
type RateAPI interface {
	// CountriesURL is the absolute URL of the countries endpoint. It doubles
	// as the store key for the cached countries payload.
	CountriesURL() string

	// FetchCountries returns the raw "results" object keyed by country code.
	FetchCountries(ctx context.Context) (map[string]model.CountryPayload, error)

	// FetchRates fetches every requested pair in one round trip. Pairs the API
	// does not know are absent from the returned map.
	FetchRates(ctx context.Context, pairs ...model.PairKey) (map[model.PairKey]float64, error)
}
