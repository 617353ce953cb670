package model

import (
	"sort"
	"strings"
)

// CountryEntry describes one selectable currency in the UI. Entries are derived
// from the remote countries payload and are never persisted individually.
type CountryEntry struct {
	CurrencyID  string `json:"currencyId"`
	CountryName string `json:"countryName"`
	Symbol      string `json:"symbol"`
}

// CountryPayload is a single value of the remote API's "results" object.
type CountryPayload struct {
	CurrencyID     string `json:"currencyId"`
	Name           string `json:"name"`
	CurrencySymbol string `json:"currencySymbol"`
}

// CountriesFromPayload flattens the keyed API results into entries sorted by
// country name.
func CountriesFromPayload(results map[string]CountryPayload) []CountryEntry {
	countries := make([]CountryEntry, 0, len(results))
	for _, v := range results {
		countries = append(countries, CountryEntry{
			CurrencyID:  v.CurrencyID,
			CountryName: v.Name,
			Symbol:      v.CurrencySymbol,
		})
	}
	SortCountries(countries)
	return countries
}

// SortCountries orders entries by CountryName ascending. Ties are broken by
// CurrencyID so the order is deterministic across map iterations.
func SortCountries(countries []CountryEntry) {
	sort.SliceStable(countries, func(i, j int) bool {
		if c := strings.Compare(countries[i].CountryName, countries[j].CountryName); c != 0 {
			return c < 0
		}
		return countries[i].CurrencyID < countries[j].CurrencyID
	})
}

// FindCountry returns the entry with the given currency ID.
func FindCountry(countries []CountryEntry, currencyID string) (CountryEntry, bool) {
	for _, c := range countries {
		if c.CurrencyID == currencyID {
			return c, true
		}
	}
	return CountryEntry{}, false
}
