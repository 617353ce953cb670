package web

import (
	"fmt"

	vm "github.com/ericfisherdev/currencyconverter/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
)

// toConverterViewModel converts the form state into the converter form view
// model. A zero amount renders as an empty input.
func toConverterViewModel(state model.FormState, csrf string) vm.ConverterViewModel {
	session, notice := state.Session, state.Notice
	return vm.ConverterViewModel{
		FromOptions: toCountryOptions(state.Countries, session.FromCountry),
		ToOptions:   toCountryOptions(state.Countries, session.ToCountry),
		FromAmount:  amountValue(session.FromAmount.String()),
		ToAmount:    amountValue(session.ToAmount.String()),
		FromSymbol:  symbolOrDefault(session.FromSymbol),
		ToSymbol:    symbolOrDefault(session.ToSymbol),
		Notice: vm.NoticeViewModel{
			Kind: string(notice.Kind),
			Text: notice.Text,
		},
		CSRFToken: csrf,
		Offline:   state.Offline,
	}
}

// toCountryOptions builds the <option> list. A selected currency missing
// from the list (e.g. while offline) is kept so the form round-trips it.
func toCountryOptions(countries []model.CountryEntry, selected string) []vm.CountryOption {
	opts := make([]vm.CountryOption, 0, len(countries)+1)
	found := selected == ""

	for _, c := range countries {
		isSelected := c.CurrencyID == selected
		found = found || isSelected
		opts = append(opts, vm.CountryOption{
			Value:    c.CurrencyID,
			Label:    fmt.Sprintf("%s (%s)", c.CountryName, c.CurrencyID),
			Selected: isSelected,
		})
	}

	if !found {
		opts = append(opts, vm.CountryOption{Value: selected, Label: selected, Selected: true})
	}

	return opts
}

// toUpdateBannerViewModel returns nil unless release is newer than the
// running build.
func toUpdateBannerViewModel(release *model.Release, newer bool) *vm.UpdateBannerViewModel {
	if release == nil || !newer {
		return nil
	}

	return &vm.UpdateBannerViewModel{
		Tag:       release.Tag,
		Name:      release.Name,
		URL:       release.URL,
		NotesHTML: RenderMarkdown(release.Notes),
	}
}

func amountValue(s string) string {
	if s == "0" {
		return ""
	}
	return s
}

func symbolOrDefault(s string) string {
	if s == "" {
		return model.DefaultSymbol
	}
	return s
}
