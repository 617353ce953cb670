// Package pages holds the page-level templ components.
package pages

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/currencyconverter/internal/adapter/driving/web/viewmodel"
)

// Converter renders the converter page body: the update alerts and the form.
func Converter(page vm.PageViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder

		sb.WriteString(`<h1 class="my-4">Currency Converter</h1>`)

		if page.WorkerWaiting {
			sb.WriteString(`<div id="alert" class="alert alert-info d-flex justify-content-between" role="alert">`)
			sb.WriteString(`<span id="alert-message">New version available</span>`)
			sb.WriteString(`<form method="post" action="/app/worker/skip-waiting">`)
			writeCSRF(&sb, page.Converter.CSRFToken)
			sb.WriteString(`<button id="refresh" type="submit" class="btn btn-sm btn-primary">Refresh</button>`)
			sb.WriteString(`<button id="dismiss" type="button" class="btn btn-sm btn-link">Dismiss</button>`)
			sb.WriteString(`</form></div>`)
		}

		if u := page.Update; u != nil {
			sb.WriteString(`<div id="update" class="alert alert-secondary" role="status"><strong>`)
			sb.WriteString(templ.EscapeString(u.Tag))
			sb.WriteString(`</strong> `)
			sb.WriteString(templ.EscapeString(u.Name))
			if u.URL != "" {
				sb.WriteString(` <a href="` + templ.EscapeString(u.URL) + `" rel="noopener" target="_blank">Release notes</a>`)
			}
			if u.NotesHTML != "" {
				sb.WriteString(`<div class="release-notes">` + u.NotesHTML + `</div>`)
			}
			sb.WriteString(`</div>`)
		}

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}

		return ConverterForm(page.Converter).Render(ctx, w)
	})
}

// ConverterForm renders the form alone. It is also the partial returned to
// in-page updates.
func ConverterForm(form vm.ConverterViewModel) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var sb strings.Builder

		sb.WriteString(`<form id="converter" method="post" action="/app/change" autocomplete="off">`)
		writeCSRF(&sb, form.CSRFToken)
		sb.WriteString(`<input type="hidden" name="fromSymbol" value="` + templ.EscapeString(form.FromSymbol) + `">`)
		sb.WriteString(`<input type="hidden" name="toSymbol" value="` + templ.EscapeString(form.ToSymbol) + `">`)

		writeSide(&sb, "From", "inputFromCountry", "inputFromAmount", "fromCurrencySymbol", form.FromOptions, form.FromAmount, form.FromSymbol)
		writeSide(&sb, "To", "inputToCountry", "inputToAmount", "toCurrencySymbol", form.ToOptions, form.ToAmount, form.ToSymbol)

		sb.WriteString(`<div class="d-flex gap-2 mb-3">`)
		sb.WriteString(`<button type="submit" name="field" value="inputFromAmount" class="btn btn-primary">Convert</button>`)
		sb.WriteString(`<button id="reset" type="submit" name="field" value="reset" class="btn btn-outline-secondary">Reset</button>`)
		sb.WriteString(`</div>`)

		writeNotice(&sb, form.Notice)

		if form.Offline {
			sb.WriteString(`<p id="network-only" class="small text-warning">Rates are not saved on this device; conversions need an internet connection.</p>`)
		}

		sb.WriteString(`</form>`)

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func writeSide(sb *strings.Builder, label, selectName, amountName, symbolID string, options []vm.CountryOption, amount, symbol string) {
	sb.WriteString(`<fieldset class="mb-3"><legend>` + label + `</legend>`)

	sb.WriteString(`<select id="` + selectName + `" name="` + selectName + `" class="form-control mb-2">`)
	sb.WriteString(`<option value="">Select currency</option>`)
	for _, opt := range options {
		sb.WriteString(`<option value="` + templ.EscapeString(opt.Value) + `"`)
		if opt.Selected {
			sb.WriteString(` selected`)
		}
		sb.WriteString(`>` + templ.EscapeString(opt.Label) + `</option>`)
	}
	sb.WriteString(`</select>`)

	sb.WriteString(`<div class="input-group"><span id="` + symbolID + `" class="input-group-text">`)
	sb.WriteString(templ.EscapeString(symbol))
	sb.WriteString(`</span><input id="` + amountName + `" name="` + amountName + `" type="number" min="0" step="any" class="form-control" value="`)
	sb.WriteString(templ.EscapeString(amount))
	sb.WriteString(`"></div></fieldset>`)
}

func writeNotice(sb *strings.Builder, n vm.NoticeViewModel) {
	info, success, failure := "", "", ""
	switch n.Kind {
	case "success":
		success = n.Text
	case "error":
		failure = n.Text
	default:
		info = n.Text
	}

	sb.WriteString(`<p id="message" class="text-muted">` + templ.EscapeString(info) + `</p>`)
	sb.WriteString(`<p id="success-message" class="text-success">` + templ.EscapeString(success) + `</p>`)
	sb.WriteString(`<p id="error-message" class="text-danger">` + templ.EscapeString(failure) + `</p>`)
}

func writeCSRF(sb *strings.Builder, token string) {
	if token == "" {
		return
	}
	sb.WriteString(`<input type="hidden" name="csrf_token" value="` + templ.EscapeString(token) + `">`)
}
