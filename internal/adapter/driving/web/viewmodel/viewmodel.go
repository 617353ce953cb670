// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// CountryOption is one entry of a currency <select>.
type CountryOption struct {
	Value    string
	Label    string
	Selected bool
}

// NoticeViewModel is the message line under the form. Kind is one of
// "info", "success" or "error"; an empty Text renders nothing.
type NoticeViewModel struct {
	Kind string
	Text string
}

// ConverterViewModel holds everything the converter form renders. Offline
// shows a hint that conversions are not saved for offline use.
type ConverterViewModel struct {
	FromOptions []CountryOption
	ToOptions   []CountryOption
	FromAmount  string
	ToAmount    string
	FromSymbol  string
	ToSymbol    string
	Notice      NoticeViewModel
	CSRFToken   string
	Offline     bool
}

// UpdateBannerViewModel announces a newer published release.
type UpdateBannerViewModel struct {
	Tag       string
	Name      string
	URL       string
	NotesHTML string
}

// PageViewModel is the full converter page.
type PageViewModel struct {
	Title         string
	Stylesheets   []string
	Scripts       []string
	Converter     ConverterViewModel
	WorkerWaiting bool
	Update        *UpdateBannerViewModel
}
