package model

// FormState is everything the converter form renders. Offline is set when
// no local store is available, so conversions always need the network.
type FormState struct {
	Session   SessionState
	Countries []CountryEntry
	Notice    Notice
	Offline   bool
}

// NoticeSelectCountries prompts the user to pick both currencies.
const NoticeSelectCountries = "Select countries"

// NoticeUnexpectedError replaces error text that is not meant for the user.
const NoticeUnexpectedError = "Something went wrong, please try again"
