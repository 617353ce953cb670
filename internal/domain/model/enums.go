package model

// NoticeKind selects which message region of the form a notice renders in.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a single line of feedback shown under the form.
type Notice struct {
	Kind NoticeKind
	Text string
}

// FormField names an input of the converter form.
type FormField string

const (
	FieldFromCountry FormField = "inputFromCountry"
	FieldFromAmount  FormField = "inputFromAmount"
	FieldToCountry   FormField = "inputToCountry"
	FieldToAmount    FormField = "inputToAmount"
	FieldReset       FormField = "reset"
)
