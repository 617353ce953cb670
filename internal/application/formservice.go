package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

var (
	// ErrUnknownField is returned for a change to a field the form does not have.
	ErrUnknownField = errors.New("unknown form field")

	// ErrInvalidAmount is returned when an amount field does not hold a number.
	ErrInvalidAmount = errors.New("invalid amount")
)

// FormService applies user edits to the converter form. It owns no state:
// the caller passes the current session in and gets the next one back.
type FormService struct {
	conversions *ConversionService
	sessions    *SessionService
}

// NewFormService creates a FormService.
func NewFormService(conversions *ConversionService, sessions *SessionService) *FormService {
	return &FormService{conversions: conversions, sessions: sessions}
}

// Load builds the initial form: the country list, the restored session and
// a notice describing what the user should do next.
func (s *FormService) Load(ctx context.Context) model.FormState {
	state := model.FormState{
		Session: model.DefaultSessionState(),
		Notice:  model.Notice{Kind: model.NoticeInfo, Text: model.NoticeSelectCountries},
		Offline: s.Offline(),
	}

	countries, err := s.conversions.FetchCountries(ctx)
	if err != nil {
		state.Notice = errorNotice(err)
	}
	state.Countries = countries

	if restored, ok := s.sessions.Restore(ctx); ok {
		state.Session = *restored
	}

	return state
}

// Offline reports whether conversions run without a local store.
func (s *FormService) Offline() bool {
	return s.conversions.Offline()
}

// Countries returns the country list, or nil when it cannot be fetched.
func (s *FormService) Countries(ctx context.Context) []model.CountryEntry {
	countries, err := s.conversions.FetchCountries(ctx)
	if err != nil {
		return nil
	}
	return countries
}

// HandleChange applies value to field and converts in whichever direction
// the change calls for. Every change is saved, including reset.
func (s *FormService) HandleChange(
	ctx context.Context,
	session model.SessionState,
	field model.FormField,
	value string,
) (model.SessionState, model.Notice, error) {
	var notice model.Notice

	switch field {
	case model.FieldFromCountry:
		session.FromCountry = value
		session.FromSymbol = s.symbolFor(ctx, value)
		session, notice = s.convertEither(ctx, session)

	case model.FieldToCountry:
		session.ToCountry = value
		session.ToSymbol = s.symbolFor(ctx, value)
		session, notice = s.convertEither(ctx, session)

	case model.FieldFromAmount:
		amount, err := parseAmount(value)
		if err != nil {
			return session, notice, err
		}
		session.FromAmount = amount
		session, notice = s.convertFromSource(ctx, session)

	case model.FieldToAmount:
		amount, err := parseAmount(value)
		if err != nil {
			return session, notice, err
		}
		session.ToAmount = amount
		session, notice = s.convertFromDestination(ctx, session)

	case model.FieldReset:
		session = model.DefaultSessionState()
		notice = model.Notice{Kind: model.NoticeInfo, Text: model.NoticeSelectCountries}

	default:
		return session, notice, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	s.sessions.Save(ctx, session)

	return session, notice, nil
}

// convertEither converts source to destination when a source amount is set,
// destination to source otherwise.
func (s *FormService) convertEither(ctx context.Context, session model.SessionState) (model.SessionState, model.Notice) {
	if !session.FromAmount.IsZero() {
		return s.convertFromSource(ctx, session)
	}
	return s.convertFromDestination(ctx, session)
}

func (s *FormService) convertFromSource(ctx context.Context, session model.SessionState) (model.SessionState, model.Notice) {
	result, notice := s.convert(ctx, session.FromAmount, session.FromCountry, session.ToCountry)
	if result != nil {
		session.ToAmount = *result
	}
	return session, notice
}

func (s *FormService) convertFromDestination(ctx context.Context, session model.SessionState) (model.SessionState, model.Notice) {
	result, notice := s.convert(ctx, session.ToAmount, session.ToCountry, session.FromCountry)
	if result != nil {
		session.FromAmount = *result
	}
	return session, notice
}

func (s *FormService) convert(ctx context.Context, amount decimal.Decimal, from, to string) (*decimal.Decimal, model.Notice) {
	if from == "" || to == "" {
		return nil, model.Notice{Kind: model.NoticeInfo, Text: model.NoticeSelectCountries}
	}
	if amount.IsZero() {
		return nil, model.Notice{}
	}

	conv, err := s.conversions.Convert(ctx, amount, from, to)
	if err != nil {
		return nil, errorNotice(err)
	}
	if conv == nil {
		return nil, model.Notice{
			Kind: model.NoticeInfo,
			Text: "Value not found for " + model.NewPairKey(from, to).String(),
		}
	}

	return &conv.Result, model.Notice{Kind: model.NoticeSuccess, Text: conv.Message()}
}

func (s *FormService) symbolFor(ctx context.Context, currencyID string) string {
	if currencyID == "" {
		return model.DefaultSymbol
	}

	country, ok := model.FindCountry(s.Countries(ctx), currencyID)
	if !ok || country.Symbol == "" {
		return model.DefaultSymbol
	}
	return country.Symbol
}

// parseAmount reads a form amount. Blank input is zero and negatives clamp
// to zero.
func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	return amount, nil
}

func errorNotice(err error) model.Notice {
	switch {
	case errors.Is(err, driven.ErrOffline):
		return model.Notice{Kind: model.NoticeError, Text: "Requires internet connection"}
	case errors.Is(err, driven.ErrEmptyResponse):
		return model.Notice{Kind: model.NoticeInfo, Text: "Got empty response"}
	default:
		slog.Error("unexpected conversion error", "error", err)
		return model.Notice{Kind: model.NoticeError, Text: model.NoticeUnexpectedError}
	}
}
