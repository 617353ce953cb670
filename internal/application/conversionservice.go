package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ericfisherdev/currencyconverter/internal/domain/model"
	"github.com/ericfisherdev/currencyconverter/internal/domain/port/driven"
)

// ConversionService answers country and rate lookups from the local store
// first and falls back to the remote API, writing fresh answers back in the
// background.
type ConversionService struct {
	store        driven.KeyValueStore
	api          driven.RateAPI
	bg           *BackgroundTasks
	ratesTTL     time.Duration
	countriesTTL time.Duration
	logger       *slog.Logger
}

// NewConversionService creates a ConversionService. A nil store runs the
// service in network-only mode. A TTL of zero means cached entries never
// go stale.
func NewConversionService(
	store driven.KeyValueStore,
	api driven.RateAPI,
	bg *BackgroundTasks,
	ratesTTL time.Duration,
	countriesTTL time.Duration,
) *ConversionService {
	if bg == nil {
		bg = NewBackgroundTasks(16)
	}

	return &ConversionService{
		store:        store,
		api:          api,
		bg:           bg,
		ratesTTL:     ratesTTL,
		countriesTTL: countriesTTL,
		logger:       slog.Default(),
	}
}

// Offline reports whether the service runs without a local store.
func (s *ConversionService) Offline() bool {
	return s.store == nil
}

// Wait blocks until pending write-backs have finished.
func (s *ConversionService) Wait() {
	s.bg.Wait()
}

// WriteBackErrors exposes failures of detached write-backs.
func (s *ConversionService) WriteBackErrors() <-chan error {
	return s.bg.Errors()
}

// FetchCountries returns the supported countries sorted by name.
func (s *ConversionService) FetchCountries(ctx context.Context) ([]model.CountryEntry, error) {
	ctx, span := tracer.Start(ctx, "ConversionService.FetchCountries")
	defer span.End()

	key := s.api.CountriesURL()

	cached, fresh := s.cachedCountries(ctx, key)
	if fresh {
		countriesHits.Inc()
		span.SetAttributes(attribute.String("cache.result", "hit"))
		return model.CountriesFromPayload(cached), nil
	}

	results, err := s.api.FetchCountries(ctx)
	if err != nil {
		networkErrors.Inc()
		if cached != nil && !errors.Is(err, driven.ErrEmptyResponse) {
			countriesStale.Inc()
			s.logger.Warn("serving stale countries", "error", err)
			span.SetAttributes(attribute.String("cache.result", "stale"))
			return model.CountriesFromPayload(cached), nil
		}
		recordSpanError(span, err)
		return nil, fmt.Errorf("fetch countries: %w", err)
	}

	countriesMisses.Inc()
	span.SetAttributes(attribute.String("cache.result", "miss"))

	if s.store != nil {
		s.bg.Go(ctx, "countries", func(ctx context.Context) error {
			if _, err := s.store.Set(ctx, key, results); err != nil {
				return fmt.Errorf("store countries: %w", err)
			}
			return nil
		})
	}

	return model.CountriesFromPayload(results), nil
}

// cachedCountries reads the stored countries payload. It returns nil when
// nothing usable is stored; fresh reports whether the payload is within TTL.
func (s *ConversionService) cachedCountries(ctx context.Context, key string) (map[string]model.CountryPayload, bool) {
	if s.store == nil {
		return nil, false
	}

	rec, err := s.store.Get(ctx, key)
	if err != nil {
		storeErrors.Inc()
		s.logger.Warn("failed to read countries from store", "error", err)
		return nil, false
	}
	if rec == nil {
		return nil, false
	}

	var results map[string]model.CountryPayload
	if err := rec.Decode(&results); err != nil {
		s.logger.Warn("discarding unreadable countries record", "error", err)
		return nil, false
	}
	if len(results) == 0 {
		return nil, false
	}

	return results, !rec.IsStale(time.Now(), s.countriesTTL)
}

// Convert converts amount from one currency to another. It returns nil
// without error when there is nothing to convert or the API knows no rate
// for the pair.
func (s *ConversionService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*model.Conversion, error) {
	if from == "" || to == "" || amount.IsZero() {
		return nil, nil
	}

	key := model.NewPairKey(from, to)

	ctx, span := tracer.Start(ctx, "ConversionService.Convert",
		trace.WithAttributes(attribute.String("pair", key.String())))
	defer span.End()

	cached, fresh := s.cachedRate(ctx, key)
	if fresh {
		ratesHits.Inc()
		span.SetAttributes(attribute.String("cache.result", "hit"))
		return newConversion(from, to, amount, cached), nil
	}

	rates, err := s.api.FetchRates(ctx, key, key.Reciprocal())
	if err != nil {
		networkErrors.Inc()
		if cached > 0 {
			ratesStale.Inc()
			s.logger.Warn("serving stale rate", "pair", key, "error", err)
			span.SetAttributes(attribute.String("cache.result", "stale"))
			return newConversion(from, to, amount, cached), nil
		}
		recordSpanError(span, err)
		return nil, fmt.Errorf("convert %s: %w", key, err)
	}

	ratesMisses.Inc()
	span.SetAttributes(attribute.String("cache.result", "miss"))

	s.storeRates(ctx, key, rates)

	rate, ok := rates[key]
	if !ok || rate == 0 {
		s.logger.Info("no rate available", "pair", key)
		return nil, nil
	}

	return newConversion(from, to, amount, rate), nil
}

// cachedRate returns the stored rate for key, or 0 when none is stored.
func (s *ConversionService) cachedRate(ctx context.Context, key model.PairKey) (float64, bool) {
	if s.store == nil {
		return 0, false
	}

	rec, err := s.store.Get(ctx, key.String())
	if err != nil {
		storeErrors.Inc()
		s.logger.Warn("failed to read rate from store", "pair", key, "error", err)
		return 0, false
	}
	if rec == nil {
		return 0, false
	}

	var rate float64
	if err := rec.Decode(&rate); err != nil {
		s.logger.Warn("discarding unreadable rate record", "pair", key, "error", err)
		return 0, false
	}
	if rate == 0 {
		return 0, false
	}

	return rate, !rec.IsStale(time.Now(), s.ratesTTL)
}

// storeRates persists the pair and its reciprocal one after the other in a
// detached task.
func (s *ConversionService) storeRates(ctx context.Context, key model.PairKey, rates map[model.PairKey]float64) {
	if s.store == nil || len(rates) == 0 {
		return
	}

	pairs := []model.PairKey{key}
	if rk := key.Reciprocal(); rk != key {
		pairs = append(pairs, rk)
	}

	s.bg.Go(ctx, "rates:"+key.String(), func(ctx context.Context) error {
		var errs []error
		for _, pk := range pairs {
			rate, ok := rates[pk]
			if !ok {
				continue
			}
			if _, err := s.store.Set(ctx, pk.String(), rate); err != nil {
				errs = append(errs, fmt.Errorf("store rate %s: %w", pk, err))
			}
		}
		return errors.Join(errs...)
	})
}

func newConversion(from, to string, amount decimal.Decimal, rate float64) *model.Conversion {
	return &model.Conversion{
		From:   from,
		To:     to,
		Amount: amount,
		Rate:   rate,
		Result: model.ConvertAmount(rate, amount),
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
