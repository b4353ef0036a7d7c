package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"flowswap/pkg/client"
	"flowswap/pkg/types"
)

const (
	// FallbackMinAmount is the conservative minimum used when the
	// provider cannot be asked.
	FallbackMinAmount = "0.001"

	currenciesCacheKey = "currencies"
	minAmountKeyPrefix = "min-amount-"
)

// Provider is the part of the exchange API the quote service needs.
type Provider interface {
	EstimatedAmount(ctx context.Context, amount, from, to string) (*client.EstimateResult, error)
	MinimumAmount(ctx context.Context, from, to string) (*client.MinAmountResult, error)
	Currencies(ctx context.Context) ([]client.Currency, error)
}

// Service fetches swap estimates, minimum amounts and currency lists,
// with TTL caching and labeled fallbacks on provider failure. The cache
// is owned by the service, never shared module state.
type Service struct {
	provider Provider
	cache    *gocache.Cache
	log      *zap.Logger

	retryDelay time.Duration

	// injectable for deterministic tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	stale bool
}

// NewService creates a quote service. cacheTTL bounds how long minimum
// amounts and the currency list are reused; retryDelay is the fixed
// delay between estimate retries.
func NewService(provider Provider, cacheTTL, retryDelay time.Duration, log *zap.Logger) *Service {
	return &Service{
		provider:   provider,
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
		log:        log.Named("quote"),
		retryDelay: retryDelay,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stale reports whether the last estimate attempt failed and the caller
// should surface a fallback/stale-rate indicator.
func (s *Service) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Service) setStale(v bool) {
	s.mu.Lock()
	s.stale = v
	s.mu.Unlock()
}

// Estimate asks the provider for the expected output amount of a swap.
// Failures are returned to the caller; use EstimateWithRetry for the
// retry-until-success policy.
func (s *Service) Estimate(ctx context.Context, from, to, amount string) (*types.SwapQuote, error) {
	res, err := s.provider.EstimatedAmount(ctx, amount, from, to)
	if err != nil {
		s.setStale(true)
		return nil, err
	}

	s.setStale(false)
	return &types.SwapQuote{
		FromToken:         from,
		ToToken:           to,
		FromAmount:        amount,
		EstimatedToAmount: res.EstimatedAmount.String(),
		SpeedForecast:     res.SpeedForecast,
		Warning:           res.WarningMessage,
		FetchedAt:         s.now(),
	}, nil
}

// EstimateWithRetry keeps requesting an estimate with a fixed delay
// between attempts until one succeeds or the context is cancelled. Only
// one retry is ever pending at a time; while retrying, Stale reports
// true so callers can show a fallback-rate indicator.
func (s *Service) EstimateWithRetry(ctx context.Context, from, to, amount string) (*types.SwapQuote, error) {
	for {
		q, err := s.Estimate(ctx, from, to, amount)
		if err == nil {
			return q, nil
		}

		s.log.Warn("estimate failed, retrying",
			zap.String("pair", from+"_"+to),
			zap.Duration("delay", s.retryDelay),
			zap.Error(err),
		)

		if serr := s.sleep(ctx, s.retryDelay); serr != nil {
			return nil, fmt.Errorf("estimate retry cancelled: %w", err)
		}
	}
}

// MinimumAmount returns the provider's minimum input for a pair, cached
// per pair. On provider failure it returns a conservative hardcoded
// fallback; the second return value reports whether the fallback was
// used.
func (s *Service) MinimumAmount(ctx context.Context, from, to string) (types.MinimumAmount, bool) {
	key := minAmountKeyPrefix + from + "_" + to
	if cached, ok := s.cache.Get(key); ok {
		return cached.(types.MinimumAmount), false
	}

	res, err := s.provider.MinimumAmount(ctx, from, to)
	if err != nil {
		s.log.Warn("minimum amount lookup failed, using fallback",
			zap.String("pair", from+"_"+to),
			zap.Error(err),
		)
		return types.MinimumAmount{FromToken: from, ToToken: to, MinAmount: FallbackMinAmount}, true
	}

	min := types.MinimumAmount{FromToken: from, ToToken: to, MinAmount: res.MinAmount.String()}
	s.cache.SetDefault(key, min)
	return min, false
}

// fallbackCurrencies is the short list shown when the provider's
// currency list cannot be fetched.
var fallbackCurrencies = []types.Token{
	{ID: "btc", Symbol: "btc", Name: "Bitcoin"},
	{ID: "eth", Symbol: "eth", Name: "Ethereum"},
	{ID: "usdt", Symbol: "usdt", Name: "Tether"},
	{ID: "bnb", Symbol: "bnb", Name: "BNB"},
	{ID: "sol", Symbol: "sol", Name: "Solana"},
	{ID: "usdc", Symbol: "usdc", Name: "USD Coin"},
	{ID: "xrp", Symbol: "xrp", Name: "XRP"},
	{ID: "ada", Symbol: "ada", Name: "Cardano"},
}

// Currencies returns the provider's currency list, cached for the
// configured TTL. On provider failure it returns the hardcoded fallback
// list; the second return value reports whether the fallback was used.
func (s *Service) Currencies(ctx context.Context) ([]types.Token, bool) {
	if cached, ok := s.cache.Get(currenciesCacheKey); ok {
		return cached.([]types.Token), false
	}

	list, err := s.provider.Currencies(ctx)
	if err != nil {
		s.log.Warn("currency list fetch failed, using fallback list", zap.Error(err))
		return fallbackCurrencies, true
	}

	tokens := make([]types.Token, 0, len(list))
	for _, c := range list {
		if c.Ticker == "" {
			continue
		}
		tokens = append(tokens, types.Token{
			ID:       c.Ticker,
			Symbol:   c.Ticker,
			Name:     c.Name,
			ImageURL: c.Image,
		})
	}

	if len(tokens) == 0 {
		s.log.Warn("provider returned empty currency list, using fallback list")
		return fallbackCurrencies, true
	}

	s.cache.SetDefault(currenciesCacheKey, tokens)
	return tokens, false
}
