package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/cartfee/internal/cart"
	"github.com/noah-isme/cartfee/internal/loyalty"
	"github.com/noah-isme/cartfee/internal/money"
	"github.com/noah-isme/cartfee/internal/obs"
	"github.com/noah-isme/cartfee/internal/pricing"
	"github.com/noah-isme/cartfee/internal/rules"
	"github.com/noah-isme/cartfee/internal/surcharge"
)

// ErrRecalcPending is returned when an invoke arrives while a cycle is in
// flight. The caller receives the last stable fee map alongside this error
// and should treat the result as provisional until the in-flight cycle
// completes. The engine rejects rather than queues; rejection is
// deterministic and keeps exactly one computation live.
var ErrRecalcPending = errors.New("engine: recalculation already in flight")

var nopLogger = zerolog.Nop()

// Input carries everything one computation cycle needs. All rule data comes
// from the registry the engine was built with; nothing is fetched mid-cycle.
type Input struct {
	Currency      string
	Lines         []cart.LineItem
	Shipping      money.Money
	LifetimeSpend money.Money
	PaymentMethod string
	// CarriedFees are fees from the previous cycle or from outside the
	// pipeline. Keys owned by the pipeline (the VIP discount and any
	// surcharge key) are cleared and re-derived each cycle; foreign keys
	// pass through untouched.
	CarriedFees cart.FeeMap
}

// Result is the outcome of a successful cycle, or the last stable state when
// the invoke was rejected as re-entrant.
type Result struct {
	Subtotal money.Money
	Shipping money.Money
	Fees     cart.FeeMap
	Total    money.Money
	Lines    []cart.LineItem
}

// Engine orchestrates one cart's fee computation: quantity pricing, then the
// loyalty discount, then the payment-method surcharge, in that fixed order.
// The surcharge stage always sees a base net of the discount emitted in the
// same cycle.
//
// An Engine instance tracks a single cart session. Separate carts get
// separate engines; there is no cross-session state.
type Engine struct {
	Registry rules.Registry
	Logger   *zerolog.Logger
	// OnFeesChanged mimics the host's "totals changed" notification. It
	// fires after the fee map is assembled but before the engine returns to
	// idle, so an invoke issued from inside the callback is rejected with
	// ErrRecalcPending instead of starting a nested cycle.
	OnFeesChanged func(cart.FeeMap)

	guard guard

	mu     sync.Mutex
	stable cart.FeeMap
}

// New validates the registry once and returns an engine bound to it.
func New(reg rules.Registry) (*Engine, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{Registry: reg}, nil
}

// StableFees returns the fee map committed by the most recent successful cycle.
func (e *Engine) StableFees() cart.FeeMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stable.Clone()
}

// State reports whether a cycle is currently in flight.
func (e *Engine) State() State {
	return e.guard.current()
}

// Invoke runs one computation cycle. Cycles are all-or-nothing: on any stage
// error the previously committed fee map is retained and the error is
// returned. Invoking twice with identical inputs yields identical fee maps.
func (e *Engine) Invoke(in Input) (Result, error) {
	if !e.guard.begin() {
		obs.IncEngineReentrantReject()
		e.logger().Warn().Str("state", Computing.String()).Msg("re-entrant recalculation rejected")
		return Result{Fees: e.StableFees()}, ErrRecalcPending
	}
	defer e.guard.end()

	start := time.Now()
	res, err := e.compute(in)
	if err != nil {
		obs.ObserveEngineCycle("error", time.Since(start), 0)
		e.logger().Warn().Err(err).Msg("fee computation cycle failed")
		return Result{Fees: e.StableFees()}, err
	}

	e.mu.Lock()
	e.stable = res.Fees.Clone()
	e.mu.Unlock()

	if e.OnFeesChanged != nil {
		e.OnFeesChanged(res.Fees.Clone())
	}

	obs.ObserveEngineCycle("ok", time.Since(start), len(res.Fees))
	e.logger().Debug().
		Int64("subtotal", res.Subtotal.Units).
		Int64("total", res.Total.Units).
		Int("fees", len(res.Fees)).
		Msg("fee computation cycle committed")
	return res, nil
}

func (e *Engine) compute(in Input) (Result, error) {
	snapshot, err := cart.NewSnapshot(in.Currency, in.Lines, in.Shipping, in.CarriedFees)
	if err != nil {
		return Result{}, err
	}

	// Stage 1: rewrite unit prices from quantity breakpoints, then derive
	// the subtotal from the adjusted lines.
	adjusted, err := snapshot.WithUnitPrices(pricing.ResolveAll(snapshot, e.Registry))
	if err != nil {
		return Result{}, err
	}
	subtotal := adjusted.Subtotal()

	fees := adjusted.Fees()
	clearOwnedKeys(fees)

	// Stage 2: loyalty discount against the post-quantity-pricing subtotal.
	if fee, ok := loyalty.Evaluate(subtotal, in.LifetimeSpend, e.Registry.Tiers); ok {
		fees.Put(fee)
	}

	// Stage 3: surcharge over subtotal + shipping net of this cycle's
	// discounts. Discount amounts are negative, so adding them subtracts.
	base := money.New(subtotal.Units+in.Shipping.Units+fees.DiscountTotal(in.Currency).Units, in.Currency)
	if fee, ok := surcharge.Evaluate(base, in.PaymentMethod, e.Registry); ok {
		fees.Put(fee)
	}

	total := money.New(subtotal.Units+in.Shipping.Units+fees.Total(in.Currency).Units, in.Currency)
	return Result{
		Subtotal: subtotal,
		Shipping: in.Shipping,
		Fees:     fees,
		Total:    total,
		Lines:    adjusted.Lines(),
	}, nil
}

// clearOwnedKeys removes every fee the pipeline owns so the cycle re-derives
// them from scratch. Deleting, not zeroing, is what makes a payment-method
// switch drop the old surcharge key entirely.
func clearOwnedKeys(fees cart.FeeMap) {
	for key := range fees {
		if key == cart.KeyVIPDiscount || cart.IsSurchargeKey(key) {
			delete(fees, key)
		}
	}
}

func (e *Engine) logger() *zerolog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return &nopLogger
}
