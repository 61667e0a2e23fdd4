package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cartfee/internal/cart"
	"github.com/noah-isme/cartfee/internal/common"
	"github.com/noah-isme/cartfee/internal/engine"
	"github.com/noah-isme/cartfee/internal/events"
	"github.com/noah-isme/cartfee/internal/money"
	"github.com/noah-isme/cartfee/internal/rules"
)

// Request is the host-facing contract: a cart snapshot, the customer's
// loyalty data and the selected payment method. Previous fees may be carried
// in so that method switches drop stale surcharge keys.
type Request struct {
	Lines         []RequestLine `json:"lines" validate:"required,min=1,dive"`
	ShippingTotal int64         `json:"shippingTotal" validate:"gte=0"`
	LifetimeSpend int64         `json:"lifetimeSpend" validate:"gte=0"`
	PaymentMethod string        `json:"paymentMethod" validate:"required"`
	PreviousFees  []RequestFee  `json:"previousFees" validate:"omitempty,dive"`
}

// RequestLine is one cart line in a quote request.
type RequestLine struct {
	ProductID  string  `json:"productId" validate:"required,uuid"`
	CategoryID *string `json:"categoryId" validate:"omitempty,uuid"`
	Qty        int     `json:"qty" validate:"required,gt=0"`
	UnitPrice  int64   `json:"unitPrice" validate:"gte=0"`
}

// RequestFee is a fee carried over from a previous cycle.
type RequestFee struct {
	Key     string `json:"key" validate:"required"`
	Label   string `json:"label"`
	Amount  int64  `json:"amount"`
	Taxable bool   `json:"taxable"`
}

// ResponseLine echoes a line with its post-quantity-pricing unit price.
type ResponseLine struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unitPrice"`
	Subtotal  int64  `json:"subtotal"`
}

// ResponseFee is one emitted fee. Amounts are signed minor units.
type ResponseFee struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Amount  int64  `json:"amount"`
	Taxable bool   `json:"taxable"`
}

// Response is the computed quote.
type Response struct {
	Currency string         `json:"currency"`
	Lines    []ResponseLine `json:"lines"`
	Subtotal int64          `json:"subtotal"`
	Shipping int64          `json:"shipping"`
	Fees     []ResponseFee  `json:"fees"`
	Total    int64          `json:"total"`
}

// Service computes quotes against an immutable rule registry. Each request
// gets its own engine instance; carts never share computation state.
type Service struct {
	Registry rules.Registry
	Currency string
	Logger   zerolog.Logger
	Events   *events.Bus
}

// Quote runs one fee computation cycle for the request.
func (s *Service) Quote(ctx context.Context, req Request) (Response, error) {
	in, err := s.toInput(req)
	if err != nil {
		return Response{}, common.NewAppError(common.CodeInvalidInput, err.Error(), http.StatusBadRequest, err)
	}

	eng, err := engine.New(s.Registry)
	if err != nil {
		return Response{}, common.NewAppError(common.CodeInvalidConfig, "rule configuration is invalid", http.StatusInternalServerError, err)
	}
	eng.Logger = &s.Logger
	if s.Events != nil {
		eng.OnFeesChanged = func(fees cart.FeeMap) {
			if _, emitErr := s.Events.Emit(ctx, events.TopicFeesChanged, fees.Sorted()); emitErr != nil {
				s.Logger.Warn().Err(emitErr).Msg("emit fees changed event")
			}
		}
	}

	res, err := eng.Invoke(in)
	switch {
	case errors.Is(err, engine.ErrRecalcPending):
		return Response{}, common.NewAppError(common.CodeRecalcPending, "a recalculation is already in flight", http.StatusConflict, err)
	case errors.Is(err, cart.ErrInvalidInput):
		return Response{}, common.NewAppError(common.CodeInvalidInput, err.Error(), http.StatusBadRequest, err)
	case err != nil:
		return Response{}, common.NewAppError(common.CodeInternal, "fee computation failed", http.StatusInternalServerError, err)
	}

	out := s.toResponse(res)
	if s.Events != nil {
		if _, emitErr := s.Events.Emit(ctx, events.TopicQuoteComputed, out); emitErr != nil {
			s.Logger.Warn().Err(emitErr).Msg("emit quote computed event")
		}
	}
	return out, nil
}

func (s *Service) toInput(req Request) (engine.Input, error) {
	lines := make([]cart.LineItem, 0, len(req.Lines))
	for i, l := range req.Lines {
		pid, err := uuid.Parse(l.ProductID)
		if err != nil {
			return engine.Input{}, fmt.Errorf("line %d: product id: %w", i, err)
		}
		li := cart.LineItem{
			ProductID: pid,
			Qty:       l.Qty,
			UnitPrice: money.New(l.UnitPrice, s.Currency),
		}
		if l.CategoryID != nil && *l.CategoryID != "" {
			cid, err := uuid.Parse(*l.CategoryID)
			if err != nil {
				return engine.Input{}, fmt.Errorf("line %d: category id: %w", i, err)
			}
			li.CategoryID = &cid
		}
		lines = append(lines, li)
	}

	carried := cart.FeeMap{}
	for _, f := range req.PreviousFees {
		carried.Put(cart.Fee{
			Key:     f.Key,
			Label:   f.Label,
			Amount:  money.New(f.Amount, s.Currency),
			Taxable: f.Taxable,
			Origin:  cart.OriginExternal,
		})
	}

	return engine.Input{
		Currency:      s.Currency,
		Lines:         lines,
		Shipping:      money.New(req.ShippingTotal, s.Currency),
		LifetimeSpend: money.New(req.LifetimeSpend, s.Currency),
		PaymentMethod: req.PaymentMethod,
		CarriedFees:   carried,
	}, nil
}

func (s *Service) toResponse(res engine.Result) Response {
	out := Response{
		Currency: s.Currency,
		Subtotal: res.Subtotal.Units,
		Shipping: res.Shipping.Units,
		Total:    res.Total.Units,
	}
	for _, li := range res.Lines {
		out.Lines = append(out.Lines, ResponseLine{
			ProductID: li.ProductID.String(),
			Qty:       li.Qty,
			UnitPrice: li.UnitPrice.Units,
			Subtotal:  li.Subtotal().Units,
		})
	}
	for _, f := range res.Fees.Sorted() {
		out.Fees = append(out.Fees, ResponseFee{
			Key:     f.Key,
			Label:   f.Label,
			Amount:  f.Amount.Units,
			Taxable: f.Taxable,
		})
	}
	return out
}
