package quote_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cartfee/internal/common"
	"github.com/noah-isme/cartfee/internal/events"
	"github.com/noah-isme/cartfee/internal/quote"
	"github.com/noah-isme/cartfee/internal/rules"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func testService() *quote.Service {
	return &quote.Service{
		Registry: rules.Registry{
			Tiers: []rules.LoyaltyTier{
				{Label: "VIP", Threshold: 100_000, RateBps: 1_000},
			},
			Surcharges: []rules.SurchargeRule{
				{Method: "credit_card", Label: "Credit card surcharge", RateBps: 300},
			},
		},
		Currency: "USD",
		Logger:   zerolog.Nop(),
	}
}

func TestQuoteComputesFees(t *testing.T) {
	svc := testService()

	resp, err := svc.Quote(context.Background(), quote.Request{
		Lines: []quote.RequestLine{
			{ProductID: uuid.NewString(), Qty: 1, UnitPrice: 50_000},
		},
		LifetimeSpend: 200_000,
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	require.Equal(t, "USD", resp.Currency)
	require.Equal(t, int64(50_000), resp.Subtotal)
	require.Len(t, resp.Fees, 2)
	// Sorted by key: surcharge:credit_card sorts after vip_discount.
	require.Equal(t, "surcharge:credit_card", resp.Fees[0].Key)
	require.Equal(t, int64(1_350), resp.Fees[0].Amount)
	require.Equal(t, "vip_discount", resp.Fees[1].Key)
	require.Equal(t, int64(-5_000), resp.Fees[1].Amount)
	require.Equal(t, int64(50_000-5_000+1_350), resp.Total)
}

func TestQuoteAppliesQuantityPricing(t *testing.T) {
	product := uuid.New()
	svc := testService()
	svc.Registry.Pricing = []rules.PricingRule{
		{ProductID: ptr(product), MinQty: 5, Kind: rules.KindPercentage, PercentBps: 1_000},
	}

	resp, err := svc.Quote(context.Background(), quote.Request{
		Lines: []quote.RequestLine{
			{ProductID: product.String(), Qty: 5, UnitPrice: 10_000},
		},
		PaymentMethod: "bank_transfer",
	})
	require.NoError(t, err)

	require.Equal(t, int64(45_000), resp.Subtotal)
	require.Equal(t, int64(9_000), resp.Lines[0].UnitPrice)
	require.Empty(t, resp.Fees)
}

func TestQuoteCarriesPreviousFeesAcrossMethodSwitch(t *testing.T) {
	svc := testService()

	resp, err := svc.Quote(context.Background(), quote.Request{
		Lines: []quote.RequestLine{
			{ProductID: uuid.NewString(), Qty: 1, UnitPrice: 50_000},
		},
		LifetimeSpend: 200_000,
		PaymentMethod: "bank_transfer",
		PreviousFees: []quote.RequestFee{
			{Key: "surcharge:credit_card", Label: "Credit card surcharge", Amount: 1_350},
			{Key: "gift_wrap", Label: "Gift wrap", Amount: 200},
		},
	})
	require.NoError(t, err)

	keys := make([]string, 0, len(resp.Fees))
	for _, f := range resp.Fees {
		keys = append(keys, f.Key)
	}
	require.Equal(t, []string{"gift_wrap", "vip_discount"}, keys)
}

func TestQuoteRejectsBadProductID(t *testing.T) {
	svc := testService()

	_, err := svc.Quote(context.Background(), quote.Request{
		Lines:         []quote.RequestLine{{ProductID: "not-a-uuid", Qty: 1, UnitPrice: 100}},
		PaymentMethod: "credit_card",
	})

	require.True(t, common.IsAppError(err))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeInvalidInput, appErr.Code)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestQuoteEmitsEvents(t *testing.T) {
	var topics []string
	svc := testService()
	svc.Events = &events.Bus{Notifiers: []events.Notifier{
		events.NotifierFunc(func(_ context.Context, ev events.Event) error {
			topics = append(topics, ev.Topic)
			return nil
		}),
	}}

	_, err := svc.Quote(context.Background(), quote.Request{
		Lines:         []quote.RequestLine{{ProductID: uuid.NewString(), Qty: 1, UnitPrice: 1_000}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	require.Equal(t, []string{events.TopicFeesChanged, events.TopicQuoteComputed}, topics)
}
