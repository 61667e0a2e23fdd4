package rules_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cartfee/internal/rules"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadValidFile(t *testing.T) {
	path := writeRules(t, `{
		"loyaltyTiers": [
			{"label": "Silver", "threshold": 100000, "rateBps": 500},
			{"label": "Gold", "threshold": 500000, "rateBps": 1000, "minOrder": 2000}
		],
		"surcharges": [
			{"method": "credit_card", "label": "Credit card surcharge", "rateBps": 300},
			{"method": "bank_transfer", "rateBps": 0}
		],
		"pricing": [
			{"productId": "7a9db5a6-29db-4a21-b0c3-2ad525b06b37", "minQty": 5, "kind": "percentage", "percentBps": 1000},
			{"categoryId": "b2c5a944-52cd-4e19-8b14-9c6a71a01d52", "minQty": 10, "kind": "fixed", "amount": 250}
		]
	}`)

	reg, err := rules.Load(path)
	require.NoError(t, err)
	require.Len(t, reg.Tiers, 2)
	require.Len(t, reg.Surcharges, 2)
	require.Len(t, reg.Pricing, 2)
	require.Equal(t, int64(2_000), reg.Tiers[1].MinOrder)
	require.NotNil(t, reg.Pricing[0].ProductID)
	require.NotNil(t, reg.Pricing[1].CategoryID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := rules.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.True(t, errors.Is(err, rules.ErrInvalidConfig))
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := writeRules(t, `{"loyaltyTiers": [`)
	_, err := rules.Load(path)
	require.True(t, errors.Is(err, rules.ErrInvalidConfig))
}

func TestLoadRejectsBadProductID(t *testing.T) {
	path := writeRules(t, `{"pricing": [{"productId": "not-a-uuid", "minQty": 5, "kind": "fixed", "amount": 10}]}`)
	_, err := rules.Load(path)
	require.True(t, errors.Is(err, rules.ErrInvalidConfig))
}

func TestLoadRunsValidation(t *testing.T) {
	path := writeRules(t, `{"loyaltyTiers": [{"threshold": 100, "rateBps": 10000}]}`)
	_, err := rules.Load(path)
	require.True(t, errors.Is(err, rules.ErrInvalidConfig))
}
