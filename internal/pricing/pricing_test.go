package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tbl := Default()
	tests := []struct {
		name     string
		amount   int64
		from, to string
		want     int64
	}{
		{"same currency", 1999, "USD", "USD", 1999},
		{"usd to ngn", 1000, "USD", "NGN", 1550000},
		{"usd to eur", 1000, "USD", "EUR", 920},
		{"usd to gbp", 1000, "USD", "GBP", 790},
		{"usd to zero-decimal jpy", 1000, "USD", "JPY", 1495},
		{"ngn back to usd", 1550000, "NGN", "USD", 1000},
		{"lowercase codes", 1000, "usd", "ngn", 1550000},
		{"zero", 0, "USD", "KES", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tbl.Convert(tt.amount, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertUnsupported(t *testing.T) {
	_, err := Default().Convert(100, "USD", "XYZ")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
	_, err = Default().Convert(100, "BTC", "USD")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestAvailableMethods(t *testing.T) {
	tbl := Default()
	tests := []struct {
		country, currency string
		want              []string
	}{
		{"NG", "", []string{"paystack_card", "bank_transfer", "ussd"}},
		{"NG", "USD", []string{"card", "paystack_card"}},
		{"DE", "EUR", []string{"card", "sepa_debit"}},
		{"DE", "", []string{"card", "sepa_debit"}},
		{"US", "", []string{"card"}},
		{"GH", "GHS", []string{"paystack_card", "mobile_money"}},
		{"KE", "kes", []string{"paystack_card", "mobile_money"}},
		{"US", "NGN", nil},
	}
	for _, tt := range tests {
		t.Run(tt.country+"/"+tt.currency, func(t *testing.T) {
			methods, err := tbl.AvailableMethods(tt.country, tt.currency)
			require.NoError(t, err)
			var ids []string
			for _, m := range methods {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := tbl.AvailableMethods("US", "XYZ")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestDefaultCurrency(t *testing.T) {
	assert.Equal(t, "NGN", DefaultCurrency("ng"))
	assert.Equal(t, "EUR", DefaultCurrency("FR"))
	assert.Equal(t, "USD", DefaultCurrency("US"))
	assert.Equal(t, "USD", DefaultCurrency(""))
}

func TestProcessingFee(t *testing.T) {
	tbl := Default()
	method := func(id string) Method {
		m, err := tbl.Method(id)
		require.NoError(t, err)
		return m
	}
	tests := []struct {
		name     string
		method   string
		amount   int64
		currency string
		want     int64
	}{
		{"card usd percent plus fixed", "card", 1000, "USD", 59},
		{"card eur converts fixed", "card", 920, "EUR", 55},
		{"card jpy", "card", 1495, "JPY", 88},
		{"paystack ngn", "paystack_card", 1550000, "NGN", 33250},
		{"paystack ngn fixed waived below threshold", "paystack_card", 155000, "NGN", 2325},
		{"paystack ngn capped", "paystack_card", 31000000, "NGN", 200000},
		{"paystack ghs", "paystack_card", 15500, "GHS", 333},
		{"sepa small", "sepa_debit", 920, "EUR", 7},
		{"sepa capped", "sepa_debit", 92000, "EUR", 500},
		{"mobile money", "mobile_money", 129000, "KES", 2516},
		{"zero amount", "card", 0, "USD", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tbl.ProcessingFee(method(tt.method), tt.amount, tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuote(t *testing.T) {
	tbl := Default()

	q, err := tbl.Quote(1000, 0, "NGN", "paystack_card", "NG")
	require.NoError(t, err)
	assert.Equal(t, GatewayPaystack, q.Gateway)
	assert.Equal(t, int64(1550000), q.Amount)
	assert.Equal(t, int64(33250), q.Fee)
	assert.Equal(t, q.Amount+q.Fee, q.Total)
	assert.Equal(t, 1550.0, q.Rate)

	q, err = tbl.Quote(1500, 500, "usd", "card", "US")
	require.NoError(t, err)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, int64(1000), q.NetUSD)
	assert.Equal(t, int64(1059), q.Total)
}

func TestQuoteDiscountCoversSubtotal(t *testing.T) {
	q, err := Default().Quote(1000, 5000, "EUR", "card", "DE")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), q.DiscountUSD)
	assert.Equal(t, int64(0), q.NetUSD)
	assert.Equal(t, int64(0), q.Fee)
	assert.True(t, q.IsFree())
}

func TestQuoteErrors(t *testing.T) {
	tbl := Default()
	tests := []struct {
		name                      string
		currency, method, country string
		want                      error
	}{
		{"unknown currency", "XYZ", "card", "US", ErrUnsupportedCurrency},
		{"unknown method", "USD", "crypto", "US", ErrUnsupportedMethod},
		{"sepa outside euro area", "EUR", "sepa_debit", "US", ErrMethodUnavailable},
		{"paystack in usd for us buyer", "USD", "paystack_card", "US", ErrMethodUnavailable},
		{"card cannot charge naira", "NGN", "card", "NG", ErrMethodUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tbl.Quote(1000, 0, tt.currency, tt.method, tt.country)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestFormat(t *testing.T) {
	tbl := Default()
	assert.Equal(t, "₦15,500.00", tbl.Format(1550000, "NGN"))
	assert.Equal(t, "¥1,495", tbl.Format(1495, "JPY"))
	assert.Equal(t, "$0.05", tbl.Format(5, "USD"))
	assert.Equal(t, "$1,234,567.89", tbl.Format(123456789, "USD"))
	assert.Equal(t, "-€9.20", tbl.Format(-920, "EUR"))
	assert.Equal(t, "100 XYZ", tbl.Format(100, "xyz"))
}

func TestCurrenciesSorted(t *testing.T) {
	cs := Default().Currencies()
	require.Len(t, cs, 10)
	for i := 1; i < len(cs); i++ {
		assert.Less(t, cs[i-1].Code, cs[i].Code)
	}
}

func TestChannels(t *testing.T) {
	assert.Equal(t, []string{"card"}, Channels("paystack_card"))
	assert.Nil(t, Channels("card"))
}
