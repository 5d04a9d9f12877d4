package pricing

import "strings"

var defaultCurrencies = []Currency{
	{Code: "USD", Name: "US Dollar", Symbol: "$", Decimals: 2, PerUSD: 1},
	{Code: "EUR", Name: "Euro", Symbol: "€", Decimals: 2, PerUSD: 0.92},
	{Code: "GBP", Name: "British Pound", Symbol: "£", Decimals: 2, PerUSD: 0.79},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "CA$", Decimals: 2, PerUSD: 1.36},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$", Decimals: 2, PerUSD: 1.52},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Decimals: 0, PerUSD: 149.5},
	{Code: "NGN", Name: "Nigerian Naira", Symbol: "₦", Decimals: 2, PerUSD: 1550},
	{Code: "GHS", Name: "Ghanaian Cedi", Symbol: "GH₵", Decimals: 2, PerUSD: 15.5},
	{Code: "KES", Name: "Kenyan Shilling", Symbol: "KSh", Decimals: 2, PerUSD: 129},
	{Code: "ZAR", Name: "South African Rand", Symbol: "R", Decimals: 2, PerUSD: 18.4},
}

var euroArea = []string{"AT", "BE", "DE", "ES", "FI", "FR", "IE", "IT", "NL", "PT"}

var paystackLocalFee = Fee{
	PercentBps:      150,
	Fixed:           100_00,
	FixedCurrency:   "NGN",
	Cap:             2000_00,
	CapCurrency:     "NGN",
	WaiveFixedBelow: 2500_00,
}

var defaultMethods = []Method{
	{
		ID:         "card",
		Name:       "Credit / Debit Card",
		Gateway:    GatewayStripe,
		Currencies: []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY"},
		Fee:        Fee{PercentBps: 290, Fixed: 30, FixedCurrency: "USD"},
	},
	{
		ID:         "sepa_debit",
		Name:       "SEPA Direct Debit",
		Gateway:    GatewayStripe,
		Currencies: []string{"EUR"},
		Countries:  euroArea,
		Fee:        Fee{PercentBps: 80, Cap: 500, CapCurrency: "EUR"},
	},
	{
		ID:         "paystack_card",
		Name:       "Card (Paystack)",
		Gateway:    GatewayPaystack,
		Currencies: []string{"NGN", "GHS", "ZAR", "KES", "USD"},
		Countries:  []string{"NG", "GH", "ZA", "KE"},
		Fee:        paystackLocalFee,
	},
	{
		ID:         "bank_transfer",
		Name:       "Bank Transfer",
		Gateway:    GatewayPaystack,
		Currencies: []string{"NGN"},
		Countries:  []string{"NG"},
		Fee:        Fee{PercentBps: 150, Cap: 2000_00, CapCurrency: "NGN"},
	},
	{
		ID:         "ussd",
		Name:       "USSD",
		Gateway:    GatewayPaystack,
		Currencies: []string{"NGN"},
		Countries:  []string{"NG"},
		Fee:        Fee{PercentBps: 150, Cap: 2000_00, CapCurrency: "NGN"},
	},
	{
		ID:         "mobile_money",
		Name:       "Mobile Money",
		Gateway:    GatewayPaystack,
		Currencies: []string{"GHS", "KES"},
		Countries:  []string{"GH", "KE"},
		Fee:        Fee{PercentBps: 195},
	},
}

var countryCurrency = map[string]string{
	"NG": "NGN",
	"GH": "GHS",
	"KE": "KES",
	"ZA": "ZAR",
	"GB": "GBP",
	"CA": "CAD",
	"AU": "AUD",
	"JP": "JPY",
}

var defaultTable = NewTable(defaultCurrencies, defaultMethods)

// Default returns the built-in static pricing table.
func Default() *Table {
	return defaultTable
}

// DefaultCurrency returns the currency a buyer in country pays in by default.
func DefaultCurrency(country string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	if c, ok := countryCurrency[country]; ok {
		return c
	}
	if contains(euroArea, country) {
		return "EUR"
	}
	return BaseCurrency
}

// Channels maps a Paystack method to the channel names Paystack expects.
func Channels(methodID string) []string {
	switch methodID {
	case "paystack_card":
		return []string{"card"}
	case "bank_transfer":
		return []string{"bank_transfer", "bank"}
	case "ussd":
		return []string{"ussd"}
	case "mobile_money":
		return []string{"mobile_money"}
	}
	return nil
}
