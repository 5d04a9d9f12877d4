// Package pricing holds the static currency and payment method tables used to
// price an order: converting a USD list price into the buyer's currency,
// choosing which gateways can charge it, and layering processing fees on top.
package pricing

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrUnsupportedMethod   = errors.New("unsupported payment method")
	ErrMethodUnavailable   = errors.New("payment method not available for currency or country")
)

// BaseCurrency is the currency course list prices are stored in.
const BaseCurrency = "USD"

// Gateway identifies the payment provider that executes a charge.
type Gateway string

const (
	GatewayStripe   Gateway = "stripe"
	GatewayPaystack Gateway = "paystack"
)

// Currency describes a supported currency. PerUSD is the number of units of the
// currency one US dollar buys.
type Currency struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Decimals int     `json:"decimals"`
	PerUSD   float64 `json:"per_usd"`
}

// Fee is a processing fee schedule. Fixed, Cap and WaiveFixedBelow are minor
// units of their own currency and are converted into the charge currency.
type Fee struct {
	PercentBps      int64
	Fixed           int64
	FixedCurrency   string
	Cap             int64
	CapCurrency     string
	WaiveFixedBelow int64
}

// Method is a payment method offered through a gateway.
type Method struct {
	ID         string
	Name       string
	Gateway    Gateway
	Currencies []string
	Countries  []string // empty means every country
	Fee        Fee
}

// Accepts reports whether the method can charge currency for a buyer in country.
// An empty country is treated as unknown and only matches country-agnostic methods.
func (m Method) Accepts(currency, country string) bool {
	if !contains(m.Currencies, strings.ToUpper(currency)) {
		return false
	}
	if len(m.Countries) == 0 {
		return true
	}
	return contains(m.Countries, strings.ToUpper(country))
}

// Table is an immutable set of currencies and payment methods.
type Table struct {
	currencies map[string]Currency
	methods    []Method
	byID       map[string]Method
}

// NewTable builds a table from the given currencies and methods.
func NewTable(currencies []Currency, methods []Method) *Table {
	t := &Table{
		currencies: make(map[string]Currency, len(currencies)),
		methods:    methods,
		byID:       make(map[string]Method, len(methods)),
	}
	for _, c := range currencies {
		t.currencies[strings.ToUpper(c.Code)] = c
	}
	for _, m := range methods {
		t.byID[m.ID] = m
	}
	return t
}

// Currency looks up a currency by ISO code, case-insensitively.
func (t *Table) Currency(code string) (Currency, error) {
	c, ok := t.currencies[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Currency{}, ErrUnsupportedCurrency
	}
	return c, nil
}

// Currencies returns every supported currency sorted by code.
func (t *Table) Currencies() []Currency {
	out := make([]Currency, 0, len(t.currencies))
	for _, c := range t.currencies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Method looks up a payment method by id.
func (t *Table) Method(id string) (Method, error) {
	m, ok := t.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Method{}, ErrUnsupportedMethod
	}
	return m, nil
}

// AvailableMethods lists the methods able to charge currency for a buyer in
// country, in table order. An empty currency resolves to the country default.
func (t *Table) AvailableMethods(country, currency string) ([]Method, error) {
	if currency == "" {
		currency = DefaultCurrency(country)
	}
	if _, err := t.Currency(currency); err != nil {
		return nil, err
	}
	var out []Method
	for _, m := range t.methods {
		if m.Accepts(currency, country) {
			out = append(out, m)
		}
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
