package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Quote is the priced breakdown of an order in the buyer's currency.
// USD fields are cents; Amount, Fee and Total are minor units of Currency.
type Quote struct {
	Currency    string  `json:"currency"`
	Method      string  `json:"method"`
	Gateway     Gateway `json:"gateway"`
	SubtotalUSD int64   `json:"subtotal_usd_cents"`
	DiscountUSD int64   `json:"discount_usd_cents"`
	NetUSD      int64   `json:"net_usd_cents"`
	Rate        float64 `json:"rate"`
	Amount      int64   `json:"amount"`
	Fee         int64   `json:"fee"`
	Total       int64   `json:"total"`
}

// IsFree reports whether nothing is owed.
func (q Quote) IsFree() bool {
	return q.Total == 0
}

// Convert converts amount minor units of from into minor units of to, going
// through USD and rounding half away from zero.
func (t *Table) Convert(amount int64, from, to string) (int64, error) {
	src, err := t.Currency(from)
	if err != nil {
		return 0, err
	}
	dst, err := t.Currency(to)
	if err != nil {
		return 0, err
	}
	if src.Code == dst.Code {
		return amount, nil
	}
	major := float64(amount) / pow10(src.Decimals)
	converted := major / src.PerUSD * dst.PerUSD
	return int64(math.Round(converted * pow10(dst.Decimals))), nil
}

// ProcessingFee computes the fee the method's gateway charges on amount minor
// units of currency.
func (t *Table) ProcessingFee(m Method, amount int64, currency string) (int64, error) {
	if amount <= 0 {
		return 0, nil
	}
	f := m.Fee
	fee := int64(math.Round(float64(amount) * float64(f.PercentBps) / 10000))

	if f.Fixed > 0 {
		fixed, err := t.Convert(f.Fixed, f.FixedCurrency, currency)
		if err != nil {
			return 0, err
		}
		waive := false
		if f.WaiveFixedBelow > 0 {
			threshold, err := t.Convert(f.WaiveFixedBelow, f.FixedCurrency, currency)
			if err != nil {
				return 0, err
			}
			waive = amount < threshold
		}
		if !waive {
			fee += fixed
		}
	}

	if f.Cap > 0 {
		limit, err := t.Convert(f.Cap, f.CapCurrency, currency)
		if err != nil {
			return 0, err
		}
		if fee > limit {
			fee = limit
		}
	}
	if fee < 0 {
		fee = 0
	}
	return fee, nil
}

// Quote prices an order: the USD subtotal less the USD discount is converted
// into currency and the method's processing fee is added on top.
func (t *Table) Quote(subtotalUSD, discountUSD int64, currency, methodID, country string) (Quote, error) {
	cur, err := t.Currency(currency)
	if err != nil {
		return Quote{}, err
	}
	m, err := t.Method(methodID)
	if err != nil {
		return Quote{}, err
	}
	if !m.Accepts(cur.Code, country) {
		return Quote{}, fmt.Errorf("%s in %s/%s: %w", m.ID, cur.Code, strings.ToUpper(country), ErrMethodUnavailable)
	}

	if discountUSD < 0 {
		discountUSD = 0
	}
	if discountUSD > subtotalUSD {
		discountUSD = subtotalUSD
	}
	net := subtotalUSD - discountUSD

	amount, err := t.Convert(net, BaseCurrency, cur.Code)
	if err != nil {
		return Quote{}, err
	}
	fee, err := t.ProcessingFee(m, amount, cur.Code)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Currency:    cur.Code,
		Method:      m.ID,
		Gateway:     m.Gateway,
		SubtotalUSD: subtotalUSD,
		DiscountUSD: discountUSD,
		NetUSD:      net,
		Rate:        cur.PerUSD,
		Amount:      amount,
		Fee:         fee,
		Total:       amount + fee,
	}, nil
}

// Format renders minor units of currency for display, e.g. "₦15,500.00".
func (t *Table) Format(amount int64, currency string) string {
	cur, err := t.Currency(currency)
	if err != nil {
		return strconv.FormatInt(amount, 10) + " " + strings.ToUpper(currency)
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	unit := int64(pow10(cur.Decimals))
	whole := groupThousands(strconv.FormatInt(amount/unit, 10))
	if cur.Decimals == 0 {
		return sign + cur.Symbol + whole
	}
	frac := strconv.FormatInt(amount%unit, 10)
	for len(frac) < cur.Decimals {
		frac = "0" + frac
	}
	return sign + cur.Symbol + whole + "." + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func pow10(n int) float64 {
	return math.Pow10(n)
}
