// Package currency converts amounts between the supported currencies using a
// per-request rate set. USD is the anchor: every conversion is expressed in
// USD first, then in the target currency.
package currency

import (
	"fmt"

	"github.com/frontera-freight/frontera/internal/model"
)

// Convert converts amount from one currency to another using the supplied
// rates. It panics on a missing or non-positive rate: rates are caller
// responsibility and a zero rate is a programmer error, not a runtime
// condition to silently absorb.
func Convert(amount float64, from, to model.Currency, rates model.ExchangeRateSet) float64 {
	if from == to {
		return amount
	}

	usd := amount
	switch from {
	case model.CurrencyUSD:
	case model.CurrencyBRL:
		usd = amount / mustRate(rates.USDToBRL, model.CurrencyBRL)
	case model.CurrencyGS:
		usd = amount / mustRate(rates.USDToGS, model.CurrencyGS)
	default:
		panic(fmt.Sprintf("currency: unsupported source currency %q", from))
	}

	switch to {
	case model.CurrencyUSD:
		return usd
	case model.CurrencyBRL:
		return usd * mustRate(rates.USDToBRL, model.CurrencyBRL)
	case model.CurrencyGS:
		return usd * mustRate(rates.USDToGS, model.CurrencyGS)
	default:
		panic(fmt.Sprintf("currency: unsupported target currency %q", to))
	}
}

func mustRate(rate float64, c model.Currency) float64 {
	if rate <= 0 {
		panic(fmt.Sprintf("currency: missing USD/%s rate", c))
	}
	return rate
}
