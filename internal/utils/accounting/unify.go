package accounting

import (
	"sort"
	"strings"

	"github.com/SscSPs/maika_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BaseCurrency is the unit every unified balance is expressed in.
const BaseCurrency = "usd"

// PremiumCurrency is quoted as a percentage premium over the base currency.
const PremiumCurrency = "usdt"

var hundred = decimal.NewFromInt(100)

// RatesByCurrency indexes the latest rate of each currency.
// If a currency appears more than once, the most recent effective date wins.
func RatesByCurrency(rates []domain.ExchangeRate) map[string]decimal.Decimal {
	latest := make(map[string]domain.ExchangeRate, len(rates))
	for _, r := range rates {
		code := strings.ToLower(r.CurrencyCode)
		if cur, ok := latest[code]; ok && cur.DateEffective.After(r.DateEffective) {
			continue
		}
		latest[code] = r
	}
	out := make(map[string]decimal.Decimal, len(latest))
	for code, r := range latest {
		out[code] = r.Rate
	}
	return out
}

// UnifyAmount projects an amount to the base currency. The second result is
// false when no usable rate exists.
func UnifyAmount(currency string, amount decimal.Decimal, rates map[string]decimal.Decimal) (decimal.Decimal, bool) {
	currency = strings.ToLower(currency)
	if currency == BaseCurrency {
		return amount, true
	}
	rate, ok := rates[currency]
	if currency == PremiumCurrency {
		if !ok {
			return decimal.Zero, false
		}
		return amount.Mul(decimal.NewFromInt(1).Add(rate.Div(hundred))), true
	}
	if !ok || rate.IsZero() {
		return decimal.Zero, false
	}
	return amount.Div(rate), true
}

// PairEntry is one signed movement seen from an entity towards its counterparty.
type PairEntry struct {
	EntityID       int64
	CounterpartyID int64
	Currency       string
	Account        bool
	Delta          decimal.Decimal
}

// SumPairs aggregates entries into pair balances ordered by entity, counterparty, currency and account.
func SumPairs(entries []PairEntry) []domain.PairBalance {
	type key struct {
		entity, counterparty int64
		currency             string
		account              bool
	}
	sums := make(map[key]decimal.Decimal)
	for _, e := range entries {
		k := key{e.EntityID, e.CounterpartyID, e.Currency, e.Account}
		sums[k] = sums[k].Add(e.Delta)
	}
	out := make([]domain.PairBalance, 0, len(sums))
	for k, v := range sums {
		out = append(out, domain.PairBalance{
			EntityID:       k.entity,
			CounterpartyID: k.counterparty,
			Currency:       k.currency,
			Account:        k.account,
			Balance:        v,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if a.CounterpartyID != b.CounterpartyID {
			return a.CounterpartyID < b.CounterpartyID
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return !a.Account && b.Account
	})
	return out
}

// UnifyPairs projects pair balances to the base currency and groups them per
// counterparty and account kind. Pairs whose counterparty is excluded are dropped,
// which is how intra-group pairs are left out of tag rollups.
func UnifyPairs(pairs []domain.PairBalance, rates map[string]decimal.Decimal, exclude func(counterpartyID int64) bool) domain.UnifiedBalances {
	type key struct {
		counterparty int64
		account      bool
	}
	grouped := make(map[key]decimal.Decimal)
	unconvertible := make(map[string]struct{})
	result := domain.UnifiedBalances{Cash: decimal.Zero, CurrentAccount: decimal.Zero}

	for _, p := range pairs {
		if exclude != nil && exclude(p.CounterpartyID) {
			continue
		}
		amount, ok := UnifyAmount(p.Currency, p.Balance, rates)
		if !ok {
			unconvertible[p.Currency] = struct{}{}
			continue
		}
		k := key{p.CounterpartyID, p.Account}
		grouped[k] = grouped[k].Add(amount)
		if p.Account == domain.AccountCurrent {
			result.CurrentAccount = result.CurrentAccount.Add(amount)
		} else {
			result.Cash = result.Cash.Add(amount)
		}
	}

	result.Pairs = make([]domain.UnifiedPair, 0, len(grouped))
	for k, v := range grouped {
		result.Pairs = append(result.Pairs, domain.UnifiedPair{CounterpartyID: k.counterparty, Account: k.account, Amount: v})
	}
	sort.Slice(result.Pairs, func(i, j int) bool {
		if result.Pairs[i].CounterpartyID != result.Pairs[j].CounterpartyID {
			return result.Pairs[i].CounterpartyID < result.Pairs[j].CounterpartyID
		}
		return !result.Pairs[i].Account && result.Pairs[j].Account
	})
	for c := range unconvertible {
		result.Unconvertible = append(result.Unconvertible, c)
	}
	sort.Strings(result.Unconvertible)
	return result
}

// VerifyBalances compares stored balances with the sums derived from movements.
func VerifyBalances(balances []domain.Balance, expected map[int64]decimal.Decimal) []domain.BalanceDiscrepancy {
	var out []domain.BalanceDiscrepancy
	for _, b := range balances {
		want := expected[b.ID]
		if b.Balance.Equal(want) {
			continue
		}
		out = append(out, domain.BalanceDiscrepancy{
			BalanceID: b.ID,
			EntityID:  b.EntityID,
			Currency:  b.Currency,
			Account:   b.Account,
			Stored:    b.Balance,
			Expected:  want,
		})
	}
	return out
}
