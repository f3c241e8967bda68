package promotions

import (
	"fmt"
	"math"
	"time"

	"cineplex/internal/shared/apperror"
	"cineplex/internal/shared/utils/money"
)

var (
	ErrUnknownType  = apperror.New(apperror.KindValidation, "UNKNOWN_PROMOTION_TYPE", "unknown promotion type")
	ErrInvalidValue = apperror.New(apperror.KindValidation, "INVALID_PROMOTION_VALUE", "invalid promotion value")
)

const (
	WarningInvalidCode = "INVALID_PROMO_CODE"
	WarningExhausted   = "PROMO_EXHAUSTED"
)

// Warning is a non-fatal pricing notice returned alongside a claim.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Quote is what a rule prices against: the seat prices of one selection.
type Quote struct {
	SeatPrices []float64
}

func (q Quote) Subtotal() float64 {
	return money.Sum(q.SeatPrices...)
}

// Rule computes a discount for a quote. The set of rules is closed:
// Percentage, Fixed and BuyOneGetOne.
type Rule interface {
	Discount(q Quote) float64
	isRule()
}

type Percentage struct {
	Percent float64
	Cap     *float64
}

func (r Percentage) Discount(q Quote) float64 {
	d := q.Subtotal() * r.Percent / 100
	if r.Cap != nil && d > *r.Cap {
		d = *r.Cap
	}
	return money.Round(d)
}

type Fixed struct {
	Amount float64
}

func (r Fixed) Discount(q Quote) float64 {
	return money.Round(math.Min(r.Amount, q.Subtotal()))
}

// BuyOneGetOne credits the cheapest seat in the selection. It needs at least
// two seats to apply.
type BuyOneGetOne struct{}

func (BuyOneGetOne) Discount(q Quote) float64 {
	if len(q.SeatPrices) < 2 {
		return 0
	}
	cheapest := q.SeatPrices[0]
	for _, p := range q.SeatPrices[1:] {
		if p < cheapest {
			cheapest = p
		}
	}
	return money.Round(cheapest)
}

func (Percentage) isRule()   {}
func (Fixed) isRule()        {}
func (BuyOneGetOne) isRule() {}

// RuleOf maps a stored promotion onto its rule, rejecting unknown types.
func RuleOf(p *Promotion) (Rule, error) {
	switch p.Type {
	case TypePercentage:
		if p.Value <= 0 || p.Value > 100 {
			return nil, ErrInvalidValue.WithDetails("percentage must be in (0, 100]")
		}
		return Percentage{Percent: p.Value, Cap: p.MaxDiscountAmount}, nil
	case TypeFixed:
		if p.Value <= 0 {
			return nil, ErrInvalidValue.WithDetails("fixed amount must be positive")
		}
		return Fixed{Amount: p.Value}, nil
	case TypeBuyOneGetOne:
		return BuyOneGetOne{}, nil
	}
	return nil, ErrUnknownType.WithDetails(string(p.Type))
}

// Outcome is the result of pricing a code against a quote. Discount is zero
// whenever Warning is set.
type Outcome struct {
	Promotion *Promotion
	Discount  float64
	Warning   *Warning
}

func (o Outcome) Applied() bool {
	return o.Promotion != nil && o.Warning == nil && o.Discount > 0
}

func invalid(msg string) Outcome {
	return Outcome{Warning: &Warning{Code: WarningInvalidCode, Message: msg}}
}

// Evaluate prices code p against q at now. p may be nil for unknown codes.
func Evaluate(p *Promotion, q Quote, now time.Time) Outcome {
	if p == nil || !p.IsActive {
		return invalid("promo code not found or inactive")
	}
	if now.Before(p.StartDate) || now.After(p.EndDate) {
		return invalid("promo code is not valid at this time")
	}
	if p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit {
		return Outcome{Warning: &Warning{Code: WarningExhausted, Message: "promo code usage limit reached"}}
	}
	subtotal := q.Subtotal()
	if p.MinOrderAmount != nil && subtotal < *p.MinOrderAmount {
		return invalid(fmt.Sprintf("order must be at least %.2f to use this code", *p.MinOrderAmount))
	}

	rule, err := RuleOf(p)
	if err != nil {
		return invalid("promo code cannot be applied")
	}
	d := rule.Discount(q)
	if d > subtotal {
		d = subtotal
	}
	if d <= 0 {
		return invalid("promo code does not apply to this selection")
	}
	return Outcome{Promotion: p, Discount: d}
}
