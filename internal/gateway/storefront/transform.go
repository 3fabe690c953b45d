package storefront

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
)

// User error codes for answers that carry no usable token or checkout.
const (
	CodeEmptyPayload  = "EMPTY_PAYLOAD"
	CodeInvalidExpiry = "INVALID_EXPIRY"
)

func emptyPayload() model.UserError {
	return model.UserError{Message: "storefront returned no payload", Code: CodeEmptyPayload}
}

// tokenResult converts a token-bearing payload to a Result.
func tokenResult(p *tokenPayload) model.Result[model.AccessToken] {
	if p == nil {
		return model.Failure[model.AccessToken](emptyPayload())
	}
	errs := append(toUserErrors(p.CustomerUserErrors), toUserErrors(p.UserErrors)...)
	if len(errs) > 0 || p.CustomerAccessToken == nil {
		return model.Failure[model.AccessToken](errs...)
	}

	expiresAt, err := time.Parse(time.RFC3339, p.CustomerAccessToken.ExpiresAt)
	if err != nil {
		return model.Failure[model.AccessToken](model.UserError{
			Field:   []string{"customerAccessToken", "expiresAt"},
			Message: fmt.Sprintf("invalid expiresAt %q", p.CustomerAccessToken.ExpiresAt),
			Code:    CodeInvalidExpiry,
		})
	}

	return model.Success(model.AccessToken{
		AccessToken: p.CustomerAccessToken.AccessToken,
		ExpiresAt:   expiresAt,
	})
}

// checkoutResult converts a checkout-bearing payload to a Result.
func checkoutResult(p *checkoutPayload) model.Result[gateway.Checkout] {
	if p == nil {
		return model.Failure[gateway.Checkout](emptyPayload())
	}
	errs := append(toUserErrors(p.CheckoutUserErrors), toUserErrors(p.UserErrors)...)
	if len(errs) > 0 || p.Checkout == nil {
		return model.Failure[gateway.Checkout](errs...)
	}
	return model.Success(transformCheckout(p.Checkout))
}

func transformCheckout(c *checkout) gateway.Checkout {
	out := gateway.Checkout{
		ID:            c.ID,
		WebURL:        c.WebURL,
		Currency:      c.CurrencyCode,
		SubtotalCents: cents(c.SubtotalPrice.Amount),
		TotalCents:    cents(c.TotalPrice.Amount),
		LineItems:     make([]model.LineItem, 0, len(c.LineItems.Edges)),
	}

	for _, edge := range c.LineItems.Edges {
		node := edge.Node
		item := model.LineItem{Quantity: node.Quantity}
		if node.Variant != nil {
			item.VariantID = node.Variant.ID
		}
		if len(node.CustomAttributes) > 0 {
			item.CustomAttributes = make(map[string]string, len(node.CustomAttributes))
			for _, attr := range node.CustomAttributes {
				item.CustomAttributes[attr.Key] = attr.Value
			}
		}
		out.LineItems = append(out.LineItems, item)
	}

	return out
}

// cents converts a MoneyV2 decimal amount to minor units without going
// through float64. Digits past the second decimal are rounded half up.
// Unparseable amounts yield 0.
func cents(amount string) int64 {
	amount = strings.TrimSpace(amount)
	neg := strings.HasPrefix(amount, "-")
	amount = strings.TrimPrefix(amount, "-")

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0
	}

	var sub int64
	for i := 0; i < len(frac); i++ {
		d := frac[i]
		if d < '0' || d > '9' {
			return 0
		}
		switch {
		case i < 2:
			sub = sub*10 + int64(d-'0')
		case i == 2 && d >= '5':
			sub++
		}
	}
	for i := len(frac); i < 2; i++ {
		sub *= 10
	}

	total := units*100 + sub
	if neg {
		return -total
	}
	return total
}

func toUserErrors(errs []userError) []model.UserError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]model.UserError, len(errs))
	for i, e := range errs {
		out[i] = model.UserError{Field: e.Field, Message: e.Message, Code: e.Code}
	}
	return out
}

// toLineItemInputs builds CheckoutLineItemInput values. Attribute keys are
// sorted so identical line items always serialize identically.
func toLineItemInputs(items []model.LineItem) []lineItemInput {
	out := make([]lineItemInput, len(items))
	for i, item := range items {
		in := lineItemInput{VariantID: item.VariantID, Quantity: item.Quantity}
		if len(item.CustomAttributes) > 0 {
			keys := make([]string, 0, len(item.CustomAttributes))
			for k := range item.CustomAttributes {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				in.CustomAttributes = append(in.CustomAttributes, attribute{Key: k, Value: item.CustomAttributes[k]})
			}
		}
		out[i] = in
	}
	return out
}
