package store

import (
	"fmt"

	"shopsync/internal/model"
)

// ActionType names a state transition.
type ActionType string

const (
	ActionSetToken      ActionType = "SET_TOKEN"
	ActionSetCheckoutID ActionType = "SET_CHECKOUT_ID"
	ActionSetLineItems  ActionType = "SET_LINE_ITEMS"
	ActionReset         ActionType = "RESET"
)

// Action is a single dispatched transition. Only the field matching Type is read.
type Action struct {
	Type       ActionType
	Token      *model.AccessToken
	CheckoutID string
	LineItems  []model.LineItem
}

// SetToken stores a customer access token together with its expiry.
func SetToken(token model.AccessToken) Action {
	return Action{Type: ActionSetToken, Token: &token}
}

// SetCheckoutID stores the identifier of the active checkout.
func SetCheckoutID(id string) Action {
	return Action{Type: ActionSetCheckoutID, CheckoutID: id}
}

// SetLineItems replaces the checkout line-item sequence.
func SetLineItems(items []model.LineItem) Action {
	return Action{Type: ActionSetLineItems, LineItems: items}
}

// Reset restores the initial state.
func Reset() Action {
	return Action{Type: ActionReset}
}

// Reduce applies action to state and returns the next state.
// The input state is not modified. An unrecognized action type returns an
// error wrapping model.ErrUnknownAction.
func Reduce(state model.PersistedState, action Action) (model.PersistedState, error) {
	next := state.Clone()

	switch action.Type {
	case ActionSetToken:
		if action.Token == nil {
			next.CustomerAccessToken = nil
			next.CustomerAccessTokenExpiresAt = nil
			return next, nil
		}
		token := action.Token.AccessToken
		expiresAt := action.Token.ExpiresAt
		next.CustomerAccessToken = &token
		next.CustomerAccessTokenExpiresAt = &expiresAt
	case ActionSetCheckoutID:
		id := action.CheckoutID
		next.CheckoutID = &id
	case ActionSetLineItems:
		next.CheckoutLineItems = model.CloneLineItems(action.LineItems)
	case ActionReset:
		return model.InitialState(), nil
	default:
		return state, fmt.Errorf("%w: %q", model.ErrUnknownAction, action.Type)
	}

	return next, nil
}
