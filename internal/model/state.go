// Package model defines the shared data types for storefront state synchronization.
package model

import (
	"maps"
	"time"
)

// PersistedState is the durable record of a shopper's storefront session.
// The access token and its expiry are always set and cleared together.
type PersistedState struct {
	CustomerAccessToken          *string    `json:"customer_access_token"`
	CustomerAccessTokenExpiresAt *time.Time `json:"customer_access_token_expires_at"`
	CheckoutID                   *string    `json:"checkout_id"`
	CheckoutLineItems            []LineItem `json:"checkout_line_items"`
}

// InitialState returns the state a fresh install starts from.
func InitialState() PersistedState {
	return PersistedState{CheckoutLineItems: []LineItem{}}
}

// IsSignedIn reports whether a customer access token is held.
func (s PersistedState) IsSignedIn() bool {
	return s.CustomerAccessToken != nil
}

// Clone returns a deep copy so callers never share slices or maps with the store.
func (s PersistedState) Clone() PersistedState {
	out := PersistedState{
		CustomerAccessToken:          cloneString(s.CustomerAccessToken),
		CustomerAccessTokenExpiresAt: cloneTime(s.CustomerAccessTokenExpiresAt),
		CheckoutID:                   cloneString(s.CheckoutID),
		CheckoutLineItems:            CloneLineItems(s.CheckoutLineItems),
	}
	return out
}

// LineItem is one product variant in the checkout.
type LineItem struct {
	VariantID        string            `json:"variant_id"`
	Quantity         int               `json:"quantity"`
	CustomAttributes map[string]string `json:"custom_attributes,omitempty"`
}

// Clone returns a copy of the line item with its own attribute map.
func (li LineItem) Clone() LineItem {
	li.CustomAttributes = maps.Clone(li.CustomAttributes)
	return li
}

// CloneLineItems deep-copies a line-item sequence. A nil input yields an empty slice.
func CloneLineItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// AccessToken is a customer access token and its expiry.
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Credentials identify a customer signing in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
