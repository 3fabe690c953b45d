// Package shop exposes the synchronized storefront state as accessor and
// action pairs, and wires the observers that keep it consistent.
package shop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"shopsync/internal/checkout"
	"shopsync/internal/gateway"
	"shopsync/internal/lineitems"
	"shopsync/internal/model"
	"shopsync/internal/session"
	"shopsync/internal/store"
)

// Options configures a Client.
type Options struct {
	// Backend holds the persisted state. Defaults to a memory backend.
	Backend store.Backend

	// StateKey and FlagKey override the default namespaced keys.
	StateKey string
	FlagKey  string

	Gateway            gateway.Gateway
	AutoCreateCheckout bool
	Logger             *slog.Logger
}

// Client owns one persisted state and the coordinators acting on it.
type Client struct {
	store     *store.Store
	flag      *store.SessionFlag
	session   *session.Coordinator
	checkout  *checkout.Coordinator
	lineItems *lineitems.Engine
	logger    *slog.Logger

	mu     sync.Mutex
	unsubs []func()
}

// New loads the persisted state and builds the coordinators.
// Observers are not registered until Start.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Gateway == nil {
		return nil, errors.New("shop: gateway is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backend := opts.Backend
	if backend == nil {
		backend = store.NewMemoryBackend()
	}

	s, err := store.Open(ctx, backend, opts.StateKey, logger)
	if err != nil {
		return nil, err
	}
	flag := store.NewSessionFlag(store.NewMemoryBackend(), opts.FlagKey)

	return &Client{
		store:     s,
		flag:      flag,
		session:   session.NewCoordinator(s, flag, opts.Gateway, logger),
		checkout:  checkout.NewCoordinator(s, opts.Gateway, opts.AutoCreateCheckout, logger),
		lineItems: lineitems.NewEngine(s, opts.Gateway, logger),
		logger:    logger,
	}, nil
}

// Start registers the startup renewal and checkout observers and evaluates
// them once against the loaded state, as if the state had just changed.
// Calling Start again is a no-op.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.unsubs != nil {
		c.mu.Unlock()
		return
	}
	renew := c.session.StartupObserver(ctx)
	create := c.checkout.Observer(ctx)
	c.unsubs = []func(){
		c.store.Subscribe(renew),
		c.store.Subscribe(create),
	}
	c.mu.Unlock()

	state := c.store.State()
	c.logger.InfoContext(ctx, "shop client started",
		slog.Bool("signed_in", state.IsSignedIn()),
		slog.Bool("has_checkout", state.CheckoutID != nil),
	)
	renew(state)
	create(c.store.State())
}

// Close unregisters the observers.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}

// Purge deletes the persisted state record without revoking the token
// upstream. Use SignOut to end a session cleanly.
func (c *Client) Purge(ctx context.Context) error {
	return c.session.Purge(ctx)
}

// State returns the full persisted state.
func (c *Client) State() model.PersistedState {
	return c.store.State()
}

// Subscribe registers fn to receive every new state.
func (c *Client) Subscribe(fn store.Observer) func() {
	return c.store.Subscribe(fn)
}

// NewRenewer creates a background renewer for this client's session.
func (c *Client) NewRenewer(schedule string, within time.Duration) (*session.Renewer, error) {
	return session.NewRenewer(c.session, schedule, within, c.logger)
}

// SessionState is the read side of the session surface.
type SessionState struct {
	CustomerAccessToken          *string    `json:"customer_access_token"`
	CustomerAccessTokenExpiresAt *time.Time `json:"customer_access_token_expires_at"`
	IsSignedIn                   bool       `json:"is_signed_in"`
	IsNew                        bool       `json:"session_is_new"`
}

// SessionActions are the session operations.
type SessionActions struct {
	RenewToken func(ctx context.Context) (model.Result[model.AccessToken], error)
	SignOut    func(ctx context.Context)
	SignIn     func(ctx context.Context, creds model.Credentials) (model.Result[model.AccessToken], error)
	Activate   func(ctx context.Context, input gateway.ActivateInput) (model.Result[model.AccessToken], error)
	Reset      func(ctx context.Context, input gateway.ResetInput) (model.Result[model.AccessToken], error)
	ResetByURL func(ctx context.Context, input gateway.ResetByURLInput) (model.Result[model.AccessToken], error)
}

// Session pairs the current session state with its actions.
type Session struct {
	State   SessionState
	Actions SessionActions
}

// Session returns the session surface.
func (c *Client) Session() Session {
	state := c.store.State()
	return Session{
		State: SessionState{
			CustomerAccessToken:          state.CustomerAccessToken,
			CustomerAccessTokenExpiresAt: state.CustomerAccessTokenExpiresAt,
			IsSignedIn:                   state.IsSignedIn(),
			IsNew:                        c.session.IsNew(),
		},
		Actions: SessionActions{
			RenewToken: c.session.RenewToken,
			SignOut:    c.session.SignOut,
			SignIn:     c.session.SignIn,
			Activate:   c.session.Activate,
			Reset:      c.session.Reset,
			ResetByURL: c.session.ResetByURL,
		},
	}
}

// CheckoutState is the read side of the checkout surface.
type CheckoutState struct {
	CheckoutID *string `json:"checkout_id"`
	AutoCreate bool    `json:"auto_create"`
}

// CheckoutActions are the checkout operations.
type CheckoutActions struct {
	CreateCheckout func(ctx context.Context, input gateway.CreateCheckoutInput) (model.Result[gateway.Checkout], error)
	SetAutoCreate  func(ctx context.Context, enabled bool)
}

// Checkout pairs the current checkout state with its actions.
type Checkout struct {
	State   CheckoutState
	Actions CheckoutActions
}

// Checkout returns the checkout surface.
func (c *Client) Checkout() Checkout {
	return Checkout{
		State: CheckoutState{
			CheckoutID: c.store.State().CheckoutID,
			AutoCreate: c.checkout.AutoCreate(),
		},
		Actions: CheckoutActions{
			CreateCheckout: c.checkout.CreateCheckout,
			SetAutoCreate:  c.checkout.SetAutoCreate,
		},
	}
}

// LineItemsActions are the line-item operations.
type LineItemsActions struct {
	AddToCheckout func(ctx context.Context, variantID string, quantity int, attrs map[string]string) (*lineitems.AddResult, error)
}

// LineItems pairs the current line-item sequence with its actions.
type LineItems struct {
	State   []model.LineItem
	Actions LineItemsActions
}

// LineItems returns the line-item surface.
func (c *Client) LineItems() LineItems {
	return LineItems{
		State: c.store.State().CheckoutLineItems,
		Actions: LineItemsActions{
			AddToCheckout: c.lineItems.AddToCheckout,
		},
	}
}
