// Package session coordinates the customer access token between the storefront
// and the persisted state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
	"shopsync/internal/store"
)

// CodeNotSignedIn is the user error code returned when renewing without a token.
const CodeNotSignedIn = "NOT_SIGNED_IN"

// Coordinator performs session actions and records their outcome in the store.
type Coordinator struct {
	// mu pairs every flag write that can raise the flag with the dispatch it
	// belongs to, so sign in and sign out cannot interleave. Dispatches made
	// under mu never leave a signed in state with a raised flag, so the
	// startup observer cannot renew (and re-enter) while it is held.
	mu sync.Mutex

	store   *store.Store
	flag    *store.SessionFlag
	gateway gateway.Gateway
	logger  *slog.Logger
}

// NewCoordinator creates a session coordinator.
func NewCoordinator(s *store.Store, flag *store.SessionFlag, gw gateway.Gateway, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:   s,
		flag:    flag,
		gateway: gw,
		logger:  logger,
	}
}

// IsNew reports whether this process has not yet renewed or obtained a token.
func (c *Coordinator) IsNew() bool {
	return c.flag.IsNew()
}

// RenewToken extends the persisted token.
//
// When the storefront returns no token the session is signed out before the
// failure is returned. A transport error leaves the session untouched.
func (c *Coordinator) RenewToken(ctx context.Context) (model.Result[model.AccessToken], error) {
	state := c.store.State()
	if state.CustomerAccessToken == nil {
		return model.Failure[model.AccessToken](model.UserError{
			Field:   []string{"customerAccessToken"},
			Message: "no customer is signed in",
			Code:    CodeNotSignedIn,
		}), nil
	}

	result, err := c.gateway.RenewCustomerAccessToken(ctx, *state.CustomerAccessToken)
	if err != nil {
		c.logger.WarnContext(ctx, "token renewal failed", slog.String("error", err.Error()))
		return result, err
	}

	if result.Data == nil {
		c.logger.InfoContext(ctx, "token renewal rejected, signing out",
			slog.Int("user_errors", len(result.UserErrors)),
		)
		c.SignOut(ctx)
		return result, nil
	}

	c.store.Dispatch(store.SetToken(*result.Data))
	c.logger.InfoContext(ctx, "token renewed", slog.Time("expires_at", result.Data.ExpiresAt))
	return result, nil
}

// SignOut revokes the token upstream if one is held, then resets the state.
// Revocation is best effort; the local state is always cleared.
func (c *Coordinator) SignOut(ctx context.Context) {
	if token := c.store.State().CustomerAccessToken; token != nil {
		result, err := c.gateway.DeleteCustomerAccessToken(ctx, *token)
		switch {
		case err != nil:
			c.logger.WarnContext(ctx, "token revocation failed", slog.String("error", err.Error()))
		case !result.OK():
			c.logger.WarnContext(ctx, "token revocation rejected", slog.Int("user_errors", len(result.UserErrors)))
		}
	}

	c.mu.Lock()
	c.store.Dispatch(store.Reset())
	c.flag.Set(true)
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "signed out")
}

// Purge drops the persisted state without contacting the storefront. The
// token, if any, is not revoked.
func (c *Coordinator) Purge(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Purge(ctx); err != nil {
		return err
	}
	c.flag.Set(true)
	return nil
}

// SignIn exchanges credentials for a token.
func (c *Coordinator) SignIn(ctx context.Context, creds model.Credentials) (model.Result[model.AccessToken], error) {
	result, err := c.gateway.CreateCustomerAccessToken(ctx, creds)
	return c.accept(ctx, "sign in", result, err)
}

// Activate activates an invited customer and signs them in.
func (c *Coordinator) Activate(ctx context.Context, input gateway.ActivateInput) (model.Result[model.AccessToken], error) {
	result, err := c.gateway.ActivateCustomer(ctx, input)
	return c.accept(ctx, "activate", result, err)
}

// Reset sets a new password from a reset token and signs the customer in.
func (c *Coordinator) Reset(ctx context.Context, input gateway.ResetInput) (model.Result[model.AccessToken], error) {
	result, err := c.gateway.ResetCustomer(ctx, input)
	return c.accept(ctx, "reset", result, err)
}

// ResetByURL sets a new password from a reset link and signs the customer in.
func (c *Coordinator) ResetByURL(ctx context.Context, input gateway.ResetByURLInput) (model.Result[model.AccessToken], error) {
	result, err := c.gateway.ResetCustomerByURL(ctx, input)
	return c.accept(ctx, "reset by url", result, err)
}

// accept stores a freshly issued token. The flag is cleared first so the
// startup observer does not renew a token that was just issued.
func (c *Coordinator) accept(ctx context.Context, op string, result model.Result[model.AccessToken], err error) (model.Result[model.AccessToken], error) {
	if err != nil {
		c.logger.WarnContext(ctx, op+" failed", slog.String("error", err.Error()))
		return result, err
	}
	if result.Data == nil {
		c.logger.InfoContext(ctx, op+" rejected", slog.Int("user_errors", len(result.UserErrors)))
		return result, nil
	}

	c.mu.Lock()
	c.flag.Set(false)
	c.store.Dispatch(store.SetToken(*result.Data))
	c.mu.Unlock()
	c.logger.InfoContext(ctx, op+" succeeded", slog.Time("expires_at", result.Data.ExpiresAt))
	return result, nil
}

// StartupObserver returns an observer that renews a token carried over from a
// previous process, once per process lifetime.
func (c *Coordinator) StartupObserver(ctx context.Context) store.Observer {
	return func(state model.PersistedState) {
		c.renewIfNew(ctx, state)
	}
}

func (c *Coordinator) renewIfNew(ctx context.Context, state model.PersistedState) {
	if !state.IsSignedIn() || !c.flag.Claim() {
		return
	}
	c.logger.DebugContext(ctx, "renewing token from previous session")
	_, err := c.RenewToken(ctx)
	if err == nil {
		return
	}
	retryable := isRetryable(err)
	c.logger.WarnContext(ctx, "startup renewal failed",
		slog.String("error", err.Error()),
		slog.Bool("retryable", retryable),
	)
	if retryable {
		// Raise the flag again so the next transition retries.
		c.mu.Lock()
		if c.store.State().IsSignedIn() {
			c.flag.Set(true)
		}
		c.mu.Unlock()
	}
}

func isRetryable(err error) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.Retryable()
}
