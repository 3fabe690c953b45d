package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"shopsync/internal/gateway"
	"shopsync/internal/model"
	"shopsync/internal/shop"
)

type stateView struct {
	State        model.PersistedState `json:"state"`
	IsSignedIn   bool                 `json:"is_signed_in"`
	SessionIsNew bool                 `json:"session_is_new"`
}

func viewOf(c *shop.Client) stateView {
	session := c.Session().State
	return stateView{
		State:        c.State(),
		IsSignedIn:   session.IsSignedIn,
		SessionIsNew: session.IsNew,
	}
}

func newStateCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, c *shop.Client) (any, error) {
				return viewOf(c), nil
			})
		},
	}
}

func newSignInCommand(r *runner) *cobra.Command {
	var creds model.Credentials

	cmd := &cobra.Command{
		Use:   "sign-in",
		Short: "Sign in a customer and persist the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Email == "" || creds.Password == "" {
				return errors.New("--email and --password are required")
			}
			return r.run(cmd, func(ctx context.Context, c *shop.Client) (any, error) {
				return fromResult(c.Session().Actions.SignIn(ctx, creds))
			})
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "customer email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "customer password")
	return cmd
}

func newSignOutCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "sign-out",
		Short: "Revoke the access token and reset the persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, c *shop.Client) (any, error) {
				c.Session().Actions.SignOut(ctx)
				return viewOf(c), nil
			})
		},
	}
}

func newResetStateCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-state",
		Short: "Delete the persisted state record",
		Long: `Delete the persisted state record.

The storefront is not contacted, so a held token stays valid until it expires.
Use sign-out to revoke it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, c *shop.Client) (any, error) {
				if err := c.Purge(ctx); err != nil {
					return nil, err
				}
				return viewOf(c), nil
			})
		},
	}
}

func newRenewCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Renew the customer access token",
		Long: `Renew the customer access token.

A token the storefront refuses to renew signs the session out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, c *shop.Client) (any, error) {
				return fromResult(c.Session().Actions.RenewToken(ctx))
			})
		},
	}
}

func newCheckoutCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Manage the checkout",
	}

	var input gateway.CreateCheckoutInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a checkout from the persisted line items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, c *shop.Client) (any, error) {
				in := input
				in.LineItems = c.LineItems().State
				return fromResult(c.Checkout().Actions.CreateCheckout(ctx, in))
			})
		},
	}
	create.Flags().StringVar(&input.Email, "email", "", "checkout email")
	create.Flags().StringVar(&input.Note, "note", "", "checkout note")

	cmd.AddCommand(create)
	return cmd
}

func newAddCommand(r *runner) *cobra.Command {
	var (
		quantity int
		attrs    string
	)

	cmd := &cobra.Command{
		Use:   "add <variant-id>",
		Short: "Add a product variant to the checkout",
		Long: `Add a product variant to the checkout.

Adding a variant already in the checkout sums the quantities. Custom
attributes use structured-field dictionary syntax:

  shopsync add gid://shopify/ProductVariant/1 --qty 2 --attrs 'gift="yes", note="hi"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := model.ParseAttributes(attrs)
			if err != nil {
				return err
			}
			return r.run(cmd, func(ctx context.Context, c *shop.Client) (any, error) {
				// On a transport error the merged items are still persisted locally
				res, err := c.LineItems().Actions.AddToCheckout(ctx, args[0], quantity, parsed)
				if err != nil {
					return nil, err
				}
				return addOutput{res}, nil
			})
		},
	}

	cmd.Flags().IntVarP(&quantity, "qty", "q", 1, "quantity to add")
	cmd.Flags().StringVar(&attrs, "attrs", "", "custom attributes")
	return cmd
}
