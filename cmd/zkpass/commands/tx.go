package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"zkpass/internal/domain"
	"zkpass/internal/services/session"
	"zkpass/internal/services/vehicle"
)

var useWallet bool

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Submit registry transactions",
	}
	cmd.PersistentFlags().BoolVar(&useWallet, "wallet", false, "sign with the local keystore and pay own gas")
	cmd.AddCommand(grantCmd(), revokeCmd())
	return cmd
}

func grantCmd() *cobra.Command {
	var (
		role      string
		name      string
		recipient string
	)
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a third-party capability",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r uint8
			switch role {
			case "service":
				r = vehicle.RoleService
			case "insurance":
				r = vehicle.RoleInsurance
			default:
				return fmt.Errorf("role must be service or insurance")
			}
			intent, err := wire.Registry.GrantThirdParty(r, name, domain.Address(recipient))
			if err != nil {
				return err
			}
			return execute(cmd, intent)
		},
	}
	cmd.Flags().StringVar(&role, "role", "service", "service or insurance")
	cmd.Flags().StringVar(&name, "name", "", "partner display name")
	cmd.Flags().StringVar(&recipient, "recipient", "", "address receiving the capability")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("recipient")
	return cmd
}

func revokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <cap-id>",
		Short: "Revoke a third-party capability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intent, err := wire.Registry.RevokeThirdParty(domain.ObjectID(args[0]))
			if err != nil {
				return err
			}
			return execute(cmd, intent)
		},
	}
}

// execute submits intent on the selected path and prints the outcome.
func execute(cmd *cobra.Command, intent domain.TransactionIntent) error {
	ctx := commandContext(cmd)

	var auth domain.AuthSession
	if useWallet {
		w, err := wire.Wallet()
		if err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err))
		}
		auth = domain.WalletAuth{Wallet: w}
	} else {
		var err error
		if auth, err = zkAuth(wire.Sessions.Current(ctx)); err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err))
		}
	}

	res, attempt, err := wire.Executor.Execute(ctx, auth, intent)
	if err != nil {
		return fmt.Errorf("%s", domain.UserMessage(err))
	}
	fmt.Printf("Confirmed %s (attempt %s)\n", res.Digest, attempt.ID)
	return nil
}

// zkAuth turns the result of a session read into the zkLogin auth. A missing
// session yields a nil auth, which the executor reports as not authenticated;
// any other failure is returned.
func zkAuth(sess domain.Session, err error) (domain.AuthSession, error) {
	switch {
	case err == nil:
		return domain.ZkLoginAuth{Session: sess}, nil
	case errors.Is(err, session.ErrNoSession):
		return nil, nil
	default:
		return nil, err
	}
}
