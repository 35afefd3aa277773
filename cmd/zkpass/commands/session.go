package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"zkpass/internal/domain"
	"zkpass/internal/services/login"
)

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the local session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the state of the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			sess, err := wire.Sessions.Current(ctx)
			if err != nil {
				return fmt.Errorf("%s", domain.UserMessage(err))
			}
			epoch, err := wire.Ledger.GetLatestEpoch(ctx)
			if err != nil {
				return err
			}
			info := login.Describe(sess, epoch)
			keys := make([]string, 0, len(info))
			for k := range info {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-14s %s\n", k+":", info[k])
			}
			return nil
		},
	})
	return cmd
}
