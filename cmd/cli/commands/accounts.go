package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Account flag names
const (
	flagIdentity = "identity"
	flagAmount   = "amount"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Inspect and fund wallet accounts",
}

// GetAccountsCmd returns the accounts command
func GetAccountsCmd() *cobra.Command {
	return accountsCmd
}

func init() {
	accountsCmd.AddCommand(balanceCmd)
	accountsCmd.AddCommand(fundCmd)

	balanceCmd.Flags().StringP(flagIdentity, "I", "", "Identity to inspect, defaults to the caller")

	fundCmd.Flags().StringP(flagIdentity, "I", "", "Identity to credit, defaults to the caller")
	fundCmd.Flags().Int64P(flagAmount, "a", 0, "Amount to credit")
	_ = fundCmd.MarkFlagRequired(flagAmount)
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the balance of an account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		identity, _ := cmd.Flags().GetString(flagIdentity)

		account, err := apiClient.Balance(context.Background(), identity)
		if err != nil {
			return fmt.Errorf("error fetching balance: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), account)
	},
}

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Credit an account from the development faucet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		identity, _ := cmd.Flags().GetString(flagIdentity)
		amount, _ := cmd.Flags().GetInt64(flagAmount)
		if amount <= 0 {
			return fmt.Errorf("amount must be positive")
		}

		account, err := apiClient.Fund(context.Background(), identity, amount)
		if err != nil {
			return fmt.Errorf("error funding account: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), account)
	},
}
