package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/trustgig/pkg/api/v1/client"
	"github.com/celestiaorg/trustgig/pkg/api/v1/routes"
)

// flag names
const (
	flagServerAddress = "server-address"
	flagCaller        = "caller"
)

// environment variable names
const (
	envServerAddress = "TRUSTGIG_SERVER_ADDRESS"
	envCaller        = "TRUSTGIG_CALLER"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// serverAddress holds the target API server address. Flag parsing sets this.
	serverAddress string
	// caller is the identity the CLI acts as
	caller string

	// newClient builds the API client; tests replace it
	newClient = client.NewClient
)

// initClient initializes the API client
func initClient() error {
	opts := client.DefaultOptions()
	opts.BaseURL = serverAddress
	opts.Caller = caller

	var err error
	apiClient, err = newClient(opts)
	return err
}

func init() {
	// PersistentPreRunE handles the env var override.
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", routes.DefaultBaseURL, "Address of the TrustGig API server (env: TRUSTGIG_SERVER_ADDRESS)")
	RootCmd.PersistentFlags().StringVarP(&caller, flagCaller, "c", "", "Identity to act as (env: TRUSTGIG_CALLER)")

	RootCmd.AddCommand(GetJobsCmd())
	RootCmd.AddCommand(GetAccountsCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "trustgig",
	Short: "TrustGig CLI - A command line interface for the TrustGig escrow API",
	Long: `TrustGig CLI posts jobs, moves them through the escrow lifecycle and
inspects accounts through the TrustGig API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Flag > Env Var > Default
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(envServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}
		if !cmd.Flags().Changed(flagCaller) {
			if envCallerID := os.Getenv(envCaller); envCallerID != "" {
				caller = envCallerID
			}
		}

		if serverAddress == "" {
			return fmt.Errorf("server address cannot be empty")
		}
		return initClient()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// printJSON pretty prints v to w
func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
