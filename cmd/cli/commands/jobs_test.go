package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/trustgig/internal/db/models"
	"github.com/celestiaorg/trustgig/internal/services"
	"github.com/celestiaorg/trustgig/pkg/api/v1/client"
	"github.com/celestiaorg/trustgig/pkg/api/v1/client/mock"
	"github.com/celestiaorg/trustgig/pkg/api/v1/handlers"
)

// resetFlags puts every flag of cmd and its children back to its default so
// runs do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// runCLI executes the root command against m and returns the output and the
// options the client was built with.
func runCLI(t *testing.T, m *mock.MockClient, args ...string) (string, *client.Options, error) {
	t.Helper()

	var opts *client.Options
	orig := newClient
	newClient = func(o *client.Options) (client.Client, error) {
		opts = o
		return m, nil
	}
	t.Cleanup(func() { newClient = orig })

	resetFlags(RootCmd)
	buf := &bytes.Buffer{}
	RootCmd.SetOut(buf)
	RootCmd.SetErr(buf)
	RootCmd.SetArgs(args)

	err := RootCmd.Execute()
	return buf.String(), opts, err
}

func TestPostJobCmd(t *testing.T) {
	m := &mock.MockClient{
		PostJobFn: func(_ context.Context, _ handlers.JobPostParams) (uint, error) {
			return 7, nil
		},
	}

	out, opts, err := runCLI(t, m, "jobs", "post", "-d", "logo", "-D", "3", "-p", "100", "-c", "0xalice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7}`, out)
	assert.Equal(t, "0xalice", opts.Caller)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "PostJob", calls[0].Method)
	assert.Equal(t, handlers.JobPostParams{Description: "logo", DurationDays: 3, Payment: 100}, calls[0].Args[0])
}

func TestJobActionCmds(t *testing.T) {
	tests := []struct {
		use    string
		method string
	}{
		{use: "apply", method: "ApplyForJob"},
		{use: "cancel", method: "CancelJob"},
		{use: "complete", method: "MarkCompleted"},
		{use: "revise", method: "RequestRevision"},
		{use: "pay", method: "ApproveAndPay"},
		{use: "withdraw", method: "FreelancerRefund"},
		{use: "refund", method: "Refund"},
		{use: "get", method: "GetJob"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			m := &mock.MockClient{}

			out, _, err := runCLI(t, m, "jobs", tt.use, "--id", "4")
			require.NoError(t, err)

			var job models.JobView
			require.NoError(t, json.Unmarshal([]byte(out), &job))
			assert.Equal(t, uint(4), job.ID)

			calls := m.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.method, calls[0].Method)
			assert.Equal(t, uint(4), calls[0].Args[0])
		})
	}

	t.Run("id is required", func(t *testing.T) {
		m := &mock.MockClient{}
		_, _, err := runCLI(t, m, "jobs", "pay")
		require.Error(t, err)
		assert.Empty(t, m.Calls())
	})

	t.Run("client error is wrapped", func(t *testing.T) {
		m := &mock.MockClient{
			RefundFn: func(_ context.Context, id uint) (models.JobView, error) {
				return models.JobView{}, &client.APIError{StatusCode: 412, Code: "deadline_not_reached", Message: "deadline not reached"}
			},
		}
		_, _, err := runCLI(t, m, "jobs", "refund", "--id", "2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error running refund on job 2")
		assert.Equal(t, "deadline_not_reached", client.ErrorCode(err))
	})
}

func TestSelectJobCmd(t *testing.T) {
	m := &mock.MockClient{}

	out, _, err := runCLI(t, m, "jobs", "select", "--id", "3", "-f", "0xbob", "-D", "5")
	require.NoError(t, err)

	var job models.JobView
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, "0xbob", job.Freelancer)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, handlers.JobSelectParams{JobID: 3, Freelancer: "0xbob", DurationDays: 5}, calls[0].Args[0])
}

func TestListJobsCmd(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		m := &mock.MockClient{}
		_, _, err := runCLI(t, m, "jobs", "list", "-F", "marketplace", "-w", "10", "-b", "30")
		require.NoError(t, err)

		calls := m.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "ListJobs", calls[0].Method)
		assert.Equal(t, handlers.JobListParams{Filter: "marketplace", Window: 10, Before: 30}, calls[0].Args[0])
	})

	t.Run("invalid filter never reaches the server", func(t *testing.T) {
		m := &mock.MockClient{}
		_, _, err := runCLI(t, m, "jobs", "list", "-F", "everything")
		require.Error(t, err)
		assert.Empty(t, m.Calls())
	})

	t.Run("recent", func(t *testing.T) {
		m := &mock.MockClient{
			RecentJobsFn: func(_ context.Context, _ int) ([]models.JobView, error) {
				return []models.JobView{{ID: 2}, {ID: 1}}, nil
			},
		}
		out, _, err := runCLI(t, m, "jobs", "list", "--recent", "-w", "2")
		require.NoError(t, err)

		var jobs []models.JobView
		require.NoError(t, json.Unmarshal([]byte(out), &jobs))
		require.Len(t, jobs, 2)
		assert.Equal(t, uint(2), jobs[0].ID)

		calls := m.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "RecentJobs", calls[0].Method)
		assert.Equal(t, 2, calls[0].Args[0])
	})
}

func TestReadCmds(t *testing.T) {
	m := &mock.MockClient{
		JobCounterFn: func(_ context.Context) (uint, error) { return 12, nil },
		StatsFn: func(_ context.Context) (services.Stats, error) {
			return services.Stats{TotalJobs: 12, OpenMarket: 3, MyActiveJobs: 1, TotalReleased: 250}, nil
		},
	}

	out, _, err := runCLI(t, m, "jobs", "counter")
	require.NoError(t, err)
	assert.JSONEq(t, `{"counter":12}`, out)

	out, _, err = runCLI(t, m, "jobs", "stats", "-c", "0xalice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_jobs":12,"open_market":3,"my_active_jobs":1,"total_released":250}`, out)

	_, _, err = runCLI(t, m, "jobs", "ledger", "--id", "5")
	require.NoError(t, err)

	calls := m.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "LedgerEntries", calls[2].Method)
	assert.Equal(t, uint(5), calls[2].Args[0])
}

func TestAccountCmds(t *testing.T) {
	t.Run("balance", func(t *testing.T) {
		m := &mock.MockClient{
			BalanceFn: func(_ context.Context, identity string) (models.Account, error) {
				return models.Account{Identity: identity, Balance: 40}, nil
			},
		}
		out, _, err := runCLI(t, m, "accounts", "balance", "-I", "0xbob")
		require.NoError(t, err)

		var account models.Account
		require.NoError(t, json.Unmarshal([]byte(out), &account))
		assert.Equal(t, "0xbob", account.Identity)
		assert.Equal(t, int64(40), account.Balance)
	})

	t.Run("fund", func(t *testing.T) {
		m := &mock.MockClient{}
		_, _, err := runCLI(t, m, "accounts", "fund", "-a", "500", "-c", "0xalice")
		require.NoError(t, err)

		calls := m.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "Fund", calls[0].Method)
		assert.Equal(t, []interface{}{"", int64(500)}, calls[0].Args)
	})

	t.Run("fund rejects a non positive amount", func(t *testing.T) {
		m := &mock.MockClient{}
		_, _, err := runCLI(t, m, "accounts", "fund", "-a", "0")
		require.Error(t, err)
		assert.Empty(t, m.Calls())
	})
}

func TestRootEnvOverrides(t *testing.T) {
	t.Setenv(envServerAddress, "http://escrow.internal:9000")
	t.Setenv(envCaller, "0xcarol")

	m := &mock.MockClient{}
	_, opts, err := runCLI(t, m, "jobs", "counter")
	require.NoError(t, err)
	assert.Equal(t, "http://escrow.internal:9000", opts.BaseURL)
	assert.Equal(t, "0xcarol", opts.Caller)

	_, opts, err = runCLI(t, m, "jobs", "counter", "-c", "0xdave")
	require.NoError(t, err)
	assert.Equal(t, "0xdave", opts.Caller)
}
