package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/trustgig/internal/db/models"
)

func TestNewSuite(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()

	assert.Same(t, t, suite.T())
	assert.NotNil(t, suite.App, "app should be initialized")
	assert.NotNil(t, suite.Server, "server should be initialized")
	assert.NotNil(t, suite.APIClient, "API client should be initialized")
	assert.NotNil(t, suite.DB, "database should be initialized")
	assert.NotNil(t, suite.JobRepo, "job repository should be initialized")
	assert.NotNil(t, suite.Escrow, "escrow should be initialized")
	assert.NotNil(t, suite.Context(), "context should be set")
}

func TestSuiteDatabase(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()

	counter, err := suite.JobRepo.Counter(suite.Context())
	require.NoError(t, err)
	assert.Zero(t, counter, "counter should be seeded at zero")

	suite.Fund("0xa11ce", 10)
	assert.Equal(t, int64(10), suite.Balance("0xa11ce"))

	id, err := suite.Escrow.PostJob(suite.Context(), "0xa11ce", "audit", 1, 10)
	require.NoError(t, err)

	job, err := suite.JobRepo.Get(suite.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOpen, job.Status)
	assert.Zero(t, suite.Balance("0xa11ce"))
}

func TestSuiteHealth(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()

	resp, err := suite.APIClient.HealthCheck(suite.Context())
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp["status"])
}
