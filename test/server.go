package test

import (
	"net/http/httptest"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/celestiaorg/trustgig/internal/lock"
	"github.com/celestiaorg/trustgig/internal/services"
	"github.com/celestiaorg/trustgig/pkg/api/v1/client"
	"github.com/celestiaorg/trustgig/pkg/api/v1/handlers"
	"github.com/celestiaorg/trustgig/pkg/api/v1/middleware"
	"github.com/celestiaorg/trustgig/pkg/api/v1/routes"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// SetupServer configures the test suite with a real API server
func SetupServer(suite *Suite) {
	suite.App = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	suite.App.Use(middleware.Logger())
	suite.App.Use(middleware.Caller())

	ledger := services.NewLedger(suite.LedgerRepo, suite.Book)
	suite.Escrow = services.NewEscrow(suite.DB, suite.JobRepo, ledger, lock.NewMemory(), suite.Clock).
		WithPublisher(suite.Events.Publish)

	jobHandler := handlers.NewJobHandlers(suite.Escrow)
	rpcHandler := &handlers.RPCHandler{
		JobHandlers:     jobHandler,
		AccountHandlers: handlers.NewAccountHandlers(suite.Book, true),
	}
	routes.RegisterRoutes(suite.App, jobHandler, rpcHandler)

	// Create test server using adaptor to convert Fiber app to http.Handler
	suite.Server = httptest.NewServer(adaptor.FiberApp(suite.App))
	suite.APIClient = suite.ClientFor("")

	originalCleanup := suite.cleanup
	suite.cleanup = func() {
		if suite.Server != nil {
			suite.Server.Close()
		}
		if originalCleanup != nil {
			originalCleanup()
		}
	}
}

// ClientFor returns an API client acting as caller
func (s *Suite) ClientFor(caller string) client.Client {
	c, err := client.NewClient(&client.Options{
		BaseURL: s.Server.URL,
		Timeout: testClientTimeout,
		Caller:  caller,
	})
	s.Require().NoError(err, "Failed to create API client")
	return c
}
