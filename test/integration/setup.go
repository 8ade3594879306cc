package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/vncsmyrnk/electionledger/internal/adapters/handler/http"
	repo "github.com/vncsmyrnk/electionledger/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

const testSecret = "test-secret"

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Client      *http.Client
	Invoker     ports.Invoker
	AuditSvc    ports.AuditService
	Tokens      *services.TokenService
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

// setupTestApp wires the full gateway over a fresh Postgres world state. now
// is the clock used to stamp ballots.
func setupTestApp(t *testing.T, now func() time.Time) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.ApplyMigrations(ctx, db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	world := repo.NewWorldStateRepository(db)
	ledger := services.NewElectionLedger(logger)
	invoker := services.NewGatewayService(world, services.NewElectionContract(ledger), logger)

	tokens := services.NewTokenService(testSecret)
	auth := handler.NewAuth(tokens)

	router := handler.NewHandler(world,
		handler.NewElectionHandler(invoker),
		handler.NewVoteHandler(invoker, auth, now),
		handler.NewInvokeHandler(invoker),
		auth,
	)
	server := httptest.NewServer(router)

	return &TestApp{
		DB:          db,
		Server:      server,
		Client:      server.Client(),
		Invoker:     invoker,
		AuditSvc:    services.NewAuditService(invoker),
		Tokens:      tokens,
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if app.DBContainer == nil {
		return
	}
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %s", err)
	}
}

func (app *TestApp) token(t *testing.T, subject, role string) string {
	t.Helper()
	token, err := app.Tokens.IssueAccessToken(subject, role, 15*time.Minute)
	require.NoError(t, err)
	return token
}
