package cli

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fauxsmith/fauxsmith/internal/mailer"
	"github.com/fauxsmith/fauxsmith/internal/storage"
	"github.com/fauxsmith/fauxsmith/pkg/admin"
	"github.com/fauxsmith/fauxsmith/pkg/config"
	"github.com/fauxsmith/fauxsmith/pkg/logging"
	"github.com/fauxsmith/fauxsmith/pkg/serve"
	"github.com/fauxsmith/fauxsmith/pkg/store/file"
	"github.com/fauxsmith/fauxsmith/pkg/token"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 15 * time.Second

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

type serveFlags struct {
	servePort int
	adminPort int
	dataFile  string
	logLevel  string
	logFormat string
	fixtures  string
	watch     bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mock engine and authoring API (foreground)",
	Long: `Start both servers: the public mock engine and the authoring API.

The engine serves stored mocks at /mocks/{owner}/{route} and the mock auth
flows at /mock-auth/...; the authoring API manages accounts, mock
definitions and auth schemas.`,
	Example: `  # Start with defaults (engine :4280, authoring API :4290)
  fauxsmith serve

  # Persist definitions to a JSON file
  fauxsmith serve --data-file fauxsmith.json

  # Seed from fixture files and reload on change
  fauxsmith serve --fixtures 'fixtures/**/*.yaml' --watch`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&serveFlagVals.servePort, "port", config.DefaultServePort, "Port for the public mock engine")
	serveCmd.Flags().IntVar(&serveFlagVals.adminPort, "admin-port", config.DefaultAdminPort, "Port for the authoring API")
	serveCmd.Flags().StringVar(&serveFlagVals.dataFile, "data-file", "", "JSON file to persist definitions and accounts to")
	serveCmd.Flags().StringVar(&serveFlagVals.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().StringVar(&serveFlagVals.logFormat, "log-format", "", "Log format: text or json")
	serveCmd.Flags().StringVar(&serveFlagVals.fixtures, "fixtures", "", "Glob of fixture files to seed at startup")
	serveCmd.Flags().BoolVar(&serveFlagVals.watch, "watch", false, "Reload fixtures when files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: os.Stderr,
	})

	ttl, err := cfg.Token.TTLDuration()
	if err != nil {
		return err
	}
	secret := []byte(cfg.Token.Secret)
	if len(secret) == 0 {
		// Tokens signed with a per-process secret stop verifying after a
		// restart. Fine for local use, wrong for anything shared.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generating token secret: %w", err)
		}
		log.Warn("no token secret configured, using a random per-process secret")
	}
	issuer := token.NewIssuer(secret, "fauxsmith", ttl, token.NewMemoryRevoker())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		accounts  storage.AccountStore
		defs      storage.DefinitionStore
		auths     storage.AuthDefinitionStore
		mockUsers storage.MockUserStore
		fileStore *file.Store
	)
	if cfg.DataFile != "" {
		fileStore = file.New(cfg.DataFile, log)
		if err := fileStore.Open(ctx); err != nil {
			return fmt.Errorf("opening data file: %w", err)
		}
		accounts = fileStore.Accounts()
		defs = fileStore.Definitions()
		auths = fileStore.AuthDefinitions()
		mockUsers = fileStore.MockUsers()
	} else {
		users := storage.NewMemoryMockUserStore()
		accounts = storage.NewMemoryAccountStore()
		defs = storage.NewMemoryDefinitionStore()
		auths = storage.NewMemoryAuthDefinitionStore(users)
		mockUsers = users
	}

	if cfg.Fixtures.Glob != "" {
		seedTargets := seedStores{accounts: accounts, defs: defs, auths: auths}
		if err := seedFixtures(cfg.Fixtures.Glob, seedTargets, log); err != nil {
			return fmt.Errorf("seeding fixtures: %w", err)
		}
		if cfg.Fixtures.Watch {
			go func() {
				// Blocks until ctx is cancelled at shutdown.
				err := config.WatchFixtures(ctx, cfg.Fixtures.Glob, log, func() {
					if err := seedFixtures(cfg.Fixtures.Glob, seedTargets, log); err != nil {
						log.Error("reloading fixtures", "error", err)
					}
				})
				if err != nil {
					log.Error("fixture watcher stopped", "error", err)
				}
			}()
		}
	}

	engine := serve.New(cfg.ServePort, serve.Stores{
		Accounts:    accounts,
		Definitions: defs,
		AuthDefs:    auths,
		MockUsers:   mockUsers,
	}, issuer, serve.WithLogger(log))

	api := admin.New(cfg.AdminPort, admin.Stores{
		Accounts:    accounts,
		ResetTokens: storage.NewMemoryResetTokenStore(),
		Definitions: defs,
		AuthDefs:    auths,
		MockUsers:   mockUsers,
	}, issuer,
		admin.WithLogger(log),
		admin.WithCORS(cfg.CORS),
		admin.WithRateLimit(cfg.Rate),
		admin.WithMailer(mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)),
		admin.WithVersion(Version),
	)

	if err := engine.Start(ctx); err != nil {
		return err
	}
	if err := api.Start(ctx); err != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		_ = engine.Stop(stopCtx)
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := api.Stop(shutdownCtx); err != nil {
		log.Warn("authoring API shutdown", "error", err)
	}
	if err := engine.Stop(shutdownCtx); err != nil {
		log.Warn("mock engine shutdown", "error", err)
	}
	if fileStore != nil {
		if err := fileStore.Close(shutdownCtx); err != nil {
			log.Warn("closing data file", "error", err)
		}
	}
	return nil
}

// applyServeFlags overlays explicitly-set flags onto the loaded config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := serveFlagVals
	if cmd.Flags().Changed("port") {
		cfg.ServePort = f.servePort
	}
	if cmd.Flags().Changed("admin-port") {
		cfg.AdminPort = f.adminPort
	}
	if cmd.Flags().Changed("data-file") {
		cfg.DataFile = f.dataFile
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if cmd.Flags().Changed("fixtures") {
		cfg.Fixtures.Glob = f.fixtures
	}
	if cmd.Flags().Changed("watch") {
		cfg.Fixtures.Watch = f.watch
	}
}
