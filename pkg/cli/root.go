// Package cli wires configuration, the database pool, and the engine
// services into the parcelgraph command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madriverdata/parcelgraph/pkg/config"
	"github.com/madriverdata/parcelgraph/pkg/database"
	"github.com/madriverdata/parcelgraph/pkg/repositories"
	"github.com/madriverdata/parcelgraph/pkg/services"
)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB

	parcels    repositories.ParcelRepository
	people     repositories.PersonRepository
	orgs       repositories.OrganizationRepository
	ownerships repositories.OwnershipRepository
	dwellings  repositories.DwellingRepository
	transfers  repositories.TransferRepository
	listings   repositories.ListingRepository
	reviews    repositories.ReviewRepository

	matcher   services.RecordMatcher
	resolver  services.IdentityResolver
	grandList services.GrandListService
	transfer  services.TransferService
	listing   services.ListingService
	inference services.DwellingInferenceService
	review    services.ReviewService
	stats     services.StatsService
}

// Execute runs the command tree. version is injected at build time.
func Execute(version string) error {
	// A missing .env is fine; production sets real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load(version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a := &app{cfg: cfg, logger: logger}

	root := &cobra.Command{
		Use:           "parcelgraph",
		Short:         "Property entity resolution and dwelling classification engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.migrateCmd(),
		a.importCmd(),
		a.transformCmd(),
		a.inferCmd(),
		a.reviewCmd(),
		a.statsCmd(),
	)

	defer a.close()
	return root.Execute()
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// open connects the pool and builds the repository and service graph.
// Commands call it in their RunE so `--help` never needs a database.
func (a *app) open(ctx context.Context) error {
	if a.db != nil {
		return nil
	}

	db, err := database.NewConnection(ctx, &database.Config{
		ConnString:     a.cfg.Database.ConnectionString(),
		MaxConnections: a.cfg.Database.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db

	a.parcels = repositories.NewParcelRepository()
	a.people = repositories.NewPersonRepository()
	a.orgs = repositories.NewOrganizationRepository()
	a.ownerships = repositories.NewOwnershipRepository()
	a.dwellings = repositories.NewDwellingRepository()
	a.transfers = repositories.NewTransferRepository()
	a.listings = repositories.NewListingRepository()
	a.reviews = repositories.NewReviewRepository()

	a.matcher = services.NewRecordMatcher(a.parcels, services.MatcherThresholds{
		MaxCentroidDistanceM: a.cfg.Matcher.MaxCentroidDistanceM,
		ConfidenceFloor:      a.cfg.Matcher.ConfidenceFloor,
	}, a.logger)
	a.resolver = services.NewIdentityResolver(a.people, a.orgs, a.cfg.Town, a.logger)
	a.grandList = services.NewGrandListService(a.db, a.parcels, a.ownerships, a.resolver,
		a.cfg.Town, a.cfg.Batch.CommitWindow, a.cfg.Batch.MaxErrorSample, a.logger)
	a.transfer = services.NewTransferService(a.db, a.transfers, a.matcher,
		a.cfg.Batch.CommitWindow, a.cfg.Batch.MaxErrorSample, a.logger)
	a.listing = services.NewListingService(a.db, a.listings, a.reviews, a.matcher,
		a.cfg.Batch.CommitWindow, a.cfg.Batch.MaxErrorSample, a.logger)
	a.review = services.NewReviewService(a.db, a.reviews, a.dwellings, a.listings, a.logger)
	a.stats = services.NewStatsService(a.db, a.parcels, a.people, a.orgs, a.ownerships,
		a.dwellings, a.transfers, a.listings, a.reviews)
	return nil
}

// openInference defers service construction until the tax year flag is
// parsed.
func (a *app) openInference(ctx context.Context, taxYear int) error {
	if err := a.open(ctx); err != nil {
		return err
	}
	a.inference = services.NewDwellingInferenceService(a.db, a.parcels, a.dwellings,
		a.listings, taxYear, a.cfg.Batch.CommitWindow, a.logger)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}
