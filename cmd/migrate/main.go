package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/nett/internal/config"
	"github.com/dvloznov/nett/internal/logger"
	bqstore "github.com/dvloznov/nett/internal/store/bigquery"
)

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

type migrator struct {
	client    *bigquery.Client
	ds        bqstore.Dataset
	appliedBy string
	log       zerolog.Logger
}

func main() {
	var (
		envFile       = flag.String("env", ".env", "Path to an optional .env file")
		projectID     = flag.String("project", "", "GCP project ID (overrides BQ_PROJECT)")
		datasetID     = flag.String("dataset", "", "BigQuery dataset ID (overrides BQ_DATASET)")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "", "Read migrations from this directory instead of the built-in set")
		dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	log := logger.New()
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithLevel(cfg.LogLevel)
	ctx := logger.WithContext(context.Background(), log)

	ds := bqstore.Dataset{Project: cfg.BigQueryProject, Name: cfg.BigQueryDataset}
	if *projectID != "" {
		ds.Project = *projectID
	}
	if *datasetID != "" {
		ds.Name = *datasetID
	}
	if ds.Project == "" {
		log.Fatal().Msg("Error: -project flag or BQ_PROJECT is required")
	}

	var fsys fs.FS
	if *migrationsDir != "" {
		fsys = os.DirFS(*migrationsDir)
	} else {
		fsys, err = fs.Sub(bqstore.Migrations, "migrations")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open built-in migrations")
		}
	}

	migrations, skipped, err := bqstore.ReadMigrations(fsys, ds)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	for _, name := range skipped {
		log.Warn().Str("file", name).Msg("Skipping file with invalid format")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, ds.Project)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	m := &migrator{client: client, ds: ds, appliedBy: *appliedBy, log: log}
	log.Info().Str("project", ds.Project).Str("dataset", ds.Name).Msg("Connected to BigQuery")

	if err := m.ensureSchemaMigrationsTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}
	log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	versions := make(map[int]bool, len(applied))
	for _, am := range applied {
		versions[am.Version] = true
		for _, mig := range migrations {
			if mig.Version == am.Version && am.Checksum != "" && mig.Checksum != am.Checksum {
				log.Warn().Str("migration", mig.Filename).Msg("Applied migration was modified after it ran")
			}
		}
	}

	pending := bqstore.Pending(migrations, versions)
	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
		return
	}

	for _, mig := range pending {
		if *dryRun {
			log.Info().Str("migration", mig.Filename).Msg("[DRY RUN] Would apply migration")
			continue
		}

		log.Info().Str("migration", mig.Filename).Msg("Applying migration")
		if err := m.run(ctx, mig.SQL, nil); err != nil {
			log.Fatal().Err(err).Str("migration", mig.Filename).Msg("Failed to execute migration")
		}
		if err := m.record(ctx, mig); err != nil {
			log.Fatal().Err(err).Str("migration", mig.Filename).Msg("Failed to record migration")
		}
	}

	if !*dryRun {
		fmt.Printf("Successfully applied %d migration(s)\n", len(pending))
	}
}

// ensureSchemaMigrationsTable creates the schema_migrations table if it doesn't exist.
func (m *migrator) ensureSchemaMigrationsTable(ctx context.Context) error {
	sql := `
		CREATE TABLE IF NOT EXISTS ` + m.ds.Table("schema_migrations") + ` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`
	if err := m.run(ctx, sql, nil); err != nil {
		return fmt.Errorf("ensureSchemaMigrationsTable: %w", err)
	}
	return nil
}

// appliedMigrations lists the migrations already recorded, oldest version first.
func (m *migrator) appliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	q := m.client.Query(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM ` + m.ds.Table("schema_migrations") + `
		ORDER BY version ASC
	`)
	it, err := q.Read(ctx)
	if err != nil {
		// The table is created just before, but may not be visible yet.
		if strings.Contains(err.Error(), "Not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("appliedMigrations: reading: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("appliedMigrations: iterating: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}

// record stores a successfully applied migration in schema_migrations.
func (m *migrator) record(ctx context.Context, mig bqstore.Migration) error {
	sql := `
		INSERT INTO ` + m.ds.Table("schema_migrations") + `
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`
	params := []bigquery.QueryParameter{
		{Name: "version", Value: mig.Version},
		{Name: "name", Value: mig.Name},
		{Name: "checksum", Value: mig.Checksum},
		{Name: "applied_by", Value: m.appliedBy},
	}
	if err := m.run(ctx, sql, params); err != nil {
		return fmt.Errorf("record %s: %w", mig.Filename, err)
	}
	m.log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("Migration recorded")
	return nil
}

func (m *migrator) run(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := m.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
