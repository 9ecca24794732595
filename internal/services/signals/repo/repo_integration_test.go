//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"sigscore/internal/platform/store"
	"sigscore/internal/services/signals/domain"
	"sigscore/migrations"
)

func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func migrate(t *testing.T, dsn string) {
	t.Helper()

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		t.Fatalf("open migration db: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("set dialect: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
}

func TestDedupRoundTrip_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()
	migrate(t, dsn)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn}})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close(context.Background())

	r := NewPG().Bind(st.PG)
	sig := domain.Signal{
		ID:         "8f14e45f-ceea-467f-a8fb-9f2f7d1e0b42",
		OrgID:      "org-1",
		SourceType: domain.SourceGitHub,
		ActorID:    "octocat",
		Type:       domain.TypeRepoStar,
		Metadata:   map[string]any{"repo": "acme/widgets"},
		Timestamp:  time.Now().UTC().Truncate(time.Microsecond),
		DedupKey:   domain.Fingerprint(domain.SourceGitHub, "octocat", domain.TypeRepoStar, map[string]any{"repo": "acme/widgets"}),
	}

	inserted, err := r.Insert(ctx, sig)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert reported no row created")
	}

	dup := sig
	dup.ID = "14b57bcb-1b2a-4e29-9b5e-1cda2a9a9f11"
	inserted, err = r.Insert(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate dedup key created a second row")
	}

	got, err := r.GetByDedupKey(ctx, "org-1", sig.DedupKey)
	if err != nil {
		t.Fatalf("GetByDedupKey: %v", err)
	}
	if got.ID != sig.ID {
		t.Fatalf("stored id = %s, want %s", got.ID, sig.ID)
	}
	if got.Metadata["repo"] != "acme/widgets" {
		t.Fatalf("metadata = %v", got.Metadata)
	}

	list, err := r.List(ctx, "org-1", domain.ListInput{Source: "github"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("listed %d signals, want 1", len(list))
	}
}
