package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_challenges.sql
var createChallengesSQL string

//go:embed 0002_create_users.sql
var createUsersSQL string

//go:embed 0003_create_submissions.sql
var createSubmissionsSQL string

var Migrations = migrate.NewMigrations()

func init() {
	register("20241122010001", "challenges", createChallengesSQL)
	register("20241122010002", "users", createUsersSQL)
	register("20241122010003", "submissions", createSubmissionsSQL)
}

// register adds a create-table migration; names sort by their timestamp prefix.
func register(version, table, up string) {
	Migrations.Add(migrate.Migration{
		Name: version + "_create_" + table,
		Up: func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, up)
			return err
		},
		Down: func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
			return err
		},
	})
}
