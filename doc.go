// SPDX-License-Identifier: MIT

// Package cyclekit wires an ORM, a database abstraction layer and a
// migration engine into a dependency injection container and exposes them
// as cycle:* CLI commands.
//
// The pieces live in sub-packages:
//
//   - pkg/dbal      named databases over database/sql (pgx, lib/pq, sqlite, mysql)
//   - pkg/migrator  single-file SQL migrations with up and down sections
//   - pkg/schema    YAML entity definitions compiled through a generator pipeline
//   - pkg/orm       the compiled schema bound to its databases
//   - pkg/cache     memory, file and redis caches for the compiled schema
//   - pkg/seed      SQL and Go seeds
//   - pkg/provider  the services, aliases and commands registered in samber/do
//
// # Configuration
//
// The cyclekit binary reads cyclekit.yaml (or the file named by --config or
// $CYCLEKIT_CONFIG):
//
//	cycle:
//	  db-config:
//	    databases:
//	      main-db: { connection: main }
//	    connections:
//	      main: { driver: sqlite, dsn: "file:app.db" }
//	  entities: [db/entities]
//	  schema:
//	    property: sync_tables
//	    cache: { enabled: true }
//	  migrator:
//	    directory: db/migrations
//	    seed-directory: db/seeds
//	cache:
//	  adapter: memory
//
// Any key can be overridden from the environment with the CYCLEKIT_ prefix,
// e.g. CYCLEKIT_CYCLE_MIGRATOR_DIRECTORY.
//
// # Migration files
//
// Migrations are named <YYYYMMDD>.<HHMMSS>_0_<counter>_<Name>.sql. The counter
// is one more than the highest counter already used for Name in the directory:
//
//	20240101.120000_0_0_CreateUsers.sql
//
//	-- namespace: Migration
//	-- id: Orm2f6c...
//	-- database: main-db
//	-- +migrate up
//	CREATE TABLE users (id INTEGER PRIMARY KEY);
//	-- +migrate down
//	DROP TABLE users;
//
// # Commands
//
//	cycle:migrator:run       run all pending migrations
//	cycle:migrator:rollback  roll back the last executed migration
//	cycle:migrator:create    scaffold an empty migration
//	cycle:seed:create        scaffold a seed
//	cycle:seed:run           run one seed or all of them
//	cycle:cache:clear        delete the cached schema
//
// Setting CYCLE_MIGRATIONS_DISABLED=1 removes the migration and seed commands
// and replaces the migrator with one that refuses to run.
package cyclekit
