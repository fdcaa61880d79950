package state

import "embed"

// migrationFiles holds the versioned schema for the SQL backends, named
// NNNN_description.sql.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS

// snapshotID is the single row holding the snapshot; the dashboard is single-user.
const snapshotID = "default"
