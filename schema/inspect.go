// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package schema reflects the schema of a live GizmoSQL database into
// in-memory metadata. It issues plain SQL against information_schema
// and the duckdb_constraints() table function, so it works over any
// database/sql handle opened with the gizmosql driver.
package schema

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// DefaultSchema is the schema GizmoSQL places tables in when none is
// specified.
const DefaultSchema = "main"

// Querier is the subset of database/sql used by the Inspector. It is
// satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Column describes one reflected table column.
type Column struct {
	Name string
	// DatabaseType is the type name the server reported, e.g. VARCHAR
	// or DECIMAL(18,3).
	DatabaseType string
	Type         arrow.DataType
	Nullable     bool
	Default      sql.NullString
}

// PrimaryKey describes a table's primary key constraint.
type PrimaryKey struct {
	Name    string
	Columns []string
}

// ForeignKey describes one foreign key constraint on a table.
type ForeignKey struct {
	Name            string
	Columns         []string
	ReferredSchema  string
	ReferredTable   string
	ReferredColumns []string
}

// CheckConstraint describes one check constraint on a table.
type CheckConstraint struct {
	Name       string
	Expression string
}

// Index describes one index on a table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Inspector reflects schema metadata from a GizmoSQL server.
type Inspector struct {
	q      Querier
	schema string
	logger *slog.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithDefaultSchema overrides the schema used when a call passes an
// empty schema name.
func WithDefaultSchema(name string) Option {
	return func(i *Inspector) { i.schema = name }
}

// WithLogger sets the logger unsupported-feature warnings are written to.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) { i.logger = logger }
}

// NewInspector creates an Inspector over q, normally a *sql.DB opened
// with the gizmosql driver.
func NewInspector(q Querier, opts ...Option) *Inspector {
	i := &Inspector{q: q, schema: DefaultSchema, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

const schemaNamesQuery = `
SELECT DISTINCT table_schema AS schema_name
  FROM information_schema.tables
 WHERE table_catalog = current_database()
 ORDER BY 1 ASC`

// SchemaNames returns the names of all schemas in the current database.
func (i *Inspector) SchemaNames(ctx context.Context) ([]string, error) {
	return i.stringColumn(ctx, schemaNamesQuery)
}

const tableNamesQuery = `
SELECT table_name
  FROM information_schema.tables
 WHERE table_catalog = current_database()
   AND table_type = 'BASE TABLE'
   AND table_schema = ?
 ORDER BY 1 ASC`

// TableNames returns the names of the base tables in the given schema.
func (i *Inspector) TableNames(ctx context.Context, schema string) ([]string, error) {
	return i.stringColumn(ctx, tableNamesQuery, i.schemaOrDefault(schema))
}

const viewNamesQuery = `
SELECT table_name
  FROM information_schema.tables
 WHERE table_catalog = current_database()
   AND table_type = 'VIEW'
   AND table_schema = ?
 ORDER BY 1 ASC`

// ViewNames returns the names of the views in the given schema.
func (i *Inspector) ViewNames(ctx context.Context, schema string) ([]string, error) {
	return i.stringColumn(ctx, viewNamesQuery, i.schemaOrDefault(schema))
}

const hasTableQuery = `
SELECT 1
  FROM information_schema.tables
 WHERE table_catalog = current_database()
   AND table_schema = ?
   AND table_name = ?`

// HasTable reports whether the named table or view exists.
func (i *Inspector) HasTable(ctx context.Context, schema, table string) (bool, error) {
	rows, err := i.q.QueryContext(ctx, hasTableQuery, i.schemaOrDefault(schema), table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

const columnsQuery = `
SELECT column_name
     , data_type
     , is_nullable
     , column_default
  FROM information_schema.columns
 WHERE table_catalog = current_database()
   AND table_schema = ?
   AND table_name = ?
 ORDER BY ordinal_position ASC`

// Columns returns the columns of the named table in declaration order.
func (i *Inspector) Columns(ctx context.Context, schema, table string) ([]Column, error) {
	rows, err := i.q.QueryContext(ctx, columnsQuery, i.schemaOrDefault(schema), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			col      Column
			nullable string
		)
		if err := rows.Scan(&col.Name, &col.DatabaseType, &nullable, &col.Default); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		if col.Type, err = ColumnType(col.DatabaseType); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

const pkConstraintQuery = `
SELECT constraint_name
     , constraint_column_names
  FROM duckdb_constraints()
 WHERE constraint_type = 'PRIMARY KEY'
   AND database_name = current_database()
   AND schema_name = ?
   AND table_name = ?`

// PrimaryKey returns the primary key of the named table, or nil when
// the table has none.
func (i *Inspector) PrimaryKey(ctx context.Context, schema, table string) (*PrimaryKey, error) {
	rows, err := i.q.QueryContext(ctx, pkConstraintQuery, i.schemaOrDefault(schema), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk *PrimaryKey
	for rows.Next() {
		var name, cols string
		if err := rows.Scan(&name, &cols); err != nil {
			return nil, err
		}
		pk = &PrimaryKey{Name: name, Columns: parseNameList(cols)}
	}
	return pk, rows.Err()
}

const fkConstraintsQuery = `
SELECT constraint_name
     , constraint_column_names
     , schema_name               AS referred_schema
     , referenced_table          AS referred_table
     , referenced_column_names   AS referred_columns
  FROM duckdb_constraints()
 WHERE constraint_type = 'FOREIGN KEY'
   AND database_name = current_database()
   AND schema_name = ?
   AND table_name = ?
 ORDER BY constraint_name ASC`

// ForeignKeys returns the foreign key constraints of the named table.
func (i *Inspector) ForeignKeys(ctx context.Context, schema, table string) ([]ForeignKey, error) {
	rows, err := i.q.QueryContext(ctx, fkConstraintsQuery, i.schemaOrDefault(schema), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var (
			fk         ForeignKey
			cols, refs string
		)
		if err := rows.Scan(&fk.Name, &cols, &fk.ReferredSchema, &fk.ReferredTable, &refs); err != nil {
			return nil, err
		}
		fk.Columns = parseNameList(cols)
		fk.ReferredColumns = parseNameList(refs)
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

const checkConstraintsQuery = `
SELECT constraint_name
     , expression AS sqltext
  FROM duckdb_constraints()
 WHERE constraint_type = 'CHECK'
   AND database_name = current_database()
   AND schema_name = ?
   AND table_name = ?`

// CheckConstraints returns the check constraints of the named table.
func (i *Inspector) CheckConstraints(ctx context.Context, schema, table string) ([]CheckConstraint, error) {
	rows, err := i.q.QueryContext(ctx, checkConstraintsQuery, i.schemaOrDefault(schema), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []CheckConstraint
	for rows.Next() {
		var check CheckConstraint
		if err := rows.Scan(&check.Name, &check.Expression); err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, rows.Err()
}

// Indexes always returns nil: GizmoSQL does not expose index metadata
// for reflection yet. A warning is logged so callers can tell this
// apart from a table without indexes.
func (i *Inspector) Indexes(ctx context.Context, schema, table string) ([]Index, error) {
	i.logger.WarnContext(ctx, "index reflection is not supported by GizmoSQL",
		"schema", i.schemaOrDefault(schema), "table", table)
	return nil, nil
}

func (i *Inspector) schemaOrDefault(schema string) string {
	if schema == "" {
		return i.schema
	}
	return schema
}

func (i *Inspector) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := i.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// parseNameList parses a DuckDB list literal such as [id, org_id] into
// its element names. Lists arrive rendered as text because the
// database/sql bridge surfaces only scalar column values.
func parseNameList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `'"`)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}
