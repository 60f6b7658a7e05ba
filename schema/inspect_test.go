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

package schema

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockInspector(t *testing.T, opts ...Option) (*Inspector, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewInspector(db, opts...), mock
}

func TestSchemaNames(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(schemaNamesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"schema_name"}).
			AddRow("information_schema").
			AddRow("main"))

	names, err := insp.SchemaNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"information_schema", "main"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableNamesDefaultSchema(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(tableNamesQuery)).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("orders").
			AddRow("users"))

	names, err := insp.TableNames(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViewNamesExplicitSchema(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(viewNamesQuery)).
		WithArgs("analytics").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("daily_totals"))

	names, err := insp.ViewNames(context.Background(), "analytics")
	require.NoError(t, err)
	assert.Equal(t, []string{"daily_totals"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasTable(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(hasTableQuery)).
		WithArgs("main", "users").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(hasTableQuery)).
		WithArgs("main", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	ok, err := insp.HasTable(context.Background(), "", "users")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = insp.HasTable(context.Background(), "", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumns(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("main", "orders").
		WillReturnRows(sqlmock.NewRows(
			[]string{"column_name", "data_type", "is_nullable", "column_default"}).
			AddRow("id", "BIGINT", "NO", nil).
			AddRow("total", "DECIMAL(18,3)", "YES", "0").
			AddRow("placed_at", "TIMESTAMP", "YES", nil))

	cols, err := insp.Columns(context.Background(), "", "orders")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, Column{
		Name:         "id",
		DatabaseType: "BIGINT",
		Type:         arrow.PrimitiveTypes.Int64,
	}, cols[0])
	assert.Equal(t, Column{
		Name:         "total",
		DatabaseType: "DECIMAL(18,3)",
		Type:         &arrow.Decimal128Type{Precision: 18, Scale: 3},
		Nullable:     true,
		Default:      sql.NullString{String: "0", Valid: true},
	}, cols[1])
	assert.Equal(t, "placed_at", cols[2].Name)
	assert.True(t, arrow.TypeEqual(&arrow.TimestampType{Unit: arrow.Microsecond}, cols[2].Type))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnsUnknownType(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("main", "orders").
		WillReturnRows(sqlmock.NewRows(
			[]string{"column_name", "data_type", "is_nullable", "column_default"}).
			AddRow("blob", "FRACTAL", "YES", nil))

	_, err := insp.Columns(context.Background(), "", "orders")
	assert.ErrorContains(t, err, "FRACTAL")
}

func TestPrimaryKey(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(pkConstraintQuery)).
		WithArgs("main", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "constraint_column_names"}).
			AddRow("orders_pkey", "[id, org_id]"))

	pk, err := insp.PrimaryKey(context.Background(), "", "orders")
	require.NoError(t, err)
	require.NotNil(t, pk)
	assert.Equal(t, "orders_pkey", pk.Name)
	assert.Equal(t, []string{"id", "org_id"}, pk.Columns)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrimaryKeyNone(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(pkConstraintQuery)).
		WithArgs("main", "log").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "constraint_column_names"}))

	pk, err := insp.PrimaryKey(context.Background(), "", "log")
	require.NoError(t, err)
	assert.Nil(t, pk)
}

func TestForeignKeys(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(fkConstraintsQuery)).
		WithArgs("main", "orders").
		WillReturnRows(sqlmock.NewRows([]string{
			"constraint_name", "constraint_column_names",
			"referred_schema", "referred_table", "referred_columns"}).
			AddRow("orders_user_fkey", "[user_id]", "main", "users", "[id]"))

	fks, err := insp.ForeignKeys(context.Background(), "", "orders")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, ForeignKey{
		Name:            "orders_user_fkey",
		Columns:         []string{"user_id"},
		ReferredSchema:  "main",
		ReferredTable:   "users",
		ReferredColumns: []string{"id"},
	}, fks[0])
}

func TestCheckConstraints(t *testing.T) {
	insp, mock := newMockInspector(t)
	mock.ExpectQuery(regexp.QuoteMeta(checkConstraintsQuery)).
		WithArgs("prod", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name", "sqltext"}).
			AddRow("orders_total_check", "(total >= 0)"))

	checks, err := insp.CheckConstraints(context.Background(), "prod", "orders")
	require.NoError(t, err)
	assert.Equal(t, []CheckConstraint{{Name: "orders_total_check", Expression: "(total >= 0)"}}, checks)
}

func TestIndexesUnsupported(t *testing.T) {
	insp, _ := newMockInspector(t)
	idx, err := insp.Indexes(context.Background(), "", "orders")
	require.NoError(t, err)
	assert.Nil(t, idx)
}

func TestWithDefaultSchema(t *testing.T) {
	insp, mock := newMockInspector(t, WithDefaultSchema("prod"))
	mock.ExpectQuery(regexp.QuoteMeta(tableNamesQuery)).
		WithArgs("prod").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	_, err := insp.TableNames(context.Background(), "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseNameList(t *testing.T) {
	tests := []struct {
		in     string
		expect []string
	}{
		{"[id]", []string{"id"}},
		{"[id, org_id]", []string{"id", "org_id"}},
		{"['quoted name', plain]", []string{"quoted name", "plain"}},
		{"[]", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expect, parseNameList(tt.in), "input %q", tt.in)
	}
}
