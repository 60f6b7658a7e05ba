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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

var decimalRe = regexp.MustCompile(`^(?:DECIMAL|NUMERIC)\((\d+)\s*,\s*(\d+)\)$`)

// ColumnType maps a type name reported by GizmoSQL to the Arrow type
// its values arrive as. Nested types (STRUCT, MAP, lists) are reported
// as strings since the server renders them as text over the
// database/sql bridge.
func ColumnType(databaseType string) (arrow.DataType, error) {
	name := strings.ToUpper(strings.TrimSpace(databaseType))
	switch name {
	case "VARCHAR", "TEXT", "STRING", "UUID", "JSON":
		return arrow.BinaryTypes.String, nil
	case "INTEGER", "INT":
		return arrow.PrimitiveTypes.Int32, nil
	case "BIGINT":
		return arrow.PrimitiveTypes.Int64, nil
	case "SMALLINT":
		return arrow.PrimitiveTypes.Int16, nil
	case "TINYINT":
		return arrow.PrimitiveTypes.Int8, nil
	case "HUGEINT":
		return &arrow.Decimal128Type{Precision: 38, Scale: 0}, nil
	case "DOUBLE":
		return arrow.PrimitiveTypes.Float64, nil
	case "FLOAT", "REAL":
		return arrow.PrimitiveTypes.Float32, nil
	case "BOOLEAN":
		return arrow.FixedWidthTypes.Boolean, nil
	case "DATE":
		return arrow.FixedWidthTypes.Date32, nil
	case "TIME":
		return arrow.FixedWidthTypes.Time64us, nil
	case "DATETIME", "TIMESTAMP":
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ":
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	case "BLOB", "BYTEA", "BINARY":
		return arrow.BinaryTypes.Binary, nil
	case "DECIMAL", "NUMERIC":
		// DuckDB's default when no precision is declared.
		return &arrow.Decimal128Type{Precision: 18, Scale: 3}, nil
	}

	if m := decimalRe.FindStringSubmatch(name); m != nil {
		precision, err := strconv.ParseInt(m[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("unsupported column type %q: %w", databaseType, err)
		}
		scale, err := strconv.ParseInt(m[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("unsupported column type %q: %w", databaseType, err)
		}
		return &arrow.Decimal128Type{Precision: int32(precision), Scale: int32(scale)}, nil
	}

	// Nested types render as text.
	if strings.HasPrefix(name, "STRUCT") || strings.HasPrefix(name, "MAP") ||
		strings.HasPrefix(name, "UNION") || strings.HasSuffix(name, "[]") {
		return arrow.BinaryTypes.String, nil
	}

	return nil, fmt.Errorf("unsupported column type %q", databaseType)
}
