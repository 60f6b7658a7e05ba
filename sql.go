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

package gizmosql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log/slog"
	"strings"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/sqldriver"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DriverName is the name the adapter registers with database/sql.
const DriverName = "gizmosql"

func init() {
	sql.Register(DriverName, Driver{})
}

// Driver implements database/sql/driver.Driver and driver.DriverContext
// on top of the ADBC sqldriver bridge. It accepts either a gizmosql://
// connection URL or the semicolon-separated key=value form the bridge
// understands; a bare URL is rewritten to uri=<url> before delegation.
//
// The zero value is ready to use and is what init registers.
type Driver struct {
	// Alloc is the Arrow allocator handed to the Flight SQL driver.
	// memory.DefaultAllocator is used when nil.
	Alloc memory.Allocator

	// Logger, when set, is forwarded to the wrapped driver so RPCs are
	// logged through it.
	Logger *slog.Logger
}

// Open returns a new connection to a GizmoSQL server.
// The returned connection is only used by one goroutine at a time.
func (d Driver) Open(name string) (driver.Conn, error) {
	connector, err := d.OpenConnector(name)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector expects the same format as driver.Open.
func (d Driver) OpenConnector(name string) (driver.Connector, error) {
	alloc := d.Alloc
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	// A bare connection URL is rewritten to uri=<url>; key=value forms
	// (including uri=grpc://...) already name their keys and pass
	// through untouched.
	if idx := strings.Index(name, "://"); idx >= 0 && !strings.Contains(name[:idx], "=") {
		name = adbc.OptionKeyURI + "=" + name
	}
	drv := NewDriver(alloc)
	if d.Logger != nil {
		drv = NewDriverWithLogger(alloc, d.Logger)
	}
	return sqldriver.Driver{Driver: drv}.OpenConnector(name)
}
