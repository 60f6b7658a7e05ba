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
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/driver/flightsql"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/maps"
)

type driverImpl struct {
	delegate adbc.Driver
	logger   *slog.Logger
}

// NewDriver creates an ADBC driver for GizmoSQL using the given Arrow
// allocator. It wraps the Flight SQL driver: NewDatabase accepts either
// a gizmosql:// URL under adbc.OptionKeyURI or discrete
// host/port/database/username/password options, rewrites them into
// Flight SQL driver options, and delegates everything else. Options
// already in the driver's vocabulary are passed through untouched, as
// are all errors the wrapped driver returns.
func NewDriver(alloc memory.Allocator) adbc.Driver {
	return &driverImpl{delegate: flightsql.NewDriver(alloc)}
}

// NewDriverWithLogger is NewDriver with a logger attached to every
// database the driver creates, via the adbc.DatabaseLogging extension.
func NewDriverWithLogger(alloc memory.Allocator, logger *slog.Logger) adbc.Driver {
	return &driverImpl{delegate: flightsql.NewDriver(alloc), logger: logger}
}

func (d *driverImpl) NewDatabase(opts map[string]string) (adbc.Database, error) {
	translated, err := DatabaseOptions(opts)
	if err != nil {
		return nil, err
	}
	db, err := d.delegate.NewDatabase(translated)
	return d.withLogger(db), err
}

func (d *driverImpl) NewDatabaseWithContext(ctx context.Context, opts map[string]string) (adbc.Database, error) {
	translated, err := DatabaseOptions(opts)
	if err != nil {
		return nil, err
	}
	if dwc, ok := d.delegate.(adbc.DriverWithContext); ok {
		db, err := dwc.NewDatabaseWithContext(ctx, translated)
		return d.withLogger(db), err
	}
	db, err := d.delegate.NewDatabase(translated)
	return d.withLogger(db), err
}

func (d *driverImpl) withLogger(db adbc.Database) adbc.Database {
	if db == nil || d.logger == nil {
		return db
	}
	if logging, ok := db.(adbc.DatabaseLogging); ok {
		logging.SetLogger(d.logger)
	}
	return db
}

// DatabaseOptions translates adapter-level database options into the
// Flight SQL driver's option map. Three input shapes are accepted:
//
//   - a gizmosql:// connection URL under adbc.OptionKeyURI,
//   - discrete options (host, port, database, username, password,
//     useEncryption, disableCertificateVerification),
//   - native Flight SQL driver options, returned unchanged.
//
// In the first two shapes, leftover options keep their meaning from the
// URL form: "adbc."-prefixed keys go to the driver verbatim, anything
// else becomes a gRPC call header.
func DatabaseOptions(opts map[string]string) (map[string]string, error) {
	opts = maps.Clone(opts)
	if opts == nil {
		opts = make(map[string]string)
	}

	var cfg *Config
	var err error
	switch {
	case strings.HasPrefix(opts[adbc.OptionKeyURI], Scheme+"://"):
		cfg, err = ParseURL(opts[adbc.OptionKeyURI])
		if err != nil {
			return nil, err
		}
		delete(opts, adbc.OptionKeyURI)
	case opts[OptionKeyHost] != "":
		cfg = &Config{Port: DefaultPort}
	default:
		return opts, nil
	}
	// Discrete options may accompany either shape; they override the
	// URL's fields.
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}

	out := cfg.Options()
	for key, val := range opts {
		if strings.HasPrefix(key, "adbc.") {
			out[key] = val
		} else {
			out[flightsql.OptionRPCCallHeaderPrefix+key] = val
		}
	}
	return out, nil
}

// applyOptions consumes the discrete connection options from opts into
// cfg, leaving any remaining keys for the caller. Absent keys leave the
// corresponding cfg fields alone.
func applyOptions(cfg *Config, opts map[string]string) error {
	if h, ok := opts[OptionKeyHost]; ok {
		cfg.Host = h
		delete(opts, OptionKeyHost)
	}

	var err error
	if p, ok := opts[OptionKeyPort]; ok {
		cfg.Port, err = strconv.Atoi(p)
		if err != nil {
			return adbc.Error{
				Msg:  fmt.Sprintf("invalid value %q for option %q", p, OptionKeyPort),
				Code: adbc.StatusInvalidArgument,
			}
		}
		delete(opts, OptionKeyPort)
	}
	if db, ok := opts[OptionKeyDatabase]; ok {
		cfg.Database = db
		delete(opts, OptionKeyDatabase)
	}
	if u, ok := opts[adbc.OptionKeyUsername]; ok {
		cfg.Username = u
		delete(opts, adbc.OptionKeyUsername)
	}
	if p, ok := opts[adbc.OptionKeyPassword]; ok {
		cfg.Password = p
		delete(opts, adbc.OptionKeyPassword)
	}

	if v, ok := opts[OptionUseEncryption]; ok {
		if cfg.UseEncryption, err = parseBoolOption(OptionUseEncryption, v); err != nil {
			return err
		}
		delete(opts, OptionUseEncryption)
	}
	if v, ok := opts[OptionDisableCertificateVerification]; ok {
		if cfg.DisableCertificateVerification, err = parseBoolOption(OptionDisableCertificateVerification, v); err != nil {
			return err
		}
		delete(opts, OptionDisableCertificateVerification)
	}
	return nil
}
