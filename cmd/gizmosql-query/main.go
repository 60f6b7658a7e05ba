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

// gizmosql-query runs a single SQL statement against a GizmoSQL server
// and prints the result as a table.
//
// The connection URL is taken from -url or the GIZMOSQL_URL environment
// variable; credentials may also be supplied via GIZMOSQL_USERNAME and
// GIZMOSQL_PASSWORD:
//
//	gizmosql-query -url "gizmosql://localhost:31337?useEncryption=false" "SELECT 1 AS v"
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	gizmosql "github.com/gizmodata/gizmosql-go"
)

func main() {
	var (
		urlFlag = flag.String("url", os.Getenv("GIZMOSQL_URL"), "gizmosql:// connection URL (default $GIZMOSQL_URL)")
		timeout = flag.Duration("timeout", 30*time.Second, "per-query timeout")
	)
	flag.Parse()

	if *urlFlag == "" || flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s -url <connection url> <query>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	dsn, err := withEnvCredentials(*urlFlag)
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open(gizmosql.DriverName, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	if err := render(rows, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// withEnvCredentials fills in the URL's user info from GIZMOSQL_USERNAME
// and GIZMOSQL_PASSWORD when the URL itself carries none.
func withEnvCredentials(dsn string) (string, error) {
	cfg, err := gizmosql.ParseURL(dsn)
	if err != nil {
		return "", err
	}
	if cfg.Username == "" {
		cfg.Username = os.Getenv("GIZMOSQL_USERNAME")
		cfg.Password = os.Getenv("GIZMOSQL_PASSWORD")
	}
	return cfg.DSN(), nil
}

func render(rows *sql.Rows, out *os.File) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	w := table.NewWriter()
	w.SetOutputMirror(out)
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	w.AppendHeader(header)

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		row := make(table.Row, len(cols))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[i] = v
		}
		w.AppendRow(row)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Render()
	return nil
}
