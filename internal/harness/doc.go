// Package harness runs compilation scenarios and compares their output
// against golden files.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	dialects: [postgres, mariadb, sqlite]
//	parameters: true
//	execute: true
//	steps:
//	  - name: create
//	    query: { type: CREATE_TABLE, name: users, columns: [...] }
//	  - name: schema
//	    query: { type: CREATE_SCHEMA, schema: app }
//	    expect:
//	      sqlite: { error: E252 }
//	assertions:
//	  - type: output_contains
//	    step: create
//	    dialect: postgres
//	    text: "PRIMARY KEY"
//	  - type: final_state
//	    table: users
//	    where: { email: "a@example.com" }
//	    expect: { age: 30 }
//
// Every step is validated once and compiled for every dialect. A step
// without an expectation for a dialect must compile. With execute set,
// SQLite output is run against a fresh in-memory database in step order,
// and steps failing for SQLite are skipped.
//
// # Assertion Types
//
//   - output_contains: the compiled text of a step contains a substring
//   - row_count: a table holds exactly N rows matching where
//   - final_state: exactly one row matches where and has the expected values
//
// Database assertions require execute.
//
// # Golden Files
//
// RunWithGolden renders every output as commented SQL and compares it
// with testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
