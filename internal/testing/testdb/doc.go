// Package testdb provides SurrealDB test environments for repository tests.
//
// Tests run against a real SurrealDB instance in a throwaway namespace and
// are skipped unless TEST_DB_HOST is set:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    repo := repository.NewGuildRepository(tdb.DB)
//	    ...
//	}
//
// Connection settings:
//
//	TEST_DB_HOST      - SurrealDB host (required)
//	TEST_DB_PORT      - default 8000
//	TEST_DB_USER      - default root
//	TEST_DB_PASSWORD  - default root
package testdb
