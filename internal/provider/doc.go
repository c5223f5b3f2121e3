// Package provider contains in-memory implementations of the external
// systems the guild engine talks to: the permission store, the currency
// ledger, the land-claim registry and the player directory.
//
// The memory providers back single-node deployments and tests. Game server
// integrations implement the same service interfaces against the real plugins.
package provider
