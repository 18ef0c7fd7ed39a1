// Package scores defines the value types shared by the resolver, the cache,
// the catalog writer and every provider adapter: Result, Outcome, the
// Provider contract, the cache key and the provider error taxonomy.
package scores
