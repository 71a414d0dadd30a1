// Package driven defines the outbound ports of the core: interfaces the
// core depends on and adapters implement (stores, caches, provider
// adapters, availability publication).
package driven
