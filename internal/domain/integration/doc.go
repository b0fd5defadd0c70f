// Package integration contains the marketplace integration bounded context.
//
// Key concepts:
//   - MarketplaceAdapter: port every marketplace source implements (fetch + normalize, no persistence)
//   - NormalizedOrder / NormalizedLineItem: canonical shape the reconciliation engine consumes
//   - AdapterRegistry: lookup of adapters by source name
//
// Ports are defined here; adapters live in infrastructure/ecommerce.
package integration
