// Package domain defines the core business entities for Prism.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A retrievable unit of source-document text
//   - RetrievalQuery: A scoped similarity search request
//   - OutlineItem: A titled node at a heading depth
//   - Reference: A link from a draft paragraph to a source chunk
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
