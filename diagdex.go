// Package diagdex indexes technical documentation that mixes prose with
// monospace ASCII diagrams and serves natural-language queries against
// that index with hybrid (dense + lexical) retrieval. Diagrams are
// detected heuristically, described by a vision-capable model, and the
// descriptions are substituted into content-addressed chunks so that
// architectural meaning invisible to plain-text embeddings still ranks.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., qdrant/,
// gemini/, sqlite/); ingestion and query orchestration live in ingest/
// and search/.
package diagdex
