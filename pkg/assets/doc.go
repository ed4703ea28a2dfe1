// Package assets implements the asset metadata store and everything that
// decides what happens to a stored file: who may read it, where it lives,
// and how time-limited access is granted.
//
// The package is organized around one entity, Asset, and four collaborators:
//
//   - Store: CRUD plus soft delete/restore over metadata rows (PGStore for
//     PostgreSQL, MemStore for tests). Queries hide soft-deleted rows unless
//     asked otherwise.
//   - Policy: the pure, deny-by-default access decision, re-evaluated on
//     every request and never cached.
//   - Signer: single, bulk, and download signed-URL issuance with TTL
//     clamping and bounded-parallel bulk processing.
//   - Uploader: the write path - batch validation, canonical path
//     resolution, blob write, row insert - with per-file accept/reject
//     results.
//
// Physical blob placement and URL generation are delegated to the injected
// storage backend; this package never constructs storage locations itself,
// it asks the assetpath resolver.
package assets
