// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

// Package storage persists trained model snapshots.
//
// Snapshots are gob-encoded, gzip-compressed and checksummed with SHA-256.
// Each snapshot family (a name such as "svd") keeps a sequence of versions so
// a restart can resume from the latest trained model instead of retraining.
//
// # Storage Format
//
//	filename: {name}_v{version}.gob.gz
//
//	structure:
//	  - Metadata (ModelMetadata)
//	  - CompressedData (gzip-compressed gob-encoded snapshot)
//
// Writes go to a temporary file in the same directory and are renamed into
// place, so readers never observe a partially written snapshot.
//
// # Usage Example
//
//	store, err := storage.NewStore("/data/models")
//	if err != nil {
//	    return err
//	}
//	if err := store.Save(ctx, "svd", 1, model.Snapshot(), storage.ModelMetadata{}); err != nil {
//	    return err
//	}
//
//	var snap recommend.Snapshot
//	meta, err := store.Load(ctx, "svd", 0, &snap) // 0 = latest
//
// # Thread Safety
//
// Store methods are safe for concurrent use within one process.
package storage
