// Package storage provides the S3-compatible blob backend for the asset
// subsystem. Blobs live in one of two distinct buckets - public or private -
// chosen once at upload time. The package exposes put/get/delete primitives,
// permanent public URLs, pre-signed time-bounded URLs for private blobs, and
// magic-byte MIME detection helpers used by the upload validator.
//
// The Storage interface is injected into the components that need it; Memory
// is an in-memory implementation for tests.
//
// Usage:
//
//	s, err := storage.New(storage.Config{
//		PublicBucket:  "assets-public",
//		PrivateBucket: "assets-private",
//		AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
//		SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	info, err := s.Put(ctx, file, size,
//		storage.WithKey("catalog_image/42/1693526400-8N2K4PQ1-cover.jpg"),
//	)
//
//	signed, err := s.SignedURL(ctx, info.Key, storage.WithTTL(time.Hour))
package storage
