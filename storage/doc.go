// Package storage stores binary objects, such as client photos, behind a
// small streaming interface with pluggable backends.
//
// # Backends
//
//   - storage/local: files under a base directory (default)
//   - storage/s3: Amazon S3 and S3-compatible services
//
// Backends register themselves in init, so the binary imports them for side
// effects:
//
//	import _ "github.com/kbukum/invoicer/storage/local"
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  bucket: "invoicer-photos"
//	  region: "us-east-1"
package storage
