// Package resilience retries operations that fail transiently, such as
// opening the database while the file is locked by another process.
package resilience
