// Package util holds small helpers shared by the server and storage layers.
package util
