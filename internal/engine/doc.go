// Package engine walks an evidence tree and turns every file that matches a
// filename or content rule into a Finding. It owns traversal, the bounded
// read policy, the worker pool and the scan counters. This package is
// internal; external consumers should use the stable facade in pkg/core.
package engine
