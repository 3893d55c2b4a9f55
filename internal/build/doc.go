// Package build provides the canonical build execution pipeline for sitebake.
//
// A build works out which documents to render, guards against two documents
// sharing an output file, constructs the renderer registry once (collecting
// and copying assets), renders every page and finally records a manifest.
// Pages render one at a time unless build.workers asks for a bounded pool;
// the registry is read-only after construction so workers share it freely.
// All execution paths (CLI commands, tests) route through BuildService.
package build
