// Package core provides the business logic for reference data imports.
//
// This package is independent of any transport, store or CLI. The RRUFF
// parsers, the fetchers and the stores all plug into it through small
// interfaces, so it can be driven by the CLI or by tests without modification.
//
// # Architecture
//
//   - Dataset Definitions: Registered via the registry, each dataset has a key,
//     a record kind and a parse function producing [Candidate] records.
//   - Importer: The entry point for a run. It acquires the scratch directory,
//     fetches every dataset through a [Fetcher], parses it and upserts each
//     candidate into a [Sink].
//   - ImportResult: Counts, error messages and timing of one run.
//
// # Dataset Registry
//
// Datasets are registered at init time using [Register]:
//
//	core.Register(core.DatasetDefinition{
//	    Key:   "rruff_minerals",
//	    Label: "RRUFF IMA mineral list",
//	    Kind:  core.KindMineral,
//	    Parse: parseMineralList,
//	})
//
// # Error Handling
//
// Errors come in two tiers. Fatal errors abort the run and are returned from
// [Importer.Run] wrapping one of [ErrScratchDir], [ErrSourceUnreachable] or
// [ErrParse] (or the context error on cancellation). Record errors (a row that
// fails to parse or validate, or a rejected store write) are appended to
// [ImportResult.Errors] as "<dataset> <origin>: <reason>" and the run goes on.
//
// Run also refuses to start while the same Importer is already running and
// returns [ErrRunInProgress].
//
// For every successful run:
//
//	MineralsCount + SpectraCount + len(Errors) == number of candidates parsed
package core
