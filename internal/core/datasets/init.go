// Package datasets registers the RRUFF dataset definitions with the core registry.
// Import this package to ensure all datasets are registered.
package datasets

// Keys of the registered datasets.
const (
	MineralsKey = "rruff_minerals"
	SpectraKey  = "rruff_spectra"
)

func init() {
	registerMineralList()
	registerSpectra()
}
