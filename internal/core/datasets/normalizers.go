package datasets

import (
	"strings"

	"github.com/JonMunkholm/mineralkb/internal/core"
	"github.com/JonMunkholm/mineralkb/internal/crystal"
)

// NormalizeCrystalSystems splits a multi-valued crystal system cell and maps
// each value to its canonical name. Unrecognized values are kept as written.
func NormalizeCrystalSystems(s string) []string {
	parts := core.SplitList(s, "|,;")
	result := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if name, ok := crystal.Normalize(p); ok {
			p = name
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		result = append(result, p)
	}
	return result
}

// NormalizeChemistry strips the RRUFF export's underscore and caret markup
// ("Ca_2_Mg_5_Si_8_O_22_(OH)_2") from plain chemistry formulas.
func NormalizeChemistry(s string) string {
	s = strings.NewReplacer("_", "", "^", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeStatus trims IMA status annotations: "Approved|Grandfathered" is
// stored as written, "Approved (IMA 2019-012)" becomes "Approved".
func NormalizeStatus(s string) string {
	if i := strings.Index(s, "("); i > 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
