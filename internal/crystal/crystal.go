// Package crystal maps crystal class identifiers and free-text crystal
// system names onto the seven crystal systems plus amorphous.
package crystal

import (
	"fmt"
	"strings"
)

// Canonical crystal system names.
const (
	Isometric    = "Isometric (Cubic)"
	Hexagonal    = "Hexagonal"
	Tetragonal   = "Tetragonal"
	Orthorhombic = "Orthorhombic"
	Monoclinic   = "Monoclinic"
	Triclinic    = "Triclinic"
	Trigonal     = "Trigonal"
	Amorphous    = "Amorphous"

	Unknown = "Unknown"
)

// classNames indexes Mindat crystal class IDs.
var classNames = map[int]string{
	1: Isometric,
	2: Hexagonal,
	3: Tetragonal,
	4: Orthorhombic,
	5: Monoclinic,
	6: Triclinic,
	7: Trigonal,
	8: Amorphous,
}

// System describes a crystal system.
type System struct {
	Name        string
	Description string
	Examples    []string
}

const noInfo = "No additional information available for this crystal system."

var systems = map[string]System{
	Isometric: {
		Name:        Isometric,
		Description: "Has three equal axes at right angles. Characterized by high symmetry and includes common minerals like pyrite, halite, and fluorite.",
		Examples:    []string{"Pyrite", "Halite", "Fluorite", "Galena", "Diamond"},
	},
	Hexagonal: {
		Name:        Hexagonal,
		Description: "Has three equal axes in one plane at 120° angles, and a fourth axis perpendicular to this plane. Includes minerals like beryl and apatite.",
		Examples:    []string{"Beryl", "Apatite", "Vanadinite"},
	},
	Tetragonal: {
		Name:        Tetragonal,
		Description: "Has three axes at right angles, with two being equal in length. Includes minerals like zircon and rutile.",
		Examples:    []string{"Zircon", "Rutile", "Vesuvianite"},
	},
	Orthorhombic: {
		Name:        Orthorhombic,
		Description: "Has three unequal axes at right angles. Includes minerals like olivine and topaz.",
		Examples:    []string{"Olivine", "Topaz", "Baryte", "Aragonite"},
	},
	Monoclinic: {
		Name:        Monoclinic,
		Description: "Has three unequal axes with one oblique intersection. Includes minerals like gypsum and orthoclase.",
		Examples:    []string{"Gypsum", "Orthoclase", "Hornblende", "Malachite"},
	},
	Triclinic: {
		Name:        Triclinic,
		Description: "Has three unequal axes with oblique intersections. The least symmetrical system, including minerals like plagioclase and kyanite.",
		Examples:    []string{"Plagioclase", "Kyanite", "Turquoise", "Microcline"},
	},
	Trigonal: {
		Name:        Trigonal,
		Description: "Previously considered part of the hexagonal system, it has three equal axes at 120° angles. Includes quartz and calcite.",
		Examples:    []string{"Quartz", "Calcite", "Corundum", "Tourmaline"},
	},
	Amorphous: {
		Name:        Amorphous,
		Description: "No definite crystalline structure. Includes minerals like opal which lack a regular internal atomic arrangement.",
		Examples:    []string{"Opal", "Obsidian", "Limonite"},
	},
}

// aliases maps lowercased free text to canonical names.
var aliases = map[string]string{
	"isometric":         Isometric,
	"cubic":             Isometric,
	"isometric (cubic)": Isometric,
	"hexagonal":         Hexagonal,
	"tetragonal":        Tetragonal,
	"orthorhombic":      Orthorhombic,
	"monoclinic":        Monoclinic,
	"triclinic":         Triclinic,
	"trigonal":          Trigonal,
	"rhombohedral":      Trigonal,
	"amorphous":         Amorphous,
}

// ClassName returns the crystal system name for a crystal class ID.
// A nil id yields "Unknown"; an unmapped id yields "Unknown Crystal Class (<id>)".
func ClassName(id *int) string {
	if id == nil {
		return Unknown
	}
	if name, ok := classNames[*id]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Crystal Class (%d)", *id)
}

// Info returns the name, description and examples for a crystal class ID.
func Info(id *int) System {
	name := ClassName(id)
	if sys, ok := systems[name]; ok {
		sys.Examples = append([]string(nil), sys.Examples...)
		return sys
	}
	return System{Name: name, Description: noInfo, Examples: []string{}}
}

// Normalize maps a free-text crystal system ("cubic", "Trigonal ") to its
// canonical name. ok is false when the text is not recognized.
func Normalize(s string) (string, bool) {
	name, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	return name, ok
}
