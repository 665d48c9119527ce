package ir

import "slices"

// Generator is a dialect-specific default-value producer. The
// zero-argument expression tags of the same name are generators.
type Generator string

const (
	GenNow              Generator = "NOW"
	GenCurrentDate      Generator = "CURRENT_DATE"
	GenCurrentTime      Generator = "CURRENT_TIME"
	GenCurrentTimestamp Generator = "CURRENT_TIMESTAMP"
	GenUUID             Generator = "UUID"
)

var generators = []Generator{GenNow, GenCurrentDate, GenCurrentTime, GenCurrentTimestamp, GenUUID}

// Generators returns the catalog.
func Generators() []Generator {
	return slices.Clone(generators)
}

// IsGenerator reports whether tag names a generator.
func IsGenerator(tag string) bool {
	for _, g := range generators {
		if string(g) == tag {
			return true
		}
	}
	return false
}

// Family returns the DataType family the generator produces values for.
func (g Generator) Family() Family {
	if g == GenUUID {
		return FamilyUUID
	}
	return FamilyDateTime
}
