package config

import (
	"fmt"

	"github.com/wildstyl3r/freegas/internal/utils"
)

// base units are MeV and barn
var unitToBase = map[string]float64{
	"MeV": 1,    // [MeV]
	"keV": 1e-3, // [MeV]
	"eV":  1e-6, // [MeV]
	"b":   1,    // [b]
	"mb":  1e-3, // [b]
	"cm2": 1e24, // [b]
	"m2":  1e28, // [b]
}

type UnitClass int

const (
	Energy UnitClass = iota
	Area
)

var unitsInClass = map[UnitClass][]string{
	Energy: {"eV", "keV", "MeV"},
	Area:   {"mb", "b", "cm2", "m2"},
}

var classesOfUnits = map[string]UnitClass{
	"MeV": Energy,
	"keV": Energy,
	"eV":  Energy,
	"b":   Area,
	"mb":  Area,
	"cm2": Area,
	"m2":  Area,
}

type UnitElement = struct {
	Class UnitClass
	Power int
}

var defaultUnits = []string{"MeV", "b"}

// checkUnits reports unknown units and repeated classes as conflicts and
// completes the list with the default unit of every missing class.
func checkUnits(units []string) (extended, conflicts []string) {
	classes := map[UnitClass]struct{}{}
	for _, unit := range units {
		class, known := classesOfUnits[unit]
		if !known {
			conflicts = append(conflicts, unit)
			continue
		}
		if _, some := classes[class]; some {
			conflicts = append(conflicts, unit)
		} else {
			classes[class] = struct{}{}
		}
	}
	extended = append([]string(nil), units...)
	for _, unit := range defaultUnits {
		if _, some := classes[classesOfUnits[unit]]; !some {
			extended = append(extended, unit)
		}
	}
	return
}

// Convert moves v between the given units and the base units: into base
// units when toBase is set, out of them otherwise.
func Convert(v float64, classes []UnitElement, units []string, toBase bool) float64 {
	for i := range classes {
		uc := classes[i]
		unit := utils.Intersect(unitsInClass[uc.Class], units)
		if unit == nil {
			continue
		}
		absPower := utils.IntAbs(uc.Power)
		if toBase == (uc.Power > 0) {
			for range absPower {
				v *= unitToBase[*unit]
			}
		} else {
			for range absPower {
				v /= unitToBase[*unit]
			}
		}
	}
	return v
}

// UnitName is the unit of class in units, or the default one.
func UnitName(class UnitClass, units []string) string {
	if unit := utils.Intersect(unitsInClass[class], units); unit != nil {
		return *unit
	}
	return *utils.Intersect(unitsInClass[class], defaultUnits)
}

// ParseUnits checks a unit list and completes it with defaults.
func ParseUnits(units []string) ([]string, error) {
	extended, conflicts := checkUnits(units)
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("found unit conflict: %v", conflicts)
	}
	return extended, nil
}
