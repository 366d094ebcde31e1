// Package units provides shared constants and conversion for temperature units
package units

import "strings"

// Unit constants
const (
	Celsius    = "c"
	Fahrenheit = "f"
	Kelvin     = "k"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Celsius, Fahrenheit, Kelvin}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, u := range ValidUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertTemperature converts a reading in degrees Celsius to the target units.
// The sensor reports Celsius, so unknown units are left as Celsius.
func ConvertTemperature(celsius float64, target string) float64 {
	switch target {
	case Fahrenheit:
		return celsius*9/5 + 32
	case Kelvin:
		return celsius + 273.15
	default:
		return celsius
	}
}

// Symbol returns the display suffix for unit.
func Symbol(unit string) string {
	switch unit {
	case Fahrenheit:
		return "F"
	case Kelvin:
		return "K"
	default:
		return "C"
	}
}
