package models

// BloodType identifies one of the eight ABO/Rh blood groups the system
// tracks. It is used as a map key throughout the core.
type BloodType string

const (
	APositive  BloodType = "A+"
	ANegative  BloodType = "A-"
	BPositive  BloodType = "B+"
	BNegative  BloodType = "B-"
	ABPositive BloodType = "AB+"
	ABNegative BloodType = "AB-"
	OPositive  BloodType = "O+"
	ONegative  BloodType = "O-"
)

// AllBloodTypes lists every recognized blood type in descending order of
// typical demand. Iteration order matters for stable API output.
var AllBloodTypes = []BloodType{
	OPositive, APositive, BPositive, ONegative,
	ANegative, ABPositive, BNegative, ABNegative,
}

// BaselineDemand holds the average daily demand per blood type in units,
// used for the synthetic fallback model and scenario baselines.
var BaselineDemand = map[BloodType]float64{
	OPositive:  40,
	APositive:  35,
	BPositive:  25,
	ONegative:  15,
	ANegative:  12,
	ABPositive: 10,
	BNegative:  8,
	ABNegative: 5,
}

// ParseBloodType validates a raw string against the closed enumeration.
func ParseBloodType(s string) (BloodType, error) {
	bt := BloodType(s)
	for _, known := range AllBloodTypes {
		if bt == known {
			return bt, nil
		}
	}
	return "", &ValidationError{Field: "blood_type", Reason: "unknown blood type: " + s}
}

// Valid reports whether bt is a member of the closed enumeration.
func (bt BloodType) Valid() bool {
	_, err := ParseBloodType(string(bt))
	return err == nil
}

// Rarity returns a 0..1 indicator of how rare the type is, derived from
// its position in the demand ordering. Used as a model feature.
func (bt BloodType) Rarity() float64 {
	for i, known := range AllBloodTypes {
		if bt == known {
			return float64(i) / float64(len(AllBloodTypes))
		}
	}
	return 1
}
