// Package normalize turns scraped RawRecords into typed NormalizedEvents.
//
// Parsing covers the formats Paris listings actually use: French and English
// month names, numeric day-first dates, 19h30 style times, postcode and
// ordinal arrondissements, and free-text price ranges. Normalization is pure:
// the same record through the same Normalizer always yields the same result.
package normalize
