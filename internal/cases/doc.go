// Package cases models parameterised simulation studies for the tidal
// turbine verification flume.
//
// # Study Expansion
//
// A [CaseStudy] holds one [Value] per model parameter. A value is either a
// single scalar, broadcast across every case, or a sequence with one entry
// per case:
//
//	study := cases.Default()
//	study.DX = cases.Floats(1, 0.5, 0.25)
//	study.DY = cases.Floats(1, 0.5, 0.25)
//
// expands to three cases that refine the grid while holding every other
// parameter at its default. All sequence-valued fields must share the same
// length; [CaseStudy.Validate] rejects mismatches with a message naming the
// offending fields, and collapses length-one sequences to scalars.
//
// # Reference Setup
//
// [Default] reproduces the flume used by the Mycek experiment: an 18 m long,
// 4 m wide channel with a 2 m deep flat bed and a single turbine 6 m from
// the inlet on the centreline, hub 1 m below the surface. [MycekStudy] is
// the same setup named for use in validation studies, where the domain and
// turbine placement must not be varied.
//
// # Serialisation
//
// Studies round-trip through YAML with [FromYAML] and [CaseStudy.ToYAML].
// Scalar kinds survive the round-trip, so an integer field is written back
// as an integer. Fields absent from the file keep their defaults.
//
// # Interval Fields
//
// The stats and restart output intervals use zero to mean disabled, matching
// how the solver input omits the corresponding keywords.
package cases
