// Package filters implements the individual cleaning stages of the panel
// pipeline as pure functions over the (Panel, Statics) tables. Every function
// returns a narrowed copy of its input; callers compute attrition from the
// before/after row counts. Data-quality anomalies (nulls, zero denominators,
// infinities) are never errors here — each function documents the pass-through
// branch they take. Only configuration mistakes (an unknown country reaching a
// rule lookup) surface as errors, and those come from the countryrules package.
//
// Functions that scan a single stock's history expect the panel in the
// canonical (Date, Stock) order so that per-stock partitions are
// chronologically sorted.
package filters
