// Package groupby provides the generic per-key aggregation primitives the
// filter stages are built on: stable partitioning of table rows by an arbitrary
// key, per-group transforms and reductions, null-aware descriptive statistics
// with pandas-compatible quantile interpolation, and run-length detection over
// time-ordered sequences.
//
// All primitives are deterministic given a fixed row order. Ties within a group
// are broken by original input order.
package groupby
