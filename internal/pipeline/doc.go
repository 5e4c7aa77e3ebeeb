// Package pipeline orchestrates the filter stages into the fixed cleaning
// sequence. A Runner threads the evolving (Panel, Statics) snapshot through
// every registered Stage in order, fans per-country stages out across disjoint
// country partitions, and reports each stage's attrition to the logger and the
// OpenTelemetry meter. Reporting is diagnostic only: it never influences
// control flow, and an empty panel is a valid input to every stage.
package pipeline
