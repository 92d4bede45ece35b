// Package study orchestrates a verification study end to end: it expands a
// CaseStudy into concrete cases, prepares a solver project per case from an
// input template, runs the batch through the worker pool, and extracts wake
// quantities from each completed run. Analysis helpers compute RMSE against
// reference transects and observed orders of accuracy across grid levels.
package study
