// Package project drives a whole project build: it prepares the build
// directory, builds every target in declaration order, and reports per-target
// outcomes. Only failing to prepare the build directory aborts a build; target
// failures are collected in the Report.
package project
