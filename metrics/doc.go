// Package metrics exposes station statistics in the Prometheus format.
//
// Components keep their own counters; this package reads them at scrape
// time through counter and gauge functions, so the audio path never touches
// Prometheus types. Every station owns a private registry, which keeps
// several simulated stations in one process apart.
package metrics
