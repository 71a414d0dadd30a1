// Package services contains the core business logic implementations
// wired between the driving and driven ports.
package services
