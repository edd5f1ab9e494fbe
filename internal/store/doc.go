// Package store defines the persistence interfaces the engine's
// services depend on, together with shared error values and
// transaction helpers. Implementations live under platform.
package store
