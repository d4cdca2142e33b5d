// Package journal persists agent lifecycle and availability events to a
// SQLite file. The journal is optional: when disabled in configuration
// the agent runs without any history of online/offline transitions.
package journal
