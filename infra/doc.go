// Package infra holds the technical adapters around the scheduling core:
// the SQLite snapshot store, metrics exporters, the MQTT advisory
// publisher and the zerolog logger. These packages depend only on the
// interfaces and events defined under core.
package infra
