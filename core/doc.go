// Package core contains the task tracker's domain contracts, entities,
// and orchestration logic: credential issuance and resolution, the
// authorization gate, owner-scoped task operations, and the pagination
// policy. Storage and transport adapters depend on this package; core
// never depends on them.
package core
