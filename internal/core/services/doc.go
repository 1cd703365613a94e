// Package services implements the driving ports: knowledge-base ingestion,
// two-lane retrieval, grounded test-plan generation and selector-validated
// script synthesis.
//
// Services depend only on domain types and driven ports. The active
// knowledge base is published through a SnapshotHolder; rebuilds construct
// the next snapshot aside and swap it atomically, so readers never observe
// a partially built knowledge base.
package services
