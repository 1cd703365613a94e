// Package normalisers provides implementations of the Normaliser interface
// for the upload formats the ingestion boundary accepts. Each normaliser
// knows how to turn one format into document text the chunker can consume.
//
// Normalisers are registered with the Registry at startup.
package normalisers
