// Package normalisers provides implementations of the Normaliser interface
// for the file formats a procurement batch may contain. Each normaliser
// turns the bytes of one format into per-page text.
//
// Normalisers are registered with the Registry at startup; the registry
// dispatches on file extension first, then MIME type.
package normalisers
