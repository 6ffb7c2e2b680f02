// Package zinc reads and writes the Zinc text encoding of Haystack values.
//
// Zinc is a compact, CSV-like format. A document is either a single scalar
// or collection value, or a grid:
//
//	ver:"3.0" projName:"demo"
//	id,dis,area
//	@p:demo:r:1 "Site",,1200ft²
//
// The Tokenizer splits text into typed tokens with line numbers, the Reader
// assembles tokens into kind values, and the Writer renders kind values
// back to text. Writer output always parses back to an equal value.
//
// Time zones in DateTime literals are resolved with a tz.Mapper, defaulting
// to tz.Default().
//
// Reference: https://project-haystack.org/doc/docHaystack/Zinc
package zinc
