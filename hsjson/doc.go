// Package hsjson reads and writes the Haystack JSON encoding.
//
// Scalars with a natural JSON form (Bool, Str, unitless finite Number) are
// written as plain JSON values. Every other kind is an object tagged with a
// _kind discriminator:
//
//	{"_kind":"number","val":74.2,"unit":"°F"}
//	{"_kind":"ref","val":"p:demo:r:1","dis":"Site"}
//	{"_kind":"dateTime","val":"2024-11-22T08:00:00-05:00","tz":"New_York"}
//
// Dicts are plain objects; {"_kind":"dict",...} is accepted on input. Grids
// are {"_kind":"grid","meta":{...},"cols":[...],"rows":[...]}.
//
// Decoding is strict: a missing required field or an unknown _kind is a
// DecodeError naming the kind and the field. Object key order is preserved
// by streaming tokens rather than decoding into Go maps.
//
// Reference: https://project-haystack.org/doc/docHaystack/Json
package hsjson
