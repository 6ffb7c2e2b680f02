// Package kind provides the Project Haystack value model.
//
// Every Haystack value is a Kind: a sealed interface implemented only by the
// types in this package. Codecs (zinc, hsjson) switch over the concrete type
// exhaustively; there is no reflection and no runtime type registry.
//
// Key design constraints:
//   - Values are immutable once constructed. Dict and Grid keep their storage
//     unexported and hand out copies.
//   - A nil Kind is Haystack null. Dicts never hold null; a missing tag and a
//     null tag are the same thing.
//   - Marker, NA and Remove are zero-field structs compared by value.
//   - Tag and column names follow [a-z_][A-Za-z0-9_]*.
//   - Grids always carry ver:"3.0" as their first meta tag.
package kind
