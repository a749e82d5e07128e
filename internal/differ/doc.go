// Package differ computes structured differences between two JSON
// documents.
//
// Three engines are available:
//
//	json-patch   RFC 6902 operations (github.com/wI2L/jsondiff)
//	structural   path-sorted change tree (changed/added/removed/array)
//	unified      line diff of canonical pretty JSON (go-difflib)
//
// Every engine first checks deep equality. Equal documents produce a
// Result with Identical set and no body. Rendering (colors, banners) is
// left to the caller; Result carries plain text plus the change list.
package differ
