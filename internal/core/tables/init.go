// Package tables registers the import kinds with the core registry:
// contacts, alumnae and wardrobe. Import it for its side effects.
package tables
