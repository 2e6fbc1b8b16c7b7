// Package archive unpacks downloaded chart packs.
//
// A pack archive is extracted next to itself into a directory named after the
// archive without its extension:
//
//	downloads/Pack.zip  ->  downloads/Pack/
//
// Entry paths are preserved. Entries that would land outside the working
// directory are rejected as model.KindArchive errors. Extraction is
// all-or-error from the caller's point of view: the first bad entry fails the
// call, even though earlier entries are already on disk.
package archive
