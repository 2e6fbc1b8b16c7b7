// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - File and directory-tree copying
//   - Replacing a directory with a fresh copy
//   - Filename sanitization for cross-platform compatibility
//   - Image resizing
//
// # File Operations
//
//	// Copy a whole song folder, replacing any previous copy
//	err := ioutils.ReplaceDir("/downloads/Pack/Song", "/songs/Song")
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/path/to/new/directory")
//
// Directory copies never follow symlinks.
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Hard: 4K") // Returns "Hard_ 4K"
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	changed, _ := svc.ShrinkJPEGFile("bg.jpg", 1920)
package ioutils
