// Package song inspects converted song directories before they are mirrored.
//
// Inspect reports which files hold the audio and the background image and
// reads the title and artist from the first MP3's ID3 tag. A Preparer can
// also downscale oversized JPEG images in place so the mirrored copy stays
// small.
package song
