// Package mirror copies converted song directories into the user's song
// library.
//
// Each song directory is copied to root/<leaf>, where leaf is the last path
// element of the source directory. An existing copy is removed first, so the
// result is always an exact copy of the source and never a merge with an
// older one.
//
// The root may be a local directory, created on first use, or a
// gocloud.dev/blob bucket URL:
//
//	m := mirror.New(mirror.Config{Root: "/games/Songs"})
//	m := mirror.New(mirror.Config{Root: "s3://my-songs?region=eu-west-1"})
//
// This package registers the mem:// and file:// bucket drivers. Programs that
// want s3:// or gs:// import gocloud.dev/blob/s3blob or gcsblob themselves.
package mirror
