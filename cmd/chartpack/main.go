// Command chartpack downloads chart packs, converts their charts and mirrors
// the songs into a game's song folder.
package main

import (
	// Bucket drivers for song_path URLs such as s3://bucket or gs://bucket.
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

func main() {
	Execute()
}
