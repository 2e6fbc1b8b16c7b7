// Package convert finds chart source files in an extracted pack and converts
// them with a Codec.
//
// # Locating
//
//	files, dirs, err := convert.Locate(workDir, ".sm")
//
// files lists every chart source; dirs lists each song directory once, even
// when it holds several charts.
//
// # Converting
//
//	conv := convert.NewConverter(codec, "osu", logger)
//	results := conv.ConvertAll(files)
//	for _, r := range results {
//	    if !r.OK() {
//	        fmt.Println(r)
//	    }
//	}
//
// Files are processed one at a time. A read error, codec error or artifact
// write error only affects its own FileResult; the batch always runs to the end.
// Artifacts replace existing files with the same name.
package convert
