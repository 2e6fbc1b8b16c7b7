// Package model defines the data shared by every stage of the chart pack pipeline.
//
// # Progress
//
// ProgressEvent is the only contract between the pipeline and a front-end:
//
//	{"packId": 7, "downloaded": 204800, "total": 1048576, "stage": "downloading"}
//
// Extracting and converting are not byte-granular and emit a single 100/100
// event when they start.
//
// # Paths
//
// ArchiveNameFromURL, WorkDirFor and ArtifactName derive every file name the
// pipeline produces, so the layout can be computed without running it:
//
//	downloads/Pack.zip
//	downloads/Pack/Song/chart.sm
//	downloads/Pack/Song/chart - Hard.osu
//
// # Errors
//
// Error carries a Kind (KindURL, KindConnection, KindHTTPStatus, KindIO,
// KindArchive, KindCodec, KindConfig) so callers can branch on the failure class:
//
//	if model.IsKind(err, model.KindHTTPStatus) {
//	    // the server refused the pack
//	}
package model
