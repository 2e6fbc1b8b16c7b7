// Package chart converts StepMania simfiles (.sm) into osu!mania beatmaps.
//
//	codec := chart.NewCodec(8, 9)
//	artifacts, err := codec.Convert(raw)
//
// Each #NOTES block becomes one beatmap. CircleSize is the chart's column
// count. Timing points come from #BPMS; #STOPS shift the notes after them
// but add no timing points.
package chart
