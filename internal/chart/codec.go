package chart

import (
	"fmt"
	"strconv"

	"github.com/handiism/chartpack/internal/model"
)

// Codec converts .sm simfiles into osu!mania beatmaps, one per #NOTES block.
type Codec struct {
	HPDrainRate       float64
	OverallDifficulty float64
}

// NewCodec returns a Codec writing the given HP drain rate and overall
// difficulty into every beatmap.
func NewCodec(hpDrainRate, overallDifficulty float64) *Codec {
	return &Codec{HPDrainRate: hpDrainRate, OverallDifficulty: overallDifficulty}
}

// Convert parses raw as a simfile and encodes each chart.
//
// Variants are named after the chart's description, then its difficulty,
// then "Unknown". Repeated names within one simfile get a " 2", " 3" suffix.
func (c *Codec) Convert(raw []byte) ([]model.Artifact, error) {
	return c.ConvertTagged(raw, model.SongTags{})
}

// ConvertTagged is Convert with tags filling an empty #TITLE or #ARTIST.
func (c *Codec) ConvertTagged(raw []byte, tags model.SongTags) ([]model.Artifact, error) {
	sf, err := ParseSM(raw)
	if err != nil {
		return nil, err
	}
	if sf.Title == "" {
		sf.Title = tags.Title
	}
	if sf.Artist == "" {
		sf.Artist = tags.Artist
	}

	seen := make(map[string]int)
	artifacts := make([]model.Artifact, 0, len(sf.Charts))
	for _, nd := range sf.Charts {
		name := variantName(nd)
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + " " + strconv.Itoa(n)
		}

		bm := c.Beatmap(sf, nd)
		bm.Version = name
		artifacts = append(artifacts, model.Artifact{Variant: name, Data: bm.Encode()})
	}
	return artifacts, nil
}

func variantName(nd NoteData) string {
	switch {
	case nd.Description != "":
		return nd.Description
	case nd.Difficulty != "":
		return nd.Difficulty
	default:
		return "Unknown"
	}
}

// Beatmap builds the osu!mania beatmap for one chart of sf.
//
// Taps and lifts become notes. Hold and roll heads open a hold that the next
// tail in the same column closes; a head that is never closed becomes a tap.
// Mines, fakes and keysounds are dropped.
func (c *Codec) Beatmap(sf *Simfile, nd NoteData) *Beatmap {
	title := sf.Title
	if sf.Subtitle != "" {
		title = fmt.Sprintf("%s %s", sf.Title, sf.Subtitle)
	}

	bm := &Beatmap{
		Title:             title,
		Artist:            sf.Artist,
		Creator:           sf.Credit,
		Version:           variantName(nd),
		Audio:             sf.Music,
		Background:        sf.Background,
		HPDrainRate:       c.HPDrainRate,
		OverallDifficulty: c.OverallDifficulty,
		Keys:              nd.Columns,
	}

	for _, change := range sf.BPMs {
		bm.TimingPoints = append(bm.TimingPoints, TimingPoint{
			Time:       roundMS(sf.timeAt(change.Beat)),
			BeatLength: 60000 / change.BPM,
		})
	}

	open := make([]int, nd.Columns)
	for i := range open {
		open[i] = -1
	}

	for m, rows := range nd.Measures {
		for r, row := range rows {
			beat := float64(m)*4 + float64(r)*4/float64(len(rows))
			t := roundMS(sf.timeAt(beat))

			for col, note := range row {
				switch note {
				case '1', 'L':
					bm.HitObjects = append(bm.HitObjects, HitObject{Column: col, Time: t})
				case '2', '4':
					open[col] = len(bm.HitObjects)
					bm.HitObjects = append(bm.HitObjects, HitObject{Column: col, Time: t})
				case '3':
					if i := open[col]; i >= 0 {
						if t > bm.HitObjects[i].Time {
							bm.HitObjects[i].EndTime = t
							bm.HitObjects[i].Hold = true
						}
						open[col] = -1
					}
				}
			}
		}
	}

	return bm
}
