package chart

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Beatmap is an osu!mania beatmap ready to encode.
type Beatmap struct {
	Title      string
	Artist     string
	Creator    string
	Version    string
	Audio      string
	Background string

	HPDrainRate       float64
	OverallDifficulty float64

	// Keys is the column count, written as CircleSize.
	Keys int

	TimingPoints []TimingPoint
	HitObjects   []HitObject
}

// TimingPoint is an uninherited (red) timing point.
type TimingPoint struct {
	Time       int
	BeatLength float64
}

// HitObject is a mania note. EndTime is only used when Hold is set.
type HitObject struct {
	Column  int
	Time    int
	EndTime int
	Hold    bool
}

// x returns the playfield x coordinate osu! maps back to h.Column.
func (b *Beatmap) x(column int) int {
	return (2*column + 1) * 256 / b.Keys
}

// Encode writes b in osu file format v14.
func (b *Beatmap) Encode() []byte {
	var buf bytes.Buffer

	buf.WriteString("osu file format v14\n\n")

	buf.WriteString("[General]\n")
	fmt.Fprintf(&buf, "AudioFilename: %s\n", b.Audio)
	buf.WriteString("AudioLeadIn: 0\n")
	buf.WriteString("PreviewTime: -1\n")
	buf.WriteString("Countdown: 0\n")
	buf.WriteString("SampleSet: Normal\n")
	buf.WriteString("StackLeniency: 0.7\n")
	buf.WriteString("Mode: 3\n")
	buf.WriteString("LetterboxInBreaks: 0\n")
	buf.WriteString("SpecialStyle: 0\n")
	buf.WriteString("WidescreenStoryboard: 0\n\n")

	buf.WriteString("[Editor]\n")
	buf.WriteString("DistanceSpacing: 1\n")
	buf.WriteString("BeatDivisor: 4\n")
	buf.WriteString("GridSize: 4\n")
	buf.WriteString("TimelineZoom: 1\n\n")

	buf.WriteString("[Metadata]\n")
	fmt.Fprintf(&buf, "Title:%s\n", b.Title)
	fmt.Fprintf(&buf, "TitleUnicode:%s\n", b.Title)
	fmt.Fprintf(&buf, "Artist:%s\n", b.Artist)
	fmt.Fprintf(&buf, "ArtistUnicode:%s\n", b.Artist)
	fmt.Fprintf(&buf, "Creator:%s\n", b.Creator)
	fmt.Fprintf(&buf, "Version:%s\n", b.Version)
	buf.WriteString("Source:\n")
	buf.WriteString("Tags:\n")
	buf.WriteString("BeatmapID:0\n")
	buf.WriteString("BeatmapSetID:-1\n\n")

	buf.WriteString("[Difficulty]\n")
	fmt.Fprintf(&buf, "HPDrainRate:%s\n", formatFloat(b.HPDrainRate))
	fmt.Fprintf(&buf, "CircleSize:%d\n", b.Keys)
	fmt.Fprintf(&buf, "OverallDifficulty:%s\n", formatFloat(b.OverallDifficulty))
	buf.WriteString("ApproachRate:5\n")
	buf.WriteString("SliderMultiplier:1.4\n")
	buf.WriteString("SliderTickRate:1\n\n")

	buf.WriteString("[Events]\n")
	buf.WriteString("//Background and Video events\n")
	if b.Background != "" {
		fmt.Fprintf(&buf, "0,0,%q,0,0\n", b.Background)
	}
	buf.WriteString("\n")

	buf.WriteString("[TimingPoints]\n")
	for _, tp := range b.TimingPoints {
		fmt.Fprintf(&buf, "%d,%s,4,1,0,100,1,0\n", tp.Time, formatFloat(tp.BeatLength))
	}
	buf.WriteString("\n")

	buf.WriteString("[HitObjects]\n")
	for _, h := range b.HitObjects {
		if h.Hold {
			fmt.Fprintf(&buf, "%d,192,%d,128,0,%d:0:0:0:0:\n", b.x(h.Column), h.Time, h.EndTime)
		} else {
			fmt.Fprintf(&buf, "%d,192,%d,1,0,0:0:0:0:\n", b.x(h.Column), h.Time)
		}
	}

	return buf.Bytes()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundMS(ms float64) int {
	return int(math.Round(ms))
}
