package chart

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNoCharts is returned for a simfile without any #NOTES block.
	ErrNoCharts = errors.New("simfile has no #NOTES")

	// ErrTiming is returned for a missing or malformed #BPMS or #STOPS list.
	ErrTiming = errors.New("bad timing data")

	// ErrNoteData is returned for a #NOTES block that cannot be read.
	ErrNoteData = errors.New("bad note data")
)

// Simfile is a parsed StepMania .sm file.
type Simfile struct {
	Title      string
	Subtitle   string
	Artist     string
	Credit     string
	Music      string
	Background string

	// Offset is the time in seconds of beat 0, negated as stored in the file.
	Offset float64

	BPMs  []BPMChange
	Stops []Stop

	Charts []NoteData
}

// BPMChange starts a new tempo at Beat.
type BPMChange struct {
	Beat float64
	BPM  float64
}

// Stop pauses the scroll for Seconds at Beat.
type Stop struct {
	Beat    float64
	Seconds float64
}

// NoteData is one #NOTES block.
type NoteData struct {
	StepsType   string
	Description string
	Difficulty  string
	Meter       int
	Columns     int

	// Measures holds the rows of each measure. Every row has Columns characters.
	Measures [][]string
}

// stepsColumns maps known steps types to their column count.
var stepsColumns = map[string]int{
	"dance-single":     4,
	"dance-double":     8,
	"dance-couple":     8,
	"dance-solo":       6,
	"dance-threepanel": 3,
	"pump-single":      5,
	"pump-halfdouble":  6,
	"pump-double":      10,
	"kb7-single":       7,
}

type tag struct {
	name  string
	value string
}

// ParseSM parses the text of a .sm file.
func ParseSM(raw []byte) (*Simfile, error) {
	sf := &Simfile{}
	var bpms, stops string

	for _, t := range splitTags(raw) {
		switch t.name {
		case "TITLE":
			sf.Title = strings.TrimSpace(t.value)
		case "SUBTITLE":
			sf.Subtitle = strings.TrimSpace(t.value)
		case "ARTIST":
			sf.Artist = strings.TrimSpace(t.value)
		case "CREDIT":
			sf.Credit = strings.TrimSpace(t.value)
		case "MUSIC":
			sf.Music = strings.TrimSpace(t.value)
		case "BACKGROUND":
			sf.Background = strings.TrimSpace(t.value)
		case "OFFSET":
			v := strings.TrimSpace(t.value)
			if v == "" {
				continue
			}
			offset, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: offset %q", ErrTiming, v)
			}
			sf.Offset = offset
		case "BPMS":
			bpms = t.value
		case "STOPS", "FREEZES":
			stops = t.value
		case "NOTES":
			nd, err := parseNotes(t.value)
			if err != nil {
				return nil, fmt.Errorf("chart %d: %w", len(sf.Charts)+1, err)
			}
			sf.Charts = append(sf.Charts, nd)
		}
	}

	var err error
	if sf.BPMs, err = parseBPMs(bpms); err != nil {
		return nil, err
	}
	if sf.Stops, err = parseStops(stops); err != nil {
		return nil, err
	}
	if len(sf.Charts) == 0 {
		return nil, ErrNoCharts
	}

	return sf, nil
}

// splitTags returns the #NAME:value; pairs of a simfile in file order.
// Line comments are dropped. A value without a closing semicolon runs to the
// end of the file.
func splitTags(raw []byte) []tag {
	text := strings.TrimPrefix(string(raw), "\ufeff")

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteByte('\n')
	}
	text = b.String()

	var tags []tag
	for {
		start := strings.IndexByte(text, '#')
		if start < 0 {
			break
		}
		text = text[start+1:]

		colon := strings.IndexByte(text, ':')
		semi := strings.IndexByte(text, ';')
		if colon < 0 || (semi >= 0 && semi < colon) {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(text[:colon]))
		text = text[colon+1:]

		end := strings.IndexByte(text, ';')
		if end < 0 {
			end = len(text)
		}
		tags = append(tags, tag{name: name, value: text[:end]})
		text = text[end:]
	}
	return tags
}

func parsePairs(list string) ([][2]float64, error) {
	var pairs [][2]float64
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTiming, item)
		}
		beat, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrTiming, item)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrTiming, item)
		}
		pairs = append(pairs, [2]float64{beat, value})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs, nil
}

func parseBPMs(list string) ([]BPMChange, error) {
	pairs, err := parsePairs(list)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no BPMs", ErrTiming)
	}

	bpms := make([]BPMChange, 0, len(pairs))
	for _, p := range pairs {
		if p[1] <= 0 {
			return nil, fmt.Errorf("%w: BPM %v at beat %v", ErrTiming, p[1], p[0])
		}
		bpms = append(bpms, BPMChange{Beat: p[0], BPM: p[1]})
	}
	// The first tempo always applies from the start of the song.
	bpms[0].Beat = 0
	return bpms, nil
}

func parseStops(list string) ([]Stop, error) {
	pairs, err := parsePairs(list)
	if err != nil {
		return nil, err
	}
	stops := make([]Stop, 0, len(pairs))
	for _, p := range pairs {
		if p[1] > 0 {
			stops = append(stops, Stop{Beat: p[0], Seconds: p[1]})
		}
	}
	return stops, nil
}

// parseNotes reads "type:description:difficulty:meter:radar:data".
func parseNotes(value string) (NoteData, error) {
	fields := strings.SplitN(value, ":", 6)
	if len(fields) < 6 {
		return NoteData{}, fmt.Errorf("%w: expected 6 fields, got %d", ErrNoteData, len(fields))
	}

	nd := NoteData{
		StepsType:   strings.TrimSpace(fields[0]),
		Description: strings.TrimSpace(fields[1]),
		Difficulty:  strings.TrimSpace(fields[2]),
	}
	if meter := strings.TrimSpace(fields[3]); meter != "" {
		nd.Meter, _ = strconv.Atoi(meter)
	}
	nd.Columns = stepsColumns[nd.StepsType]

	for i, block := range strings.Split(fields[5], ",") {
		var rows []string
		for _, line := range strings.Split(block, "\n") {
			row := strings.TrimSpace(line)
			if row == "" {
				continue
			}
			if nd.Columns == 0 {
				nd.Columns = len(row)
			}
			if len(row) != nd.Columns {
				return NoteData{}, fmt.Errorf("%w: measure %d: row %q has %d columns, want %d",
					ErrNoteData, i, row, len(row), nd.Columns)
			}
			for _, c := range row {
				if !strings.ContainsRune(noteChars, c) {
					return NoteData{}, fmt.Errorf("%w: measure %d: unknown note %q", ErrNoteData, i, c)
				}
			}
			rows = append(rows, row)
		}
		nd.Measures = append(nd.Measures, rows)
	}

	// A trailing comma leaves an empty last measure.
	for len(nd.Measures) > 0 && len(nd.Measures[len(nd.Measures)-1]) == 0 {
		nd.Measures = nd.Measures[:len(nd.Measures)-1]
	}
	if nd.Columns == 0 {
		return NoteData{}, fmt.Errorf("%w: unknown steps type %q with no rows", ErrNoteData, nd.StepsType)
	}

	return nd, nil
}

const noteChars = "01234MLFK"

// timeAt returns the song time in milliseconds of beat.
func (sf *Simfile) timeAt(beat float64) float64 {
	ms := -sf.Offset * 1000
	for i, change := range sf.BPMs {
		if beat <= change.Beat {
			break
		}
		end := beat
		if i+1 < len(sf.BPMs) && sf.BPMs[i+1].Beat < end {
			end = sf.BPMs[i+1].Beat
		}
		ms += (end - change.Beat) * 60000 / change.BPM
	}
	for _, stop := range sf.Stops {
		if stop.Beat < beat {
			ms += stop.Seconds * 1000
		}
	}
	return ms
}
