package model

// Pack is one entry of the pack catalog.
type Pack struct {
	ID        PackID
	Name      string
	PlayCount uint64
	SongCount uint64
	Size      string
	NSFW      bool

	// DownloadURL is the archive URL handed to the pipeline.
	DownloadURL string
	BannerURL   string

	// Skills holds the per-skillset difficulty ratings, keyed by skillset
	// name ("overall", "stream", "jumpstream", ...).
	Skills map[string]float64

	Tags []string
}

// Overall returns the overall difficulty rating.
func (p *Pack) Overall() float64 {
	return p.Skills["overall"]
}

// PackPage is one page of catalog results.
type PackPage struct {
	Packs       []Pack
	CurrentPage uint64
	LastPage    uint64
	PerPage     uint64
	Total       uint64
}

// HasNext reports whether a later page exists.
func (p *PackPage) HasNext() bool {
	return p.CurrentPage < p.LastPage
}
