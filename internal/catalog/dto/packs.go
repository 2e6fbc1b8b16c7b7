package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/handiism/chartpack/internal/model"
)

// FlexFloat is a float the catalog sends either as a JSON number or as a
// numeric string such as "24.61".
type FlexFloat float64

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("unable to parse number: %q", s)
		}
		*f = FlexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// JSONPacksResponse is one page of the pack listing.
type JSONPacksResponse struct {
	Data  []JSONPack `json:"data"`
	Links JSONLinks  `json:"links"`
	Meta  JSONMeta   `json:"meta"`
}

// JSONPack is a pack entry as the catalog returns it.
type JSONPack struct {
	ID              uint64    `json:"id"`
	Name            string    `json:"name"`
	PlayCount       uint64    `json:"play_count"`
	SongCount       uint64    `json:"song_count"`
	BannerPath      string    `json:"banner_path"`
	BannerTinyThumb string    `json:"bannerTinyThumb"`
	BannerSrcSet    string    `json:"bannerSrcSet"`
	ContainsNSFW    bool      `json:"contains_nsfw"`
	Size            string    `json:"size"`
	Overall         FlexFloat `json:"overall"`
	Stream          FlexFloat `json:"stream"`
	Jumpstream      FlexFloat `json:"jumpstream"`
	Handstream      FlexFloat `json:"handstream"`
	Jacks           FlexFloat `json:"jacks"`
	Chordjacks      FlexFloat `json:"chordjacks"`
	Stamina         FlexFloat `json:"stamina"`
	Technical       FlexFloat `json:"technical"`
	Tags            []JSONTag `json:"tags"`
	Download        string    `json:"download"`
	Magnet          string    `json:"magnet"`
}

// JSONTag is a pack tag.
type JSONTag struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// JSONLinks holds the pagination links.
type JSONLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// JSONMeta holds pagination counters.
type JSONMeta struct {
	CurrentPage uint64 `json:"current_page"`
	From        uint64 `json:"from"`
	LastPage    uint64 `json:"last_page"`
	Path        string `json:"path"`
	PerPage     uint64 `json:"per_page"`
	To          uint64 `json:"to"`
	Total       uint64 `json:"total"`
}

// ToPack converts the entry to a model.Pack.
func (jp *JSONPack) ToPack() model.Pack {
	tags := make([]string, 0, len(jp.Tags))
	for _, t := range jp.Tags {
		tags = append(tags, t.Name)
	}

	return model.Pack{
		ID:          model.PackID(jp.ID),
		Name:        jp.Name,
		PlayCount:   jp.PlayCount,
		SongCount:   jp.SongCount,
		Size:        jp.Size,
		NSFW:        jp.ContainsNSFW,
		DownloadURL: jp.Download,
		BannerURL:   jp.BannerPath,
		Skills: map[string]float64{
			"overall":    float64(jp.Overall),
			"stream":     float64(jp.Stream),
			"jumpstream": float64(jp.Jumpstream),
			"handstream": float64(jp.Handstream),
			"jacks":      float64(jp.Jacks),
			"chordjacks": float64(jp.Chordjacks),
			"stamina":    float64(jp.Stamina),
			"technical":  float64(jp.Technical),
		},
		Tags: tags,
	}
}

// ToPage converts the response to a model.PackPage.
func (r *JSONPacksResponse) ToPage() *model.PackPage {
	page := &model.PackPage{
		Packs:       make([]model.Pack, 0, len(r.Data)),
		CurrentPage: r.Meta.CurrentPage,
		LastPage:    r.Meta.LastPage,
		PerPage:     r.Meta.PerPage,
		Total:       r.Meta.Total,
	}
	for i := range r.Data {
		page.Packs = append(page.Packs, r.Data[i].ToPack())
	}
	return page
}
