package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/handiism/chartpack/internal/catalog"
	chttp "github.com/handiism/chartpack/internal/http"
	"github.com/spf13/cobra"
)

var (
	searchPage  uint64
	searchLimit uint64
	searchSort  string
	searchDesc  bool
	searchQuery string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List packs from the pack catalog",
	Args:  cobra.NoArgs,
	RunE:  runSearch,
}

func init() {
	var fields []string
	for _, opt := range catalog.SortOptions() {
		fields = append(fields, opt.Value)
	}

	searchCmd.Flags().Uint64Var(&searchPage, "page", 1, "page number")
	searchCmd.Flags().Uint64Var(&searchLimit, "limit", 20, "packs per page")
	searchCmd.Flags().StringVar(&searchSort, "sort", catalog.SortPopularity.String(),
		"sort field, one of: "+strings.Join(fields, ", "))
	searchCmd.Flags().BoolVar(&searchDesc, "desc", false, "sort descending")
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "filter packs by name")
}

func runSearch(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	field, ok := catalog.ParseSortField(searchSort)
	if !ok {
		return fmt.Errorf("%w: %q", catalog.ErrInvalidSort, searchSort)
	}

	logger := newLogger()
	client := catalog.NewClient(
		chttp.NewClient(chttp.Options{Origin: settings.Origin, Timeout: settings.Timeout(), Logger: logger}),
		settings.CatalogURL,
		logger,
	)

	page, err := client.FetchPacks(cmd.Context(), catalog.Query{
		Page:   searchPage,
		Limit:  searchLimit,
		Sort:   catalog.SortString(field, searchDesc),
		Search: searchQuery,
	})
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))).
		Headers("ID", "NAME", "OVERALL", "SONGS", "SIZE", "URL")
	for _, p := range page.Packs {
		t.Row(
			strconv.FormatUint(uint64(p.ID), 10),
			p.Name,
			fmt.Sprintf("%.2f", p.Overall()),
			strconv.FormatUint(p.SongCount, 10),
			p.Size,
			p.DownloadURL,
		)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "page %d of %d, %d packs\n", page.CurrentPage, page.LastPage, page.Total)
	return nil
}
