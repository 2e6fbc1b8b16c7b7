// Package catalog lists downloadable chart packs from the EtternaOnline
// pack index.
//
// Results are paginated. Sorting takes a field name from SortOptions,
// optionally prefixed with "-" for descending order, and Search filters by
// pack name:
//
//	page, err := client.FetchPacks(ctx, catalog.Query{
//	    Page:   2,
//	    Limit:  20,
//	    Sort:   "-overall",
//	    Search: "dump",
//	})
//
// Skillset ratings arrive as JSON numbers or numeric strings depending on
// the endpoint version; both decode to float64.
package catalog
