package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mikey-austin/socos/internal/ports"
	"github.com/mikey-austin/socos/pkg/zone"
)

// IndexedCategories are the catalog categories kept in the local index.
var IndexedCategories = []string{
	zone.CategoryTracks,
	zone.CategoryAlbums,
	zone.CategoryArtists,
	zone.CategoryPlaylists,
}

// DefaultSearchField is used when a search term names no field.
const DefaultSearchField = "title"

// CatalogPageSize is the number of items requested per catalog page.
const CatalogPageSize = 1000

func libraryHelp(category string) string {
	return fmt.Sprintf("%s [field=]pattern [add|replace number]\n"+
		"List %s matching pattern, or add the numbered result to the queue\n"+
		"or replace the queue with it. Without a pattern all %s are listed.",
		category, category, category)
}

func (c *Commands) library(category string) Handler {
	return func(ctx context.Context, dev ports.Player, args []string) (Result, error) {
		return c.searchAndPlay(ctx, dev, category, args, func(field, pattern string) ([]ports.IndexRecord, error) {
			return c.Index.Search(ctx, category, field, pattern)
		})
	}
}

func (c *Commands) sonosPlaylists(ctx context.Context, dev ports.Player, args []string) (Result, error) {
	category := zone.CategorySonosPlaylists
	return c.searchAndPlay(ctx, dev, category, args, func(field, pattern string) ([]ports.IndexRecord, error) {
		if field != DefaultSearchField {
			return nil, Errorf(ErrUnknownField, "Unknown field %q for %s. Valid fields: %s", field, category, DefaultSearchField)
		}
		items, err := fetchCategory(ctx, dev, category)
		if err != nil {
			return nil, err
		}
		out := make([]ports.IndexRecord, 0, len(items))
		for _, item := range items {
			if !strings.Contains(item.Title, pattern) {
				continue
			}
			content, err := json.Marshal(item)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", item.ItemID, err)
			}
			out = append(out, ports.IndexRecord{Title: item.Title, Content: content})
		}
		return out, nil
	})
}

func (c *Commands) searchAndPlay(ctx context.Context, dev ports.Player, category string, args []string,
	search func(field, pattern string) ([]ports.IndexRecord, error)) (Result, error) {
	field, pattern := DefaultSearchField, ""
	switch len(args) {
	case 0:
	case 1, 3:
		var err error
		field, pattern, err = ParseSearchTerm(args[0])
		if err != nil {
			return Result{}, err
		}
	default:
		return Result{}, usage(fmt.Sprintf("%s [field=]pattern [add|replace number]", category))
	}

	records, err := search(field, pattern)
	if err != nil {
		return Result{}, err
	}
	if len(args) < 3 {
		return SliceLines(formatRecords(category, records)), nil
	}
	return playRecord(ctx, dev, category, records, args[1], args[2])
}

// ParseSearchTerm splits "[field=]pattern".
func ParseSearchTerm(term string) (string, string, error) {
	parts := strings.Split(term, "=")
	switch len(parts) {
	case 1:
		return DefaultSearchField, parts[0], nil
	case 2:
		return parts[0], parts[1], nil
	default:
		return "", "", InvalidArgumentf("Search term %q may contain only one '='", term)
	}
}

func formatRecords(category string, records []ports.IndexRecord) []string {
	width := len(strconv.Itoa(len(records)))
	out := make([]string, 0, len(records))
	for i, r := range records {
		var text string
		switch category {
		case zone.CategoryTracks:
			text = fmt.Sprintf("'%s' on '%s' by '%s'", r.Title, r.Album, r.Artist)
		case zone.CategoryAlbums:
			text = fmt.Sprintf("'%s' by '%s'", r.Title, r.Artist)
		default:
			text = fmt.Sprintf("'%s'", r.Title)
		}
		out = append(out, fmt.Sprintf("(%*d) %s", width, i+1, text))
	}
	return out
}

func playRecord(ctx context.Context, dev ports.Player, category string, records []ports.IndexRecord,
	action string, number string) (Result, error) {
	if action != ActionAdd && action != ActionReplace {
		return Result{}, InvalidArgumentf("Action must be one of 'add' or 'replace'")
	}
	n, err := strconv.Atoi(number)
	if err != nil {
		return Result{}, InvalidArgumentf("Play number must be parseable as integer")
	}
	if n < 1 || n > len(records) {
		switch len(records) {
		case 0:
			return Result{}, InvalidArgumentf("No results to play from")
		case 1:
			return Result{}, InvalidArgumentf("Play number can only be 1")
		default:
			return Result{}, InvalidArgumentf("Play number has to be within the range 1 to %d", len(records))
		}
	}

	item, err := records[n-1].Item()
	if err != nil {
		return Result{}, fmt.Errorf("decode %s item: %w", category, err)
	}
	if err := AddOrReplace(ctx, dev, item, action); err != nil {
		return Result{}, err
	}
	if action == ActionReplace {
		return Scalar(fmt.Sprintf("Queue replaced with %s: '%s'", category, item.Title)), nil
	}
	return Scalar(fmt.Sprintf("Added %s to queue: '%s'", category, item.Title)), nil
}

// fetchCategory pages through a whole catalog category.
func fetchCategory(ctx context.Context, catalog ports.Catalog, category string) ([]zone.LibraryItem, error) {
	out := make([]zone.LibraryItem, 0)
	for {
		page, err := catalog.LibraryItems(ctx, category, len(out), CatalogPageSize)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", category, err)
		}
		out = append(out, page.Items...)
		if len(out) >= page.TotalMatches || len(page.Items) == 0 {
			return out, nil
		}
	}
}

func (c *Commands) indexLibrary(ctx context.Context, dev ports.Player, args []string) (Result, error) {
	if len(args) != 0 {
		return Result{}, usage("ml_index")
	}
	return Lines(c.Index.Rebuild(ctx, dev)), nil
}

func (c *Commands) indexStatus(ctx context.Context, _ ports.Player, _ []string) (Result, error) {
	counts, err := c.Index.Counts(ctx)
	if err != nil {
		return Result{}, err
	}
	lines := make([]string, 0, len(IndexedCategories))
	for _, category := range IndexedCategories {
		lines = append(lines, fmt.Sprintf("%-10s %d", category+":", counts[category]))
	}
	return SliceLines(lines), nil
}
