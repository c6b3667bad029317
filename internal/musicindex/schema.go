package musicindex

import (
	"fmt"
	"strings"

	"github.com/mikey-austin/socos/pkg/zone"
)

// column is one searchable column and how it is read off a catalog item.
type column struct {
	name  string
	value func(zone.LibraryItem) string
}

var (
	titleColumn  = column{name: "title", value: func(i zone.LibraryItem) string { return i.Title }}
	albumColumn  = column{name: "album", value: func(i zone.LibraryItem) string { return i.Album }}
	artistColumn = column{name: "artist", value: func(i zone.LibraryItem) string { return i.Creator }}
)

// table is the layout of one category. Every table also has a content
// column holding the item JSON.
type table struct {
	category string
	columns  []column
}

var tables = []table{
	{category: zone.CategoryTracks, columns: []column{titleColumn, albumColumn, artistColumn}},
	{category: zone.CategoryAlbums, columns: []column{titleColumn, artistColumn}},
	{category: zone.CategoryArtists, columns: []column{titleColumn}},
	{category: zone.CategoryPlaylists, columns: []column{titleColumn}},
}

func tableFor(category string) (table, bool) {
	for _, t := range tables {
		if t.category == category {
			return t, true
		}
	}
	return table{}, false
}

func (t table) fieldNames() []string {
	out := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		out = append(out, c.name)
	}
	return out
}

func (t table) hasField(name string) bool {
	for _, c := range t.columns {
		if c.name == name {
			return true
		}
	}
	return false
}

func (t table) createSQL() string {
	defs := make([]string, 0, len(t.columns)+1)
	for _, c := range t.columns {
		defs = append(defs, c.name+" TEXT")
	}
	defs = append(defs, "content TEXT")
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.category, strings.Join(defs, ", "))
}

func (t table) dropSQL() string {
	return "DROP TABLE IF EXISTS " + t.category
}

func (t table) insertSQL() string {
	names := append(t.fieldNames(), "content")
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.category, strings.Join(names, ", "), marks)
}

func (t table) selectSQL(field string) string {
	names := append(t.fieldNames(), "content")
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s LIKE ? ORDER BY rowid", strings.Join(names, ", "), t.category, field)
}
