package zonesim

import (
	"fmt"

	"github.com/mikey-austin/socos/pkg/zone"
)

// Item classes used by the simulated catalog.
const (
	ClassTrack    = "object.item.audioItem.musicTrack"
	ClassAlbum    = "object.container.album.musicAlbum"
	ClassArtist   = "object.container.person.musicArtist"
	ClassPlaylist = "object.container.playlistContainer"
)

// Library is a read-only catalog keyed by category.
type Library struct {
	categories map[string][]zone.LibraryItem
}

// LibraryShape sizes a generated library.
type LibraryShape struct {
	Artists         int
	AlbumsPerArtist int
	TracksPerAlbum  int
	Playlists       int
	SavedPlaylists  []string
}

// GenerateLibrary builds a deterministic catalog of the given shape.
// Playlists take every third track; saved playlists take every fifth.
func GenerateLibrary(shape LibraryShape) *Library {
	lib := &Library{categories: map[string][]zone.LibraryItem{}}
	tracks := make([]zone.LibraryItem, 0)

	for a := 1; a <= shape.Artists; a++ {
		artistName := fmt.Sprintf("Artist %d", a)
		artist := zone.LibraryItem{
			ItemID:    fmt.Sprintf("A:ARTIST/%d", a),
			ParentID:  "A:ARTIST",
			ItemClass: ClassArtist,
			Title:     artistName,
		}
		for b := 1; b <= shape.AlbumsPerArtist; b++ {
			albumTitle := fmt.Sprintf("Album %d-%d", a, b)
			album := zone.LibraryItem{
				ItemID:    fmt.Sprintf("A:ALBUM/%d/%d", a, b),
				ParentID:  "A:ALBUM",
				ItemClass: ClassAlbum,
				Title:     albumTitle,
				Creator:   artistName,
			}
			for n := 1; n <= shape.TracksPerAlbum; n++ {
				track := zone.LibraryItem{
					ItemID:    fmt.Sprintf("S://library/%d/%d/%d.flac", a, b, n),
					ParentID:  album.ItemID,
					ItemClass: ClassTrack,
					Title:     fmt.Sprintf("Song %d-%d-%d", a, b, n),
					Creator:   artistName,
					Album:     albumTitle,
					URI:       fmt.Sprintf("x-file-cifs://library/%d/%d/%d.flac", a, b, n),
				}
				album.Children = append(album.Children, track)
				tracks = append(tracks, track)
			}
			artist.Children = append(artist.Children, album.Children...)
			lib.categories[zone.CategoryAlbums] = append(lib.categories[zone.CategoryAlbums], album)
		}
		lib.categories[zone.CategoryArtists] = append(lib.categories[zone.CategoryArtists], artist)
	}
	lib.categories[zone.CategoryTracks] = tracks

	for p := 1; p <= shape.Playlists; p++ {
		lib.categories[zone.CategoryPlaylists] = append(lib.categories[zone.CategoryPlaylists],
			playlist(fmt.Sprintf("S://playlists/%d.m3u", p), fmt.Sprintf("Playlist %d", p), tracks, 3, p))
	}
	for i, name := range shape.SavedPlaylists {
		lib.categories[zone.CategorySonosPlaylists] = append(lib.categories[zone.CategorySonosPlaylists],
			playlist(fmt.Sprintf("SQ:%d", i+1), name, tracks, 5, i))
	}
	return lib
}

func playlist(id, title string, tracks []zone.LibraryItem, stride int, offset int) zone.LibraryItem {
	pl := zone.LibraryItem{ItemID: id, ItemClass: ClassPlaylist, Title: title}
	for i := offset % stride; i < len(tracks); i += stride {
		pl.Children = append(pl.Children, tracks[i])
	}
	return pl
}

// Page returns one page of a category.
func (l *Library) Page(category string, start int, count int) (zone.LibraryItemsReply, error) {
	items, ok := l.categories[category]
	if !ok {
		switch category {
		case zone.CategoryTracks, zone.CategoryAlbums, zone.CategoryArtists,
			zone.CategoryPlaylists, zone.CategorySonosPlaylists:
		default:
			return zone.LibraryItemsReply{}, fmt.Errorf("unknown category %q", category)
		}
	}
	from := clampIndex(start, len(items))
	to := clampIndex(start+count, len(items))
	page := make([]zone.LibraryItem, to-from)
	copy(page, items[from:to])
	return zone.LibraryItemsReply{Items: page, NumberReturned: len(page), TotalMatches: len(items)}, nil
}

// Count returns the number of items in a category.
func (l *Library) Count(category string) int {
	return len(l.categories[category])
}

// expand turns a catalog item into the queue entries it stands for.
func expand(item zone.LibraryItem) []zone.QueueItem {
	if len(item.Children) == 0 {
		return []zone.QueueItem{{Title: item.Title, Creator: item.Creator, Album: item.Album, URI: item.URI}}
	}
	out := make([]zone.QueueItem, 0, len(item.Children))
	for _, child := range item.Children {
		out = append(out, expand(child)...)
	}
	return out
}
