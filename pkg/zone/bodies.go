package zone

// Command types.
const (
	CmdPlay          = "transport.play"
	CmdPause         = "transport.pause"
	CmdStop          = "transport.stop"
	CmdNext          = "transport.next"
	CmdPrevious      = "transport.previous"
	CmdPlayFromQueue = "transport.playFromQueue"
	CmdTransportInfo = "transport.info"
	CmdGetPlayMode   = "transport.getPlayMode"
	CmdSetPlayMode   = "transport.setPlayMode"
	CmdRenderingGet  = "rendering.get"
	CmdRenderingSet  = "rendering.set"
	CmdTrackCurrent  = "track.current"
	CmdQueueGet      = "queue.get"
	CmdQueueAdd      = "queue.add"
	CmdQueueRemove   = "queue.remove"
	CmdQueueClear    = "queue.clear"
	CmdDeviceInfo    = "device.info"
	CmdPartyMode     = "group.partymode"
	CmdLibraryItems  = "library.items"
)

// Transport states reported by transport.info.
const (
	StatePlaying        = "PLAYING"
	StatePausedPlayback = "PAUSED_PLAYBACK"
	StateStopped        = "STOPPED"
	StateTransitioning  = "TRANSITIONING"
)

// Play modes accepted by transport.setPlayMode.
var PlayModes = []string{"NORMAL", "SHUFFLE_NOREPEAT", "SHUFFLE", "REPEAT_ALL"}

// Rendering settings.
const (
	SettingVolume = "volume"
	SettingBass   = "bass"
	SettingTreble = "treble"
)

// Library categories served by library.items.
const (
	CategoryTracks         = "tracks"
	CategoryAlbums         = "albums"
	CategoryArtists        = "artists"
	CategoryPlaylists      = "playlists"
	CategorySonosPlaylists = "sonos_playlists"
)

// PlayFromQueueBody plays the zero-based queue index.
type PlayFromQueueBody struct {
	Index int `json:"index"`
}

// TransportInfoReply reports the transport state.
type TransportInfoReply struct {
	State string `json:"state"`
}

// PlayModeBody carries a play mode.
type PlayModeBody struct {
	Mode string `json:"mode"`
}

// RenderingGetBody requests a rendering setting.
type RenderingGetBody struct {
	Setting string `json:"setting"`
}

// RenderingSetBody sets a rendering setting.
type RenderingSetBody struct {
	Setting string `json:"setting"`
	Value   int    `json:"value"`
}

// RenderingReply reports a rendering setting as applied by the zone.
type RenderingReply struct {
	Setting string `json:"setting"`
	Value   int    `json:"value"`
}

// TrackInfo describes the current track.
type TrackInfo struct {
	Title            string `json:"title"`
	Artist           string `json:"artist"`
	Album            string `json:"album"`
	PlaylistPosition int    `json:"playlistPosition"`
	Duration         string `json:"duration"`
	URI              string `json:"uri,omitempty"`
}

// QueueGetBody requests a window of the queue.
type QueueGetBody struct {
	Start int `json:"start"`
	Count int `json:"count"`
}

// QueueGetReply returns queue items and the full length.
type QueueGetReply struct {
	Items []QueueItem `json:"items"`
	Total int         `json:"total"`
}

// QueueItem is a queued track.
type QueueItem struct {
	Title   string `json:"title"`
	Creator string `json:"creator"`
	Album   string `json:"album"`
	URI     string `json:"uri,omitempty"`
}

// QueueAddBody appends a library item.
type QueueAddBody struct {
	Item LibraryItem `json:"item"`
}

// QueueAddReply reports the one-based position of the first added track.
type QueueAddReply struct {
	Position int `json:"position"`
}

// QueueRemoveBody removes the zero-based queue index.
type QueueRemoveBody struct {
	Index int `json:"index"`
}

// DeviceInfoReply holds speaker information.
type DeviceInfoReply struct {
	Info map[string]string `json:"info"`
}

// LibraryItemsBody pages a library category.
type LibraryItemsBody struct {
	Category string `json:"category"`
	Start    int    `json:"start"`
	Count    int    `json:"count"`
}

// LibraryItemsReply is one page of a library category.
type LibraryItemsReply struct {
	Items          []LibraryItem `json:"items"`
	NumberReturned int           `json:"numberReturned"`
	TotalMatches   int           `json:"totalMatches"`
}

// LibraryItem is a catalog entry. Tracks expand to themselves when queued,
// containers expand to their Children.
type LibraryItem struct {
	ItemID    string        `json:"itemId"`
	ParentID  string        `json:"parentId,omitempty"`
	ItemClass string        `json:"itemClass,omitempty"`
	Title     string        `json:"title"`
	Creator   string        `json:"creator,omitempty"`
	Album     string        `json:"album,omitempty"`
	URI       string        `json:"uri,omitempty"`
	Children  []LibraryItem `json:"children,omitempty"`
}
