package position

// Cursor records where playback left off.
type Cursor struct {
	TrackRotationIndex          int            `json:"trackRotationIndex"`
	PlaylistRotationIndex       int            `json:"playlistRotationIndex"`
	ManualPlaylistRotationIndex int            `json:"manualPlaylistRotationIndex"`
	PlaylistOffsets             map[string]int `json:"playlistPositions"`
	TrackOffsets                map[string]int `json:"trackPositions"`
}

// NewCursor returns an empty cursor.
func NewCursor() Cursor {
	return Cursor{
		PlaylistOffsets: make(map[string]int),
		TrackOffsets:    make(map[string]int),
	}
}

// Clone returns a deep copy.
func (c Cursor) Clone() Cursor {
	out := c
	out.PlaylistOffsets = make(map[string]int, len(c.PlaylistOffsets))
	for k, v := range c.PlaylistOffsets {
		out.PlaylistOffsets[k] = v
	}
	out.TrackOffsets = make(map[string]int, len(c.TrackOffsets))
	for k, v := range c.TrackOffsets {
		out.TrackOffsets[k] = v
	}
	return out
}

// sanitize allocates nil maps and clamps negative values, which can only
// come from a hand-edited record.
func (c *Cursor) sanitize() {
	if c.PlaylistOffsets == nil {
		c.PlaylistOffsets = make(map[string]int)
	}
	if c.TrackOffsets == nil {
		c.TrackOffsets = make(map[string]int)
	}
	for _, idx := range []*int{&c.TrackRotationIndex, &c.PlaylistRotationIndex, &c.ManualPlaylistRotationIndex} {
		if *idx < 0 {
			*idx = 0
		}
	}
	for k, v := range c.PlaylistOffsets {
		if v < 0 {
			c.PlaylistOffsets[k] = 0
		}
	}
	for k, v := range c.TrackOffsets {
		if v < 0 {
			c.TrackOffsets[k] = 0
		}
	}
}

// rebase reduces idx modulo n and reports whether it was out of range.
func rebase(idx, n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	r := idx % n
	if r < 0 {
		r += n
	}
	return r, r != idx
}
