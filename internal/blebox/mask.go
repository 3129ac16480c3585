package blebox

import (
	"fmt"
	"strings"
)

// placeholder marks bytes of a shared wire string that an instance does not
// own. The box leaves those channels unchanged.
const placeholder = "--"

// probe is written into a mask to locate the owned range.
const probe = 'x'

// Mask places one instance's fragment inside a wire string shared with other
// instances. Offset and Width are in channels (bytes); Total is the channel
// count of the whole wire string.
//
// A mask with Width == Total owns the whole string.
type Mask struct {
	Offset int
	Width  int
	Total  int
}

// NewMask returns a mask and panics if the range does not fit; masks are
// static configuration, so a bad one is a programming error.
func NewMask(offset, width, total int) Mask {
	if offset < 0 || width < 1 || offset+width > total {
		panic(fmt.Sprintf("blebox: invalid mask offset=%d width=%d total=%d", offset, width, total))
	}
	return Mask{Offset: offset, Width: width, Total: total}
}

// Masked reports whether the instance shares its wire string.
func (m Mask) Masked() bool { return m.Width < m.Total }

// Apply returns the full wire string with fragment at the owned offset and
// every other byte held at the placeholder.
func (m Mask) Apply(fragment string) string {
	return strings.Repeat(placeholder, m.Offset) +
		fragment +
		strings.Repeat(placeholder, m.Total-m.Offset-m.Width)
}

// span locates the owned range in hex characters by applying the mask to a
// probe fragment. The probe must come back as one contiguous run of the
// fragment's length.
func (m Mask) span() (start, end int) {
	want := 2 * m.Width
	out := m.Apply(strings.Repeat(string(probe), want))
	start = strings.IndexByte(out, probe)
	end = strings.LastIndexByte(out, probe) + 1
	if start < 0 || end-start != want || strings.Count(out, string(probe)) != want {
		panic(fmt.Sprintf("blebox: mask %+v does not own one contiguous range", m))
	}
	return start, end
}

// Extract returns the fragment owned by the mask. It fails when wire is too
// short to contain the owned range.
func (m Mask) Extract(wire string) (string, bool) {
	start, end := m.span()
	if len(wire) < end {
		return "", false
	}
	return wire[start:end], true
}
