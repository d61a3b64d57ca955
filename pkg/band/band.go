// Package band holds the immutable, table-resident band descriptors the
// frequency map (pkg/freqmap) and sequence generator (pkg/sequence) key off
// of. A band descriptor never changes after init; it is safe to share
// between radios without synchronization (spec §5).
package band

import "fmt"

// Descriptor is an immutable description of one hopping band: a contiguous
// channel plan identified by a human-readable domain tag.
type Descriptor struct {
	// Name is a human-readable domain tag, e.g. "ISM-915".
	Name string
	// FreqStart is the lowest channel's carrier frequency, in Hz.
	FreqStart uint32
	// FreqStop is the highest channel's carrier frequency, in Hz.
	FreqStop uint32
	// FreqCount is the number of discrete channels in [FreqStart, FreqStop].
	FreqCount uint16
	// FreqCenter is the nominal center frequency of the band, in Hz.
	FreqCenter uint32
}

// Spread returns the channel spacing in Hz, per spec §4.B:
// spread = (freq_stop - freq_start) / (freq_count - 1).
func (d Descriptor) Spread() uint32 {
	if d.FreqCount < 2 {
		return 0
	}
	return (d.FreqStop - d.FreqStart) / uint32(d.FreqCount-1)
}

// Validate reports whether a descriptor is well-formed: at least two
// channels, a non-decreasing range, and a center frequency inside it.
func (d Descriptor) Validate() error {
	if d.FreqCount < 2 {
		return fmt.Errorf("band %q: freq_count must be >= 2, got %d", d.Name, d.FreqCount)
	}
	if d.FreqStop < d.FreqStart {
		return fmt.Errorf("band %q: freq_stop (%d) < freq_start (%d)", d.Name, d.FreqStop, d.FreqStart)
	}
	if d.FreqCenter < d.FreqStart || d.FreqCenter > d.FreqStop {
		return fmt.Errorf("band %q: freq_center (%d) outside [%d, %d]", d.Name, d.FreqCenter, d.FreqStart, d.FreqStop)
	}
	return nil
}

// Table is a static set of band descriptors looked up by name. It does not
// record which entries are active as primary/secondary; that choice is made
// by name in pkg/config and held by freqmap.Map. Construction mirrors the
// teacher's named-preset-factory convention (pkg/profiles in the retrieval
// pack) but the factories here produce Descriptors, not CC1111 register
// profiles.
type Table struct {
	bands []Descriptor
}

// NewTable builds a Table from the given descriptors, validating each.
func NewTable(descriptors ...Descriptor) (*Table, error) {
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	bands := make([]Descriptor, len(descriptors))
	copy(bands, descriptors)
	return &Table{bands: bands}, nil
}

// ByName looks up a descriptor by its domain tag.
func (t *Table) ByName(name string) (Descriptor, bool) {
	for _, d := range t.bands {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// All returns a copy of every descriptor in the table.
func (t *Table) All() []Descriptor {
	out := make([]Descriptor, len(t.bands))
	copy(out, t.bands)
	return out
}

// Well-known ISM band presets, adapted from the teacher's per-band profile
// factories (pkg/profiles/profiles_315.go, profiles_433.go, profiles_868.go,
// profiles_915.go), which enumerated named configurations for the same four
// ISM allocations against CC1111 hardware. Here they describe the hop plan
// itself rather than a modem register set.
var (
	ISM315 = Descriptor{
		Name:       "ISM-315",
		FreqStart:  310000000,
		FreqStop:   318000000,
		FreqCount:  50,
		FreqCenter: 315000000,
	}
	ISM433 = Descriptor{
		Name:       "ISM-433",
		FreqStart:  433050000,
		FreqStop:   434790000,
		FreqCount:  69,
		FreqCenter: 433920000,
	}
	ISM868 = Descriptor{
		Name:       "ISM-868",
		FreqStart:  863000000,
		FreqStop:   870000000,
		FreqCount:  69,
		FreqCenter: 868300000,
	}
	ISM915 = Descriptor{
		Name:       "ISM-915",
		FreqStart:  902000000,
		FreqStop:   928000000,
		FreqCount:  50,
		FreqCenter: 915000000,
	}
)

// DefaultTable returns a table pre-populated with the four well-known ISM
// presets above. Callers needing a custom plan build their own Table with
// NewTable instead.
func DefaultTable() *Table {
	t, err := NewTable(ISM315, ISM433, ISM868, ISM915)
	if err != nil {
		// The built-in presets are constants validated by this package's
		// own tests; a failure here means the presets themselves are broken.
		panic(err)
	}
	return t
}
