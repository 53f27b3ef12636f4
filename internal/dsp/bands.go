package dsp

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidBand is returned for malformed band tables.
var ErrInvalidBand = eris.New("invalid band")

// Names of the bands the render loop reads every frame.
const (
	BandSub  = "sub"
	BandLow  = "low"
	BandMid  = "mid"
	BandHigh = "high"
)

var requiredBands = [4]string{BandSub, BandLow, BandMid, BandHigh}

// Band is a named half-open bin range [From, To).
type Band struct {
	Name string
	From int
	To   int
}

// BandEnergies holds one normalized average per band for a single snapshot.
type BandEnergies struct {
	Sub  float64
	Low  float64
	Mid  float64
	High float64
}

// DefaultBandTable is the band layout in Hz. At 44.1kHz with a 2048-point
// transform it resolves to bins sub=1:3, low=3:12, mid=12:93 and high=93:372.
const DefaultBandTable = "sub=20hz:60hz,low=60hz:250hz,mid=250hz:2000hz,high=2000hz:8000hz"

var defaultBandRanges = []BandRange{
	{Name: BandSub, From: 20, To: 60, Hz: true},
	{Name: BandLow, From: 60, To: 250, Hz: true},
	{Name: BandMid, From: 250, To: 2000, Hz: true},
	{Name: BandHigh, From: 2000, To: 8000, Hz: true},
}

// BandRange is one band table entry, either in snapshot bins or in Hz.
type BandRange struct {
	Name string
	From float64
	To   float64
	Hz   bool
}

// Resolve converts r to bins for the given analysis setup.
func (r BandRange) Resolve(sampleRate float64, fftSize int) Band {
	if r.Hz {
		return BandFromHz(r.Name, r.From, r.To, sampleRate, fftSize)
	}
	return Band{Name: r.Name, From: int(r.From), To: int(r.To)}
}

// ResolveBands converts a whole table to bins.
func ResolveBands(table []BandRange, sampleRate float64, fftSize int) []Band {
	bands := make([]Band, len(table))
	for i, r := range table {
		bands[i] = r.Resolve(sampleRate, fftSize)
	}
	return bands
}

// DefaultBands resolves DefaultBandTable for the given analysis setup.
func DefaultBands(sampleRate float64, fftSize int) []Band {
	return ResolveBands(defaultBandRanges, sampleRate, fftSize)
}

// BandFromHz builds a band covering [lowHz, highHz) for the given analysis setup.
func BandFromHz(name string, lowHz, highHz, sampleRate float64, fftSize int) Band {
	from := binForFrequency(lowHz, sampleRate, fftSize)
	to := binForFrequency(highHz, sampleRate, fftSize)
	if to <= from {
		to = from + 1
	}
	return Band{Name: name, From: from, To: to}
}

// Average returns the mean magnitude of snapshot[from:to] scaled into [0, 1].
func Average(snapshot []uint8, from, to int) float64 {
	var sum int
	for _, v := range snapshot[from:to] {
		sum += int(v)
	}
	return float64(sum) / float64(to-from) / MaxMagnitude
}

// BandSet is a validated band table bound to a fixed spectrum length.
type BandSet struct {
	bands       []Band
	spectrumLen int
	sub         Band
	low         Band
	mid         Band
	high        Band
}

// NewBandSet checks every band against spectrumLen and requires the sub, low, mid
// and high bands to be present. Bands may overlap.
func NewBandSet(bands []Band, spectrumLen int) (*BandSet, error) {
	if spectrumLen <= 0 {
		return nil, eris.Wrapf(ErrInvalidBand, "spectrum length %d", spectrumLen)
	}

	byName := make(map[string]Band, len(bands))
	for _, b := range bands {
		if b.Name == "" {
			return nil, eris.Wrap(ErrInvalidBand, "band without a name")
		}
		if _, dup := byName[b.Name]; dup {
			return nil, eris.Wrapf(ErrInvalidBand, "duplicate band %q", b.Name)
		}
		if b.From < 0 || b.From >= b.To || b.To > spectrumLen {
			return nil, eris.Wrapf(ErrInvalidBand, "band %q [%d, %d) outside [0, %d)", b.Name, b.From, b.To, spectrumLen)
		}
		byName[b.Name] = b
	}
	for _, name := range requiredBands {
		if _, ok := byName[name]; !ok {
			return nil, eris.Wrapf(ErrInvalidBand, "missing band %q", name)
		}
	}

	return &BandSet{
		bands:       append([]Band(nil), bands...),
		spectrumLen: spectrumLen,
		sub:         byName[BandSub],
		low:         byName[BandLow],
		mid:         byName[BandMid],
		high:        byName[BandHigh],
	}, nil
}

// Aggregate averages all four bands from the same snapshot.
func (s *BandSet) Aggregate(snapshot []uint8) BandEnergies {
	if len(snapshot) != s.spectrumLen {
		panic("dsp: snapshot length mismatch")
	}
	return BandEnergies{
		Sub:  Average(snapshot, s.sub.From, s.sub.To),
		Low:  Average(snapshot, s.low.From, s.low.To),
		Mid:  Average(snapshot, s.mid.From, s.mid.To),
		High: Average(snapshot, s.high.From, s.high.To),
	}
}

// Bands returns a copy of the table.
func (s *BandSet) Bands() []Band {
	return append([]Band(nil), s.bands...)
}

// ParseBands reads a table in the form "sub=1:3,low=60hz:250hz". Plain numbers
// are bin indices; a "hz" suffix gives a frequency. Both ends of an entry must use
// the same unit.
func ParseBands(table string) ([]BandRange, error) {
	var bands []BandRange
	for entry := range strings.SplitSeq(table, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, span, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, eris.Wrapf(ErrInvalidBand, "entry %q is not name=from:to", entry)
		}
		name = strings.TrimSpace(name)
		fromText, toText, ok := strings.Cut(span, ":")
		if !ok {
			return nil, eris.Wrapf(ErrInvalidBand, "range %q is not from:to", span)
		}
		from, fromHz, err := parseBandEdge(fromText)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidBand, "band %q from: %v", name, err)
		}
		to, toHz, err := parseBandEdge(toText)
		if err != nil {
			return nil, eris.Wrapf(ErrInvalidBand, "band %q to: %v", name, err)
		}
		if fromHz != toHz {
			return nil, eris.Wrapf(ErrInvalidBand, "band %q mixes bins and Hz", name)
		}
		if fromHz && (from < 0 || to <= from) {
			return nil, eris.Wrapf(ErrInvalidBand, "band %q [%gHz, %gHz) is empty", name, from, to)
		}
		bands = append(bands, BandRange{Name: name, From: from, To: to, Hz: fromHz})
	}
	if len(bands) == 0 {
		return nil, eris.Wrap(ErrInvalidBand, "empty band table")
	}
	return bands, nil
}

func parseBandEdge(text string) (float64, bool, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if hz, ok := strings.CutSuffix(text, "hz"); ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(hz), 64)
		return v, true, err
	}
	v, err := strconv.Atoi(text)
	return float64(v), false, err
}
