package engine

// Light-source labels reported by the photonic analyzer.
const (
	LightDark       = "Dark"
	LightNatural    = "Natural"
	LightGrid       = "Grid"
	LightArtificial = "Artificial"
)

// photonicAnalyzer tracks lux flicker statistics and classifies the light
// source. Classification order is part of the contract: Dark, then
// Natural, then Grid, then Artificial.
type photonicAnalyzer struct {
	ring           *Ring
	darkLux        float64
	naturalFlicker float64

	lastLabel   string
	lastFlicker float64
}

func newPhotonicAnalyzer(ringSize int, darkLux, naturalFlicker float64) *photonicAnalyzer {
	return &photonicAnalyzer{
		ring:           NewRing(ringSize),
		darkLux:        darkLux,
		naturalFlicker: naturalFlicker,
	}
}

// update folds one lux sample in and reclassifies. mainsDominant reports
// whether the current dominant frequency sits in a mains-hum band.
func (p *photonicAnalyzer) update(lux float64, mainsDominant bool) (label string, flicker float64) {
	p.ring.Push(lux)
	mean := p.ring.Mean()

	if mean < p.darkLux {
		p.lastLabel = LightDark
		p.lastFlicker = 0
		return p.lastLabel, p.lastFlicker
	}

	// mean >= darkLux > 0 here, so the flicker division is safe; the
	// explicit guard covers a zero dark threshold.
	if mean == 0 {
		return p.lastLabel, p.lastFlicker
	}
	flicker = p.ring.PopStdDev() / mean
	p.lastFlicker = flicker

	switch {
	case flicker < p.naturalFlicker:
		p.lastLabel = LightNatural
	case mainsDominant:
		p.lastLabel = LightGrid
	default:
		p.lastLabel = LightArtificial
	}
	return p.lastLabel, flicker
}

// last returns the most recent classification for frames without a lux
// sample.
func (p *photonicAnalyzer) last() (label string, flicker float64) {
	return p.lastLabel, p.lastFlicker
}
