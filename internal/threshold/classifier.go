// Package threshold classifies live readings against user-set min/max bands.
package threshold

import (
	"fmt"
	"sync"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

// Classification is the outcome of checking one reading against its band.
type Classification string

const (
	Below          Classification = "BELOW"
	Within         Classification = "WITHIN"
	Above          Classification = "ABOVE"
	Unclassifiable Classification = "UNCLASSIFIABLE"
)

// Breach reports whether c is outside the band.
func (c Classification) Breach() bool { return c == Below || c == Above }

// Tone is the display hint the dashboard colours a card with.
func (c Classification) Tone() string {
	switch c {
	case Below:
		return "low"
	case Above:
		return "high"
	case Within:
		return "normal"
	}
	return "none"
}

// Band is a min/max pair; a nil side is unbounded.
type Band struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Classify applies the band rules to an already parsed value.
func (b Band) Classify(v float64) Classification {
	if b.Min != nil && v < *b.Min {
		return Below
	}
	if b.Max != nil && v > *b.Max {
		return Above
	}
	return Within
}

func (b Band) String() string {
	lo, hi := "-inf", "+inf"
	if b.Min != nil {
		lo = fmt.Sprintf("%g", *b.Min)
	}
	if b.Max != nil {
		hi = fmt.Sprintf("%g", *b.Max)
	}
	return "[" + lo + ", " + hi + "]"
}

// Classifier holds the current band of every threshold parameter.
type Classifier struct {
	mu    sync.RWMutex
	bands map[string]Band
}

// New returns a classifier with all parameters unbounded.
func New() *Classifier {
	bands := make(map[string]Band, domain.FieldCount)
	for _, p := range domain.Parameters() {
		bands[p] = Band{}
	}
	return &Classifier{bands: bands}
}

// Classify checks a raw reading. Non-numeric input is Unclassifiable.
func (c *Classifier) Classify(parameter, raw string) Classification {
	v, ok := domain.ParseNumber(raw)
	if !ok {
		return Unclassifiable
	}
	return c.ClassifyFloat(parameter, v)
}

// ClassifyValue checks a feed value.
func (c *Classifier) ClassifyValue(parameter string, v domain.Value) Classification {
	f, ok := v.Float()
	if !ok {
		return Unclassifiable
	}
	return c.ClassifyFloat(parameter, f)
}

// ClassifyFloat checks a parsed number against the live band.
func (c *Classifier) ClassifyFloat(parameter string, v float64) Classification {
	return c.Band(parameter).Classify(v)
}

// Band returns a copy of the current band. Unknown parameters are unbounded.
func (c *Classifier) Band(parameter string) Band {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyBand(c.bands[parameter])
}

// Bands returns a copy of every band keyed by parameter.
func (c *Classifier) Bands() map[string]Band {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Band, len(c.bands))
	for k, b := range c.bands {
		out[k] = copyBand(b)
	}
	return out
}

// SetBand replaces both bounds of a parameter at once.
func (c *Classifier) SetBand(parameter string, lower, upper *float64) error {
	f, ok := domain.FieldForParameter(parameter)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownParameter, parameter)
	}
	b := copyBand(Band{Min: lower, Max: upper})
	// keyed by the registry's own string; parameter may alias a request buffer
	c.mu.Lock()
	c.bands[f.Parameter()] = b
	c.mu.Unlock()
	return nil
}

// SetBandText is SetBand for form input; anything that is not a number becomes unbounded.
func (c *Classifier) SetBandText(parameter, minText, maxText string) error {
	return c.SetBand(parameter, parseBound(minText), parseBound(maxText))
}

// BandText is a band as configured or typed, before parsing.
type BandText struct {
	Min string
	Max string
}

// SetBandsText applies several text bands. Every parameter is checked before any is saved.
func (c *Classifier) SetBandsText(bands map[string]BandText) error {
	for parameter := range bands {
		if _, ok := domain.FieldForParameter(parameter); !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownParameter, parameter)
		}
	}
	for parameter, b := range bands {
		if err := c.SetBandText(parameter, b.Min, b.Max); err != nil {
			return err
		}
	}
	return nil
}

func parseBound(s string) *float64 {
	v, ok := domain.ParseNumber(s)
	if !ok {
		return nil
	}
	return &v
}

func copyBand(b Band) Band {
	var out Band
	if b.Min != nil {
		v := *b.Min
		out.Min = &v
	}
	if b.Max != nil {
		v := *b.Max
		out.Max = &v
	}
	return out
}
