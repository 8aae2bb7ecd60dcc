package quam

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Metadata describes a parameter: unit, long name and description come from
// struct tags, last-updated and uncertainty are recorded at runtime.
type Metadata struct {
	Unit        string     `json:"unit,omitempty"`
	LongName    string     `json:"long_name,omitempty"`
	Description string     `json:"description,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Uncertainty *float64   `json:"uncertainty,omitempty"`
}

// Annotated is embedded by components that persist runtime metadata for
// their parameters, keyed by json field name.
type Annotated struct {
	Metadata map[string]*Metadata `json:"metadata,omitempty"`
}

func (a *Annotated) annotations() *Annotated { return a }

type annotated interface {
	annotations() *Annotated
}

// MetadataOf returns the metadata of the field serialized as name. Runtime
// values override tag defaults.
func MetadataOf(c Component, name string) (Metadata, bool) {
	a, hasMeta := c.(annotated)
	f, _, ok := field(c, name)
	if !ok {
		if !hasMeta || a.annotations().Metadata[name] == nil {
			return Metadata{}, false
		}
		return *a.annotations().Metadata[name], true
	}
	md := Metadata{
		Unit:        f.Tag.Get("unit"),
		LongName:    f.Tag.Get("long_name"),
		Description: f.Tag.Get("description"),
	}
	if hasMeta {
		if stored := a.annotations().Metadata[name]; stored != nil {
			md = md.merge(*stored)
		}
	}
	return md, true
}

// SetMeasured records when the field name was last measured and with what
// uncertainty.
func SetMeasured(c Component, name string, uncertainty float64, at time.Time) error {
	a, ok := c.(annotated)
	if !ok {
		return fmt.Errorf("%w: %T does not carry metadata", ErrTypeMismatch, c)
	}
	if _, _, ok := field(c, name); !ok {
		return fmt.Errorf("%w: %T has no field %q", ErrUnresolvable, c, name)
	}

	store := a.annotations()
	if store.Metadata == nil {
		store.Metadata = make(map[string]*Metadata)
	}
	md := store.Metadata[name]
	if md == nil {
		md = &Metadata{}
		store.Metadata[name] = md
	}
	at = at.UTC()
	md.LastUpdated = &at
	md.Uncertainty = &uncertainty
	return nil
}

func (m Metadata) merge(o Metadata) Metadata {
	if o.Unit != "" {
		m.Unit = o.Unit
	}
	if o.LongName != "" {
		m.LongName = o.LongName
	}
	if o.Description != "" {
		m.Description = o.Description
	}
	if o.LastUpdated != nil {
		m.LastUpdated = o.LastUpdated
	}
	if o.Uncertainty != nil {
		m.Uncertainty = o.Uncertainty
	}
	return m
}

// Format renders v with an SI prefix on the metadata's unit, plus the
// uncertainty when one is known.
func (m Metadata) Format(v float64) string {
	s := formatSI(v, m.Unit)
	if m.Uncertainty != nil {
		s += " ± " + formatSI(*m.Uncertainty, m.Unit)
	}
	return s
}

func formatSI(v float64, unit string) string {
	switch unit {
	case "":
		return strconv.FormatFloat(v, 'g', 6, 64)
	case "degree", "rad", "V", "a.u.":
		return strconv.FormatFloat(v, 'g', 6, 64) + " " + unit
	}
	return humanize.SIWithDigits(v, 3, unit)
}

// Parameters lists the json names of c's fields that carry a unit tag.
func Parameters(c Component) []string {
	var names []string
	walkFields(reflect.ValueOf(c), func(f reflect.StructField, name string, _ reflect.Value) bool {
		if f.Tag.Get("unit") != "" {
			names = append(names, name)
		}
		return true
	})
	return names
}
