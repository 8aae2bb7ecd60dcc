package pulses

import (
	"fmt"
	"sort"

	"github.com/vk/squidquam/internal/quam"
)

// Waveform is one config waveform: a constant sample, a shape descriptor, or
// synthesized samples.
type Waveform struct {
	Constant  bool
	Sample    float64
	Shape     string
	Component string
	Params    map[string]any
	Samples   []float64
}

// Constant returns a constant waveform.
func Constant(sample float64) Waveform {
	return Waveform{Constant: true, Sample: sample}
}

// Shaped returns a descriptor for the I or Q component of a shape.
func Shaped(shape, component string, params map[string]any) Waveform {
	return Waveform{Shape: shape, Component: component, Params: params}
}

// Config returns the waveform's config entry.
func (w Waveform) Config(length int) map[string]any {
	switch {
	case w.Constant:
		return map[string]any{"type": "constant", "sample": w.Sample}
	case w.Samples != nil:
		return map[string]any{"type": "arbitrary", "samples": w.Samples}
	}
	params := make(map[string]any, len(w.Params)+1)
	for k, v := range w.Params {
		params[k] = v
	}
	params["length"] = length
	return map[string]any{
		"type":       "arbitrary",
		"shape":      w.Shape,
		"component":  w.Component,
		"parameters": params,
	}
}

// Synthesizer turns a shape descriptor into I and Q samples. Implementations
// live outside this module.
type Synthesizer interface {
	Samples(shape string, params map[string]any) (i, q []float64, err error)
}

// Synthesize replaces every shape descriptor in cfg's waveforms with samples.
func Synthesize(cfg quam.Config, s Synthesizer) error {
	waveforms := cfg.Section("waveforms")
	names := make([]string, 0, len(waveforms))
	for name := range waveforms {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		wf, ok := waveforms[name].(map[string]any)
		if !ok {
			continue
		}
		shape, ok := wf["shape"].(string)
		if !ok {
			continue
		}
		params, _ := wf["parameters"].(map[string]any)
		i, q, err := s.Samples(shape, params)
		if err != nil {
			return fmt.Errorf("synthesizing waveform %s: %w", name, err)
		}
		samples := i
		if wf["component"] == "Q" {
			samples = q
		}
		waveforms[name] = map[string]any{"type": "arbitrary", "samples": samples}
	}
	return nil
}
