package fese

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fumin/condmat"
)

//go:embed params.yaml
var defaultParams []byte

// The hopping terms of an orbital pair are named by the neighbor they connect to.
// For example X is the neighbor at (1, 0), XY at (1, 1) and XXY at (2, 1).

// Terms11 are the dxz-dxz hoppings. Those of dyz-dyz follow by exchanging x and y.
type Terms11 struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	XY   float64 `yaml:"xy"`
	XX   float64 `yaml:"xx"`
	XXY  float64 `yaml:"xxy"`
	XYY  float64 `yaml:"xyy"`
	XXYY float64 `yaml:"xxyy"`
}

type Terms33 struct {
	X  float64 `yaml:"x"`
	XY float64 `yaml:"xy"`
	XX float64 `yaml:"xx"`
}

type Terms44 struct {
	X    float64 `yaml:"x"`
	XY   float64 `yaml:"xy"`
	XX   float64 `yaml:"xx"`
	XXY  float64 `yaml:"xxy"`
	XXYY float64 `yaml:"xxyy"`
}

type Terms55 struct {
	X    float64 `yaml:"x"`
	XX   float64 `yaml:"xx"`
	XXY  float64 `yaml:"xxy"`
	XXYY float64 `yaml:"xxyy"`
}

type Terms12 struct {
	XY   float64 `yaml:"xy"`
	XXY  float64 `yaml:"xxy"`
	XXYY float64 `yaml:"xxyy"`
}

// Terms13 are the hoppings of the pairs dxz-dx2y2 and dxz-dxy.
type Terms13 struct {
	X   float64 `yaml:"x"`
	XY  float64 `yaml:"xy"`
	XXY float64 `yaml:"xxy"`
}

type Terms15 struct {
	X    float64 `yaml:"x"`
	XY   float64 `yaml:"xy"`
	XXYY float64 `yaml:"xxyy"`
}

type Terms34 struct {
	XXY float64 `yaml:"xxy"`
}

type Terms35 struct {
	X   float64 `yaml:"x"`
	XXY float64 `yaml:"xxy"`
}

type Terms45 struct {
	XY   float64 `yaml:"xy"`
	XXYY float64 `yaml:"xxyy"`
}

type Onsite struct {
	Dxz   float64 `yaml:"dxz"`
	Dyz   float64 `yaml:"dyz"`
	Dx2y2 float64 `yaml:"dx2y2"`
	Dxy   float64 `yaml:"dxy"`
	Dz2   float64 `yaml:"dz2"`
}

type Hopping struct {
	T11 Terms11 `yaml:"t11"`
	T33 Terms33 `yaml:"t33"`
	T44 Terms44 `yaml:"t44"`
	T55 Terms55 `yaml:"t55"`
	T12 Terms12 `yaml:"t12"`
	T13 Terms13 `yaml:"t13"`
	T14 Terms13 `yaml:"t14"`
	T15 Terms15 `yaml:"t15"`
	T34 Terms34 `yaml:"t34"`
	T35 Terms35 `yaml:"t35"`
	T45 Terms45 `yaml:"t45"`
}

// Params are the parameters of the five-orbital model.
// Params are plain values, and a copy shares nothing with the original.
type Params struct {
	Onsite  Onsite  `yaml:"onsite"`
	Hopping Hopping `yaml:"hopping"`
	// Mu is the chemical potential, subtracted from the diagonal.
	Mu float64 `yaml:"mu"`
	// Zeeman is the spin splitting of SpinfulHamiltonian, optional.
	Zeeman float64 `yaml:"zeeman"`
}

// hoppingKeys are the terms of each orbital pair.
var hoppingKeys = []struct {
	pair  string
	terms []string
}{
	{pair: "t11", terms: []string{"x", "y", "xy", "xx", "xxy", "xyy", "xxyy"}},
	{pair: "t33", terms: []string{"x", "xy", "xx"}},
	{pair: "t44", terms: []string{"x", "xy", "xx", "xxy", "xxyy"}},
	{pair: "t55", terms: []string{"x", "xx", "xxy", "xxyy"}},
	{pair: "t12", terms: []string{"xy", "xxy", "xxyy"}},
	{pair: "t13", terms: []string{"x", "xy", "xxy"}},
	{pair: "t14", terms: []string{"x", "xy", "xxy"}},
	{pair: "t15", terms: []string{"x", "xy", "xxyy"}},
	{pair: "t34", terms: []string{"xxy"}},
	{pair: "t35", terms: []string{"x", "xxy"}},
	{pair: "t45", terms: []string{"xy", "xxyy"}},
}

// RequiredKeys returns the dotted keys a parameter file must define.
func RequiredKeys() []string {
	keys := []string{"onsite.dxz", "onsite.dyz", "onsite.dx2y2", "onsite.dxy", "onsite.dz2"}
	for _, h := range hoppingKeys {
		for _, t := range h.terms {
			keys = append(keys, "hopping."+h.pair+"."+t)
		}
	}
	keys = append(keys, "mu")
	return keys
}

// optionalKeys may be absent, and default to zero.
var optionalKeys = []string{"zeeman"}

// DefaultParams returns the parameters of Graser et al.
func DefaultParams() Params {
	p, err := ParseParams(defaultParams)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return p
}

// LoadParams reads a parameter file.
func LoadParams(fpath string) (Params, error) {
	b, err := os.ReadFile(fpath)
	if err != nil {
		return Params{}, errors.Wrap(condmat.ErrConfiguration, fmt.Sprintf("%+v", err))
	}
	p, err := ParseParams(b)
	if err != nil {
		return Params{}, errors.Wrap(err, fpath)
	}
	return p, nil
}

// ParseParams decodes a YAML parameter document.
// Missing and non-finite values are reported as condmat.ErrConfiguration naming the dotted key, and so are unknown keys.
func ParseParams(b []byte) (Params, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Params{}, errors.Wrap(condmat.ErrConfiguration, err.Error())
	}
	for _, key := range RequiredKeys() {
		if err := lookup(raw, key, true); err != nil {
			return Params{}, errors.Wrap(err, "")
		}
	}
	for _, key := range optionalKeys {
		if err := lookup(raw, key, false); err != nil {
			return Params{}, errors.Wrap(err, "")
		}
	}

	var p Params
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Params{}, errors.Wrap(condmat.ErrConfiguration, err.Error())
	}
	return p, nil
}

func lookup(raw map[string]any, key string, required bool) error {
	parts := strings.Split(key, ".")
	m := raw
	for i, part := range parts {
		v, ok := m[part]
		if !ok || v == nil {
			if !required {
				return nil
			}
			return errors.Wrapf(condmat.ErrConfiguration, "missing key %s", key)
		}
		if i == len(parts)-1 {
			switch x := v.(type) {
			case int:
				return nil
			case float64:
				if math.IsNaN(x) || math.IsInf(x, 0) {
					return errors.Wrapf(condmat.ErrConfiguration, "key %s is %f", key, x)
				}
				return nil
			default:
				return errors.Wrapf(condmat.ErrConfiguration, "key %s is %T, not a number", key, v)
			}
		}
		m, ok = v.(map[string]any)
		if !ok {
			return errors.Wrapf(condmat.ErrConfiguration, "key %s is %T, not a mapping", strings.Join(parts[:i+1], "."), v)
		}
	}
	return nil
}

// Marshal encodes p as a parameter document that ParseParams reads back exactly.
func (p Params) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return buf.Bytes(), nil
}

// SaveParams writes p to a parameter file.
func SaveParams(fpath string, p Params) error {
	b, err := p.Marshal()
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(fpath, b, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (p Params) onsite() [5]float64 {
	o := p.Onsite
	return [5]float64{o.Dxz, o.Dyz, o.Dx2y2, o.Dxy, o.Dz2}
}
