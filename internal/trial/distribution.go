package trial

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	Uniform         Kind = "UniformDistribution"
	LogUniform      Kind = "LogUniformDistribution"
	DiscreteUniform Kind = "DiscreteUniformDistribution"
	IntUniform      Kind = "IntUniformDistribution"
	Categorical     Kind = "CategoricalDistribution"
)

// Distribution describes the domain a parameter value was sampled from.
// Categorical parameters are stored as the float index of the chosen choice.
type Distribution struct {
	Kind    Kind
	Low     float64
	High    float64
	Q       float64
	Choices []any
}

type distributionAttributes struct {
	Low     float64 `mapstructure:"low"`
	High    float64 `mapstructure:"high"`
	Q       float64 `mapstructure:"q"`
	Choices []any   `mapstructure:"choices"`
}

// wireDistribution is the serialized {"name": ..., "attributes": {...}} form.
type wireDistribution struct {
	Name       string         `json:"name" yaml:"name"`
	Attributes map[string]any `json:"attributes" yaml:"attributes"`
}

func UniformDist(low, high float64) Distribution {
	return Distribution{Kind: Uniform, Low: low, High: high}
}

func LogUniformDist(low, high float64) Distribution {
	return Distribution{Kind: LogUniform, Low: low, High: high}
}

func CategoricalDist(choices ...any) Distribution {
	return Distribution{Kind: Categorical, Choices: choices}
}

// DecodeDistribution builds a Distribution from its kind name and attribute map.
func DecodeDistribution(name string, attrs map[string]any) (Distribution, error) {
	var a distributionAttributes
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &a,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Distribution{}, fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(attrs); err != nil {
		return Distribution{}, fmt.Errorf("decoding %s attributes: %w", name, err)
	}
	d := Distribution{Kind: Kind(name), Low: a.Low, High: a.High, Q: a.Q, Choices: a.Choices}
	if err := d.check(); err != nil {
		return Distribution{}, err
	}
	return d, nil
}

func (d Distribution) check() error {
	switch d.Kind {
	case Uniform, IntUniform:
		if d.Low > d.High {
			return fmt.Errorf("%s: low %v > high %v", d.Kind, d.Low, d.High)
		}
	case LogUniform:
		if d.Low > d.High || d.Low <= 0 {
			return fmt.Errorf("%s: invalid range [%v, %v]", d.Kind, d.Low, d.High)
		}
	case DiscreteUniform:
		if d.Low > d.High || d.Q <= 0 {
			return fmt.Errorf("%s: invalid range [%v, %v] q=%v", d.Kind, d.Low, d.High, d.Q)
		}
	case Categorical:
		if len(d.Choices) == 0 {
			return fmt.Errorf("%s: no choices", d.Kind)
		}
	default:
		return fmt.Errorf("unknown distribution %q", d.Kind)
	}
	return nil
}

// Contains reports whether v, in internal representation, lies in the distribution.
func (d Distribution) Contains(v float64) bool {
	switch d.Kind {
	case Categorical:
		idx := int(v)
		return float64(idx) == v && idx >= 0 && idx < len(d.Choices)
	case IntUniform:
		return v == math.Trunc(v) && d.Low <= v && v <= d.High
	default:
		return d.Low <= v && v <= d.High
	}
}

func (d Distribution) attributes() map[string]any {
	switch d.Kind {
	case Categorical:
		return map[string]any{"choices": d.Choices}
	case DiscreteUniform:
		return map[string]any{"low": d.Low, "high": d.High, "q": d.Q}
	default:
		return map[string]any{"low": d.Low, "high": d.High}
	}
}

func (d Distribution) clone() Distribution {
	if d.Choices != nil {
		d.Choices = append([]any(nil), d.Choices...)
	}
	return d
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDistribution{Name: string(d.Kind), Attributes: d.attributes()})
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	var w wireDistribution
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := DecodeDistribution(w.Name, w.Attributes)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

func (d Distribution) MarshalYAML() (any, error) {
	return wireDistribution{Name: string(d.Kind), Attributes: d.attributes()}, nil
}

func (d *Distribution) UnmarshalYAML(node *yaml.Node) error {
	var w wireDistribution
	if err := node.Decode(&w); err != nil {
		return err
	}
	decoded, err := DecodeDistribution(w.Name, w.Attributes)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}
