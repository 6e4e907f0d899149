// Package initwfn wraps Gorgonia weight initializers so that the
// initializer of an approximator can be chosen from a JSON
// configuration file.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available
type Type string

// Available InitWFn types
const (
	GlorotU Type = "GlorotU"
	GlorotN Type = "GlorotN"
	HeU     Type = "HeU"
	HeN     Type = "HeN"
	Zeroes  Type = "Zeroes"
)

var configTypes = map[Type]reflect.Type{
	GlorotU: reflect.TypeOf(GlorotUConfig{}),
	GlorotN: reflect.TypeOf(GlorotNConfig{}),
	HeU:     reflect.TypeOf(HeUConfig{}),
	HeN:     reflect.TypeOf(HeNConfig{}),
	Zeroes:  reflect.TypeOf(ZeroesConfig{}),
}

// InitWFn wraps a Gorgonia InitWFn together with the Config that
// created it
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

func newInitWFn(c Config) (*InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newInitWFn: %w", err)
	}
	return &InitWFn{initWFn: c.Create(), Type: c.Type(), Config: c}, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %+v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaler interface. The Config
// field may be omitted for initializers without parameters.
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ty, ok := configTypes[raw.Type]
	if !ok {
		return fmt.Errorf("unmarshalJSON: unknown initializer type %q",
			raw.Type)
	}

	value := reflect.New(ty)
	if len(raw.Config) > 0 {
		if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
			return fmt.Errorf("unmarshalJSON: %w", err)
		}
	}

	init, err := newInitWFn(value.Elem().Interface().(Config))
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}
	*i = *init
	return nil
}

// Config describes a Gorgonia InitWFn
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type

	// Validate returns an error if the parameters are unusable
	Validate() error
}

func validateGain(gain float64) error {
	if gain <= 0 {
		return fmt.Errorf("validate: gain must be positive\n\twant(>0)"+
			"\n\thave(%v)", gain)
	}
	return nil
}
