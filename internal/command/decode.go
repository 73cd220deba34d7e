package command

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

var vec3Type = reflect.TypeOf(scene.Vec3{})

// vec3Hook accepts "x y z" strings and [x, y, z] sequences for Vec3 fields.
func vec3Hook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != vec3Type {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		parsed, ok := scene.ParseVec3Strict(v)
		if !ok {
			return nil, fmt.Errorf("expected \"x y z\", got %q", v)
		}
		return parsed, nil
	case []any:
		if len(v) != 3 {
			return nil, fmt.Errorf("expected 3 components, got %d", len(v))
		}
		var out [3]float64
		for i, c := range v {
			f, ok := toFloat(c)
			if !ok {
				return nil, fmt.Errorf("component %d is not a number", i)
			}
			out[i] = f
		}
		return scene.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
	}
	return data, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// decodeInto fills out from a loosely typed map. Numbers, booleans and
// strings convert into each other where unambiguous.
func decodeInto(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       vec3Hook,
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
