package command

import (
	"fmt"
	"strings"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

// DefaultLayer is assigned to creation objects that omit a layer.
const DefaultLayer = 1

// EnvironmentObject describes one entity to construct.
type EnvironmentObject struct {
	PrefabType    string      `mapstructure:"prefabType"`
	ObjectName    string      `mapstructure:"objectName"`
	Layer         int         `mapstructure:"layer"`
	Parent        string      `mapstructure:"parent"`
	Position      *scene.Vec3 `mapstructure:"position"`
	LocalPosition *scene.Vec3 `mapstructure:"localposition"`
	Rotation      scene.Vec3  `mapstructure:"rotation"`
	Scale         *scene.Vec3 `mapstructure:"scale"`
	Color         *scene.Vec3 `mapstructure:"color"`
}

// ParseEnvironmentObject decodes the first creation object in text.
func ParseEnvironmentObject(text string) (EnvironmentObject, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return EnvironmentObject{}, err
	}
	return EnvironmentObjectFromMap(raw)
}

// EnvironmentObjectFromMap decodes an already parsed creation object. The
// layer defaults to DefaultLayer; range checks are left to the constructor.
func EnvironmentObjectFromMap(raw map[string]any) (EnvironmentObject, error) {
	obj := EnvironmentObject{Layer: DefaultLayer}
	if err := decodeInto(raw, &obj); err != nil {
		return EnvironmentObject{}, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	obj.PrefabType = strings.TrimSpace(obj.PrefabType)
	obj.ObjectName = strings.TrimSpace(obj.ObjectName)
	obj.Parent = strings.TrimSpace(obj.Parent)
	if obj.PrefabType == "" {
		return EnvironmentObject{}, fmt.Errorf("%w: missing prefabType", ErrMalformedObject)
	}
	return obj, nil
}
