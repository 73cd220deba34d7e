package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

func TestExtractBlocks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "none", text: "I will do nothing.", want: nil},
		{name: "single", text: "Sure.\n'''\n{'a': 1}\n'''", want: []string{"{'a': 1}"}},
		{name: "several", text: "{'a': 1}\n{'b': 2} trailing", want: []string{"{'a': 1}", "{'b': 2}"}},
		{name: "nested", text: `x {"a": {"b": 1}} y`, want: []string{`{"a": {"b": 1}}`}},
		{name: "brace in string", text: `{"request": "draw a } shape"}`, want: []string{`{"request": "draw a } shape"}`}},
		{name: "unterminated", text: "{'a': 1", want: nil},
		{name: "apostrophe outside", text: "Don't worry {'a': 1}", want: []string{"{'a': 1}"}},
		{
			name: "apostrophe inside loose string",
			text: "{'request': 'the robot's hat'}\n{'b': 2}",
			want: []string{"{'request': 'the robot's hat'}", "{'b': 2}"},
		},
		{name: "doubled quote", text: "{'a': 'it''s'} {'b': 2}", want: []string{"{'a': 'it''s'}", "{'b': 2}"}},
		{name: "loose list", text: "{'tags': ['x', 'y}']}", want: []string{"{'tags': ['x', 'y}']}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBlocks(tt.text))
		})
	}
}

func TestExtractBlockNoStructuredBlock(t *testing.T) {
	_, err := ExtractBlock("plain words")
	assert.ErrorIs(t, err, ErrNoStructuredBlock)
}

func TestDecodeObjectAcceptsLooseLiterals(t *testing.T) {
	raw, err := DecodeObject("{'prefabType': 'Pen black', 'layer': 2, 'position': '0.1 0.1 -0.1'}")
	require.NoError(t, err)
	assert.Equal(t, "Pen black", raw["prefabType"])
	assert.Equal(t, "0.1 0.1 -0.1", raw["position"])

	raw, err = DecodeObject("{commandType: -1}")
	require.NoError(t, err)
	assert.EqualValues(t, -1, raw["commandType"])

	_, err = DecodeObject("{'a': 'open}")
	assert.ErrorIs(t, err, ErrMalformedObject)
}

func TestParseRouting(t *testing.T) {
	cmd, err := ParseRouting(`Sure. {"commandType": "environment", "request": "add a cube", "clearEnv": false, "scene": true}`)
	require.NoError(t, err)
	env, ok := cmd.(Environment)
	require.True(t, ok, "expected Environment, got %T", cmd)
	assert.Equal(t, "add a cube", env.Request)
	assert.False(t, env.ClearEnv)
	assert.True(t, env.Flags.Scene)
	assert.False(t, env.Flags.Resource)

	cmd, err = ParseRouting("{'commandType': 'Animation', 'request': 'spin the cube', 'robot': 'true'}")
	require.NoError(t, err)
	anim, ok := cmd.(Animation)
	require.True(t, ok)
	assert.True(t, anim.Flags.Robot)
	assert.Equal(t, KindAnimation, anim.Kind())

	cmd, err = ParseRouting("{'commandType': 'MRinteraction', 'request': 'what did I write', 'MRtype': 'recognition'}")
	require.NoError(t, err)
	assert.Equal(t, Interaction{Type: InteractionRecognition, Request: "what did I write"}, cmd)

	cmd, err = ParseRouting("{commandType: -1}")
	require.NoError(t, err)
	assert.Equal(t, KindEndOfAction, cmd.Kind())

	cmd, err = ParseRouting(`{"commandType": -1}`)
	require.NoError(t, err)
	assert.Equal(t, KindEndOfAction, cmd.Kind())
}

func TestParseRoutingErrors(t *testing.T) {
	_, err := ParseRouting("no block here")
	assert.ErrorIs(t, err, ErrNoStructuredBlock)

	_, err = ParseRouting(`{"commandType": "teleport"}`)
	assert.ErrorIs(t, err, ErrUnknownCommandType)

	_, err = ParseRouting(`{"commandType": "mrinteraction", "MRtype": "paint"}`)
	assert.ErrorIs(t, err, ErrInvalidInteraction)
}

func TestParseActionDefaults(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, a Action)
	}{
		{
			name: "scale default time",
			text: "{'action': 'scale', 'object': 'Table', 'scale': '2 2 2', 'id': 'grow'}",
			check: func(t *testing.T, a Action) {
				assert.Equal(t, DefaultFadeSeconds, a.Time)
				require.NotNil(t, a.Scale)
				assert.Equal(t, scene.Vec3{X: 2, Y: 2, Z: 2}, *a.Scale)
			},
		},
		{
			name: "selfrotate unbounded with up axis",
			text: "{'action': 'selfrotate', 'object': 'Cube', 'id': 'spin', 'axis': '0 0 0'}",
			check: func(t *testing.T, a Action) {
				assert.Equal(t, Unbounded, a.Time)
				assert.Equal(t, scene.Up, a.Axis)
				assert.Equal(t, DefaultSpeedRot, a.SpeedRot)
			},
		},
		{
			name: "orbit speed",
			text: "{'action': 'orbit', 'object': 'Moon', 'target': 'Earth', 'id': 'o'}",
			check: func(t *testing.T, a Action) {
				assert.Equal(t, DefaultOrbitSpeedRot, a.SpeedRot)
			},
		},
		{
			name: "catch safebound sentinel",
			text: "{'action': 'catch', 'object': 'HandR', 'target': 'Ball', 'id': 'c', 'speedMov': '2'}",
			check: func(t *testing.T, a Action) {
				require.NotNil(t, a.SafeBound)
				assert.Equal(t, DefaultCatchSafeBound, *a.SafeBound)
				assert.Equal(t, 2.0, a.SpeedMov)
			},
		},
		{
			name: "move with string safebound and distance",
			text: `{"action": "MoveTowards", "object": "Robot", "localdirection": "0 0 1", "safebound": "-1", "id": "m"}`,
			check: func(t *testing.T, a Action) {
				assert.Equal(t, ActionMoveTowards, a.Kind)
				require.NotNil(t, a.SafeBound)
				assert.Equal(t, -1.0, *a.SafeBound)
				assert.Equal(t, DefaultDistance, a.Distance)
				assert.Nil(t, a.Position)
				require.NotNil(t, a.LocalDirection)
				assert.Equal(t, scene.Forward, *a.LocalDirection)
				assert.True(t, a.Kind.Blocking())
			},
		},
		{
			name: "non-positive speed falls back",
			text: `{"action": "looktowards", "object": "Robot", "position": [1, 0, 2], "speedRot": 0, "id": "l"}`,
			check: func(t *testing.T, a Action) {
				assert.Equal(t, DefaultSpeedRot, a.SpeedRot)
				require.NotNil(t, a.Position)
				assert.Equal(t, scene.Vec3{X: 1, Z: 2}, *a.Position)
			},
		},
		{
			name: "stop without object",
			text: "{'action': 'stop', 'id': 'spin'}",
			check: func(t *testing.T, a Action) {
				assert.Equal(t, "spin", a.ID)
				assert.False(t, a.Kind.Blocking())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAction(tt.text)
			require.NoError(t, err)
			tt.check(t, a)
		})
	}
}

func TestParseActionRejects(t *testing.T) {
	for _, text := range []string{
		"{'action': 'dance', 'object': 'Robot', 'id': 'x'}",
		"{'action': 'scale', 'object': 'Robot', 'id': 'x'}",
		"{'action': 'color', 'object': 'Robot', 'id': 'x'}",
		"{'action': 'rotatetowards', 'object': 'Robot', 'id': 'x'}",
		"{'action': 'orbit', 'object': 'Robot', 'id': 'x'}",
		"{'action': 'stop', 'object': 'Robot'}",
		"{'action': 'remove', 'id': 'x'}",
		"{'action': 'movetowards', 'object': 'Robot', 'position': 'a b c'}",
	} {
		_, err := ParseAction(text)
		assert.ErrorIs(t, err, ErrInvalidAction, text)
	}
}

func TestParseActionsKeepsGoodObjects(t *testing.T) {
	text := "Sure.\n'''\n" +
		"{'action': 'looktowards', 'object': 'Robot', 'target': 'Cup', 'id': 'look'}\n" +
		"{'action': 'dance', 'object': 'Robot', 'id': 'bad'}\n" +
		"{'action': 'gazing', 'object': 'Robot', 'target': 'Cup', 'id': 'gaze'}\n'''"
	actions, errs := ParseActions(text)
	require.Len(t, actions, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, ActionLookTowards, actions[0].Kind)
	assert.Equal(t, ActionGazing, actions[1].Kind)
	assert.Equal(t, Unbounded, actions[1].Time)
}

func TestParseEnvironmentObject(t *testing.T) {
	obj, err := ParseEnvironmentObject("{'prefabType': 'cube', 'objectName': 'Cube1', 'position': '1 0.5 2', 'rotation': '0 90 0', 'scale': '0.2 0.2 0.2', 'color': '1 0 0'}")
	require.NoError(t, err)
	assert.Equal(t, DefaultLayer, obj.Layer)
	assert.Equal(t, scene.Vec3{Y: 90}, obj.Rotation)
	require.NotNil(t, obj.Position)
	assert.Equal(t, scene.Vec3{X: 1, Y: 0.5, Z: 2}, *obj.Position)
	assert.Nil(t, obj.LocalPosition)

	obj, err = ParseEnvironmentObject(`{"prefabType": "Room", "objectName": "ClassRoom", "layer": 0, "parent": " Floor "}`)
	require.NoError(t, err)
	assert.Equal(t, 0, obj.Layer)
	assert.Equal(t, "Floor", obj.Parent)

	_, err = ParseEnvironmentObject(`{"objectName": "Nameless"}`)
	assert.ErrorIs(t, err, ErrMalformedObject)
}
