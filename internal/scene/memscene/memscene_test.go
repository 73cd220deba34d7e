package memscene

import (
	"strings"
	"testing"

	"github.com/SNeC-Lab-PSU/LLMER/internal/scene"
)

func TestSetParentKeepsWorldPose(t *testing.T) {
	s := New("")
	parent := s.Add("parent")
	parent.SetPosition(scene.Vec3{X: 1, Y: 2, Z: 3})
	parent.SetRotation(scene.Euler(scene.Vec3{Y: 90}))
	parent.SetLocalScale(scene.Vec3{X: 2, Y: 2, Z: 2})

	child := s.Add("child")
	child.SetPosition(scene.Vec3{X: 4, Y: 0, Z: 0})

	child.SetParent(parent)
	if got := child.Pose().Position; !got.ApproxEqual(scene.Vec3{X: 4}, 1e-9) {
		t.Fatalf("expected world position to survive reparent, got %v", got)
	}
	if got := child.Pose().Scale; !got.ApproxEqual(scene.One, 1e-9) {
		t.Fatalf("expected world scale to survive reparent, got %v", got)
	}
	if child.Parent() != scene.Entity(parent) {
		t.Fatalf("expected parent to be set")
	}

	parent.SetPosition(scene.Vec3{X: 2, Y: 2, Z: 3})
	if got := child.Pose().Position; !got.ApproxEqual(scene.Vec3{X: 5}, 1e-9) {
		t.Fatalf("expected child to follow parent, got %v", got)
	}

	child.SetParent(nil)
	if child.Parent() != nil {
		t.Fatalf("expected child to return to root")
	}
	if got := child.Pose().Position; !got.ApproxEqual(scene.Vec3{X: 5}, 1e-9) {
		t.Fatalf("expected world position after unparent, got %v", got)
	}
}

func TestSetParentRejectsCycles(t *testing.T) {
	s := New("")
	a := s.Add("a")
	b := s.AddChild(a, "b", scene.Zero)
	a.SetParent(b)
	if a.Parent() != nil {
		t.Fatalf("expected cycle to be rejected")
	}
}

func TestDestroyRemovesSubtree(t *testing.T) {
	s := New("")
	root := s.Add("root")
	child := s.AddChild(root, "child", scene.Zero)
	root.Destroy()
	if root.Alive() || child.Alive() {
		t.Fatalf("expected subtree to be dead")
	}
	if got := len(s.Entities()); got != 0 {
		t.Fatalf("expected no live entities, got %d", got)
	}
}

func TestInstantiateAndList(t *testing.T) {
	s := New("")
	s.Register(Template{Name: "Table", Size: scene.Vec3{X: 1.2, Y: 0.8, Z: 0.6}, Body: true})
	s.Register(Template{Name: "Ball", Primitive: scene.PrimitiveSphere})

	e, ok := s.Instantiate("Table")
	if !ok {
		t.Fatalf("expected template to instantiate")
	}
	if got := e.Bounds().Extents; !got.ApproxEqual(scene.Vec3{X: 0.6, Y: 0.4, Z: 0.3}, 1e-9) {
		t.Fatalf("unexpected extents %v", got)
	}
	if _, ok := s.Instantiate("Missing"); ok {
		t.Fatalf("expected unknown template to fail")
	}

	list := s.ListAvailable()
	if len(list) != 2 || list[0].Name != "Ball" || list[1].Name != "Table" {
		t.Fatalf("unexpected resource list %+v", list)
	}
	if list[0].Size != (scene.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Fatalf("expected primitive size for ball, got %v", list[0].Size)
	}
}

func TestCreatePrimitive(t *testing.T) {
	s := New("")
	if _, ok := s.CreatePrimitive("Cube"); !ok {
		t.Fatalf("expected case-insensitive primitive")
	}
	empty, ok := s.CreatePrimitive(scene.PrimitiveEmpty)
	if !ok {
		t.Fatalf("expected empty primitive")
	}
	if _, has := empty.(scene.Colored).Color(); has {
		t.Fatalf("expected empty primitive to have no renderer")
	}
	if _, ok := s.CreatePrimitive("torus"); ok {
		t.Fatalf("expected unknown primitive to fail")
	}
}

func TestViewpointFollowsNode(t *testing.T) {
	s := New("Eye")
	s.SetFallbackViewpoint(scene.Vec3{Y: 1})
	if got := s.Viewpoint(); got != (scene.Vec3{Y: 1}) {
		t.Fatalf("expected fallback viewpoint, got %v", got)
	}
	eye := s.Add("Eye")
	eye.SetPosition(scene.Vec3{X: 3})
	if got := s.Viewpoint(); got != (scene.Vec3{X: 3}) {
		t.Fatalf("expected eye position, got %v", got)
	}
}

func TestLoadSeed(t *testing.T) {
	data := []byte(`
viewpoint: CenterEyeAnchor
entities:
  - name: Robot
    primitive: capsule
    position: "0 1 2"
    body: true
    children:
      - name: HandR
        primitive: sphere
        position: "0.5 0 0"
  - name: CenterEyeAnchor
    position: "0 1.6 0"
resources:
  - name: Chair
    size: "0.5 1 0.5"
`)
	s, err := LoadSeed(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hand := s.Find("HandR")
	if hand == nil {
		t.Fatalf("expected child node")
	}
	if got := hand.Pose().Position; !got.ApproxEqual(scene.Vec3{X: 0.5, Y: 1, Z: 2}, 1e-9) {
		t.Fatalf("unexpected hand position %v", got)
	}
	if got := s.Viewpoint(); got != (scene.Vec3{Y: 1.6}) {
		t.Fatalf("unexpected viewpoint %v", got)
	}
	if len(s.ListAvailable()) != 1 {
		t.Fatalf("expected one resource")
	}
}

func TestSurfaceCaptureAndClear(t *testing.T) {
	surface := NewSurface("")
	if _, err := surface.CaptureImage(); err != ErrBlankSurface {
		t.Fatalf("expected blank surface error, got %v", err)
	}
	surface.Draw([]byte{1, 2, 3})
	img, err := surface.CaptureImage()
	if err != nil || len(img) != 3 {
		t.Fatalf("unexpected capture %v %v", img, err)
	}
	if err := surface.Clear(); err != nil {
		t.Fatalf("unexpected clear error: %v", err)
	}
	if surface.Clears() != 1 {
		t.Fatalf("expected one clear")
	}
	if _, err := surface.CaptureImage(); err != ErrBlankSurface {
		t.Fatalf("expected blank after clear, got %v", err)
	}
}

func TestVoiceEchoesLines(t *testing.T) {
	var out strings.Builder
	voice := NewVoice(&out)
	voice.Speak("I can interact with you and the environment.")
	if got := voice.Lines(); len(got) != 1 {
		t.Fatalf("expected one line, got %v", got)
	}
	if out.String() != "agent: I can interact with you and the environment.\n" {
		t.Fatalf("unexpected echo %q", out.String())
	}
}
