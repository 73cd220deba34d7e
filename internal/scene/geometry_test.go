package scene

import (
	"math"
	"testing"
)

func TestEulerYawTurnsForwardToRight(t *testing.T) {
	got := Euler(Vec3{Y: 90}).Rotate(Forward)
	if !got.ApproxEqual(Right, 1e-9) {
		t.Fatalf("expected forward to map to right, got %v", got)
	}
}

func TestEulerComposesZXY(t *testing.T) {
	e := Vec3{X: 30, Y: 45, Z: 60}
	want := AngleAxis(45, Up).Mul(AngleAxis(30, Right)).Mul(AngleAxis(60, Forward))
	got := Euler(e)
	if Angle(got, want) > 1e-6 {
		t.Fatalf("expected matching composition, angle=%f", Angle(got, want))
	}
}

func TestLookRotationFacesDirection(t *testing.T) {
	dirs := []Vec3{
		{X: 1},
		{X: -1, Z: 1},
		{Z: -1},
		{X: 3, Y: 2, Z: -4},
	}
	for _, dir := range dirs {
		q := LookRotation(dir, Up)
		got := q.Rotate(Forward)
		if !got.ApproxEqual(dir.Normalized(), 1e-9) {
			t.Fatalf("expected forward %v, got %v", dir.Normalized(), got)
		}
		upAfter := q.Rotate(Up)
		if upAfter.Y < 0 {
			t.Fatalf("expected rotated up to stay above horizon for %v, got %v", dir, upAfter)
		}
	}
}

func TestLookRotationZeroIsIdentity(t *testing.T) {
	if q := LookRotation(Zero, Up); q != Identity {
		t.Fatalf("expected identity, got %+v", q)
	}
}

func TestAngleBetweenRotations(t *testing.T) {
	got := Angle(Identity, Euler(Vec3{Y: 120}))
	if math.Abs(got-120) > 1e-9 {
		t.Fatalf("expected 120 degrees, got %f", got)
	}
	if got := Angle(Identity, Identity); got != 0 {
		t.Fatalf("expected zero angle, got %f", got)
	}
}

func TestSlerpEndpoints(t *testing.T) {
	a := Euler(Vec3{Y: 10})
	b := Euler(Vec3{X: 80, Y: 40})
	if Angle(Slerp(a, b, 0), a) > 1e-6 {
		t.Fatalf("expected slerp(0) to equal start")
	}
	if Angle(Slerp(a, b, 1), b) > 1e-6 {
		t.Fatalf("expected slerp(1) to equal end")
	}
	mid := Slerp(a, b, 0.5)
	if diff := math.Abs(Angle(a, mid) - Angle(mid, b)); diff > 1e-6 {
		t.Fatalf("expected midpoint to split the arc, diff=%f", diff)
	}
}

func TestParseVec3(t *testing.T) {
	tests := []struct {
		raw  string
		want Vec3
		ok   bool
	}{
		{raw: "1 2 3", want: Vec3{1, 2, 3}, ok: true},
		{raw: " -0.5  0 1e1 ", want: Vec3{-0.5, 0, 10}, ok: true},
		{raw: "(1, 2, 3)", want: Vec3{1, 2, 3}, ok: true},
		{raw: "1 2", want: Zero},
		{raw: "a b c", want: Zero},
		{raw: "", want: Zero},
	}
	for _, tc := range tests {
		got, ok := ParseVec3Strict(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseVec3Strict(%q) = %v,%v want %v,%v", tc.raw, got, ok, tc.want, tc.ok)
		}
		if ParseVec3(tc.raw) != tc.want {
			t.Fatalf("ParseVec3(%q) mismatch", tc.raw)
		}
	}
}

func TestPoseTransforms(t *testing.T) {
	pose := Pose{Position: Vec3{1, 0, 0}, Rotation: Euler(Vec3{Y: 90}), Scale: Vec3{2, 2, 2}}
	if got := pose.TransformPoint(Forward); !got.ApproxEqual(Vec3{3, 0, 0}, 1e-9) {
		t.Fatalf("unexpected transformed point %v", got)
	}
	if got := pose.TransformDirection(Forward); !got.ApproxEqual(Right, 1e-9) {
		t.Fatalf("unexpected transformed direction %v", got)
	}
	if got := pose.InverseTransformDirection(Right); !got.ApproxEqual(Forward, 1e-9) {
		t.Fatalf("unexpected inverse direction %v", got)
	}
}

func TestRotateAroundKeepsRadius(t *testing.T) {
	center := Vec3{1, 1, 1}
	point := Vec3{3, 1, 1}
	got := RotateAround(point, center, Up, 90)
	if math.Abs(got.Distance(center)-2) > 1e-9 {
		t.Fatalf("expected radius 2, got %f", got.Distance(center))
	}
	if !got.ApproxEqual(Vec3{1, 1, -1}, 1e-9) {
		t.Fatalf("unexpected rotated point %v", got)
	}
}

func TestBoundsEncapsulate(t *testing.T) {
	a := Bounds{Center: Vec3{0, 0, 0}, Extents: Vec3{1, 1, 1}}
	b := Bounds{Center: Vec3{3, 0, 0}, Extents: Vec3{1, 1, 1}}
	got := a.Encapsulate(b)
	if got.Center != (Vec3{1.5, 0, 0}) || got.Extents != (Vec3{2.5, 1, 1}) {
		t.Fatalf("unexpected bounds %+v", got)
	}
}

func TestEulerAnglesInvertsEuler(t *testing.T) {
	cases := []Vec3{
		{},
		{Y: 90},
		{X: 30, Y: 45, Z: 60},
		{X: 10, Y: 200, Z: 350},
	}
	for _, e := range cases {
		got := Euler(e).EulerAngles()
		if Angle(Euler(got), Euler(e)) > 1e-6 {
			t.Fatalf("expected %v to round trip, got %v", e, got)
		}
		if got.X < 0 || got.Y < 0 || got.Z < 0 || got.X >= 360 || got.Y >= 360 || got.Z >= 360 {
			t.Fatalf("expected wrapped angles, got %v", got)
		}
	}
	if got := Euler(Vec3{Y: 90}).EulerAngles(); !got.ApproxEqual(Vec3{Y: 90}, 1e-9) {
		t.Fatalf("expected yaw 90, got %v", got)
	}
}
