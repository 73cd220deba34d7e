package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Epsilon is the tolerance used when comparing geometric quantities.
const Epsilon = 1e-6

// Vec3 is a point or direction in a left-handed, y-up frame where +x is
// right and +z is forward.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

var (
	Zero    = Vec3{}
	One     = Vec3{1, 1, 1}
	Up      = Vec3{0, 1, 0}
	Right   = Vec3{1, 0, 0}
	Forward = Vec3{0, 0, 1}
)

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Length() }

// Cross returns the cross product using the same component formula as the
// scene engine, so Cross(Up, Forward) == Right.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Normalized returns the unit vector, or zero when the length is negligible.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < Epsilon {
		return Zero
	}
	return v.Scale(1 / l)
}

// ApproxEqual reports whether every component differs by at most tol.
func (v Vec3) ApproxEqual(o Vec3, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol && math.Abs(v.Z-o.Z) <= tol
}

// Lerp interpolates between a and b; t is clamped to [0, 1].
func Lerp(a, b Vec3, t float64) Vec3 {
	t = clamp01(t)
	return a.Add(b.Sub(a).Scale(t))
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// ParseVec3 reads a whitespace separated "x y z" triple. Commas and
// parentheses are tolerated. Missing or malformed input yields zero.
func ParseVec3(raw string) Vec3 {
	v, _ := ParseVec3Strict(raw)
	return v
}

// ParseVec3Strict is ParseVec3 but reports whether the input held a valid
// triple.
func ParseVec3Strict(raw string) (Vec3, bool) {
	cleaned := strings.NewReplacer(",", " ", "(", " ", ")", " ").Replace(raw)
	fields := strings.Fields(cleaned)
	if len(fields) != 3 {
		return Zero, false
	}
	var out [3]float64
	for i, f := range fields {
		value, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Zero, false
		}
		out[i] = value
	}
	return Vec3{out[0], out[1], out[2]}, true
}

// Quat is a unit rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// Identity is the zero rotation.
var Identity = Quat{W: 1}

// AngleAxis builds a rotation of deg degrees around axis.
func AngleAxis(deg float64, axis Vec3) Quat {
	axis = axis.Normalized()
	if axis == Zero {
		return Identity
	}
	half := deg * math.Pi / 360
	s := math.Sin(half)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, math.Cos(half)}
}

// Euler builds a rotation from degrees about x, y and z, applied in the
// order z, x, y.
func Euler(e Vec3) Quat {
	return AngleAxis(e.Y, Up).Mul(AngleAxis(e.X, Right)).Mul(AngleAxis(e.Z, Forward))
}

// EulerAngles returns the rotation as degrees about x, y and z in the
// order used by Euler, each wrapped to [0, 360).
func (q Quat) EulerAngles() Vec3 {
	q = q.Normalized()
	m12 := 2 * (q.Y*q.Z - q.W*q.X)
	var x, y, z float64
	if math.Abs(m12) < 1-1e-9 {
		x = math.Asin(-m12)
		y = math.Atan2(2*(q.X*q.Z+q.W*q.Y), 1-2*(q.X*q.X+q.Y*q.Y))
		z = math.Atan2(2*(q.X*q.Y+q.W*q.Z), 1-2*(q.X*q.X+q.Z*q.Z))
	} else {
		// gimbal lock: fold z into y
		x = math.Copysign(math.Pi/2, -m12)
		y = math.Atan2(-2*(q.X*q.Z-q.W*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
	}
	return Vec3{wrapDegrees(x), wrapDegrees(y), wrapDegrees(z)}
}

func wrapDegrees(rad float64) float64 {
	deg := math.Mod(rad*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360-1e-9 {
		deg = 0
	}
	return deg
}

// Mul composes q then o (o is applied first to a vector).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Inverse returns the conjugate of a unit quaternion.
func (q Quat) Inverse() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

func (q Quat) Dot(o Quat) float64 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Normalized rescales q to unit length.
func (q Quat) Normalized() Quat {
	l := math.Sqrt(q.Dot(q))
	if l < Epsilon {
		return Identity
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Angle returns the angle in degrees between two rotations.
func Angle(a, b Quat) float64 {
	d := math.Abs(a.Dot(b))
	if d > 1-Epsilon*Epsilon {
		return 0
	}
	return math.Acos(math.Min(d, 1)) * 2 * 180 / math.Pi
}

// Slerp interpolates along the shortest arc; t is clamped to [0, 1].
func Slerp(a, b Quat, t float64) Quat {
	t = clamp01(t)
	d := a.Dot(b)
	if d < 0 {
		b = Quat{-b.X, -b.Y, -b.Z, -b.W}
		d = -d
	}
	if d > 0.9995 {
		return Quat{
			a.X + (b.X-a.X)*t,
			a.Y + (b.Y-a.Y)*t,
			a.Z + (b.Z-a.Z)*t,
			a.W + (b.W-a.W)*t,
		}.Normalized()
	}
	theta := math.Acos(d)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return Quat{
		a.X*wa + b.X*wb,
		a.Y*wa + b.Y*wb,
		a.Z*wa + b.Z*wb,
		a.W*wa + b.W*wb,
	}
}

// LookRotation returns the rotation whose forward axis points along
// forward with the given up hint. A zero forward yields Identity.
func LookRotation(forward, up Vec3) Quat {
	z := forward.Normalized()
	if z == Zero {
		return Identity
	}
	x := up.Cross(z).Normalized()
	if x == Zero {
		// forward parallel to up
		x = Right
	}
	y := z.Cross(x)
	return fromBasis(x, y, z)
}

func fromBasis(x, y, z Vec3) Quat {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z
	trace := m00 + m11 + m22
	var q Quat
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = Quat{(m21 - m12) / s, (m02 - m20) / s, (m10 - m01) / s, s / 4}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = Quat{s / 4, (m01 + m10) / s, (m02 + m20) / s, (m21 - m12) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = Quat{(m01 + m10) / s, s / 4, (m12 + m21) / s, (m02 - m20) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = Quat{(m02 + m20) / s, (m12 + m21) / s, s / 4, (m10 - m01) / s}
	}
	return q.Normalized()
}

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// ColorFromVec3 builds an opaque color from an "r g b" triple.
func ColorFromVec3(v Vec3) Color {
	return Color{R: v.X, G: v.Y, B: v.Z, A: 1}
}

// LerpColor interpolates between a and b; t is clamped to [0, 1].
func LerpColor(a, b Color, t float64) Color {
	t = clamp01(t)
	return Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

// Bounds is an axis aligned box in world space.
type Bounds struct {
	Center  Vec3
	Extents Vec3
}

// Size returns the full edge lengths of the box.
func (b Bounds) Size() Vec3 {
	return b.Extents.Scale(2)
}

// Encapsulate grows b to contain o.
func (b Bounds) Encapsulate(o Bounds) Bounds {
	minA, maxA := b.Center.Sub(b.Extents), b.Center.Add(b.Extents)
	minB, maxB := o.Center.Sub(o.Extents), o.Center.Add(o.Extents)
	lo := Vec3{math.Min(minA.X, minB.X), math.Min(minA.Y, minB.Y), math.Min(minA.Z, minB.Z)}
	hi := Vec3{math.Max(maxA.X, maxB.X), math.Max(maxA.Y, maxB.Y), math.Max(maxA.Z, maxB.Z)}
	return Bounds{Center: lo.Add(hi).Scale(0.5), Extents: hi.Sub(lo).Scale(0.5)}
}

// Pose is the world-space placement of an entity. Scale is the accumulated
// scale of the entity and all of its ancestors.
type Pose struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// TransformPoint maps a point from the pose's local space to world space.
func (p Pose) TransformPoint(local Vec3) Vec3 {
	return p.Position.Add(p.Rotation.Rotate(local.Mul(p.Scale)))
}

// TransformDirection rotates a direction from local to world space. Scale
// is not applied.
func (p Pose) TransformDirection(local Vec3) Vec3 {
	return p.Rotation.Rotate(local)
}

// InverseTransformDirection rotates a world direction into local space.
func (p Pose) InverseTransformDirection(world Vec3) Vec3 {
	return p.Rotation.Inverse().Rotate(world)
}

// RotateAround turns point about the axis through center by deg degrees.
func RotateAround(point, center, axis Vec3, deg float64) Vec3 {
	q := AngleAxis(deg, axis)
	return center.Add(q.Rotate(point.Sub(center)))
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
