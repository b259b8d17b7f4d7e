package rowan

import "math"

const degreesToRadians = math.Pi / 180.0

// --- Vec2 ---

// Vec2 is a 2D vector. Touch locations use it in normalized [0, 1] UV
// coordinates; multiply by the touchpad size to get centimeters.
type Vec2 struct {
	X, Y float64
}

// InvalidTouchLocation is passed to gesture callbacks when no meaningful
// location exists (ending or canceled gestures).
var InvalidTouchLocation = Vec2{X: -1, Y: -1}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Mul returns the component-wise product of v and o.
func (v Vec2) Mul(o Vec2) Vec2 { return Vec2{v.X * o.X, v.Y * o.Y} }

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Cross returns the 2D cross product (the Z of the 3D cross).
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }

// LengthSquared returns the squared length of v.
func (v Vec2) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y }

// Length returns the length of v.
func (v Vec2) Length() float64 { return math.Sqrt(v.LengthSquared()) }

// Normalized returns v scaled to unit length, or the zero vector if v is
// (near) zero.
func (v Vec2) Normalized() Vec2 {
	l := v.Length()
	if l < 1e-12 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Angle returns the unsigned angle in radians [0, π] between v and o.
func (v Vec2) Angle(o Vec2) float64 {
	return math.Atan2(math.Abs(v.Cross(o)), v.Dot(o))
}

// --- Vec3 ---

// Vec3 is a 3D vector in world or entity-local space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the cross product of v and o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// LengthSquared returns the squared length of v.
func (v Vec3) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// Length returns the length of v.
func (v Vec3) Length() float64 { return math.Sqrt(v.LengthSquared()) }

// Normalized returns v scaled to unit length, or the zero vector if v is
// (near) zero.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Angle returns the unsigned angle in radians [0, π] between v and o.
func (v Vec3) Angle(o Vec3) float64 {
	return math.Atan2(v.Cross(o).Length(), v.Dot(o))
}

// --- Quat ---

// Quat is a rotation quaternion (W + Xi + Yj + Zk).
type Quat struct {
	W, X, Y, Z float64
}

// QuatIdentity is the no-rotation quaternion.
var QuatIdentity = Quat{W: 1}

// QuatFromAxisAngle builds a rotation of angle radians around axis.
// The axis need not be normalized.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalized()
	s, c := math.Sincos(angle / 2)
	return Quat{W: c, X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}

// Mul returns the combined rotation "o then q":
// q.Mul(o).Rotate(v) == q.Rotate(o.Rotate(v)).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Dot returns the four-component dot product. Negative means the rotations
// are on opposite hemispheres of the double cover.
func (q Quat) Dot(o Quat) float64 {
	return q.W*o.W + q.X*o.X + q.Y*o.Y + q.Z*o.Z
}

// Normalized returns q scaled to unit length, or identity if q is (near)
// zero.
func (q Quat) Normalized() Quat {
	l := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if l < 1e-12 {
		return QuatIdentity
	}
	return Quat{q.W / l, q.X / l, q.Y / l, q.Z / l}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + 2w(u×v) + 2(u×(u×v)) with u = (X, Y, Z).
	u := Vec3{q.X, q.Y, q.Z}
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.Scale(2 * q.W)).Add(uuv.Scale(2))
}

// --- Sqt ---

// Sqt is a pose as separate scale, quaternion rotation, and translation.
type Sqt struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// NewSqt returns an identity pose (unit scale, no rotation).
func NewSqt() Sqt {
	return Sqt{Rotation: QuatIdentity, Scale: Vec3{1, 1, 1}}
}

// Mat4 returns the world matrix Translate * Rotate * Scale.
func (s Sqt) Mat4() Mat4 {
	m := mat3FromQuat(s.Rotation)
	return Mat4{
		m[0] * s.Scale.X, m[1] * s.Scale.Y, m[2] * s.Scale.Z, s.Translation.X,
		m[3] * s.Scale.X, m[4] * s.Scale.Y, m[5] * s.Scale.Z, s.Translation.Y,
		m[6] * s.Scale.X, m[7] * s.Scale.Y, m[8] * s.Scale.Z, s.Translation.Z,
		0, 0, 0, 1,
	}
}

// --- Mat4 ---

// Mat4 is a row-major 4x4 affine transform matrix.
//
//	| m0  m1  m2  m3  |
//	| m4  m5  m6  m7  |
//	| m8  m9  m10 m11 |
//	| m12 m13 m14 m15 |
type Mat4 [16]float64

// Mat4Identity is the identity matrix.
var Mat4Identity = Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Mat4FromTranslation returns a pure translation matrix.
func Mat4FromTranslation(t Vec3) Mat4 {
	m := Mat4Identity
	m[3], m[7], m[11] = t.X, t.Y, t.Z
	return m
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * o[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// TransformPoint applies the matrix to a point (w = 1).
func (m Mat4) TransformPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z + m[3],
		m[4]*v.X + m[5]*v.Y + m[6]*v.Z + m[7],
		m[8]*v.X + m[9]*v.Y + m[10]*v.Z + m[11],
	}
}

// TransformVector applies the matrix to a direction (w = 0).
func (m Mat4) TransformVector(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[4]*v.X + m[5]*v.Y + m[6]*v.Z,
		m[8]*v.X + m[9]*v.Y + m[10]*v.Z,
	}
}

// Translation returns the matrix's translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[3], m[7], m[11]}
}

// Inverse computes the inverse of an affine transform matrix. Returns the
// identity matrix if the upper-left 3x3 is singular.
func (m Mat4) Inverse() Mat4 {
	// Invert the 3x3 block by adjugate.
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[4], m[5], m[6]
	g, h, i := m[8], m[9], m[10]

	ca := e*i - f*h
	cb := f*g - d*i
	cc := d*h - e*g
	det := a*ca + b*cb + c*cc
	if det > -1e-12 && det < 1e-12 {
		return Mat4Identity
	}
	inv := 1.0 / det

	r := Mat4{
		ca * inv, (c*h - b*i) * inv, (b*f - c*e) * inv, 0,
		cb * inv, (a*i - c*g) * inv, (c*d - a*f) * inv, 0,
		cc * inv, (b*g - a*h) * inv, (a*e - b*d) * inv, 0,
		0, 0, 0, 1,
	}
	t := r.TransformVector(m.Translation()).Scale(-1)
	r[3], r[7], r[11] = t.X, t.Y, t.Z
	return r
}

// Sqt decomposes an affine matrix into scale, rotation, and translation.
// Scale is taken from the column lengths; shear is not represented.
func (m Mat4) Sqt() Sqt {
	sx := Vec3{m[0], m[4], m[8]}.Length()
	sy := Vec3{m[1], m[5], m[9]}.Length()
	sz := Vec3{m[2], m[6], m[10]}.Length()
	if sx < 1e-12 {
		sx = 1e-12
	}
	if sy < 1e-12 {
		sy = 1e-12
	}
	if sz < 1e-12 {
		sz = 1e-12
	}
	rot := [9]float64{
		m[0] / sx, m[1] / sy, m[2] / sz,
		m[4] / sx, m[5] / sy, m[6] / sz,
		m[8] / sx, m[9] / sy, m[10] / sz,
	}
	return Sqt{
		Translation: m.Translation(),
		Rotation:    quatFromMat3(rot),
		Scale:       Vec3{sx, sy, sz},
	}
}

// mat3FromQuat expands a quaternion to a row-major 3x3 rotation matrix.
func mat3FromQuat(q Quat) [9]float64 {
	q = q.Normalized()
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z
	return [9]float64{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}

// quatFromMat3 converts a row-major 3x3 rotation matrix to a quaternion.
func quatFromMat3(m [9]float64) Quat {
	trace := m[0] + m[4] + m[8]
	var q Quat
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = Quat{W: s / 4, X: (m[7] - m[5]) / s, Y: (m[2] - m[6]) / s, Z: (m[3] - m[1]) / s}
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2
		q = Quat{W: (m[7] - m[5]) / s, X: s / 4, Y: (m[1] + m[3]) / s, Z: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2
		q = Quat{W: (m[2] - m[6]) / s, X: (m[1] + m[3]) / s, Y: s / 4, Z: (m[5] + m[7]) / s}
	default:
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2
		q = Quat{W: (m[3] - m[1]) / s, X: (m[2] + m[6]) / s, Y: (m[5] + m[7]) / s, Z: s / 4}
	}
	return q.Normalized()
}

// --- Rays and planes ---

// Ray is a world-space ray with a (not necessarily normalized) direction.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// Plane is an infinite plane through Point with the given normal.
type Plane struct {
	Point  Vec3
	Normal Vec3
}

// RayPlaneCollision intersects ray with plane. Returns the world-space hit
// point and false if the ray is parallel to the plane or points away from it.
func RayPlaneCollision(ray Ray, plane Plane) (Vec3, bool) {
	dir := ray.Direction.Normalized()
	denom := dir.Dot(plane.Normal)
	if math.Abs(denom) < 1e-9 {
		return Vec3{}, false
	}
	t := plane.Point.Sub(ray.Origin).Dot(plane.Normal) / denom
	if t < 0 {
		return Vec3{}, false
	}
	return ray.Origin.Add(dir.Scale(t)), true
}

// CosAngleFromRay returns the cosine of the angle between the ray's direction
// and the direction from the ray's origin to point.
func CosAngleFromRay(ray Ray, point Vec3) float64 {
	toPoint := point.Sub(ray.Origin).Normalized()
	return ray.Direction.Normalized().Dot(toPoint)
}

// acosClamped guards against cosines drifting just outside [-1, 1].
func acosClamped(cos float64) float64 {
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}
