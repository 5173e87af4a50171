package client

import (
	"math"

	"uno/internal/ports"
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpVec3(a, b ports.Vec3, t float64) ports.Vec3 {
	return ports.Vec3{
		X: lerp(a.X, b.X, t),
		Y: lerp(a.Y, b.Y, t),
		Z: lerp(a.Z, b.Z, t),
	}
}

func sqrDist(a, b ports.Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

func quatDot(a, b ports.Quat) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

func quatNormalize(q ports.Quat) ports.Quat {
	n := math.Sqrt(quatDot(q, q))
	if n == 0 {
		return ports.Quat{W: 1}
	}
	return ports.Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// slerpQuat interpolates along the shorter arc, falling back to a
// normalized lerp when the rotations are nearly parallel.
func slerpQuat(a, b ports.Quat, t float64) ports.Quat {
	dot := quatDot(a, b)
	if dot < 0 {
		b = ports.Quat{X: -b.X, Y: -b.Y, Z: -b.Z, W: -b.W}
		dot = -dot
	}
	if dot > 0.9995 {
		return quatNormalize(ports.Quat{
			X: lerp(a.X, b.X, t),
			Y: lerp(a.Y, b.Y, t),
			Z: lerp(a.Z, b.Z, t),
			W: lerp(a.W, b.W, t),
		})
	}
	theta := math.Acos(dot)
	sinTheta := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sinTheta
	wb := math.Sin(t*theta) / sinTheta
	return quatNormalize(ports.Quat{
		X: wa*a.X + wb*b.X,
		Y: wa*a.Y + wb*b.Y,
		Z: wa*a.Z + wb*b.Z,
		W: wa*a.W + wb*b.W,
	})
}

// billboardYaw returns the yaw-only rotation that faces a card at
// cardPos toward the viewer, keeping the card upright. Recomputed live
// each reconciliation pass rather than interpolated.
func billboardYaw(cardPos, viewerPos ports.Vec3) ports.Quat {
	dx := viewerPos.X - cardPos.X
	dz := viewerPos.Z - cardPos.Z
	yaw := math.Atan2(dx, dz)
	half := yaw / 2
	return ports.Quat{Y: math.Sin(half), W: math.Cos(half)}
}
