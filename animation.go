package rowan

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates components of an entity's local pose through the
// transform system. Create one via the convenience constructors
// (TweenTranslation, TweenScale, TweenRotation) and call Update(dt) each
// frame. Grab handlers use these to settle an entity after a release or
// snap it home after a cancel. If the entity loses its transform the group
// stops immediately.
//
// There is no global animation manager — callers drive Update themselves.
type TweenGroup struct {
	tweens     [4]*gween.Tween
	count      int
	transforms *TransformSystem
	entity     Entity
	apply      func(sqt *Sqt, values [4]float64)
	Done       bool
}

// Update advances all tweens by dt seconds and writes the result back to
// the entity's pose. Returns true once the group has finished.
func (g *TweenGroup) Update(dt float32) bool {
	if g.Done {
		return true
	}
	sqt, ok := g.transforms.GetSqt(g.entity)
	if !ok {
		g.Done = true
		return true
	}

	var values [4]float64
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.apply(&sqt, values)
	g.transforms.SetSqt(g.entity, sqt)
	g.Done = allDone
	return g.Done
}

// TweenTranslation animates the entity's local translation to the target
// over the given duration using the easing function.
func TweenTranslation(transforms *TransformSystem, entity Entity, to Vec3,
	duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 3, transforms: transforms, entity: entity}
	from, _ := transforms.GetSqt(entity)
	g.tweens[0] = gween.New(float32(from.Translation.X), float32(to.X), duration, fn)
	g.tweens[1] = gween.New(float32(from.Translation.Y), float32(to.Y), duration, fn)
	g.tweens[2] = gween.New(float32(from.Translation.Z), float32(to.Z), duration, fn)
	g.apply = func(sqt *Sqt, v [4]float64) {
		sqt.Translation = Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	return g
}

// TweenScale animates the entity's local scale to the target over the given
// duration using the easing function.
func TweenScale(transforms *TransformSystem, entity Entity, to Vec3,
	duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 3, transforms: transforms, entity: entity}
	from, _ := transforms.GetSqt(entity)
	g.tweens[0] = gween.New(float32(from.Scale.X), float32(to.X), duration, fn)
	g.tweens[1] = gween.New(float32(from.Scale.Y), float32(to.Y), duration, fn)
	g.tweens[2] = gween.New(float32(from.Scale.Z), float32(to.Z), duration, fn)
	g.apply = func(sqt *Sqt, v [4]float64) {
		sqt.Scale = Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	return g
}

// TweenRotation animates the entity's local rotation to the target
// quaternion over the given duration using the easing function. Components
// are tweened independently and renormalized, which is adequate for the
// short settle animations this is meant for.
func TweenRotation(transforms *TransformSystem, entity Entity, to Quat,
	duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 4, transforms: transforms, entity: entity}
	from, _ := transforms.GetSqt(entity)
	if from.Rotation.Dot(to) < 0 {
		// Take the short way around.
		to = Quat{W: -to.W, X: -to.X, Y: -to.Y, Z: -to.Z}
	}
	g.tweens[0] = gween.New(float32(from.Rotation.W), float32(to.W), duration, fn)
	g.tweens[1] = gween.New(float32(from.Rotation.X), float32(to.X), duration, fn)
	g.tweens[2] = gween.New(float32(from.Rotation.Y), float32(to.Y), duration, fn)
	g.tweens[3] = gween.New(float32(from.Rotation.Z), float32(to.Z), duration, fn)
	g.apply = func(sqt *Sqt, v [4]float64) {
		sqt.Rotation = Quat{W: v[0], X: v[1], Y: v[2], Z: v[3]}.Normalized()
	}
	return g
}
