package main

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/ember/pkg/math3d"
	"github.com/taigrr/ember/pkg/render"
)

const (
	defaultDistance = 4.0
	minDistance     = 1.5
	maxDistance     = 5.5 // Stay inside the room
	maxPitch        = 1.4
)

// OrbitAxis tracks position and velocity for one orbit angle with spring decay
type OrbitAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewOrbitAxis creates an axis with harmonica spring for smooth velocity decay
func NewOrbitAxis(fps int) OrbitAxis {
	return OrbitAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0 using spring
func (a *OrbitAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// Zoom eases the camera distance toward Target.
type Zoom struct {
	Distance float64
	Target   float64
	vel      float64
	spring   harmonica.Spring
}

func newZoom(fps int, distance float64) Zoom {
	return Zoom{
		Distance: distance,
		Target:   distance,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
}

// Step moves the target by delta, clamped to the room.
func (z *Zoom) Step(delta float64) {
	z.Target = math.Max(minDistance, math.Min(maxDistance, z.Target+delta))
}

func (z *Zoom) Update() {
	z.Distance, z.vel = z.spring.Update(z.Distance, z.vel, z.Target)
}

// Orbit is the viewer's camera rig: yaw and pitch around the origin plus a
// sprung zoom.
type Orbit struct {
	Yaw, Pitch OrbitAxis
	Zoom       Zoom
	fps        int
}

func NewOrbit(fps int) *Orbit {
	o := &Orbit{fps: fps}
	o.Reset()
	return o
}

func (o *Orbit) Update() {
	o.Yaw.Update()
	o.Pitch.Update()
	if math.Abs(o.Pitch.Position) > maxPitch {
		o.Pitch.Position = math.Copysign(maxPitch, o.Pitch.Position)
		o.Pitch.Velocity = 0
	}
	o.Zoom.Update()
}

func (o *Orbit) ApplyImpulse(pitch, yaw float64) {
	o.Pitch.Velocity += pitch
	o.Yaw.Velocity += yaw
}

func (o *Orbit) Reset() {
	o.Yaw = NewOrbitAxis(o.fps)
	o.Pitch = NewOrbitAxis(o.fps)
	o.Pitch.Position = 0.3
	o.Zoom = newZoom(o.fps, defaultDistance)
}

// Apply positions cam on the orbit, looking at the origin.
func (o *Orbit) Apply(cam *render.Camera) {
	cam.Orbit(math3d.Zero3(), o.Zoom.Distance, o.Yaw.Position, o.Pitch.Position)
}
