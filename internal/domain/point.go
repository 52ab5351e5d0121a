package domain

import "math"

// Point is an integer board or piece-local coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p minus q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rotate rotates p counter-clockwise about the origin by angle radians.
func (p Point) Rotate(angle float64) Point {
	return p.RotateAbout(angle, Point{})
}

// RotateAbout rotates p counter-clockwise about origin by angle radians and
// rounds the result to the nearest integer coordinate.
func (p Point) RotateAbout(angle float64, origin Point) Point {
	sin, cos := math.Sincos(angle)
	dx := float64(p.X - origin.X)
	dy := float64(p.Y - origin.Y)
	return Point{
		X: origin.X + int(math.Round(dx*cos-dy*sin)),
		Y: origin.Y + int(math.Round(dx*sin+dy*cos)),
	}
}
