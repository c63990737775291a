package render

import "github.com/kdpath/tracer/internal/geom"

// Camera is a pinhole camera: view point, an orthonormal front/up/right
// basis (up and right already scaled by the image's field of view), and
// the image dimensions primary rays are generated against.
type Camera struct {
	ViewPoint geom.Vec3
	Front     geom.Vec3
	Up        geom.Vec3
	Right     geom.Vec3
	Width     int
	Height    int
}

// NewCamera derives the camera basis from a view point, look-at target,
// an up hint, image dimensions, and vertical field of view yView.
// right = normalize(front x up_hint) * (W/H * yView / 2);
// up = normalize(right x front) * (yView / 2), which keeps up
// perpendicular to front even when up_hint isn't exactly so.
func NewCamera(viewPoint, lookAt, upHint geom.Vec3, width, height int, yView float32) Camera {
	front := geom.Normalize(geom.Sub(lookAt, viewPoint))
	right := geom.Normalize(geom.Cross(front, geom.Normalize(upHint)))
	up := geom.Normalize(geom.Cross(right, front))

	right = geom.Scale(float32(width)/float32(height)*yView/2, right)
	up = geom.Scale(yView/2, up)

	return Camera{
		ViewPoint: viewPoint,
		Front:     front,
		Up:        up,
		Right:     right,
		Width:     width,
		Height:    height,
	}
}

// PrimaryRay generates the primary ray through pixel (px, py), origin at
// the view point, unbounded range.
func (c Camera) PrimaryRay(px, py int) geom.Ray {
	sy := 2*float32(py)/float32(c.Height-1) - 1
	sx := 2*float32(px)/float32(c.Width-1) - 1

	dir := geom.Add(c.Front, geom.Add(geom.Scale(-sy, c.Up), geom.Scale(sx, c.Right)))
	return geom.NewRay(c.ViewPoint, geom.Normalize(dir))
}
