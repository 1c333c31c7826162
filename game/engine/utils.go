package engine

import (
	"fmt"
	"math"
)

// Add returns the componentwise sum of v and o
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v minus o
func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{X: v.X - o.X, Y: v.Y - o.Y}
}

// IsZero reports whether both components are zero
func (v Vector2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// Distance returns the Euclidean distance between two vectors truncated to int
func Distance(v1, v2 Vector2) int {
	return int(math.Hypot(float64(v1.X-v2.X), float64(v1.Y-v2.Y)))
}

// Segment returns every grid point on the straight line from v1 to v2,
// both endpoints included, in order from v1 to v2 (Bresenham).
func Segment(v1, v2 Vector2) []Vector2 {
	x0, y0 := v1.X, v1.Y
	x1, y1 := v2.X, v2.Y

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	points := make([]Vector2, 0, max(dx, -dy)+1)
	e := dx + dy
	for {
		points = append(points, Vector2{X: x0, Y: y0})
		e2 := 2 * e
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			e += dx
			y0 += sy
		}
	}
	return points
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
