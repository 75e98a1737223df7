package capture

import (
	"fmt"
	"image"
)

// Region is a screen rectangle to capture. A nil Region means the entire
// primary display.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r *Region) Validate() error {
	if r == nil {
		return nil
	}
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("region origin must be non-negative, got (%d,%d)", r.X, r.Y)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("region dimensions must be positive, got %dx%d", r.Width, r.Height)
	}
	return nil
}

func (r *Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// ParseRegion converts the wire format [x, y, width, height] into a Region.
func ParseRegion(coords []int) (*Region, error) {
	if len(coords) == 0 {
		return nil, nil
	}
	if len(coords) != 4 {
		return nil, fmt.Errorf("region must have exactly 4 elements [x, y, width, height], got %d", len(coords))
	}
	r := &Region{X: coords[0], Y: coords[1], Width: coords[2], Height: coords[3]}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Coords returns the wire format of the region, or nil for full-screen.
func (r *Region) Coords() []int {
	if r == nil {
		return nil
	}
	return []int{r.X, r.Y, r.Width, r.Height}
}
