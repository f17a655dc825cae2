package models

import "strings"

var (
	verticalBands   = [3]string{"top", "middle", "bottom"}
	horizontalBands = [3]string{"left", "center", "right"}
)

// AreaOf names the cell of a 3×3 grid over a width×height canvas that holds (x, y)
func AreaOf(x, y, width, height int) string {
	return verticalBands[band(y, height)] + "-" + horizontalBands[band(x, width)]
}

// AreaCenter returns the centre of a named 3×3 cell. Bare "middle" and
// "center" are read as the centre cell.
func AreaCenter(area string, width, height int) (int, int, bool) {
	area = strings.ToLower(strings.TrimSpace(area))
	if area == "middle" || area == "center" {
		area = "middle-center"
	}
	v, h, ok := strings.Cut(area, "-")
	if !ok {
		return 0, 0, false
	}
	row, col := indexOf(verticalBands, v), indexOf(horizontalBands, h)
	if row < 0 || col < 0 {
		return 0, 0, false
	}
	return (2*col + 1) * width / 6, (2*row + 1) * height / 6, true
}

func band(v, extent int) int {
	if extent <= 0 {
		return 0
	}
	b := v * 3 / extent
	if b < 0 {
		return 0
	}
	if b > 2 {
		return 2
	}
	return b
}

func indexOf(bands [3]string, s string) int {
	for i, b := range bands {
		if b == s {
			return i
		}
	}
	return -1
}
