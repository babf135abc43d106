package segment

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// intensity converts img to a grid of 0-255 luminance values, optionally
// blurred with a Gaussian of the given sigma.
func intensity(img image.Image, blurSigma float64) [][]float64 {
	gray := imaging.Grayscale(img)
	if blurSigma > 0 {
		gray = imaging.Blur(gray, blurSigma)
	}
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			out[y][x] = float64(row[x*4])
		}
	}
	return out
}

// canny marks edge pixels with 255. Gradients use 3x3 Sobel kernels and
// the L1 magnitude |gx|+|gy|, so thresholds are on the same scale as
// OpenCV's default Canny on 8-bit images.
func canny(gray [][]float64, low, high float64) *image.Gray {
	h := len(gray)
	w := 0
	if h > 0 {
		w = len(gray[0])
	}
	edges := image.NewGray(image.Rect(0, 0, w, h))
	if w < 3 || h < 3 {
		return edges
	}

	at := func(x, y int) float64 {
		return gray[clamp(y, 0, h-1)][clamp(x, 0, w-1)]
	}
	magnitude := make([][]float64, h)
	direction := make([][]float64, h)
	for y := 0; y < h; y++ {
		magnitude[y] = make([]float64, w)
		direction[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			magnitude[y][x] = math.Abs(gx) + math.Abs(gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression along the quantised gradient direction.
	thin := make([][]float64, h)
	for y := 0; y < h; y++ {
		thin[y] = make([]float64, w)
		if y == 0 || y == h-1 {
			continue
		}
		for x := 1; x < w-1; x++ {
			mag := magnitude[y][x]
			if mag < low {
				continue
			}
			var n1, n2 float64
			angle := direction[y][x]
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = magnitude[y][x-1], magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = magnitude[y-1][x-1], magnitude[y+1][x+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = magnitude[y-1][x], magnitude[y+1][x]
			default:
				n1, n2 = magnitude[y-1][x+1], magnitude[y+1][x-1]
			}
			if mag > n1 && mag >= n2 {
				thin[y][x] = mag
			}
		}
	}

	// Hysteresis: grow strong edges through 8-connected weak ones.
	stack := make([]image.Point, 0, 64)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if thin[y][x] >= high && edges.GrayAt(x, y).Y == 0 {
				edges.SetGray(x, y, color.Gray{Y: 255})
				stack = append(stack, image.Pt(x, y))
			}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						if thin[ny][nx] > low && edges.GrayAt(nx, ny).Y == 0 {
							edges.SetGray(nx, ny, color.Gray{Y: 255})
							stack = append(stack, image.Pt(nx, ny))
						}
					}
				}
			}
		}
	}
	return edges
}

// closeEdges bridges small gaps in the edge map: dilation followed by
// erosion with the same radius.
func closeEdges(edges image.Image, kernel int) image.Image {
	radius := float64(kernel / 2)
	if radius < 1 {
		return edges
	}
	return effect.Erode(effect.Dilate(edges, radius), radius)
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
