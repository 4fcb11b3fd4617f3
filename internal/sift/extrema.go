package sift

// findExtrema scans each interior pixel of every DoG level (excluding the
// first and last index per octave, and a one-pixel border) for strict
// local extrema across the 3x3x3 scale-space neighborhood (spec §4.C).
func findExtrema(pyr *Pyramid) []InterestPoint {
	var candidates []InterestPoint

	for o := 0; o < pyr.Octaves; o++ {
		levels := pyr.DoG[o]
		for i := 1; i <= pyr.S-2; i++ {
			below := levels[i-1].Image
			cur := levels[i].Image
			above := levels[i+1].Image
			w, h := cur.Width, cur.Height

			for y := 1; y < h-1; y++ {
				for x := 1; x < w-1; x++ {
					v := cur.At(x, y)
					if isExtremum(v, below, cur, above, x, y) {
						candidates = append(candidates, InterestPoint{
							LocX:   x,
							LocY:   y,
							Octave: o,
							Index:  i,
							Scale:  levels[i].Scale,
						})
					}
				}
			}
		}
	}

	return candidates
}

func isExtremum(v float32, below, cur, above *Image, x, y int) bool {
	isMax, isMin := true, true
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			for _, plane := range [3]*Image{below, cur, above} {
				if plane == cur && dx == 0 && dy == 0 {
					continue
				}
				n := plane.At(x+dx, y+dy)
				if n >= v {
					isMax = false
				}
				if n <= v {
					isMin = false
				}
				if !isMax && !isMin {
					return false
				}
			}
		}
	}
	return isMax || isMin
}
