package canvas

import "sort"

// placementGap is the minimum spacing kept between placed elements.
const placementGap = 20

// Box is an axis-aligned bounding box.
type Box struct {
	X, Y, W, H float64
}

// intersects reports whether two boxes overlap when each is inflated by the
// placement gap. Touching edges inside the gap count as overlap.
func intersects(a, b Box) bool {
	return a.X < b.X+b.W+placementGap &&
		b.X < a.X+a.W+placementGap &&
		a.Y < b.Y+b.H+placementGap &&
		b.Y < a.Y+a.H+placementGap
}

// nextFreeSlot finds a deterministic non-overlapping position for a new box
// of size w x h among the existing boxes.
//
// Candidate positions are the origin plus, for every existing box, the slot
// immediately to its right and the slot immediately below it. Candidates are
// scanned row-major (top to bottom, then left to right) and the first one
// clear of every existing box wins. The candidate set always contains at
// least one clear position: the slot right of the rightmost box extent.
func nextFreeSlot(existing []Box, w, h float64) Box {
	if len(existing) == 0 {
		return Box{X: 0, Y: 0, W: w, H: h}
	}

	candidates := []Box{{X: 0, Y: 0, W: w, H: h}}
	var maxRight float64
	for _, b := range existing {
		candidates = append(candidates,
			Box{X: b.X + b.W + placementGap, Y: b.Y, W: w, H: h},
			Box{X: b.X, Y: b.Y + b.H + placementGap, W: w, H: h},
		)
		if right := b.X + b.W; right > maxRight {
			maxRight = right
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Y != candidates[j].Y {
			return candidates[i].Y < candidates[j].Y
		}
		return candidates[i].X < candidates[j].X
	})

	for _, c := range candidates {
		clear := true
		for _, b := range existing {
			if intersects(c, b) {
				clear = false
				break
			}
		}
		if clear {
			return c
		}
	}

	return Box{X: maxRight + placementGap, Y: 0, W: w, H: h}
}

// elementBoxes extracts the bounding boxes of all live elements.
func elementBoxes(doc *Document) []Box {
	boxes := make([]Box, 0, len(doc.Elements))
	for _, el := range doc.Elements {
		if el.IsDeleted {
			continue
		}
		boxes = append(boxes, Box{X: el.X, Y: el.Y, W: el.Width, H: el.Height})
	}
	return boxes
}
