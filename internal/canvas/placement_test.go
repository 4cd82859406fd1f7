package canvas

import "testing"

func TestNextFreeSlotEmptyCanvas(t *testing.T) {
	got := nextFreeSlot(nil, 100, 100)
	if got.X != 0 || got.Y != 0 {
		t.Errorf("first element should land at origin, got (%v,%v)", got.X, got.Y)
	}
}

func TestNextFreeSlotAvoidsOverlap(t *testing.T) {
	existing := []Box{{X: 0, Y: 0, W: 100, H: 100}}
	got := nextFreeSlot(existing, 100, 100)
	if intersects(got, existing[0]) {
		t.Errorf("slot %+v overlaps existing %+v", got, existing[0])
	}
}

func TestNextFreeSlotDeterministic(t *testing.T) {
	existing := []Box{
		{X: 0, Y: 0, W: 200, H: 150},
		{X: 240, Y: 0, W: 100, H: 100},
	}
	first := nextFreeSlot(existing, 120, 80)
	for i := 0; i < 10; i++ {
		if got := nextFreeSlot(existing, 120, 80); got != first {
			t.Fatalf("placement not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestNextFreeSlotSequentialFill(t *testing.T) {
	var existing []Box
	for i := 0; i < 20; i++ {
		slot := nextFreeSlot(existing, 100, 100)
		for j, b := range existing {
			if intersects(slot, b) {
				t.Fatalf("slot %d %+v overlaps element %d %+v", i, slot, j, b)
			}
		}
		existing = append(existing, slot)
	}
}

func TestNextFreeSlotIgnoresDeleted(t *testing.T) {
	doc := NewDocument()
	doc.Elements = append(doc.Elements,
		Element{ID: "a", X: 0, Y: 0, Width: 100, Height: 100},
		Element{ID: "b", X: 500, Y: 500, Width: 100, Height: 100, IsDeleted: true},
	)
	boxes := elementBoxes(doc)
	if len(boxes) != 1 {
		t.Errorf("live boxes = %d, want 1", len(boxes))
	}
}
