package board

// Notification is the payload sent to the selection observer on every
// selection change and drag update. A nil *Notification means nothing is
// selected.
type Notification struct {
	ID   string      `json:"id"`
	Type Kind        `json:"type"`
	Pos  *[3]float64 `json:"pos,omitempty"`
	Size []float64   `json:"size,omitempty"`
}

// NotificationFor builds the payload describing c. Kinds without
// positional semantics leave Pos nil.
func NotificationFor(c *Component) *Notification {
	n := &Notification{ID: c.ID, Type: c.Type}
	if c.Type.Positional() {
		if x, y, z, ok := c.Position(); ok {
			n.Pos = &[3]float64{x, y, z}
		}
	}
	switch c.Type {
	case KindRect, KindRound:
		if len(c.Size) > 0 {
			n.Size = append([]float64(nil), c.Size...)
		}
	case KindHole:
		if r, ok := c.HoleRadius(); ok {
			n.Size = []float64{r}
		}
	case KindTrace:
		n.Size = []float64{c.Width}
	}
	return n
}
