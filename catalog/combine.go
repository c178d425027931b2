package catalog

// Mask flags rows of a dataset. Masks always span the full row frame of their
// dataset so masks computed over different candidate subsets align by index.
type Mask []bool

// NewMask returns a mask of n rows all set to v.
func NewMask(n int, v bool) Mask {
	m := make(Mask, n)
	if v {
		for i := range m {
			m[i] = true
		}
	}
	return m
}

// MaskOf returns a mask of n rows with the given indices set.
func MaskOf(n int, rows []int) Mask {
	m := NewMask(n, false)
	for _, r := range rows {
		if r >= 0 && r < n {
			m[r] = true
		}
	}
	return m
}

// Clone copies the mask.
func (m Mask) Clone() Mask {
	return append(Mask(nil), m...)
}

// Count returns how many rows are set.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Any reports whether at least one row is set.
func (m Mask) Any() bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// Indices lists the set rows in ascending order.
func (m Mask) Indices() []int {
	out := make([]int, 0, m.Count())
	for i, v := range m {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// And intersects m with other in place. Rows missing from other count as unset.
func (m Mask) And(other Mask) Mask {
	for i := range m {
		m[i] = m[i] && i < len(other) && other[i]
	}
	return m
}

// Or unions other into m in place.
func (m Mask) Or(other Mask) Mask {
	for i := range m {
		if i < len(other) && other[i] {
			m[i] = true
		}
	}
	return m
}

// AndNot clears every row of m that is set in other.
func (m Mask) AndNot(other Mask) Mask {
	for i := range m {
		if i < len(other) && other[i] {
			m[i] = false
		}
	}
	return m
}

// frameOr returns frame itself, or an all-true mask of n rows when frame is nil.
func frameOr(frame Mask, n int) Mask {
	if frame == nil {
		return NewMask(n, true)
	}
	return frame
}

// EvaluateSegment ANDs the masks of every term in seg, restricted to frame.
func (m *Matcher) EvaluateSegment(tb *Table, cols []int, seg Segment, frame Mask) Mask {
	out := frameOr(frame, tb.Len()).Clone()
	if len(seg.Terms) == 0 {
		return NewMask(tb.Len(), false)
	}
	for _, t := range seg.Terms {
		if !out.Any() {
			break
		}
		out.And(m.MatchTerm(tb, cols, t, out))
	}
	return out
}

// EvaluateSegments ORs the masks of every segment. An empty segment matches nothing.
func (m *Matcher) EvaluateSegments(tb *Table, cols []int, segments []Segment, frame Mask) Mask {
	out := NewMask(tb.Len(), false)
	for _, seg := range segments {
		out.Or(m.EvaluateSegment(tb, cols, seg, frame))
	}
	return out
}

// ExcludeNegated clears rows of mask matching any negated term.
func (m *Matcher) ExcludeNegated(tb *Table, cols []int, negated []Term, mask Mask) Mask {
	for _, t := range negated {
		if !mask.Any() {
			break
		}
		mask.AndNot(m.MatchTerm(tb, cols, t, mask))
	}
	return mask
}
