package mtext

// propRun is one property interval. Runs of the same symbol may overlap;
// their order in Text.props is the stacking order.
type propRun struct {
	sym      Symbol
	from, to int
	value    interface{}
	volatile bool
}

// PutProp sets a property value for the range [from,to), replacing any
// overlap of existing runs with the same symbol.
func (t *Text) PutProp(from, to int, sym Symbol, value interface{}) {
	from, to = clamp(from, to, len(t.runes))
	if from >= to || sym == InvalidSymbol {
		return
	}
	t.removeOverlap(from, to, sym)
	t.props = append(t.props, propRun{sym: sym, from: from, to: to, value: value})
}

// PushProp layers a property value over the range [from,to) without
// disturbing existing runs of the same symbol. The layered value stacks
// above previously pushed ones.
func (t *Text) PushProp(from, to int, sym Symbol, value interface{}) {
	from, to = clamp(from, to, len(t.runes))
	if from >= to || sym == InvalidSymbol {
		return
	}
	t.props = append(t.props, propRun{sym: sym, from: from, to: to, value: value})
}

// PushVolatileProp layers a volatile property: it is dropped on any
// mutation of the text.
func (t *Text) PushVolatileProp(from, to int, sym Symbol, value interface{}) {
	from, to = clamp(from, to, len(t.runes))
	if from >= to || sym == InvalidSymbol {
		return
	}
	t.props = append(t.props, propRun{sym: sym, from: from, to: to, value: value, volatile: true})
}

// RemoveProps removes all runs of a symbol.
func (t *Text) RemoveProps(sym Symbol) {
	keep := t.props[:0]
	for _, p := range t.props {
		if p.sym != sym {
			keep = append(keep, p)
		}
	}
	t.props = keep
}

func (t *Text) removeOverlap(from, to int, sym Symbol) {
	keep := t.props[:0]
	var clipped []propRun
	for _, p := range t.props {
		if p.sym != sym || p.to <= from || p.from >= to {
			keep = append(keep, p)
			continue
		}
		if p.from < from {
			clipped = append(clipped, propRun{sym: sym, from: p.from, to: from, value: p.value, volatile: p.volatile})
		}
		if p.to > to {
			clipped = append(clipped, propRun{sym: sym, from: to, to: p.to, value: p.value, volatile: p.volatile})
		}
	}
	t.props = append(keep, clipped...)
}

// Prop returns the topmost property value of a symbol at a position.
func (t *Text) Prop(pos int, sym Symbol) (interface{}, bool) {
	for i := len(t.props) - 1; i >= 0; i-- {
		p := t.props[i]
		if p.sym == sym && p.from <= pos && pos < p.to {
			return p.value, true
		}
	}
	return nil, false
}

// Props returns all property values of a symbol at a position, in stacking
// order, lower layers first.
func (t *Text) Props(pos int, sym Symbol) []interface{} {
	var vv []interface{}
	for _, p := range t.props {
		if p.sym == sym && p.from <= pos && pos < p.to {
			vv = append(vv, p.value)
		}
	}
	return vv
}

// PropRun returns the topmost property value of a symbol at pos together
// with the maximal range around pos over which the stack of values for sym
// does not change.
func (t *Text) PropRun(pos int, sym Symbol) (value interface{}, from, to int, ok bool) {
	value, ok = t.Prop(pos, sym)
	from, to = 0, len(t.runes)
	for _, p := range t.props {
		if p.sym != sym {
			continue
		}
		// every run boundary limits the homogeneous range
		if p.from <= pos && pos < p.to {
			if p.from > from {
				from = p.from
			}
			if p.to < to {
				to = p.to
			}
		} else if p.to <= pos {
			if p.to > from {
				from = p.to
			}
		} else if p.from > pos {
			if p.from < to {
				to = p.from
			}
		}
	}
	return value, from, to, ok
}
