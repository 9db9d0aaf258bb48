package regex

// SavesSlots returns the number of i32 capture slots a Program needs:
// one (start, end) pair for the whole match plus one pair per group.
func (p *Program) SavesSlots() int {
	return 2 * (p.NumGroups + 1)
}

// SavesBytes is the byte size of the saves scratch buffer $regex_search
// expects, one i32 per slot.
func (p *Program) SavesBytes() int {
	return p.SavesSlots() * 4
}

// RangesOffset is the byte offset of the range table within Encode's
// output, i.e. where the instruction stream ends.
func (p *Program) RangesOffset() int {
	return len(p.Insts) * instSize
}
