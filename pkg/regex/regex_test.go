package regex

import "testing"

func Test_Parse_Literal_01(t *testing.T) {
	pat, err := Parse("abc", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	concat, ok := pat.Root.(Concat)
	if !ok || len(concat.Parts) != 3 {
		t.Fatalf("expected 3-part concat, got %#v", pat.Root)
	}
}

func Test_Parse_Flags_01(t *testing.T) {
	pat, err := Parse("a", "ims")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pat.IgnoreCase || !pat.Multiline || !pat.DotAll {
		t.Fatalf("flags not parsed: %+v", pat)
	}
}

func Test_Parse_UnknownFlag_01(t *testing.T) {
	if _, err := Parse("a", "z"); err == nil {
		t.Fatalf("expected error for unsupported flag")
	}
}

func Test_Parse_Group_AssignsIndex_01(t *testing.T) {
	pat, err := Parse("(a)(b)", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	concat := pat.Root.(Concat)
	g1 := concat.Parts[0].(Group)
	g2 := concat.Parts[1].(Group)
	if g1.Index != 1 || g2.Index != 2 {
		t.Fatalf("expected group indices 1,2, got %d,%d", g1.Index, g2.Index)
	}
	if pat.NumGroups != 2 {
		t.Fatalf("expected NumGroups=2, got %d", pat.NumGroups)
	}
}

func Test_Parse_NonCapturingGroup_01(t *testing.T) {
	pat, err := Parse("(?:ab)", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pat.NumGroups != 0 {
		t.Fatalf("expected 0 groups, got %d", pat.NumGroups)
	}
}

func Test_Parse_Class_Range_01(t *testing.T) {
	pat, err := Parse("[a-z0-9]", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cls, ok := pat.Root.(Class)
	if !ok || len(cls.Ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %#v", pat.Root)
	}
}

func Test_Parse_NegatedClass_01(t *testing.T) {
	pat, err := Parse("[^abc]", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cls := pat.Root.(Class)
	if !cls.Negated {
		t.Fatalf("expected negated class")
	}
}

func Test_Parse_BraceRepeat_01(t *testing.T) {
	pat, err := Parse("a{2,4}", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rep, ok := pat.Root.(Repeat)
	if !ok || rep.Min != 2 || rep.Max != 4 {
		t.Fatalf("expected Repeat{2,4}, got %#v", pat.Root)
	}
}

func Test_Parse_BraceRepeat_Unbounded_01(t *testing.T) {
	pat, err := Parse("a{2,}", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rep := pat.Root.(Repeat)
	if rep.Min != 2 || rep.Max != -1 {
		t.Fatalf("expected Repeat{2,-1}, got %+v", rep)
	}
}

func Test_Parse_LiteralBrace_01(t *testing.T) {
	// '{' not forming a valid {n,m} range is a literal, matching how
	// browsers and Node's regex engine treat a bare '{'.
	pat, err := Parse("a{x}", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	concat, ok := pat.Root.(Concat)
	if !ok || len(concat.Parts) != 4 {
		t.Fatalf("expected 4-part concat (a,{,x,}), got %#v", pat.Root)
	}
}

func Test_Parse_Alternation_01(t *testing.T) {
	pat, err := Parse("cat|dog", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alt, ok := pat.Root.(Alt)
	if !ok || len(alt.Branches) != 2 {
		t.Fatalf("expected 2-branch alternation, got %#v", pat.Root)
	}
}

func Test_Parse_Shorthand_01(t *testing.T) {
	pat, err := Parse(`\d+\s\w*`, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	concat := pat.Root.(Concat)
	if len(concat.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(concat.Parts))
	}
	if _, ok := concat.Parts[0].(Plus); !ok {
		t.Fatalf("expected Plus for \\d+")
	}
	if _, ok := concat.Parts[2].(Star); !ok {
		t.Fatalf("expected Star for \\w*")
	}
}

func Test_Parse_DanglingQuantifier_01(t *testing.T) {
	if _, err := Parse("*abc", ""); err == nil {
		t.Fatalf("expected error for leading quantifier")
	}
}

func Test_Parse_UnterminatedGroup_01(t *testing.T) {
	if _, err := Parse("(abc", ""); err == nil {
		t.Fatalf("expected error for unterminated group")
	}
}

func Test_Compile_Literal_EmitsCharAndMatch_01(t *testing.T) {
	pat, _ := Parse("ab", "")
	prog, err := Compile(pat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Insts) != 3 {
		t.Fatalf("expected 3 instructions (char,char,match), got %d", len(prog.Insts))
	}
	if prog.Insts[0].Op != OpChar || prog.Insts[0].Arg1 != 'a' {
		t.Fatalf("expected first inst CHAR 'a', got %+v", prog.Insts[0])
	}
	if prog.Insts[2].Op != OpMatch {
		t.Fatalf("expected last inst MATCH, got %+v", prog.Insts[2])
	}
}

func Test_Compile_Star_SplitTargetsAreValid_01(t *testing.T) {
	pat, _ := Parse("a*", "")
	prog, err := Compile(pat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	split := prog.Insts[0]
	if split.Op != OpSplit {
		t.Fatalf("expected first inst SPLIT, got %+v", split)
	}
	if int(split.Arg1) < 0 || int(split.Arg1) >= len(prog.Insts) {
		t.Fatalf("split arg1 out of range: %+v", split)
	}
	if int(split.Arg2) < 0 || int(split.Arg2) >= len(prog.Insts) {
		t.Fatalf("split arg2 out of range: %+v", split)
	}
}

func Test_Compile_Group_EmitsSavePair_01(t *testing.T) {
	pat, _ := Parse("(a)", "")
	prog, err := Compile(pat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prog.Insts[0].Op != OpSave || prog.Insts[0].Arg1 != 2 {
		t.Fatalf("expected SAVE 2 first, got %+v", prog.Insts[0])
	}
	if prog.Insts[2].Op != OpSave || prog.Insts[2].Arg1 != 3 {
		t.Fatalf("expected SAVE 3 third, got %+v", prog.Insts[2])
	}
}

func Test_Compile_Class_RangesAppended_01(t *testing.T) {
	pat, _ := Parse("[a-c]", "")
	prog, err := Compile(pat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Ranges) != 1 || prog.Ranges[0].Lo != 'a' || prog.Ranges[0].Hi != 'c' {
		t.Fatalf("expected one range a-c, got %+v", prog.Ranges)
	}
	if prog.Insts[0].Op != OpClass || prog.Insts[0].Arg2 != 1 {
		t.Fatalf("expected CLASS with count 1, got %+v", prog.Insts[0])
	}
}

func Test_Program_SavesSlots_01(t *testing.T) {
	pat, _ := Parse("(a)(b)", "")
	prog, _ := Compile(pat)
	if got := prog.SavesSlots(); got != 6 {
		t.Fatalf("expected 6 save slots (whole match + 2 groups), got %d", got)
	}
}

func Test_Program_Encode_SizeMatchesRangesOffset_01(t *testing.T) {
	pat, _ := Parse("[a-z]+", "")
	prog, _ := Compile(pat)
	buf := prog.Encode()
	if len(buf) != prog.RangesOffset()+len(prog.Ranges)*8 {
		t.Fatalf("encoded length %d does not match instructions+ranges layout", len(buf))
	}
}
