package flt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/npillmayer/mtext/core"
	"github.com/npillmayer/mtext/core/plist"
	"github.com/npillmayer/mtext/engine/frame"
)

// A layout table record is a sequence of stages, each a (category …)
// form followed by a (generator …) form:
//
//	(category (#x0900 #x097F ?a) (#x093C ?n))
//	(generator
//	  (cond
//	    ("an" = |)
//	    ("(a)n?" (1 =))
//	    (cond))
//	  (macro-name = =))
//
// Category entries are either (FROM TO ?letter) or (CODE ?letter).
//
// Commands:
//
//	integer            DIRECT glyph
//	=                  COPY
//	*                  REPEAT the previous sibling
//	< >                CLUSTER_BEGIN / CLUSTER_END
//	|                  SEPARATOR
//	[ ]                LEFT_PADDING / RIGHT_PADDING
//	:otf=…             delegate to the OpenType driver
//	tc.bc, bc+2-3tc    COMBINING anchors with optional offsets
//	name               macro reference
//	(cond …)           first succeeding alternative
//	(SOURCE cmds…)     rule; SOURCE is "regex", (range LO HI),
//	                   (seq C…) or a capture-group index
//
// The OpenType form is :otf=SCRIPT[/LANGSYS][=gsub,…][+gpos,…] with *
// meaning all features and an absent list meaning none.

// Parse compiles a property-list record into a layout table.
func Parse(name string, rec plist.List) (*FLT, error) {
	f := &FLT{Name: name}
	var current *stage
	for _, e := range rec {
		form, ok := e.(plist.List)
		if ok && len(form) > 0 {
			if head, isSym := form.SymAt(0); isSym {
				switch head {
				case "category":
					ct, err := parseCategories(form[1:])
					if err != nil {
						return nil, err
					}
					current = &stage{cats: ct, macros: make(map[string]*command)}
					continue
				case "generator":
					if current == nil {
						current = &stage{cats: &categoryTable{}, macros: make(map[string]*command)}
					}
					if err := parseGenerator(current, form[1:]); err != nil {
						return nil, err
					}
					f.stages = append(f.stages, current)
					current = nil
					continue
				}
			}
		}
		return nil, core.Error(core.EINVALID, "layout table %q: unexpected form %s", name, plist.Format(e))
	}
	if len(f.stages) == 0 {
		return nil, core.Error(core.EINVALID, "layout table %q has no stages", name)
	}
	return f, nil
}

func parseCategories(entries plist.List) (*categoryTable, error) {
	ct := &categoryTable{}
	for _, e := range entries {
		entry, ok := e.(plist.List)
		if !ok {
			return nil, core.Error(core.EINVALID, "bad category entry %s", plist.Format(e))
		}
		switch len(entry) {
		case 2:
			code, ok1 := entry.IntAt(0)
			letter, ok2 := entry.IntAt(1)
			if !ok1 || !ok2 {
				return nil, core.Error(core.EINVALID, "bad category entry %s", plist.Format(e))
			}
			ct.add(rune(code), rune(code), byte(letter))
		case 3:
			lo, ok1 := entry.IntAt(0)
			hi, ok2 := entry.IntAt(1)
			letter, ok3 := entry.IntAt(2)
			if !ok1 || !ok2 || !ok3 || lo > hi {
				return nil, core.Error(core.EINVALID, "bad category entry %s", plist.Format(e))
			}
			ct.add(rune(lo), rune(hi), byte(letter))
		default:
			return nil, core.Error(core.EINVALID, "bad category entry %s", plist.Format(e))
		}
	}
	ct.sort()
	return ct, nil
}

func parseGenerator(st *stage, forms plist.List) error {
	if len(forms) == 0 {
		return core.Error(core.EINVALID, "generator without a root command")
	}
	root, err := parseCommand(forms[0])
	if err != nil {
		return err
	}
	st.root = root
	for _, e := range forms[1:] {
		def, ok := e.(plist.List)
		if !ok || len(def) < 2 {
			return core.Error(core.EINVALID, "bad macro definition %s", plist.Format(e))
		}
		name, ok := def.SymAt(0)
		if !ok {
			return core.Error(core.EINVALID, "bad macro definition %s", plist.Format(e))
		}
		body, err := parseCommands(def[1:])
		if err != nil {
			return err
		}
		st.macros[string(name)] = &command{op: opSequence, body: body}
	}
	return nil
}

func parseCommands(exprs plist.List) ([]*command, error) {
	cmds := make([]*command, 0, len(exprs))
	for _, e := range exprs {
		c, err := parseCommand(e)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func parseCommand(e plist.Expr) (*command, error) {
	switch x := e.(type) {
	case plist.Int:
		return &command{op: opDirect, code: rune(x)}, nil
	case plist.Sym:
		return parseSymCommand(string(x))
	case plist.List:
		if len(x) == 0 {
			return nil, core.Error(core.EINVALID, "empty command")
		}
		if head, ok := x.SymAt(0); ok && head == "cond" {
			body, err := parseCommands(x[1:])
			if err != nil {
				return nil, err
			}
			return &command{op: opCond, body: body}, nil
		}
		source, err := parseSource(x[0])
		if err != nil {
			return nil, err
		}
		body, err := parseCommands(x[1:])
		if err != nil {
			return nil, err
		}
		return &command{op: opRule, source: source, body: body}, nil
	}
	return nil, core.Error(core.EINVALID, "bad command %s", plist.Format(e))
}

func parseSource(e plist.Expr) (*command, error) {
	switch x := e.(type) {
	case plist.Str:
		re, err := regexp.Compile(string(x))
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "bad pattern %q", string(x))
		}
		return &command{op: opMatchRegex, re: re}, nil
	case plist.Int:
		return &command{op: opMatchIndex, idx: int(x)}, nil
	case plist.List:
		head, ok := x.SymAt(0)
		if !ok {
			break
		}
		switch head {
		case "range":
			lo, ok1 := x.IntAt(1)
			hi, ok2 := x.IntAt(2)
			if !ok1 || !ok2 || len(x) != 3 || lo > hi {
				return nil, core.Error(core.EINVALID, "bad range %s", plist.Format(e))
			}
			return &command{op: opMatchRange, lo: rune(lo), hi: rune(hi)}, nil
		case "seq":
			seq := make([]rune, 0, len(x)-1)
			for _, se := range x[1:] {
				n, ok := se.(plist.Int)
				if !ok {
					return nil, core.Error(core.EINVALID, "bad sequence %s", plist.Format(e))
				}
				seq = append(seq, rune(n))
			}
			if len(seq) == 0 {
				return nil, core.Error(core.EINVALID, "empty sequence")
			}
			return &command{op: opMatchSeq, seq: seq}, nil
		}
	}
	return nil, core.Error(core.EINVALID, "bad rule source %s", plist.Format(e))
}

func parseSymCommand(sym string) (*command, error) {
	switch sym {
	case "=":
		return &command{op: opCopy}, nil
	case "*":
		return &command{op: opRepeat}, nil
	case "<":
		return &command{op: opClusterBegin}, nil
	case ">":
		return &command{op: opClusterEnd}, nil
	case "|":
		return &command{op: opSeparator}, nil
	case "[":
		return &command{op: opLeftPadding}, nil
	case "]":
		return &command{op: opRightPadding}, nil
	}
	if strings.HasPrefix(sym, ":otf=") {
		return parseOTF(sym[len(":otf="):])
	}
	if code, ok := parseCombiningSym(sym); ok {
		return &command{op: opCombining, combining: code}, nil
	}
	return &command{op: opMacroRef, macro: sym}, nil
}

func parseOTF(spec string) (*command, error) {
	c := &command{op: opOTF}
	rest := spec
	if i := strings.IndexByte(rest, '='); i >= 0 {
		gsubgpos := rest[i+1:]
		rest = rest[:i]
		if j := strings.IndexByte(gsubgpos, '+'); j >= 0 {
			c.otf.gsub = splitFeatures(gsubgpos[:j])
			c.otf.gpos = splitFeatures(gsubgpos[j+1:])
		} else {
			c.otf.gsub = splitFeatures(gsubgpos)
		}
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		c.otf.langsys = rest[i+1:]
		rest = rest[:i]
	}
	if rest == "" {
		return nil, core.Error(core.EINVALID, "OpenType spec without a script tag")
	}
	c.otf.script = rest
	return c, nil
}

func splitFeatures(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

var combiningPattern = regexp.MustCompile(`^([tcbB][lcr])(\.|[-+][0-9]+[-+][0-9]+)([tcbB][lcr])$`)

func parseCombiningSym(sym string) (int32, bool) {
	m := combiningPattern.FindStringSubmatch(sym)
	if m == nil {
		return 0, false
	}
	baseV, baseH := anchorOf(m[1])
	addV, addH := anchorOf(m[3])
	offX, offY := 0, 0
	if m[2] != "." {
		// offsets look like +3-4: x first, then y, in tenths
		cut := 1 + strings.LastIndexAny(m[2][1:], "+-")
		x, err1 := strconv.Atoi(m[2][:cut])
		y, err2 := strconv.Atoi(m[2][cut:])
		if err1 != nil || err2 != nil {
			return 0, false
		}
		offX, offY = x, y
	}
	return frame.MakeCombining(baseV, baseH, addV, addH, offX, offY), true
}

func anchorOf(s string) (frame.VPos, frame.HPos) {
	var v frame.VPos
	switch s[0] {
	case 't':
		v = frame.VTop
	case 'c':
		v = frame.VCenter
	case 'b':
		v = frame.VBottom
	case 'B':
		v = frame.VBase
	}
	var h frame.HPos
	switch s[1] {
	case 'l':
		h = frame.HLeft
	case 'c':
		h = frame.HCenter
	case 'r':
		h = frame.HRight
	}
	return v, h
}
