// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Words which can not name a label or equate, in addition to the mnemonics.
var reservedWord = map[string]bool{
	"A": true, "B": true, "C": true, "D": true, "E": true, "F": true,
	"H": true, "L": true, "M": true, "PSW": true, "SP": true,
	"DATA": true, "EQU": true,
}

// Register and register pair operands, passed to the opcode table as-is.
var operandLiteral = map[string]bool{
	"A": true, "B": true, "C": true, "D": true, "E": true, "H": true,
	"L": true, "M": true, "PSW": true, "SP": true,
}

// Radix suffixes of numeric literals.
var radixSuffix = map[byte]int{
	'H': 16,
	'O': 8,
	'Q': 8,
	'B': 2,
	'D': 10,
}

var (
	namePattern = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)
	exprPattern = regexp.MustCompile(`\$\(([^()]|\([^()]*\))*\)`)
)

// statement is a source line which survived the first pass.
type statement struct {
	lineNo   int
	text     string
	label    string
	mnemonic string
	operands []string
}

// fixup is a label reference waiting for the label's address.
type fixup struct {
	offset int
	label  string
	width  int
	lineNo int
	text   string
}

// Assembler is a two pass assembler for Intel 8085 source text.
type Assembler struct {
	Verbose bool         // If set, verbosely logs the assembler actions.
	Table   *OpcodeTable // Opcode table; nil selects Intel8085().

	predefine map[string]string
	Label     map[string]uint16 // Map of labels to addresses, after assembly.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate, or redefines an existing one, for
// all subsequent assemblies.
func (asm *Assembler) Predefine(equ string, value string) {
	equ = strings.ToUpper(equ)
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Assemble translates source text into a Program.
func (asm *Assembler) Assemble(source string) (prog *Program, err error) {
	return asm.Parse(strings.NewReader(source))
}

// Parse translates an input stream into a Program.
//
// Assembly is all-or-nothing: on failure no program is returned, and the
// error is an *ErrSyntax locating the offending line.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var line string
	var lineno int

	defer func() {
		if err != nil {
			prog = nil
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if asm.Table == nil {
		asm.Table = Intel8085()
	}

	asm.Label = make(map[string]uint16)
	asm.Equate = make(map[string]string, len(asm.predefine))
	maps.Copy(asm.Equate, asm.predefine)

	// Pass 1: labels, equates and expressions.
	var stmts []*statement
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lineno++
		text, _, _ := strings.Cut(scanner.Text(), ";")
		line = strings.TrimSpace(text)
		if len(line) == 0 {
			continue
		}

		if asm.Verbose {
			log.Printf("asm: %v: %v", lineno, line)
		}

		var stmt *statement
		stmt, err = asm.scanLine(line, lineno)
		if err != nil {
			return
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	// Pass 2: encoding.
	prog = &Program{}
	resolved := make(map[string]uint16, len(asm.Label))
	var fixups []fixup
	var pending string
	for _, stmt := range stmts {
		lineno, line = stmt.lineNo, stmt.text

		if len(stmt.label) != 0 {
			addr := len(prog.Bytes)
			if addr >= MEMORY_SIZE {
				err = ErrProgramSize
				return
			}
			resolved[stmt.label] = uint16(addr)
			pending = stmt.label
		}

		if len(stmt.mnemonic) == 0 {
			continue
		}

		fixups, err = asm.encode(prog, stmt, pending, fixups)
		if err != nil {
			return
		}
		pending = ""
	}

	// Patch pass: resolve label references by offset.
	for _, fix := range fixups {
		lineno, line = fix.lineNo, fix.text

		addr, ok := resolved[fix.label]
		if !ok {
			err = fmt.Errorf("%w: %v", ErrLabelUnresolved, fix.label)
			return
		}
		if fix.width == 1 && addr > 0xff {
			err = fmt.Errorf("%w: %v is %04XH", ErrDataRange, fix.label, addr)
			return
		}

		for n := range fix.width {
			value := uint8(addr >> (8 * n))
			prog.Bytes[fix.offset+n] = value
			prog.Records[fix.offset+n].Code = value
		}
	}

	asm.Label = resolved
	prog.Labels = maps.Clone(resolved)

	if asm.Verbose {
		log.Printf("asm: %d bytes, %d labels", len(prog.Bytes), len(prog.Labels))
	}

	return
}

// parenEval does compile-time $(...) evaluations over the equates.
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int
		v, err = parseNumber(str)
		if err != nil {
			// Ignore equates that are not numbers.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrParseExpression(expr), err)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok || value < 0 {
		err = fmt.Errorf("%w: $(%v)", ErrDataRange, expr)
		return
	}
	return
}

// expand replaces every $(...) in a line by its decimal value.
func (asm *Assembler) expand(line string) (out string, err error) {
	out = exprPattern.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil && err == nil {
			err = _err
		}
		return strconv.FormatInt(value, 10)
	})
	return
}

// checkName verifies that a word may name a new label or equate.
func (asm *Assembler) checkName(name string) (err error) {
	if !namePattern.MatchString(name) {
		err = fmt.Errorf("%w: '%v'", ErrLabelInvalid, name)
		return
	}
	if reservedWord[name] || asm.Table.IsMnemonic(name) {
		err = fmt.Errorf("%w: %v", ErrLabelReserved, name)
		return
	}
	_, is_label := asm.Label[name]
	_, is_equate := asm.Equate[name]
	if is_label || is_equate {
		err = fmt.Errorf("%w: %v", ErrLabelDuplicate, name)
		return
	}
	return
}

// scanLine splits a line into its label, mnemonic and operands.
// Equate definitions are consumed, and return no statement.
func (asm *Assembler) scanLine(line string, lineno int) (stmt *statement, err error) {
	line, err = asm.expand(line)
	if err != nil {
		return
	}

	stmt = &statement{lineNo: lineno, text: line}

	body := line
	if head, tail, ok := strings.Cut(line, ":"); ok {
		label := strings.ToUpper(strings.TrimSpace(head))
		err = asm.checkName(label)
		if err != nil {
			return
		}
		asm.Label[label] = 0
		stmt.label = label
		body = strings.TrimSpace(tail)
	}

	words := strings.Fields(body)
	if len(words) == 0 {
		return
	}

	mnemonic := strings.ToUpper(words[0])
	if mnemonic == "EQU" {
		err = ErrEquateSyntax
		return
	}

	// NAME EQU VALUE
	if len(words) > 1 && strings.ToUpper(words[1]) == "EQU" {
		if len(words) != 3 || len(stmt.label) != 0 {
			err = ErrEquateSyntax
			return
		}
		err = asm.checkName(mnemonic)
		if err != nil {
			return
		}
		var value int
		value, err = asm.valueOf(words[2])
		if err != nil {
			return
		}
		asm.Equate[mnemonic] = strconv.Itoa(value)
		stmt = nil
		return
	}

	stmt.mnemonic = mnemonic

	rest := strings.TrimSpace(body[len(words[0]):])
	if len(rest) == 0 {
		return
	}
	for _, operand := range strings.Split(rest, ",") {
		operand = strings.ToUpper(strings.TrimSpace(operand))
		if len(operand) == 0 {
			err = ErrOperandEmpty
			return
		}
		stmt.operands = append(stmt.operands, operand)
	}

	return
}

// valueOf returns the value of an equate or numeric literal.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	word = strings.ToUpper(word)
	equate, ok := asm.Equate[word]
	if ok {
		word = equate
	}

	value, err = parseNumber(word)
	return
}

// parseNumber parses a decimal literal, or a literal with a radix
// suffix, ie '0FFH', '377O', '377Q', '11111111B', '255D'.
func parseNumber(word string) (value int, err error) {
	if len(word) == 0 || word[0] < '0' || word[0] > '9' {
		err = ErrParseNumber(word)
		return
	}

	base := 10
	digits := word
	if radix, ok := radixSuffix[word[len(word)-1]]; ok {
		base = radix
		digits = word[:len(word)-1]
	}

	v64, err := strconv.ParseInt(digits, base, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// classify normalizes an operand for the opcode table. Immediates and
// label references become TOKEN_DATA.
func (asm *Assembler) classify(mnemonic string, operand string) (token string, value int, ref string, err error) {
	if operandLiteral[operand] {
		token = operand
		return
	}

	if mnemonic == "RST" && len(operand) == 1 && operand[0] >= '0' && operand[0] <= '7' {
		token = operand
		return
	}

	if _, ok := asm.Label[operand]; ok {
		token = TOKEN_DATA
		ref = operand
		return
	}

	value, err = asm.valueOf(operand)
	if err == nil {
		token = TOKEN_DATA
		return
	}

	if namePattern.MatchString(operand) {
		err = fmt.Errorf("%w: %v", ErrLabelUndefined, operand)
	}

	return
}

// encode emits one instruction, returning the updated fixup list.
func (asm *Assembler) encode(prog *Program, stmt *statement, label string, fixups []fixup) (out []fixup, err error) {
	out = fixups

	tokens := []string{stmt.mnemonic}
	var value int
	var ref string
	for _, operand := range stmt.operands {
		var token string
		var v int
		var r string
		token, v, r, err = asm.classify(stmt.mnemonic, operand)
		if err != nil {
			return
		}
		if token == TOKEN_DATA {
			value, ref = v, r
		}
		tokens = append(tokens, token)
	}

	code, err := asm.Table.Encode(tokens...)
	if err != nil {
		err = fmt.Errorf("%w: %v", err, Pattern(tokens))
		return
	}

	pattern, err := asm.Table.Decode(code)
	if err != nil {
		return
	}

	width := pattern.Width()
	size := 1 + width
	addr := len(prog.Bytes)
	if addr+size > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	if len(ref) != 0 {
		out = append(out, fixup{
			offset: addr + 1,
			label:  ref,
			width:  width,
			lineNo: stmt.lineNo,
			text:   stmt.text,
		})
		value = 0
	} else if value >= 1<<(8*width) {
		err = fmt.Errorf("%w: %v", ErrDataRange, value)
		return
	}

	mnemonic := stmt.mnemonic
	if len(stmt.operands) != 0 {
		mnemonic += " " + strings.Join(stmt.operands, ",")
	}

	prog.Bytes = append(prog.Bytes, code)
	prog.Records = append(prog.Records, Record{
		Address:  uint16(addr),
		Label:    label,
		Mnemonic: mnemonic,
		Code:     code,
		Bytes:    size,
	})

	for n := range width {
		data := uint8(value >> (8 * n))
		prog.Bytes = append(prog.Bytes, data)
		prog.Records = append(prog.Records, Record{
			Address: uint16(addr + 1 + n),
			Code:    data,
		})
	}

	prog.Lines = append(prog.Lines, Line{
		LineNo:  stmt.lineNo,
		Address: uint16(addr),
		Size:    size,
		Text:    stmt.text,
	})

	return
}
