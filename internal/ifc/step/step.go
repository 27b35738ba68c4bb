package step

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ============================================================
// STEP (ISO 10303-21) Decoder
// ============================================================

// Ref ссылка на сущность (#n)
type Ref int64

// Enum перечисление (.ELEMENT., .T. и т.д.)
type Enum string

// Typed обернутое типизированное значение (IFCLENGTHMEASURE(2.5))
type Typed struct {
	Type  string
	Value any
}

// Record одна запись секции DATA: #id=TYPE(...);
// Args: string, float64, Ref, Enum, Typed, []any или nil ($ и *)
type Record struct {
	ID   int64
	Type string
	Args []any
}

// Model декодированный файл: заголовок + записи с индексом по типу
type Model struct {
	Schema  string
	records map[int64]*Record
	byType  map[string][]*Record
}

func (m *Model) Get(id int64) *Record {
	return m.records[id]
}

// ByType возвращает записи указанного типа в порядке следования в файле
func (m *Model) ByType(name string) []*Record {
	return m.byType[strings.ToUpper(name)]
}

func (m *Model) Len() int {
	return len(m.records)
}

// Deref разворачивает ссылку в запись (nil, если аргумент не ссылка)
func (m *Model) Deref(v any) *Record {
	if ref, ok := v.(Ref); ok {
		return m.Get(int64(ref))
	}
	return nil
}

// ============================================================
// Decoder
// ============================================================

// Decode читает весь поток и разбирает заголовок и секцию DATA.
// Некорректные записи пропускаются, чтобы один битый элемент
// не ронял разбор всего файла.
func Decode(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	s := &scanner{src: data}
	model := &Model{
		records: make(map[int64]*Record),
		byType:  make(map[string][]*Record),
	}

	if !strings.HasPrefix(strings.TrimSpace(string(data)), "ISO-10303-21") {
		return nil, fmt.Errorf("not a STEP file")
	}

	for {
		stmt, ok := s.nextStatement()
		if !ok {
			break
		}
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		if strings.HasPrefix(stmt, "#") {
			rec, err := parseRecord(stmt)
			if err != nil {
				continue // битая запись
			}
			model.records[rec.ID] = rec
			model.byType[rec.Type] = append(model.byType[rec.Type], rec)
			continue
		}

		// Заголовочные инструкции: FILE_SCHEMA(('IFC4'))
		if strings.HasPrefix(strings.ToUpper(stmt), "FILE_SCHEMA") {
			if schema := parseFileSchema(stmt); schema != "" {
				model.Schema = schema
			}
		}
	}

	if len(model.records) == 0 {
		return nil, fmt.Errorf("empty DATA section")
	}

	return model, nil
}

// ============================================================
// Statement scanner
// ============================================================

type scanner struct {
	src []byte
	pos int
}

// nextStatement вырезает следующую инструкцию до ';' верхнего уровня.
// Учитывает строки в кавычках и комментарии /* */.
func (s *scanner) nextStatement() (string, bool) {
	var b strings.Builder
	inString := false

	for s.pos < len(s.src) {
		ch := s.src[s.pos]

		if inString {
			b.WriteByte(ch)
			s.pos++
			if ch == '\'' {
				// '' внутри строки — экранированная кавычка
				if s.pos < len(s.src) && s.src[s.pos] == '\'' {
					b.WriteByte('\'')
					s.pos++
					continue
				}
				inString = false
			}
			continue
		}

		switch ch {
		case '\'':
			inString = true
			b.WriteByte(ch)
			s.pos++
		case '/':
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '*' {
				s.skipComment()
				continue
			}
			b.WriteByte(ch)
			s.pos++
		case ';':
			s.pos++
			return b.String(), true
		case '\n', '\r', '\t':
			b.WriteByte(' ')
			s.pos++
		default:
			b.WriteByte(ch)
			s.pos++
		}
	}

	if b.Len() > 0 {
		return b.String(), true
	}
	return "", false
}

func (s *scanner) skipComment() {
	s.pos += 2
	for s.pos+1 < len(s.src) {
		if s.src[s.pos] == '*' && s.src[s.pos+1] == '/' {
			s.pos += 2
			return
		}
		s.pos++
	}
	s.pos = len(s.src)
}

// ============================================================
// Record parser
// ============================================================

// parseRecord разбирает "#12=IFCWALL('guid',#5,...)"
func parseRecord(stmt string) (*Record, error) {
	eq := strings.IndexByte(stmt, '=')
	if eq < 0 {
		return nil, fmt.Errorf("no '=' in record")
	}

	idPart := strings.TrimSpace(stmt[:eq])
	id, err := strconv.ParseInt(strings.TrimPrefix(idPart, "#"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("record id: %w", err)
	}

	body := strings.TrimSpace(stmt[eq+1:])
	open := strings.IndexByte(body, '(')
	if open < 0 || !strings.HasSuffix(body, ")") {
		return nil, fmt.Errorf("no argument list")
	}

	typeName := strings.ToUpper(strings.TrimSpace(body[:open]))
	if typeName == "" {
		return nil, fmt.Errorf("empty type name")
	}

	p := &valueParser{src: body[open+1 : len(body)-1]}
	args, err := p.parseList()
	if err != nil {
		return nil, err
	}

	return &Record{ID: id, Type: typeName, Args: args}, nil
}

type valueParser struct {
	src string
	pos int
}

func (p *valueParser) parseList() ([]any, error) {
	var values []any

	p.skipSpace()
	for p.pos < len(p.src) {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)

		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		break
	}

	return values, nil
}

func (p *valueParser) parseValue() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of arguments")
	}

	switch ch := p.src[p.pos]; {
	case ch == '$' || ch == '*':
		p.pos++
		return nil, nil

	case ch == '#':
		p.pos++
		start := p.pos
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		id, err := strconv.ParseInt(p.src[start:p.pos], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("entity ref: %w", err)
		}
		return Ref(id), nil

	case ch == '\'':
		return p.parseString()

	case ch == '.':
		// .ENUM.
		end := strings.IndexByte(p.src[p.pos+1:], '.')
		if end < 0 {
			return nil, fmt.Errorf("unterminated enum")
		}
		val := Enum(p.src[p.pos+1 : p.pos+1+end])
		p.pos += end + 2
		return val, nil

	case ch == '(':
		p.pos++
		inner := p.sliceBalanced()
		sub := &valueParser{src: inner}
		return sub.parseList()

	case isDigit(ch) || ch == '-' || ch == '+':
		return p.parseNumber()

	default:
		// IDENT(...) — типизированное значение
		start := p.pos
		for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
			p.pos++
		}
		name := strings.ToUpper(p.src[start:p.pos])
		if name == "" {
			return nil, fmt.Errorf("unexpected character %q", ch)
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '(' {
			return nil, fmt.Errorf("typed value %s without arguments", name)
		}
		p.pos++
		inner := p.sliceBalanced()
		sub := &valueParser{src: inner}
		args, err := sub.parseList()
		if err != nil {
			return nil, err
		}
		var val any
		if len(args) > 0 {
			val = args[0]
		}
		return Typed{Type: name, Value: val}, nil
	}
}

func (p *valueParser) parseString() (any, error) {
	p.pos++ // открывающая кавычка
	var b strings.Builder
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == '\'' {
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
				b.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(ch)
		p.pos++
	}
	return nil, fmt.Errorf("unterminated string")
}

func (p *valueParser) parseNumber() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if isDigit(ch) || ch == '.' || ch == '-' || ch == '+' || ch == 'e' || ch == 'E' {
			p.pos++
			continue
		}
		break
	}
	val, err := strconv.ParseFloat(strings.TrimSuffix(p.src[start:p.pos], "."), 64)
	if err != nil {
		return nil, fmt.Errorf("number: %w", err)
	}
	return val, nil
}

// sliceBalanced вырезает содержимое до парной закрывающей скобки
// (открывающая уже съедена), учитывая вложенность и строки
func (p *valueParser) sliceBalanced() string {
	depth := 1
	start := p.pos
	inString := false

	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if inString {
			if ch == '\'' {
				if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\'' {
					p.pos++
				} else {
					inString = false
				}
			}
			p.pos++
			continue
		}
		switch ch {
		case '\'':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				inner := p.src[start:p.pos]
				p.pos++
				return inner
			}
		}
		p.pos++
	}

	return p.src[start:]
}

func (p *valueParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdent(ch byte) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9' || ch == '_'
}

// ============================================================
// Header
// ============================================================

// parseFileSchema достает имя схемы из FILE_SCHEMA(('IFC4'))
func parseFileSchema(stmt string) string {
	body := strings.TrimSpace(stmt)
	open := strings.IndexByte(body, '(')
	if open < 0 || !strings.HasSuffix(body, ")") {
		return ""
	}
	p := &valueParser{src: body[open+1 : len(body)-1]}
	args, err := p.parseList()
	if err != nil || len(args) == 0 {
		return ""
	}
	if list, ok := args[0].([]any); ok && len(list) > 0 {
		if s, ok := list[0].(string); ok {
			return s
		}
	}
	return ""
}

// ============================================================
// Attribute helpers
// ============================================================

// Attr возвращает аргумент по индексу (nil при выходе за границы)
func (r *Record) Attr(i int) any {
	if i < 0 || i >= len(r.Args) {
		return nil
	}
	return r.Args[i]
}

// AttrString строковый аргумент или пустая строка
func (r *Record) AttrString(i int) string {
	if s, ok := r.Attr(i).(string); ok {
		return s
	}
	return ""
}

// AttrFloat числовой аргумент, при необходимости разворачивает Typed
func (r *Record) AttrFloat(i int) (float64, bool) {
	return NumericValue(r.Attr(i))
}

// AttrList аргумент-список или nil
func (r *Record) AttrList(i int) []any {
	if l, ok := r.Attr(i).([]any); ok {
		return l
	}
	return nil
}

// NumericValue приводит значение к float64, разворачивая Typed-обертки
func NumericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case Typed:
		return NumericValue(t.Value)
	default:
		return 0, false
	}
}
