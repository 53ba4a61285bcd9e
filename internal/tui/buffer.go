package tui

// buffer is a single-cursor rune buffer for inline text and source editing.
type buffer struct {
	runes []rune
	pos   int
}

func newBuffer(s string) buffer {
	r := []rune(s)
	return buffer{runes: r, pos: len(r)}
}

func (b *buffer) String() string { return string(b.runes) }

func (b *buffer) insert(r ...rune) {
	tail := append([]rune(nil), b.runes[b.pos:]...)
	b.runes = append(append(b.runes[:b.pos], r...), tail...)
	b.pos += len(r)
}

func (b *buffer) backspace() {
	if b.pos == 0 {
		return
	}
	b.runes = append(b.runes[:b.pos-1], b.runes[b.pos:]...)
	b.pos--
}

func (b *buffer) del() {
	if b.pos >= len(b.runes) {
		return
	}
	b.runes = append(b.runes[:b.pos], b.runes[b.pos+1:]...)
}

func (b *buffer) left() {
	if b.pos > 0 {
		b.pos--
	}
}

func (b *buffer) right() {
	if b.pos < len(b.runes) {
		b.pos++
	}
}

// home and end move within the current line.
func (b *buffer) home() {
	for b.pos > 0 && b.runes[b.pos-1] != '\n' {
		b.pos--
	}
}

func (b *buffer) end() {
	for b.pos < len(b.runes) && b.runes[b.pos] != '\n' {
		b.pos++
	}
}

// render draws the buffer with the cursor cell highlighted.
func (b *buffer) render() string {
	before := string(b.runes[:b.pos])
	if b.pos >= len(b.runes) {
		return before + styleCursor.Render(" ")
	}
	at := b.runes[b.pos]
	after := string(b.runes[b.pos+1:])
	if at == '\n' {
		return before + styleCursor.Render(" ") + "\n" + after
	}
	return before + styleCursor.Render(string(at)) + after
}
