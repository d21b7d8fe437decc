package session

// Surface is the rich-text editing surface collaborator. The controller
// treats its content as an opaque string: it seeds the surface once per
// successful load and reads it back on content edits, but never parses it.
type Surface interface {
	SerializedContent() string
	SetSerializedContent(string)
}

// BufferSurface is a trivial in-memory Surface, used by the terminal client
// and by tests. A rendering frontend would supply its own implementation.
type BufferSurface struct {
	content string
}

func (b *BufferSurface) SerializedContent() string     { return b.content }
func (b *BufferSurface) SetSerializedContent(s string) { b.content = s }
