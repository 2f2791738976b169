package llm

// ChunkKind tags a piece of model output.
type ChunkKind int

const (
	// Complete carries the whole answer in one piece.
	Complete ChunkKind = iota
	// Fragment carries an incremental piece of a streamed answer.
	Fragment
)

func (k ChunkKind) String() string {
	switch k {
	case Complete:
		return "complete"
	case Fragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// Chunk is one element of a model response.
type Chunk struct {
	Kind ChunkKind
	Text string
}

// Stream is a lazy, finite, non-restartable sequence of chunks.
//
//	for stream.Next() {
//		chunk := stream.Current()
//	}
//	err := stream.Err()
type Stream interface {
	Next() bool
	Current() Chunk
	Err() error
	Close() error
}

// NewCompleteStream returns a stream holding a single Complete chunk.
func NewCompleteStream(text string) Stream {
	return &completeStream{text: text}
}

type completeStream struct {
	text     string
	consumed bool
	current  bool
}

func (s *completeStream) Next() bool {
	if s.consumed {
		s.current = false
		return false
	}
	s.consumed = true
	s.current = true
	return true
}

func (s *completeStream) Current() Chunk {
	if !s.current {
		return Chunk{}
	}
	return Chunk{Kind: Complete, Text: s.text}
}

func (s *completeStream) Err() error { return nil }

func (s *completeStream) Close() error {
	s.consumed = true
	s.current = false
	return nil
}

// NewFragmentStream returns a stream over already-received fragments.
func NewFragmentStream(fragments ...string) Stream {
	return &fragmentStream{fragments: fragments, pos: -1}
}

type fragmentStream struct {
	fragments []string
	pos       int
	closed    bool
}

func (s *fragmentStream) Next() bool {
	if s.closed || s.pos+1 >= len(s.fragments) {
		s.closed = true
		return false
	}
	s.pos++
	return true
}

func (s *fragmentStream) Current() Chunk {
	if s.closed || s.pos < 0 {
		return Chunk{}
	}
	return Chunk{Kind: Fragment, Text: s.fragments[s.pos]}
}

func (s *fragmentStream) Err() error { return nil }

func (s *fragmentStream) Close() error {
	s.closed = true
	return nil
}
