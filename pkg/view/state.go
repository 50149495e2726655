package view

// State is the per-request render state. It must not be shared between
// requests; nested renders push a frame on it and pop it on return.
type State struct {
	// Format is the active format, set by content negotiation or by the
	// handler. Empty means html.
	Format Format

	// Locale is the active locale. Empty means locale-agnostic only.
	Locale Locale

	// Scope is the layout scope of the route being served.
	Scope *LayoutScope

	frames []frame
}

// frame holds the candidate lists of one render call.
type frame struct {
	formats []Format
	locales []Locale
	roots   []Root
}

// NewState creates a state with the html format and no locale.
func NewState() *State {
	return &State{Format: HTML}
}

// Depth returns the number of renders in progress.
func (s *State) Depth() int {
	return len(s.frames)
}

func (s *State) push(f frame) {
	s.frames = append(s.frames, f)
}

func (s *State) pop() {
	if n := len(s.frames); n > 0 {
		s.frames[n-1] = frame{}
		s.frames = s.frames[:n-1]
	}
}

func (s *State) current() (frame, bool) {
	if n := len(s.frames); n > 0 {
		return s.frames[n-1], true
	}
	return frame{}, false
}
