package i18n

import "sync"

// Selector is the current site language. Components subscribe to it
// explicitly instead of listening for a global broadcast.
type Selector struct {
	mu   sync.RWMutex
	lang Language
	subs map[int]func(Language)
	next int
}

// NewSelector creates a selector. Unsupported initial values fall back to
// Default.
func NewSelector(initial Language) *Selector {
	if _, ok := Parse(string(initial)); !ok {
		initial = Default
	}
	return &Selector{lang: initial, subs: make(map[int]func(Language))}
}

// Get returns the active language.
func (s *Selector) Get() Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// Set switches the active language and notifies subscribers. It reports
// false for unsupported languages and does nothing when the language is
// unchanged.
func (s *Selector) Set(lang Language) bool {
	if _, ok := Parse(string(lang)); !ok {
		return false
	}

	s.mu.Lock()
	if s.lang == lang {
		s.mu.Unlock()
		return true
	}
	s.lang = lang
	subs := make([]func(Language), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(lang)
	}
	return true
}

// Subscribe registers fn for language changes. The returned func removes
// the subscription and is safe to call more than once.
func (s *Selector) Subscribe(fn func(Language)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Selector) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
