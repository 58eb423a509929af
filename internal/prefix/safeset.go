package prefix

import (
	"bufio"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

// SafeSet is a mutex-protected map[string]interface{}, ported from the
// teacher's safeset.go. It backs the global unique-prefix merge (S4).
type SafeSet struct {
	mux sync.Mutex
	set map[string]interface{}
}

func NewSafeSet() *SafeSet {
	return &SafeSet{set: make(map[string]interface{})}
}

func (s *SafeSet) Add(key string, value interface{}) {
	s.mux.Lock()
	s.set[key] = value
	s.mux.Unlock()
}

func (s *SafeSet) UnsafeAdd(key string, value interface{}) {
	s.set[key] = value
}

func (s *SafeSet) Contains(key string) bool {
	s.mux.Lock()
	_, ok := s.set[key]
	s.mux.Unlock()
	return ok
}

func (s *SafeSet) Get(key string) (interface{}, bool) {
	s.mux.Lock()
	v, ok := s.set[key]
	s.mux.Unlock()
	return v, ok
}

func (s *SafeSet) Len() int {
	s.mux.Lock()
	n := len(s.set)
	s.mux.Unlock()
	return n
}

// Keys returns a snapshot of the set's keys. Order is unspecified —
// callers that need first-seen order must track it separately (see
// prefix.Registry).
func (s *SafeSet) Keys() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	keys := make([]string, 0, len(s.set))
	for k := range s.set {
		keys = append(keys, k)
	}
	return keys
}

// WriteToFile dumps one "key\n" line per entry, mirroring the
// teacher's write_to_file for the struct{}-valued case only, not the
// polymorphic key/value dump the original supported for its simulator
// datasets.
func (s *SafeSet) WriteToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("write_to_file")
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	s.mux.Lock()
	for key := range s.set {
		if _, err := w.WriteString(key + "\n"); err != nil {
			s.mux.Unlock()
			return err
		}
	}
	s.mux.Unlock()
	return w.Flush()
}
