package questions

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vivalab/interview-agent/internal/models"
)

const defaultQuestionsPath = "configs/questions.yaml"

// Catalog holds the loaded interview tracks. A document may be either a
// plain question array (stored under DefaultTrack) or a map of named tracks.
// Generated tracks get added at runtime, hence the lock.
type Catalog struct {
	mu     sync.RWMutex
	path   string
	Tracks map[string][]models.Question
}

const DefaultTrack = "default"

// Load reads the question document. Operators hot-edit the file between
// sessions, so callers reload on demand rather than caching forever.
func Load(path string) (*Catalog, error) {
	if path == "" {
		path = os.Getenv("QUESTIONS_CONFIG_PATH")
	}
	if path == "" {
		path = defaultQuestionsPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file %s: %w", path, err)
	}

	catalog, err := Parse(data)
	if err != nil {
		return nil, err
	}
	catalog.path = path
	return catalog, nil
}

// Reload re-reads the backing file and swaps the track map in place.
// Tracks added at runtime are replaced along with everything else; the file
// is the source of truth. Only file-backed catalogs can reload.
func (c *Catalog) Reload() error {
	c.mu.RLock()
	path := c.path
	c.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("catalog has no backing file")
	}

	fresh, err := Load(path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.Tracks = fresh.Tracks
	c.mu.Unlock()
	return nil
}

// Parse accepts either shape of the document. YAML parsing also covers JSON
// documents, which is how generated question sets round-trip.
func Parse(data []byte) (*Catalog, error) {
	var plain []models.Question
	if err := yaml.Unmarshal(data, &plain); err == nil && len(plain) > 0 {
		catalog := &Catalog{Tracks: map[string][]models.Question{DefaultTrack: plain}}
		return catalog, catalog.validate()
	}

	var tracks map[string][]models.Question
	if err := yaml.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("questions document is neither an array nor named tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("questions document is empty")
	}

	catalog := &Catalog{Tracks: tracks}
	return catalog, catalog.validate()
}

// Track returns the questions for a named track; empty name means default.
// With a single loaded track, that track serves as the default.
func (c *Catalog) Track(name string) ([]models.Question, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if name == "" {
		name = DefaultTrack
	}
	if qs, ok := c.Tracks[name]; ok {
		return qs, nil
	}
	if name == DefaultTrack && len(c.Tracks) == 1 {
		for _, qs := range c.Tracks {
			return qs, nil
		}
	}
	return nil, fmt.Errorf("unknown track %q", name)
}

// AddTrack registers a generated question set under the given name,
// replacing any previous set with that name.
func (c *Catalog) AddTrack(name string, qs []models.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Tracks == nil {
		c.Tracks = make(map[string][]models.Question)
	}
	c.Tracks[name] = qs
}

func (c *Catalog) validate() error {
	for track, qs := range c.Tracks {
		if len(qs) == 0 {
			return fmt.Errorf("track %q has no questions", track)
		}
		for i, q := range qs {
			if q.ID != i+1 {
				return fmt.Errorf("track %q: question %d has id %d, want ordinal %d", track, i, q.ID, i+1)
			}
			if strings.TrimSpace(q.Text) == "" {
				return fmt.Errorf("track %q: question %d has empty text", track, q.ID)
			}
			if len(q.Rubric) == 0 {
				return fmt.Errorf("track %q: question %d has no rubric", track, q.ID)
			}
			for _, item := range q.Rubric {
				if item.Name == "" {
					return fmt.Errorf("track %q: question %d has a rubric item without a name", track, q.ID)
				}
				if item.MaxScore <= 0 {
					return fmt.Errorf("track %q: question %d rubric item %q has non-positive max score",
						track, q.ID, item.Name)
				}
			}
		}
	}
	return nil
}
