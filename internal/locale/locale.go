// Package locale detects the UI language and loads caption catalogs used to
// translate menu captions.
package locale

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Fallback is used when no language can be determined.
const Fallback = "en"

// Detect resolves a locale setting to a base language code.
// "auto" or "" consult LC_ALL, LC_MESSAGES and LANG.
func Detect(setting string) string {
	if setting != "" && setting != "auto" {
		if base, ok := baseOf(setting); ok {
			return base
		}
		return Fallback
	}

	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if base, ok := baseOf(os.Getenv(env)); ok {
			return base
		}
	}
	return Fallback
}

// baseOf parses POSIX ("ru_RU.UTF-8") or BCP 47 ("pt-BR") forms.
func baseOf(s string) (string, bool) {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" || s == "C" || s == "POSIX" {
		return "", false
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	return base.String(), true
}

// Catalog maps scope -> source caption -> translated caption.
// Scopes name a menu family such as "MainMenu" or "TextContextMenu".
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]map[string]string)}
}

// Add records one translation.
func (c *Catalog) Add(scope, source, translated string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.entries[scope]
	if m == nil {
		m = make(map[string]string)
		c.entries[scope] = m
	}
	m[source] = translated
}

// Merge copies every entry of other into c; other wins on collisions.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil || other == c {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()

	for scope, m := range other.entries {
		for src, dst := range m {
			c.Add(scope, src, dst)
		}
	}
}

// Translate returns the translation of text in scope, or text itself.
func (c *Catalog) Translate(scope, text string) string {
	if c == nil {
		return text
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if t, ok := c.entries[scope][text]; ok && t != "" {
		return t
	}
	return text
}

// Len returns the number of translations.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, m := range c.entries {
		n += len(m)
	}
	return n
}

// catalogExts are the recognised catalog file extensions, in lookup order.
var catalogExts = []string{".vt-locale", ".json", ".yaml", ".yml"}

// LoadDir loads the catalog in dir that best matches lang.
// Files are named <tag><ext>, e.g. "ru.json" or "pt-BR.yaml".
// A directory without a usable file yields an empty catalog.
func LoadDir(dir, lang string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewCatalog(), nil
		}
		return nil, err
	}

	var tags []language.Tag
	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !knownExt(ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
		if err != nil {
			continue
		}
		if _, dup := files[tag.String()]; dup {
			continue
		}
		tags = append(tags, tag)
		files[tag.String()] = filepath.Join(dir, e.Name())
	}
	if len(tags) == 0 {
		return NewCatalog(), nil
	}

	want, err := language.Parse(lang)
	if err != nil {
		return NewCatalog(), nil
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		return NewCatalog(), nil
	}
	return LoadFile(files[tags[idx].String()])
}

func knownExt(ext string) bool {
	for _, e := range catalogExts {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadFile reads a catalog file. JSON and ".vt-locale" files are JSON;
// ".yaml"/".yml" files are YAML. Both have the shape {scope: {source: target}}.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]string
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing locale file %s: %w", path, err)
	}

	c := NewCatalog()
	for scope, m := range raw {
		for src, dst := range m {
			c.Add(scope, src, dst)
		}
	}
	return c, nil
}
