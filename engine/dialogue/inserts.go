package dialogue

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/nathoo/storycore/types"
)

// DefaultLanguage is used for unknown language codes.
const DefaultLanguage = "de"

//go:embed catalog/*.yaml
var embeddedCatalogFS embed.FS

var languageTags = map[string]language.Tag{
	"de": language.German,
	"en": language.English,
}

// Band maps a value range to a descriptive word. A nil Min matches
// everything and ends the list.
type Band struct {
	Min  *float64 `yaml:"min"`
	Text string   `yaml:"text"`
}

// Catalog is the text material of one language.
type Catalog struct {
	Lang      string              `yaml:"lang"`
	Bands     map[string][]Band   `yaml:"bands"`
	Moods     map[string]string   `yaml:"moods"`
	Reactions map[string][]string `yaml:"reactions"`
}

// InsertContext carries the values placeholders resolve to.
type InsertContext struct {
	Budget    int
	Risk      float64
	Attention float64
	Morale    int
	Mood      types.Mood
	Phase     types.StoryPhase
	NPCName   string
}

// ContextFor builds an insert context from the running game. npc may be nil.
func ContextFor(s *types.GameState, npc *types.NPCState) InsertContext {
	ctx := InsertContext{
		Budget:    s.Resources.Budget,
		Risk:      s.Resources.Risk,
		Attention: s.Resources.Attention,
		Phase:     s.Phase,
	}
	if npc != nil {
		ctx.Morale = npc.Morale
		ctx.Mood = npc.CurrentMood
		ctx.NPCName = npc.Name
	}
	return ctx
}

// Loader resolves placeholders against per-language catalogs.
type Loader struct {
	catalogs map[string]*Catalog
}

// LoadEmbedded loads the catalogs shipped with the package.
func LoadEmbedded() (*Loader, error) {
	return LoadFS(embeddedCatalogFS, "catalog")
}

// LoadFS reads every dir/*.yaml catalog from fsys.
func LoadFS(fsys fs.FS, dir string) (*Loader, error) {
	paths, err := fs.Glob(fsys, dir+"/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob dialogue catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no dialogue catalogs in %s", dir)
	}
	sort.Strings(paths)

	l := &Loader{catalogs: map[string]*Catalog{}}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		cat, err := ParseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		if _, dup := l.catalogs[cat.Lang]; dup {
			return nil, fmt.Errorf("duplicate catalog for language %q", cat.Lang)
		}
		l.catalogs[cat.Lang] = cat
	}
	if _, ok := l.catalogs[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("missing %q catalog", DefaultLanguage)
	}
	return l, nil
}

// ParseCatalog decodes one language catalog. Unknown keys are rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cat Catalog
	if err := dec.Decode(&cat); err != nil {
		return nil, err
	}
	if cat.Lang == "" {
		return nil, fmt.Errorf("catalog has no lang")
	}
	return &cat, nil
}

// Languages returns the loaded language codes, sorted.
func (l *Loader) Languages() []string {
	out := make([]string, 0, len(l.catalogs))
	for k := range l.catalogs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ResolveInserts replaces the known placeholders in text. Unknown
// placeholders stay as they are.
func (l *Loader) ResolveInserts(text string, ctx InsertContext, lang string) string {
	if !strings.Contains(text, "{") {
		return text
	}
	lang = l.language(lang)
	cat := l.catalogs[lang]
	p := message.NewPrinter(languageTags[lang])

	mood := string(ctx.Mood)
	if m, ok := cat.Moods[mood]; ok {
		mood = m
	}
	r := strings.NewReplacer(
		"{budget}", p.Sprintf("%d", ctx.Budget),
		"{budget_state}", cat.band("budget_state", float64(ctx.Budget)),
		"{risk}", p.Sprintf("%.0f", ctx.Risk),
		"{risk_state}", cat.band("risk_state", ctx.Risk),
		"{attention}", p.Sprintf("%.0f", ctx.Attention),
		"{attention_state}", cat.band("attention_state", ctx.Attention),
		"{morale}", p.Sprintf("%d", ctx.Morale),
		"{mood}", mood,
		"{phase}", p.Sprintf("%d", ctx.Phase.Number),
		"{month}", p.Sprintf("%d", ctx.Phase.Month),
		"{year}", p.Sprintf("%d", ctx.Phase.Year),
		"{npc_name}", ctx.NPCName,
	)
	return r.Replace(text)
}

// MoodName returns the localized name of a mood.
func (l *Loader) MoodName(mood types.Mood, lang string) string {
	if m, ok := l.catalogs[l.language(lang)].Moods[string(mood)]; ok {
		return m
	}
	return string(mood)
}

// Reaction picks the mood-keyed flavor line for an NPC. The choice
// rotates with the phase so no random draw is spent.
func (l *Loader) Reaction(ctx InsertContext, lang string) string {
	lines := l.catalogs[l.language(lang)].Reactions[string(ctx.Mood)]
	if len(lines) == 0 {
		return ""
	}
	return l.ResolveInserts(lines[ctx.Phase.Number%len(lines)], ctx, lang)
}

func (l *Loader) language(lang string) string {
	if _, ok := l.catalogs[lang]; ok {
		if _, tagged := languageTags[lang]; tagged {
			return lang
		}
	}
	return DefaultLanguage
}

func (c *Catalog) band(key string, v float64) string {
	for _, b := range c.Bands[key] {
		if b.Min == nil || v >= *b.Min {
			return b.Text
		}
	}
	return ""
}
