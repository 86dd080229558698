// Package seed loads the initial knowledge base from markdown files.
//
// Each seed file is a markdown document whose YAML frontmatter carries the
// question and optional tags; the body is the answer. Frontmatter is
// validated against a JSON Schema, and malformed files are skipped with a
// warning rather than failing the whole seed.
package seed

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/tinkerloft/frontdesk/internal/model"
	"github.com/tinkerloft/frontdesk/internal/store"
)

//go:embed defaults/*.md
var defaultsFS embed.FS

// entrySchema constrains seed frontmatter: a non-empty question, and
// optionally a list of string tags.
const entrySchema = `{
  "type": "object",
  "required": ["question"],
  "properties": {
    "question": {"type": "string", "minLength": 1},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

type entryMeta struct {
	Question string   `yaml:"question"`
	Tags     []string `yaml:"tags"`
}

// Seeder populates an empty knowledge store.
type Seeder struct {
	knowledge *store.KnowledgeStore
	schema    *jsonschema.Schema
}

// New creates a Seeder for the given knowledge store.
func New(knowledge *store.KnowledgeStore) (*Seeder, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("seed-entry.json", strings.NewReader(entrySchema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile("seed-entry.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Seeder{knowledge: knowledge, schema: schema}, nil
}

// Run seeds the knowledge store if and only if it is empty. Entries come
// from dir when given, otherwise from the built-in defaults. Returns the
// number of entries added.
func (s *Seeder) Run(ctx context.Context, dir string) (int, error) {
	n, err := s.knowledge.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting knowledge entries: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "knowledge base already populated, skipping seed", "entries", n)
		return 0, nil
	}

	var fsys fs.FS
	var root string
	if dir != "" {
		fsys = os.DirFS(dir)
		root = "."
	} else {
		fsys = defaultsFS
		root = "defaults"
	}

	entries, err := s.loadDir(ctx, fsys, root)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, e := range entries {
		if err := s.knowledge.Add(ctx, e); err != nil {
			return added, fmt.Errorf("adding seed entry %q: %w", e.Question, err)
		}
		added++
	}
	slog.InfoContext(ctx, "seeded knowledge base", "entries", added)
	return added, nil
}

// loadDir parses every .md file under root, skipping malformed files.
// Files are processed in name order so seeding is deterministic.
func (s *Seeder) loadDir(ctx context.Context, fsys fs.FS, root string) ([]model.KnowledgeEntry, error) {
	names, err := fs.Glob(fsys, path.Join(root, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing seed files: %w", err)
	}
	sort.Strings(names)

	var entries []model.KnowledgeEntry
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading seed file %s: %w", name, err)
		}
		entry, err := s.parse(data)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed seed file", "file", name, "err", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parse decodes one seed document into a knowledge entry.
func (s *Seeder) parse(data []byte) (model.KnowledgeEntry, error) {
	var fm map[string]any
	yamlFormat := frontmatter.NewFormat("---", "---", yaml.Unmarshal)
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm, yamlFormat)
	if err != nil {
		return model.KnowledgeEntry{}, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if fm == nil {
		return model.KnowledgeEntry{}, fmt.Errorf("frontmatter is required")
	}

	if err := s.schema.Validate(fm); err != nil {
		return model.KnowledgeEntry{}, fmt.Errorf("validating frontmatter: %w", err)
	}

	var meta entryMeta
	raw, err := yaml.Marshal(fm)
	if err != nil {
		return model.KnowledgeEntry{}, fmt.Errorf("re-encoding frontmatter: %w", err)
	}
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return model.KnowledgeEntry{}, fmt.Errorf("decoding frontmatter: %w", err)
	}

	answer := strings.TrimSpace(string(body))
	if answer == "" {
		return model.KnowledgeEntry{}, fmt.Errorf("seed entry has no answer body")
	}

	return model.NewKnowledgeEntry(meta.Question, answer, model.KnowledgeSourceManual, meta.Tags), nil
}
