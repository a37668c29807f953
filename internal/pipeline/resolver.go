package pipeline

import (
	"context"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/turtacn/ArchIntel/internal/domain/entity"
	"github.com/turtacn/ArchIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ArchIntel/internal/store"
)

// organizationalSuffixes are stripped when generating office name variants.
var organizationalSuffixes = []string{
	"architects",
	"architecture",
	"architect",
	"associates",
	"llc",
	"ltd",
	"inc",
	"studio",
	"design",
}

// Match is a resolved identity: an existing document plus the similarity of
// the name that matched it.
type Match struct {
	Document   store.Document
	Similarity float64
}

// Resolver finds an existing entity for a candidate, or decides none
// exists.  Search is strictly scoped per kind; an office lookup can never
// return a project or regulation.
type Resolver struct {
	store     store.DocumentStore
	threshold float64
	logger    logging.Logger
}

// NewResolver builds the identity resolution stage.  threshold <= 0
// defaults to 0.7.
func NewResolver(st store.DocumentStore, threshold float64, log logging.Logger) *Resolver {
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Resolver{store: st, threshold: threshold, logger: log.Named("pipeline.resolver")}
}

// CollectionFor maps an entity kind to its store collection.
func CollectionFor(kind entity.Kind) string {
	switch kind {
	case entity.KindOffice:
		return store.CollectionOffices
	case entity.KindProject:
		return store.CollectionProjects
	case entity.KindRegulation:
		return store.CollectionRegulations
	}
	return ""
}

// FindMatch resolves a candidate against the store.  A nil match with a nil
// error means no existing entity matched and the candidate should be
// created.
func (r *Resolver) FindMatch(ctx context.Context, c *entity.Candidate) (*Match, error) {
	collection := CollectionFor(c.Kind)
	name := c.Name()
	nameField := c.NameField()

	// Exact pass on the canonical name.
	if m, err := r.exact(ctx, collection, nameField, name); err != nil || m != nil {
		return m, err
	}

	// Offices: retry exact on a differing official name.
	if c.Kind == entity.KindOffice {
		if official := c.OfficialName(); official != "" && !strings.EqualFold(official, name) {
			if m, err := r.exact(ctx, collection, "officialName", official); err != nil || m != nil {
				return m, err
			}
		}
	}

	// Fuzzy pass over the whole collection.
	docs, err := r.store.Query(ctx, collection)
	if err != nil {
		return nil, err
	}
	if m := r.bestFuzzy(docs, nameField, name); m != nil {
		return m, nil
	}

	// Offices: fuzzy pass per name variant, first hit wins.
	if c.Kind == entity.KindOffice {
		for _, variant := range officeNameVariants(name) {
			if m := r.bestFuzzy(docs, nameField, variant); m != nil {
				r.logger.Debug("office matched via name variant",
					logging.String("name", name),
					logging.String("variant", variant),
				)
				return m, nil
			}
		}
	}
	return nil, nil
}

func (r *Resolver) exact(ctx context.Context, collection, field, value string) (*Match, error) {
	docs, err := r.store.Query(ctx, collection, store.EqFold(field, value))
	if err != nil {
		return nil, err
	}
	if len(docs) == 1 {
		return &Match{Document: docs[0], Similarity: 1.0}, nil
	}
	return nil, nil
}

func (r *Resolver) bestFuzzy(docs []store.Document, nameField, name string) *Match {
	var best *Match
	for i := range docs {
		existing, _ := docs[i].Body[nameField].(string)
		if existing == "" {
			continue
		}
		sim := NameSimilarity(name, existing)
		if sim <= r.threshold {
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &Match{Document: docs[i], Similarity: sim}
		}
	}
	return best
}

// NameSimilarity is the normalized, case-insensitive Levenshtein similarity
// 1 - distance/max(len).
func NameSimilarity(a, b string) float64 {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" && lb == "" {
		return 0
	}
	ra := []rune(la)
	rb := []rune(lb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	dist := fuzzy.LevenshteinDistance(la, lb)
	return 1 - float64(dist)/float64(maxLen)
}

// officeNameVariants generates alternative spellings of an office name:
// organizational suffixes stripped, initials of multi-word names, and the
// Architecture/Architects interchange.
func officeNameVariants(name string) []string {
	seen := map[string]struct{}{strings.ToLower(name): {}}
	var variants []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}

	// Suffix stripping.
	stripped := name
	for _, suffix := range organizationalSuffixes {
		lower := strings.ToLower(stripped)
		if strings.HasSuffix(lower, " "+suffix) {
			stripped = strings.TrimSpace(stripped[:len(stripped)-len(suffix)-1])
			stripped = strings.TrimRight(stripped, ",.")
		}
	}
	add(stripped)

	// Initials of multi-word names.
	words := strings.Fields(name)
	if len(words) > 1 {
		var b strings.Builder
		for _, w := range words {
			r := []rune(w)[0]
			if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 1 {
			add(strings.ToUpper(b.String()))
		}
	}

	// Architecture <-> Architects interchange.
	lower := strings.ToLower(name)
	if strings.Contains(lower, "architecture") {
		add(replaceFold(name, "architecture", "Architects"))
	} else if strings.Contains(lower, "architects") {
		add(replaceFold(name, "architects", "Architecture"))
	}
	return variants
}

// replaceFold replaces the first case-insensitive occurrence of old in s.
func replaceFold(s, old, new string) string {
	idx := strings.Index(strings.ToLower(s), strings.ToLower(old))
	if idx < 0 {
		return s
	}
	return s[:idx] + new + s[idx+len(old):]
}
