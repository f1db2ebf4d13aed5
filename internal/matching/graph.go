package matching

import (
	"context"
	"math"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/biodata-tracker/internal/entity"
)

// Limits for attribute similarity and graph views.
const (
	DefaultSimilarLimit = 10
	MaxSimilarLimit     = 20
	DefaultGraphLimit   = 50
	MaxGraphLimit       = 200

	attrValueMaxRunes = 50
)

// Edge types of the relationship graph.
const (
	EdgeSimilarTo = "SIMILAR_TO"
)

type graphAttr struct {
	key    string
	kind   string
	edge   string
	weight float64
	// links marks attributes whose sharing relates two people directly.
	links bool
	value func(entity.Fields) string
}

var graphAttrs = []graphAttr{
	{"religion", "Religion", "HAS_RELIGION", 0.25, true, func(f entity.Fields) string { return attrValue(entity.Str(f.Religion)) }},
	{"caste", "Caste", "HAS_CASTE", 0.20, true, func(f entity.Fields) string { return attrValue(entity.Str(f.Caste)) }},
	{"location", "Location", "LIVES_IN", 0.20, true, func(f entity.Fields) string {
		return attrValue(firstNonEmpty(f.CurrentCity, f.State))
	}},
	{"education", "Education", "HAS_EDUCATION", 0.20, false, func(f entity.Fields) string { return attrValue(entity.Str(f.Education)) }},
	{"occupation", "Occupation", "WORKS_AS", 0.15, false, func(f entity.Fields) string { return attrValue(entity.Str(f.Occupation)) }},
}

func attrValue(s string) string {
	v := []rune(fold(s))
	if len(v) > attrValueMaxRunes {
		v = v[:attrValueMaxRunes]
	}
	return string(v)
}

// attributes returns the folded value of every graph attribute p has, by key.
func attributes(p *entity.Profile) map[string]string {
	out := make(map[string]string, len(graphAttrs))
	for _, a := range graphAttrs {
		if v := a.value(p.Fields); v != "" {
			out[a.key] = v
		}
	}
	return out
}

// similarity scores two attribute sets by the weights of the values they share.
func similarity(a, b map[string]string) (float64, map[string]string) {
	var score float64
	shared := map[string]string{}
	for _, attr := range graphAttrs {
		if v, ok := a[attr.key]; ok && v == b[attr.key] {
			score += attr.weight
			shared[attr.key] = v
		}
	}
	return score, shared
}

// linked reports whether two people share a religion, caste or location.
func linked(a, b map[string]string) bool {
	for _, attr := range graphAttrs {
		if !attr.links {
			continue
		}
		if v, ok := a[attr.key]; ok && v == b[attr.key] {
			return true
		}
	}
	return false
}

func roundScore(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func clamp(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// SimilarByAttributes returns approved profiles sharing at least one
// attribute with the profile id, best first.
func (s *Service) SimilarByAttributes(ctx context.Context, id string, limit int) ([]entity.SimilarProfile, error) {
	ref, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	candidates, err := s.approved(ctx)
	if err != nil {
		return nil, err
	}

	refAttrs := attributes(ref)
	out := []entity.SimilarProfile{}
	for _, c := range candidates {
		if c.ID == ref.ID {
			continue
		}
		score, shared := similarity(refAttrs, attributes(c))
		if score <= 0 {
			continue
		}
		out = append(out, entity.SimilarProfile{Profile: c, Score: roundScore(score), Shared: shared})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Profile.ID < out[j].Profile.ID
	})
	if n := clamp(limit, DefaultSimilarLimit, MaxSimilarLimit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Graph returns approved profiles as person and attribute nodes. With a
// center id the view holds that profile and the people linked to it;
// otherwise it holds the newest limit approved profiles.
func (s *Service) Graph(ctx context.Context, centerID string, limit int) (entity.GraphData, error) {
	limit = clamp(limit, DefaultGraphLimit, MaxGraphLimit)
	candidates, err := s.approved(ctx)
	if err != nil {
		return entity.GraphData{}, err
	}

	g := newGraphBuilder()
	if centerID == "" {
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		for _, p := range candidates {
			g.person(p, true)
		}
		for i, a := range candidates {
			for _, b := range candidates[i+1:] {
				if linked(g.attrs[a.ID], g.attrs[b.ID]) {
					g.edge(a.ID, b.ID, EdgeSimilarTo)
				}
			}
		}
		return g.data, nil
	}

	center, err := s.repo.Get(ctx, centerID)
	if err != nil {
		return entity.GraphData{}, err
	}
	g.person(center, false)
	for _, p := range candidates {
		if len(g.people) >= limit {
			break
		}
		if p.ID == center.ID || !linked(g.attrs[center.ID], attributes(p)) {
			continue
		}
		g.person(p, false)
		g.edge(center.ID, p.ID, EdgeSimilarTo)
	}
	return g.data, nil
}

// GraphStats counts approved people, linked pairs and distinct attribute values.
func (s *Service) GraphStats(ctx context.Context) (entity.GraphStats, error) {
	candidates, err := s.approved(ctx)
	if err != nil {
		return entity.GraphStats{}, err
	}
	st := entity.GraphStats{Persons: len(candidates)}
	all := make([]map[string]string, len(candidates))
	values := map[string]map[string]struct{}{}
	for i, p := range candidates {
		all[i] = attributes(p)
		for k, v := range all[i] {
			if values[k] == nil {
				values[k] = map[string]struct{}{}
			}
			values[k][v] = struct{}{}
		}
	}
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if linked(all[i], all[j]) {
				st.Similarities++
			}
		}
	}
	st.Religions = len(values["religion"])
	st.Castes = len(values["caste"])
	st.Locations = len(values["location"])
	return st, nil
}

type graphBuilder struct {
	data   entity.GraphData
	seen   map[string]struct{}
	people map[string]struct{}
	attrs  map[string]map[string]string
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		data:   entity.GraphData{Nodes: []entity.GraphNode{}, Edges: []entity.GraphEdge{}},
		seen:   map[string]struct{}{},
		people: map[string]struct{}{},
		attrs:  map[string]map[string]string{},
	}
}

// person adds p and the edges to its attribute nodes. linkedOnly restricts
// attribute nodes to religion, caste and location.
func (g *graphBuilder) person(p *entity.Profile, linkedOnly bool) {
	if _, ok := g.people[p.ID]; ok {
		return
	}
	g.people[p.ID] = struct{}{}
	attrs := attributes(p)
	g.attrs[p.ID] = attrs

	label := entity.Str(p.Fields.Name)
	if label == "" {
		label = "Unknown"
	}
	g.node(entity.GraphNode{
		ID:       p.ID,
		Label:    label,
		Type:     "Person",
		Age:      p.Fields.Age,
		Gender:   p.Fields.Gender,
		Location: attrs["location"],
	})
	for _, a := range graphAttrs {
		v, ok := attrs[a.key]
		if !ok || (linkedOnly && !a.links) {
			continue
		}
		id := a.key + "_" + v
		g.node(entity.GraphNode{ID: id, Label: cases.Title(language.Und).String(v), Type: a.kind})
		g.edge(p.ID, id, a.edge)
	}
}

func (g *graphBuilder) node(n entity.GraphNode) {
	if _, ok := g.seen[n.ID]; ok {
		return
	}
	g.seen[n.ID] = struct{}{}
	g.data.Nodes = append(g.data.Nodes, n)
}

func (g *graphBuilder) edge(source, target, typ string) {
	g.data.Edges = append(g.data.Edges, entity.GraphEdge{Source: source, Target: target, Type: typ})
}
