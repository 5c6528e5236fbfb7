package viz

import (
	"math"
	"math/rand"
	"strings"

	"go.cbdd.dev/baroquedb/session"
	"golang.org/x/text/unicode/norm"
)

// Candidate column names of graph edges.
var (
	SourceCandidates = []string{"source", "from", "painter"}
	TargetCandidates = []string{"target", "to", "building"}
	WeightCandidates = []string{"weight", "count", "n"}
)

// GraphConfig configures BuildGraph. Zero-valued fields take defaults.
type GraphConfig struct {
	Source string `schema:"source"`
	Target string `schema:"target"`
	Weight string `schema:"weight"`
}

// Graph is an undirected network of Nodes joined by weighted Edges.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Empty bool   `json:"empty,omitempty"`
}

// Node of a Graph. X and Y are set by ForceLayout.
type Node struct {
	ID     string  `json:"id"`
	Degree int     `json:"degree"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Edge joins the Nodes at indices Source and Target.
type Edge struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Weight float64 `json:"weight"`
}

// BuildGraph builds a Graph of |rows|, where each row is an edge between
// its source and target values. Repeated edges are merged, summing their
// weights. Rows lacking a source or target are ignored.
func BuildGraph(rows []session.Row, cfg GraphConfig) (*Graph, error) {
	var g = &Graph{Nodes: []Node{}, Edges: []Edge{}}
	if len(rows) == 0 {
		g.Empty = true
		return g, nil
	}
	var columns = columnsOf(rows)

	srcCol, err := resolveColumn(columns, "source", cfg.Source, SourceCandidates...)
	if err != nil {
		return nil, err
	}
	tgtCol, err := resolveColumn(columns, "target", cfg.Target, TargetCandidates...)
	if err != nil {
		return nil, err
	}
	weightCol, err := resolveColumn(columns, "weight", cfg.Weight, WeightCandidates...)
	if err != nil && cfg.Weight != "" {
		return nil, err
	}

	var index = make(map[string]int)
	var nodeOf = func(id string) int {
		// Names spelled with composed and decomposed diacritics are one node.
		id = norm.NFC.String(strings.TrimSpace(id))

		if ind, ok := index[id]; ok {
			return ind
		}
		index[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{ID: id})
		return len(g.Nodes) - 1
	}
	var edges = make(map[[2]int]int)

	for _, row := range rows {
		var sv, _ = row.Get(srcCol)
		var tv, _ = row.Get(tgtCol)
		if sv == nil || tv == nil {
			continue
		}
		var s, t = nodeOf(FormatValue(sv)), nodeOf(FormatValue(tv))
		if t < s {
			s, t = t, s
		}

		var weight = 1.0
		if weightCol != "" {
			var wv, _ = row.Get(weightCol)
			if w, ok := toFloat(wv); ok {
				weight = w
			}
		}

		if ind, ok := edges[[2]int{s, t}]; ok {
			g.Edges[ind].Weight += weight
			continue
		}
		edges[[2]int{s, t}] = len(g.Edges)
		g.Edges = append(g.Edges, Edge{Source: s, Target: t, Weight: weight})

		g.Nodes[s].Degree++
		if s != t {
			g.Nodes[t].Degree++
		}
	}
	return g, nil
}

// LayoutOptions configure ForceLayout.
type LayoutOptions struct {
	// Iterations of the layout. Defaults to 300.
	Iterations int
	// Width and Height of the layout area. Default to 1.
	Width, Height float64
	// Seed of initial Node positions.
	Seed int64
}

// ForceLayout positions the Nodes of |g| using the Fruchterman-Reingold
// force-directed algorithm. Positions are centered on the origin and
// bounded by the layout area. The layout is deterministic for a Seed.
func ForceLayout(g *Graph, opts LayoutOptions) {
	if opts.Iterations <= 0 {
		opts.Iterations = 300
	}
	if opts.Width <= 0 {
		opts.Width = 1
	}
	if opts.Height <= 0 {
		opts.Height = 1
	}
	var n = len(g.Nodes)
	if n == 0 {
		return
	}

	var rnd = rand.New(rand.NewSource(opts.Seed))
	for i := range g.Nodes {
		g.Nodes[i].X = (rnd.Float64() - 0.5) * opts.Width
		g.Nodes[i].Y = (rnd.Float64() - 0.5) * opts.Height
	}
	if n == 1 {
		g.Nodes[0].X, g.Nodes[0].Y = 0, 0
		return
	}

	// Ideal pairwise distance.
	var k = math.Sqrt(opts.Width * opts.Height / float64(n))
	var temp = opts.Width / 10
	var cooling = temp / float64(opts.Iterations+1)

	var dx, dy = make([]float64, n), make([]float64, n)

	for iter := 0; iter != opts.Iterations; iter++ {
		for i := range dx {
			dx[i], dy[i] = 0, 0
		}
		// Repulsion between every pair.
		for i := 0; i != n; i++ {
			for j := i + 1; j != n; j++ {
				var ddx, ddy, d = delta(g.Nodes[i], g.Nodes[j])
				var f = k * k / d
				dx[i] += ddx / d * f
				dy[i] += ddy / d * f
				dx[j] -= ddx / d * f
				dy[j] -= ddy / d * f
			}
		}
		// Attraction along edges.
		for _, e := range g.Edges {
			if e.Source == e.Target {
				continue
			}
			var ddx, ddy, d = delta(g.Nodes[e.Source], g.Nodes[e.Target])
			var f = d * d / k * math.Max(1, math.Log1p(e.Weight))
			dx[e.Source] -= ddx / d * f
			dy[e.Source] -= ddy / d * f
			dx[e.Target] += ddx / d * f
			dy[e.Target] += ddy / d * f
		}
		// Displace, limited by temperature and the layout area.
		for i := range g.Nodes {
			var d = math.Max(math.Hypot(dx[i], dy[i]), 1e-9)
			var step = math.Min(d, temp)

			g.Nodes[i].X = clamp(g.Nodes[i].X+dx[i]/d*step, opts.Width/2)
			g.Nodes[i].Y = clamp(g.Nodes[i].Y+dy[i]/d*step, opts.Height/2)
		}
		temp -= cooling
	}
}

// delta returns the offset of |a| from |b| and its (non-zero) length.
func delta(a, b Node) (dx, dy, d float64) {
	dx, dy = a.X-b.X, a.Y-b.Y
	if d = math.Hypot(dx, dy); d < 1e-9 {
		dx, d = 1e-9, 1e-9
	}
	return dx, dy, d
}

func clamp(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
