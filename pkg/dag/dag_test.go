package dag

import (
	"errors"
	"reflect"
	"testing"
)

func build(t *testing.T, nodes []Node, edges [][2]string) *DAG {
	t.Helper()
	g := New(nil)
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "a", Row: 3}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate: %v", err)
	}
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("unknown source: %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("unknown target: %v", err)
	}
	n, _ := g.Node("a")
	if n.Meta == nil {
		t.Error("Meta not initialized")
	}
}

func TestNodesKeepInsertionOrder(t *testing.T) {
	g := build(t, []Node{{ID: "c"}, {ID: "a", Row: 2}, {ID: "b", Row: 1}}, nil)

	if got := NodeIDs(g.Nodes()); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("Nodes() = %v", got)
	}
	if got := g.RowIDs(); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Errorf("RowIDs() = %v", got)
	}
	if g.MaxRow() != 2 {
		t.Errorf("MaxRow() = %d, want 2", g.MaxRow())
	}
	if New(nil).MaxRow() != 0 {
		t.Error("empty MaxRow() != 0")
	}
}

func TestSourcesAndSinks(t *testing.T) {
	g := build(t,
		[]Node{{ID: "glibc"}, {ID: "zlib"}, {ID: "curl", Row: 1}, {ID: "git", Row: 2}},
		[][2]string{{"curl", "glibc"}, {"curl", "zlib"}, {"git", "curl"}},
	)

	if got := NodeIDs(g.Sources()); !reflect.DeepEqual(got, []string{"git"}) {
		t.Errorf("Sources() = %v", got)
	}
	if got := NodeIDs(g.Sinks()); !reflect.DeepEqual(got, []string{"glibc", "zlib"}) {
		t.Errorf("Sinks() = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		edges [][2]string
		want  error
	}{
		{
			name:  "ranked",
			nodes: []Node{{ID: "a"}, {ID: "b", Row: 1}, {ID: "c", Row: 3}},
			edges: [][2]string{{"b", "a"}, {"c", "a"}, {"c", "b"}},
		},
		{
			name:  "same row",
			nodes: []Node{{ID: "a"}, {ID: "b"}},
			edges: [][2]string{{"b", "a"}},
			want:  ErrRowOrder,
		},
		{
			name:  "upward edge",
			nodes: []Node{{ID: "a"}, {ID: "b", Row: 1}},
			edges: [][2]string{{"a", "b"}},
			want:  ErrRowOrder,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.nodes, tt.edges)
			if err := g.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDetectCycles(t *testing.T) {
	g := build(t, []Node{{ID: "a"}, {ID: "b"}}, [][2]string{{"a", "b"}, {"b", "a"}})
	if err := g.detectCycles(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("detectCycles() = %v, want ErrGraphHasCycle", err)
	}

	g = build(t, []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}, [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}})
	if err := g.detectCycles(); err != nil {
		t.Errorf("detectCycles() = %v on a DAG", err)
	}
}
