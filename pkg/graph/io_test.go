package graph

import (
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
)

func TestDocumentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	doc := Document{
		ID:    "doc-1",
		Topic: "distributed consensus",
		Graph: Sanitize(
			[]Node{{ID: "raft", Label: "Raft", Group: "algorithm", X: 1.5, Y: -2}},
			nil,
		),
	}

	if err := WriteDocumentFile(doc, path); err != nil {
		t.Fatalf("WriteDocumentFile: %v", err)
	}

	got, err := ReadDocumentFile(path)
	if err != nil {
		t.Fatalf("ReadDocumentFile: %v", err)
	}
	if got.Topic != doc.Topic || got.ID != doc.ID {
		t.Errorf("envelope = %q/%q, want %q/%q", got.ID, got.Topic, doc.ID, doc.Topic)
	}
	n := got.Graph.FindNode("raft")
	if n == nil {
		t.Fatal("node raft missing after round trip")
	}
	if n.X != 1.5 || n.Y != -2 {
		t.Errorf("position = (%v,%v), want (1.5,-2)", n.X, n.Y)
	}
}

func TestReadDocumentSanitizes(t *testing.T) {
	payload := `{"topic":"t","graphData":{"nodes":[{"id":"a"},{"id":"a"}],"links":[{"source":"a","target":"ghost"}]}}`

	doc, err := ReadDocument(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if len(doc.Graph.Nodes) != 1 {
		t.Errorf("node count = %d, want 1 after sanitize", len(doc.Graph.Nodes))
	}
	if len(doc.Graph.Links) != 0 {
		t.Errorf("link count = %d, want 0 after sanitize", len(doc.Graph.Links))
	}
}

func TestReadDocumentFileMissing(t *testing.T) {
	_, err := ReadDocumentFile(filepath.Join(t.TempDir(), "absent.json"))
	if kerrors.GetCode(err) != kerrors.ErrCodeFileNotFound {
		t.Errorf("GetCode = %v, want %v", kerrors.GetCode(err), kerrors.ErrCodeFileNotFound)
	}
}

func TestParseImport(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantNodes int
		wantTopic string
		wantErr   bool
	}{
		{
			name:      "bare shape",
			payload:   `{"nodes":[{"id":"a"},{"id":"b"}],"links":[{"source":"a","target":"b"}]}`,
			wantNodes: 2,
		},
		{
			name:      "envelope shape",
			payload:   `{"topic":"science","graphData":{"nodes":[{"id":"a"}],"links":[]}}`,
			wantNodes: 1,
			wantTopic: "science",
		},
		{
			name:      "links only is accepted",
			payload:   `{"links":[{"source":"a","target":"b"}]}`,
			wantNodes: 0,
		},
		{
			name:    "missing both arrays",
			payload: `{"title":"not a graph"}`,
			wantErr: true,
		},
		{
			name:    "envelope missing both arrays",
			payload: `{"graphData":{"other":true}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `nodes: [a, b]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, topic, err := ParseImport([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseImport: want error, got nil")
				}
				if kerrors.GetCode(err) != kerrors.ErrCodeImportFormat {
					t.Errorf("GetCode = %v, want %v", kerrors.GetCode(err), kerrors.ErrCodeImportFormat)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseImport: %v", err)
			}
			if len(frag.Nodes) != tt.wantNodes {
				t.Errorf("node count = %d, want %d", len(frag.Nodes), tt.wantNodes)
			}
			if topic != tt.wantTopic {
				t.Errorf("topic = %q, want %q", topic, tt.wantTopic)
			}
		})
	}
}

func TestParseImportThenReplaceFiltersContent(t *testing.T) {
	payload := `{"nodes":[{"id":"a"},{"id":"a"},{"id":"b"}],"links":[{"source":"a","target":"b"},{"source":"a","target":"b"},{"source":"a","target":"ghost"}]}`

	frag, _, err := ParseImport([]byte(payload))
	if err != nil {
		t.Fatalf("ParseImport: %v", err)
	}

	g := Replace(frag.Nodes, frag.Links)
	if len(g.Nodes) != 2 {
		t.Errorf("node count = %d, want 2", len(g.Nodes))
	}
	if len(g.Links) != 1 {
		t.Errorf("link count = %d, want 1", len(g.Links))
	}
}
