package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
)

// =============================================================================
// Document - Canonical On-Disk Format
// =============================================================================

// Document is the canonical serialization format for a saved graph.
// The graph payload is nested under "graphData" so the envelope can carry
// document-level fields without colliding with node/link arrays.
type Document struct {
	ID    string `json:"id,omitempty"`
	Topic string `json:"topic,omitempty"`
	Graph Graph  `json:"graphData"`
}

// WriteDocumentFile writes a document to a JSON file.
// The file is created with 0644 permissions.
func WriteDocumentFile(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDocument(doc, f)
}

// WriteDocument encodes a document as indented JSON to w.
func WriteDocument(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadDocumentFile reads a JSON file and returns the decoded document.
// The contained graph is sanitized on the way in, so a hand-edited file
// cannot introduce dangling or duplicate references.
func ReadDocumentFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "graph file %s not found", path)
		}
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f)
}

// ReadDocument decodes a document from r.
func ReadDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, kerrors.Wrap(kerrors.ErrCodeImportFormat, err, "malformed graph document")
	}
	doc.Graph = Sanitize(doc.Graph.Nodes, doc.Graph.Links)
	return doc, nil
}

// =============================================================================
// Import - Lenient External Payloads
// =============================================================================

// importPayload accepts both supported import shapes: a bare
// {nodes, links} object or the document envelope {graphData: {...}}.
type importPayload struct {
	Nodes []Node  `json:"nodes"`
	Links []Link  `json:"links"`
	Data  *Graph  `json:"graphData"`
	Topic string  `json:"topic"`
}

// ParseImport decodes an external payload into a raw fragment plus any
// topic carried by the envelope.
//
// Payloads that are valid JSON but carry neither a "nodes" nor a "links"
// array (directly or under "graphData") are rejected with IMPORT_FORMAT.
// Content-level problems (dangling links, duplicate ids) are not errors;
// they are filtered later by Replace.
func ParseImport(data []byte) (Fragment, string, error) {
	var p importPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return Fragment{}, "", kerrors.Wrap(kerrors.ErrCodeImportFormat, err, "payload is not valid JSON")
	}

	if p.Data != nil {
		if p.Data.Nodes == nil && p.Data.Links == nil {
			return Fragment{}, "", kerrors.New(kerrors.ErrCodeImportFormat, "graphData carries neither nodes nor links")
		}
		return Fragment{Nodes: p.Data.Nodes, Links: p.Data.Links}, p.Topic, nil
	}

	if p.Nodes == nil && p.Links == nil {
		return Fragment{}, "", kerrors.New(kerrors.ErrCodeImportFormat, "payload carries neither nodes nor links")
	}
	return Fragment{Nodes: p.Nodes, Links: p.Links}, p.Topic, nil
}
