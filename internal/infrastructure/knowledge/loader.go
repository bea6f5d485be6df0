// Package knowledge loads curated reference documents from YAML files and
// feeds them through chunking and embedding into the vector index.
package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
	"github.com/iamdbstjd/DC-TermProject3/internal/core/ports"
)

// Document is one knowledge YAML file: reference guidance written for a
// single document type.
type Document struct {
	DocType string `yaml:"doc_type"`
	Topic   string `yaml:"topic"`
	Source  string `yaml:"source"`
	Body    string `yaml:"body"`
}

type Loader struct {
	chunker  ports.Chunker
	embedder ports.Embedder
	indexer  ports.KnowledgeIndexer
}

func NewLoader(chunker ports.Chunker, embedder ports.Embedder, indexer ports.KnowledgeIndexer) *Loader {
	return &Loader{chunker: chunker, embedder: embedder, indexer: indexer}
}

// LoadDir indexes every *.yaml/*.yml file under dir and returns the number
// of passages indexed. A malformed file is skipped with a warning; the rest
// of the directory still loads.
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk knowledge dir: %w", err)
	}

	total := 0
	for _, path := range paths {
		n, err := l.loadFile(ctx, path)
		if err != nil {
			slog.Warn("knowledge_file_skipped", "path", path, "error", err)
			continue
		}
		total += n
		slog.Info("knowledge_file_indexed", "path", path, "passages", n)
	}
	return total, nil
}

func (l *Loader) loadFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}
	if strings.TrimSpace(doc.Body) == "" {
		return 0, fmt.Errorf("empty body")
	}
	if doc.Source == "" {
		doc.Source = filepath.Base(path)
	}

	texts := l.chunker.Split(doc.Body)
	if len(texts) == 0 {
		return 0, fmt.Errorf("no chunks produced")
	}

	passages := make([]domain.KnowledgePassage, len(texts))
	for i, text := range texts {
		passages[i] = domain.KnowledgePassage{
			DocType:    domain.DocType(doc.DocType),
			Topic:      doc.Topic,
			Source:     doc.Source,
			ChunkIndex: i,
			Text:       text,
		}
	}

	vectors, err := l.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed passages: %w", err)
	}
	if err := l.indexer.IndexPassages(ctx, passages, vectors); err != nil {
		return 0, fmt.Errorf("index passages: %w", err)
	}
	return len(passages), nil
}
