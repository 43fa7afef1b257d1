// Package knowledge supplies the grounding context for product
// inquiry answers.
package knowledge

import (
	"context"
	"os"

	"github.com/autostream-x/autostream-agent/logger"
)

// missingNotice is handed to the model as context when the knowledge
// base cannot be read, so the assistant degrades to "I don't know"
// answers instead of failing the turn.
const missingNotice = "Error: knowledge base not found."

// Provider returns grounding context for a user query.
type Provider interface {
	FetchContext(ctx context.Context, query string) (string, error)
}

// FileProvider serves the entire contents of a single document. The
// corpus is small enough that no retrieval step is needed.
type FileProvider struct {
	Path string

	log *logger.Logger
}

// NewFileProvider creates a provider backed by the document at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{
		Path: path,
		log:  logger.Component("knowledge"),
	}
}

// FetchContext returns the whole document. A missing or unreadable
// file is reported in the returned context rather than as an error.
func (p *FileProvider) FetchContext(ctx context.Context, query string) (string, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		p.log.Warnf("knowledge base unavailable at %s: %v", p.Path, err)
		return missingNotice, nil
	}
	return string(data), nil
}
