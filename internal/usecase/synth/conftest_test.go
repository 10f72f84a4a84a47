package synth

import (
	"context"
	"fmt"
	"sync"

	domevidence "github.com/kailas-cloud/policyrag/internal/domain/evidence"
	"github.com/kailas-cloud/policyrag/internal/usecase/evidence"
)

type mockCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	prompts []string
}

func (m *mockCompleter) Complete(ctx context.Context, _, user string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, user)
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.reply, m.err
}

func chunkAt(i int, body string, conf float64) domevidence.Chunk {
	return domevidence.Chunk{
		ID:         fmt.Sprintf("c%d", i),
		Text:       body,
		Confidence: conf,
		Source:     domevidence.Source{Document: fmt.Sprintf("약관%d", i), File: "policy.pdf", Page: i + 1},
	}
}

func buildContext(bodies ...string) evidence.Context {
	chunks := make([]domevidence.Chunk, len(bodies))
	for i, b := range bodies {
		chunks[i] = chunkAt(i, b, 0.9-float64(i)*0.01)
	}
	return evidence.NewBuilder(0).Build(chunks, 0)
}
