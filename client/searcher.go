package client

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by a search that was overtaken by a newer one.
var ErrSuperseded = errors.New("search superseded by a newer search")

// Searcher runs searches with a latest-request-wins policy: starting a search
// cancels the one still in flight, and only the newest search delivers
// results. The server may still finish a cancelled query.
type Searcher struct {
	client *Client

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSearcher(client *Client) *Searcher {
	return &Searcher{client: client}
}

func (s *Searcher) Search(ctx context.Context, term string) ([]Product, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	products, err := s.client.Search(ctx, term)

	s.mu.Lock()
	latest := s.seq == seq
	if latest {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !latest {
		return nil, ErrSuperseded
	}

	return products, err
}
