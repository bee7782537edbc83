package graph

import (
	"context"
	"sync"
)

// MemoryClient records statements instead of sending them to a database and
// replays queued results. It backs repository and exporter tests.
type MemoryClient struct {
	mu           sync.Mutex
	writeCalls   []ExecutedQuery
	readCalls    []ExecutedQuery
	readResults  []Result
	err          error
	failOn       func(ExecutedQuery) error
	connectivity error
}

// ExecutedQuery captures a cypher statement and its parameters.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// NewMemoryClient returns an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError makes every subsequent call fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailWhen makes writes fail selectively; fn returns nil to let a write through.
func (m *MemoryClient) FailWhen(fn func(ExecutedQuery) error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = fn
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// PushReadResult queues a result for the next ExecuteRead call.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readResults = append(m.readResults, res)
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	call := ExecutedQuery{Query: cypher, Params: cloneMap(params)}
	if m.failOn != nil {
		if err := m.failOn(call); err != nil {
			return Result{}, err
		}
	}
	m.writeCalls = append(m.writeCalls, call)
	return Result{}, nil
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	m.readCalls = append(m.readCalls, ExecutedQuery{Query: cypher, Params: cloneMap(params)})

	if len(m.readResults) == 0 {
		return Result{}, nil
	}
	res := m.readResults[0]
	m.readResults = m.readResults[1:]
	return res, nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// WriteCalls returns a snapshot of executed write statements.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writeCalls...)
}

// ReadCalls returns a snapshot of executed read statements.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.readCalls...)
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
