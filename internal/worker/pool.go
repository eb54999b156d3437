// Package worker executa tarefas lentas (chamadas ao agente) fora da
// goroutine que atende a requisição HTTP, com concorrência limitada.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed é retornado por Submit depois de Close
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool limita quantas tarefas executam ao mesmo tempo. Tarefas enviadas
// além do limite aguardam um slot livre.
type Pool struct {
	sem      *semaphore.Weighted
	size     int
	inflight atomic.Int64
	observe  func(delta int64)

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Option configura o Pool
type Option func(*Pool)

// WithInflightObserver registra uma função chamada com +1 quando uma tarefa
// começa e -1 quando termina. Deltas somam certo em qualquer ordem.
func WithInflightObserver(fn func(delta int64)) Option {
	return func(p *Pool) {
		p.observe = fn
	}
}

// NewPool cria um pool com no máximo size tarefas simultâneas
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		sem:     semaphore.NewWeighted(int64(size)),
		size:    size,
		observe: func(int64) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Size retorna o limite de concorrência
func (p *Pool) Size() int {
	return p.size
}

// Inflight retorna o número de tarefas em execução
func (p *Pool) Inflight() int64 {
	return p.inflight.Load()
}

// Future é o resultado de uma tarefa submetida ao pool
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done fecha quando a tarefa termina
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await espera o resultado da tarefa. Se ctx terminar antes, retorna
// ctx.Err(); a tarefa continua executando até o fim.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit agenda task no pool e retorna imediatamente um Future. A tarefa
// não é cancelada quando quem submeteu desiste de esperar.
func Submit[T any](p *Pool, task func() (T, error)) (*Future[T], error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.RUnlock()

	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer p.wg.Done()
		defer close(f.done)

		// Acquire só falha com contexto cancelado
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)

		p.inflight.Add(1)
		p.observe(1)
		defer func() {
			p.inflight.Add(-1)
			p.observe(-1)
		}()

		f.value, f.err = run(task)
	}()
	return f, nil
}

func run[T any](task func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task()
}

// Close recusa novas tarefas e espera as pendentes terminarem ou ctx expirar
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %d pending tasks: %w", p.inflight.Load(), ctx.Err())
	}
}
