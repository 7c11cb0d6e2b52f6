package session

import "sync"

type outcome[T any] struct {
	value T
	err   error
}

// promise bridges a callback style call to a blocking result. Only the first
// resolve or reject is delivered; later calls are dropped.
type promise[T any] struct {
	once sync.Once
	ch   chan outcome[T]
}

func newPromise[T any]() *promise[T] {
	return &promise[T]{ch: make(chan outcome[T], 1)}
}

func (p *promise[T]) resolve(v T) {
	p.once.Do(func() { p.ch <- outcome[T]{value: v} })
}

func (p *promise[T]) reject(err error) {
	p.once.Do(func() { p.ch <- outcome[T]{err: err} })
}

func (p *promise[T]) await() (T, error) {
	o := <-p.ch
	return o.value, o.err
}
