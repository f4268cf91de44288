package avatar

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

var ErrPoolClosed = errors.New("avatar pool is closed")

type TransformFunc func([]byte) ([]byte, error)

type job struct {
	data   []byte
	result chan<- result
}

type result struct {
	data []byte
	err  error
}

// Pool выполняет Transform в фиксированном числе горутин,
// чтобы тяжёлые загрузки не занимали обработчики запросов
type Pool struct {
	jobs      chan job
	transform TransformFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	done      chan struct{}
}

func NewPool(workers int, transform TransformFunc) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if transform == nil {
		transform = Transform
	}

	p := &Pool{
		jobs:      make(chan job),
		transform: transform,
		done:      make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case j := <-p.jobs:
			data, err := p.run(j.data)
			j.result <- result{data: data, err: err}
		}
	}
}

func (p *Pool) run(data []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrInvalidImage, r)
		}
	}()
	return p.transform(data)
}

// Submit ставит изображение в очередь и ждёт результата
func (p *Pool) Submit(ctx context.Context, data []byte) ([]byte, error) {
	res := make(chan result, 1)

	select {
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case p.jobs <- job{data: data, result: res}:
	}

	select {
	case r := <-res:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close останавливает воркеров; уже принятые задачи завершаются
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
