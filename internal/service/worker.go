package service

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// TaskError accumulates the errors produced by a bulk run.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return "multiple errors: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// pool runs fn over indices [0, total) on a fixed number of goroutines.
type pool struct {
	workers int
}

func newPool(workers int) pool {
	if workers <= 0 {
		workers = 4
	}
	return pool{workers: workers}
}

func (p pool) run(ctx context.Context, total int, fn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				if err := fn(idx); err != nil {
					errCh <- err
				}
			}
		}()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
