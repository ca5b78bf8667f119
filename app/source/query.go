package source

// Query mirrors the status a data-fetching layer reports for one resource.
// Data is only meaningful when Ready returns true.
type Query[T any] struct {
	Data      T
	IsLoading bool
	IsError   bool
	Err       error
}

func Loading[T any]() Query[T] {
	return Query[T]{IsLoading: true}
}

func Failed[T any](err error) Query[T] {
	return Query[T]{IsError: true, Err: err}
}

func Loaded[T any](data T) Query[T] {
	return Query[T]{Data: data}
}

func (q Query[T]) Ready() bool {
	return !q.IsLoading && !q.IsError
}
