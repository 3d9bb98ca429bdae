// Package taskqueue is a FIFO of deferred work for a single-threaded event loop.
//
// Post appends a task. RunPending runs the tasks that were queued when it was
// called; anything posted while those run waits for the next turn. Hosts call
// RunPending from their loop after the current event has been handled, which is
// what lets a caller's stack unwind before deferred side effects run.
package taskqueue

// Queue holds deferred tasks. It is not safe for concurrent use.
type Queue struct {
	tasks  []func()
	onPost func()
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// OnPost registers a hook called after every Post. The terminal host uses it to
// schedule a drain turn on its event loop.
func (q *Queue) OnPost(fn func()) {
	q.onPost = fn
}

// Post appends task. Nil tasks are dropped.
func (q *Queue) Post(task func()) {
	if task == nil {
		return
	}
	q.tasks = append(q.tasks, task)
	if q.onPost != nil {
		q.onPost()
	}
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// RunPending runs the tasks queued before the call, in order, and returns how
// many ran.
func (q *Queue) RunPending() int {
	batch := q.tasks
	q.tasks = nil
	for _, task := range batch {
		task()
	}
	return len(batch)
}

// Drain runs turns until the queue is empty and returns the number of tasks run.
func (q *Queue) Drain() int {
	n := 0
	for len(q.tasks) > 0 {
		n += q.RunPending()
	}
	return n
}
