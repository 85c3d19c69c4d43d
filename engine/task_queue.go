package engine

import "sync"

// TaskQueue is a FIFO of one-shot closures with its own lock
type TaskQueue struct {
	mu    sync.Mutex
	tasks []func()
}

// Push appends a task; nil tasks are ignored
func (q *TaskQueue) Push(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
}

// Pop removes and returns the oldest task, or nil when empty
func (q *TaskQueue) Pop() func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task
}

// Len returns the number of pending tasks
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
