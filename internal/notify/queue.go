// Package notify keeps the human-readable feed of actions taken in the
// current process.
package notify

import "fmt"

// Queue is a FIFO of messages. Viewing does not consume entries. With a
// positive limit the oldest message is dropped once the queue is full.
type Queue struct {
	messages []string
	limit    int
}

func New(limit int) *Queue {
	if limit < 0 {
		limit = 0
	}
	return &Queue{limit: limit}
}

func (q *Queue) Enqueue(msg string) {
	if q.limit > 0 && len(q.messages) == q.limit {
		copy(q.messages, q.messages[1:])
		q.messages = q.messages[:len(q.messages)-1]
	}
	q.messages = append(q.messages, msg)
}

func (q *Queue) Enqueuef(format string, args ...any) {
	q.Enqueue(fmt.Sprintf(format, args...))
}

// View returns a copy of all messages, oldest first.
func (q *Queue) View() []string {
	out := make([]string, len(q.messages))
	copy(out, q.messages)
	return out
}

func (q *Queue) Len() int { return len(q.messages) }
