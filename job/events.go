package job

// EventType тип события очереди.
type EventType int

const (
	JobQueued EventType = iota
	JobStarted
	JobFinished
)

func (t EventType) String() string {
	switch t {
	case JobQueued:
		return "queued"
	case JobStarted:
		return "started"
	case JobFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event уведомление о задании. Active число заданий в очереди
// и в работе после этого события; по нему платформа показывает
// и снимает уведомление "идёт печать".
type Event struct {
	Type    EventType
	JobID   string
	Active  int
	Outcome *Outcome // только для JobFinished
}

// Observer получает события синхронно из горутины очереди
// и не должен блокироваться.
type Observer func(Event)

// Subscribe регистрирует наблюдателя. Возвращает функцию отписки.
func (q *Queue) Subscribe(o Observer) (unsubscribe func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextObserver
	q.nextObserver++
	q.observers[id] = o
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.observers, id)
	}
}

func (q *Queue) emit(e Event) {
	q.mu.Lock()
	observers := make([]Observer, 0, len(q.observers))
	for _, o := range q.observers {
		observers = append(observers, o)
	}
	q.mu.Unlock()

	for _, o := range observers {
		o(e)
	}
}
