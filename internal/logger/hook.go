package logger

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// AsyncHook ghi log bất đồng bộ qua channel, tránh block request path
type AsyncHook struct {
	mu      sync.RWMutex
	entries chan *logrus.Entry
	done    chan struct{}
	writer  func(*logrus.Entry) error
	closed  bool
}

// NewAsyncHook tạo async hook với buffer size cho trước
func NewAsyncHook(bufferSize int, writer func(*logrus.Entry) error) *AsyncHook {
	hook := &AsyncHook{
		entries: make(chan *logrus.Entry, bufferSize),
		done:    make(chan struct{}),
		writer:  writer,
	}
	go hook.process()
	return hook
}

// Levels trả về các level mà hook xử lý
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire đẩy entry vào channel; nếu buffer đầy thì drop để không block
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	select {
	case h.entries <- entry.Dup():
	default:
		// Buffer đầy, bỏ qua entry này
	}
	return nil
}

func (h *AsyncHook) process() {
	for entry := range h.entries {
		if err := h.writer(entry); err != nil {
			fmt.Printf("logger: async hook write failed: %v\n", err)
		}
	}
	close(h.done)
}

// Close dừng hook và chờ flush hết các entry còn lại
func (h *AsyncHook) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.entries)
	h.mu.Unlock()
	<-h.done
}
