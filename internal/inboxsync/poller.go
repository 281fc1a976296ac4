package inboxsync

import (
	"context"
	"sync"
	"time"

	"alpha_crm/internal/logger"
)

// PollInterval chu kỳ refresh danh sách hội thoại
const PollInterval = 30 * time.Second

// FetchFunc tải lại một resource (vd danh sách hội thoại của một trang)
type FetchFunc func(ctx context.Context, resource string) error

// Poller refresh resource theo chu kỳ cố định với serialization theo từng
// resource: tick đến khi request trước của cùng resource chưa xong thì bỏ
// qua tick đó (không xếp hàng), tránh apply kết quả lệch thứ tự.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewPoller tạo poller với chu kỳ mặc định
func NewPoller(fetch FetchFunc) *Poller {
	return NewPollerWithInterval(fetch, PollInterval)
}

// NewPollerWithInterval tạo poller với chu kỳ tùy chọn.
// Chu kỳ không dương rơi về chu kỳ mặc định.
func NewPollerWithInterval(fetch FetchFunc, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = PollInterval
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		inFlight: make(map[string]bool),
	}
}

// Refresh chạy một lượt fetch cho resource nếu không có lượt nào đang chạy.
// Trả về false nếu lượt này bị bỏ qua vì resource đang bận.
func (p *Poller) Refresh(ctx context.Context, resource string) (bool, error) {
	p.mu.Lock()
	if p.inFlight[resource] {
		p.mu.Unlock()
		return false, nil
	}
	p.inFlight[resource] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlight, resource)
		p.mu.Unlock()
	}()
	return true, p.fetch(ctx, resource)
}

// Run poll resource theo chu kỳ cho tới khi context bị hủy.
// Lỗi fetch chỉ ghi log — lượt poll kế tiếp sẽ thử lại.
func (p *Poller) Run(ctx context.Context, resource string) {
	log := logger.GetAppLogger()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ran, err := p.Refresh(ctx, resource)
			if err != nil {
				log.WithError(err).WithFields(map[string]interface{}{
					"resource": resource,
				}).Warn("Poll resource thất bại")
			}
			if !ran {
				log.WithFields(map[string]interface{}{
					"resource": resource,
				}).Debug("Bỏ qua tick poll vì resource đang bận")
			}
		}
	}
}
