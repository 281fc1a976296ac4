// Package inboxsync là engine đồng bộ hội thoại phía client: hợp nhất ba
// nguồn tin nhắn (history phân trang, snapshot realtime, tin optimistic gửi
// local) thành một danh sách duy nhất có thứ tự, kèm state machine cuộn,
// theo dõi unread và guard chống apply kết quả trễ. Package thuần — không
// đụng store, không đụng DOM — để test được toàn bộ hành vi.
package inboxsync

import (
	"sort"
	"time"
)

// Message một tin nhắn trong engine hợp nhất.
// Tin optimistic (chưa có server id) mang ClientTempId; tin đã xác nhận mang
// ServerId. Hai trường loại trừ nhau — dùng constructor Pending/Confirmed.
type Message struct {
	ServerId     string // id do platform cấp, rỗng với tin optimistic
	ClientTempId string // id tạm phía client, rỗng với tin đã xác nhận
	From         string // "customer" hoặc "agent"
	Text         string
	At           string // ISO-8601 UTC, sort lexicographic = sort thời gian
}

// Pending tạo tin optimistic chưa có server id
func Pending(clientTempId, from, text, at string) Message {
	return Message{ClientTempId: clientTempId, From: from, Text: text, At: at}
}

// Confirmed tạo tin đã được server xác nhận
func Confirmed(serverId, from, text, at string) Message {
	return Message{ServerId: serverId, From: from, Text: text, At: at}
}

// IsPending cho biết tin còn là optimistic
func (m Message) IsPending() bool {
	return m.ServerId == ""
}

// State giữ trạng thái hợp nhất tin nhắn của MỘT hội thoại.
// Không an toàn cho dùng đồng thời — mô hình client là event loop đơn luồng.
type State struct {
	confirmed map[string]Message // key = ServerId, bản apply sau thắng
	order     []string           // thứ tự chèn các ServerId, giữ tie ổn định
	pending   []Message          // tin optimistic theo thứ tự gửi
	prevCount int                // số tin của lần Messages() trước, cho Grew
}

// NewState tạo state rỗng cho một hội thoại
func NewState() *State {
	return &State{confirmed: make(map[string]Message)}
}

// ApplyHistoryPage hợp nhất một trang history từ REST.
// Gọi lại với cùng trang là no-op về tập tin (merge idempotent).
func (s *State) ApplyHistoryPage(messages []Message) {
	s.mergeConfirmed(messages)
}

// ApplyLiveSnapshot hợp nhất snapshot N tin mới nhất từ push subscription.
// Snapshot không thay thế tập tin — chỉ bổ sung/ghi đè theo id, vì history
// cũ hơn snapshot vẫn phải giữ.
func (s *State) ApplyLiveSnapshot(messages []Message) {
	s.mergeConfirmed(messages)
}

// AppendPending chèn một tin optimistic ngay khi người dùng bấm gửi
func (s *State) AppendPending(m Message) {
	if m.ServerId != "" {
		// Tin đã có id không phải optimistic, merge thẳng
		s.mergeConfirmed([]Message{m})
		return
	}
	s.pending = append(s.pending, m)
}

// mergeConfirmed ghi các tin đã xác nhận vào map theo id.
// Mỗi tin vào map sẽ loại bỏ tin pending gần nhất cùng nội dung (cùng from +
// text) — đó là bản server của chính lần gửi optimistic đó.
func (s *State) mergeConfirmed(messages []Message) {
	for _, m := range messages {
		if m.ServerId == "" {
			continue
		}
		if _, seen := s.confirmed[m.ServerId]; !seen {
			s.order = append(s.order, m.ServerId)
			s.supersedePending(m)
		}
		s.confirmed[m.ServerId] = m
	}
}

// supersedePending bỏ tin pending gần nhất trùng nội dung với tin xác nhận
func (s *State) supersedePending(confirmed Message) {
	best := -1
	var bestDist time.Duration
	for i, p := range s.pending {
		if p.From != confirmed.From || p.Text != confirmed.Text {
			continue
		}
		d := atDistance(p.At, confirmed.At)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best >= 0 {
		s.pending = append(s.pending[:best], s.pending[best+1:]...)
	}
}

// atDistance khoảng cách tuyệt đối giữa hai timestamp ISO.
// Timestamp không parse được coi như xa vô hạn — pending đó vẫn có thể bị
// supersede nếu là ứng viên duy nhất.
func atDistance(a, b string) time.Duration {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA != nil || errB != nil {
		return time.Duration(1<<63 - 1)
	}
	d := tb.Sub(ta)
	if d < 0 {
		d = -d
	}
	return d
}

// Messages trả về danh sách hợp nhất: dedup theo id, sort tăng dần theo at,
// tie giữ nguyên thứ tự chèn (stable).
func (s *State) Messages() []Message {
	out := make([]Message, 0, len(s.order)+len(s.pending))
	for _, id := range s.order {
		out = append(out, s.confirmed[id])
	}
	out = append(out, s.pending...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At < out[j].At
	})
	return out
}

// Grew báo tập tin có lớn lên so với lần gọi trước hay không.
// Dùng để quyết định auto-scroll; gọi sau mỗi lần merge.
func (s *State) Grew() bool {
	count := len(s.order) + len(s.pending)
	grew := count > s.prevCount
	s.prevCount = count
	return grew
}
