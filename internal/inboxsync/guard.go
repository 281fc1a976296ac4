package inboxsync

// RequestGuard gắn thẻ mỗi request async với hội thoại đang mở tại thời điểm
// phát request. Kết quả về trễ sau khi người dùng đã chuyển hội thoại (hoặc
// đã chọn lại cùng hội thoại) sẽ không còn vé hợp lệ và bị loại bỏ thay vì
// apply nhầm vào view hiện tại.
type RequestGuard struct {
	active string
	epoch  uint64
}

// Ticket vé của một request, kiểm tra lại bằng Valid khi kết quả về
type Ticket struct {
	conversationId string
	epoch          uint64
}

// ConversationId hội thoại mà vé được phát cho
func (t Ticket) ConversationId() string {
	return t.conversationId
}

// NewRequestGuard tạo guard chưa chọn hội thoại nào
func NewRequestGuard() *RequestGuard {
	return &RequestGuard{}
}

// Select chuyển hội thoại đang mở. Mọi vé phát trước đó mất hiệu lực,
// kể cả khi chọn lại đúng hội thoại cũ.
func (g *RequestGuard) Select(conversationId string) {
	g.active = conversationId
	g.epoch++
}

// Issue phát vé cho một request sắp gửi đi
func (g *RequestGuard) Issue() Ticket {
	return Ticket{conversationId: g.active, epoch: g.epoch}
}

// Valid kiểm tra kết quả mang vé này còn được phép apply không
func (g *RequestGuard) Valid(t Ticket) bool {
	return t.conversationId == g.active && t.epoch == g.epoch
}
