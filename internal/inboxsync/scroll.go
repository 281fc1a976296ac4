package inboxsync

// Ngưỡng pixel cho các quyết định cuộn
const (
	// NearBottomPx viewport cách đáy dưới ngưỡng này thì coi là "đang ở đáy"
	// và tin mới đến được phép auto-scroll xuống.
	NearBottomPx = 120

	// NearTopPx cuộn lên vượt qua ngưỡng này thì kích hoạt load tin cũ hơn
	NearTopPx = 100
)

// ScrollPhase trạng thái của state machine cuộn
type ScrollPhase int

const (
	// PhaseIdle không có thao tác cuộn/tải nào đang diễn ra
	PhaseIdle ScrollPhase = iota
	// PhaseLoadingOlder đang tải trang tin cũ hơn, mọi trigger mới bị bỏ qua
	PhaseLoadingOlder
	// PhaseProgrammaticScroll code đang tự cuộn (vd auto-scroll xuống đáy),
	// sự kiện cuộn trong phase này không được hiểu là người dùng cuộn
	PhaseProgrammaticScroll
)

// ScrollState thay các boolean ref rời rạc bằng một state machine tường minh:
// Idle → LoadingOlder → Idle và Idle → ProgrammaticScroll → Idle.
// Không an toàn cho dùng đồng thời.
type ScrollState struct {
	phase ScrollPhase
}

// NewScrollState tạo state ở Idle
func NewScrollState() *ScrollState {
	return &ScrollState{phase: PhaseIdle}
}

// Phase trả về phase hiện tại
func (s *ScrollState) Phase() ScrollPhase {
	return s.phase
}

// TriggerLoadOlder xét một sự kiện cuộn của người dùng: trả về true và chuyển
// sang LoadingOlder khi (1) đang Idle, (2) cuộn hướng LÊN, (3) vị trí vừa cắt
// qua ngưỡng gần đỉnh. Trigger trùng trong lúc đang tải bị bỏ qua; sự kiện
// phát ra từ cuộn programmatic cũng bị bỏ qua.
func (s *ScrollState) TriggerLoadOlder(prevScrollTop, scrollTop int) bool {
	if s.phase != PhaseIdle {
		return false
	}
	if scrollTop >= prevScrollTop {
		return false // cuộn xuống hoặc đứng yên
	}
	if scrollTop > NearTopPx || prevScrollTop <= NearTopPx {
		return false // chưa cắt qua ngưỡng
	}
	s.phase = PhaseLoadingOlder
	return true
}

// FinishLoadOlder kết thúc lượt tải tin cũ, quay về Idle
func (s *ScrollState) FinishLoadOlder() {
	if s.phase == PhaseLoadingOlder {
		s.phase = PhaseIdle
	}
}

// BeginProgrammaticScroll đánh dấu đoạn code sắp tự cuộn.
// Trả về false nếu state machine đang bận (đang tải tin cũ).
func (s *ScrollState) BeginProgrammaticScroll() bool {
	if s.phase != PhaseIdle {
		return false
	}
	s.phase = PhaseProgrammaticScroll
	return true
}

// FinishProgrammaticScroll kết thúc cuộn programmatic, quay về Idle
func (s *ScrollState) FinishProgrammaticScroll() {
	if s.phase == PhaseProgrammaticScroll {
		s.phase = PhaseIdle
	}
}

// Viewport số đo viewport tại một thời điểm
type Viewport struct {
	ScrollTop    int // khoảng cách đã cuộn từ đỉnh
	ScrollHeight int // tổng chiều cao nội dung
	ClientHeight int // chiều cao phần nhìn thấy
}

// DistanceFromBottom khoảng cách từ mép dưới viewport đến đáy nội dung
func (v Viewport) DistanceFromBottom() int {
	return v.ScrollHeight - v.ScrollTop - v.ClientHeight
}

// NearBottom viewport có đang trong ngưỡng gần đáy không
func (v Viewport) NearBottom() bool {
	return v.DistanceFromBottom() <= NearBottomPx
}

// ShouldAutoScroll quyết định có tự cuộn xuống đáy sau một lượt merge không:
// chỉ khi tập tin LỚN LÊN, viewport TRƯỚC merge đã ở gần đáy, và không có
// lượt tải tin cũ đang chạy — tránh giật viewport của người đang đọc lịch sử.
func ShouldAutoScroll(grew bool, before Viewport, scroll *ScrollState) bool {
	if !grew {
		return false
	}
	if scroll != nil && scroll.Phase() == PhaseLoadingOlder {
		return false
	}
	return before.NearBottom()
}

// PreserveOffset tính scrollTop mới sau khi prepend tin cũ để giữ nguyên vị
// trí đọc: max(bufferPx, chiều cao mới − chiều cao cũ).
func PreserveOffset(bufferPx, prevScrollHeight, newScrollHeight int) int {
	grown := newScrollHeight - prevScrollHeight
	if grown < bufferPx {
		return bufferPx
	}
	return grown
}
