package utility

// TruncateString cắt chuỗi về tối đa max ký tự (tính theo rune,
// an toàn cho tiếng Việt có dấu). Chuỗi ngắn hơn giữ nguyên.
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
