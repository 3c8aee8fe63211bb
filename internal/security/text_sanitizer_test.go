package security

import "testing"

func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "Dhaka",
			want:  "Dhaka",
		},
		{
			name:  "scriptタグを除去",
			input: `<script>alert("x")</script>Chittagong`,
			want:  "Chittagong",
		},
		{
			name:  "装飾タグを除去してテキストを残す",
			input: "<b>Agrabad</b> area",
			want:  "Agrabad area",
		},
		{
			name:  "前後の空白を除去",
			input: "  Halishahar  ",
			want:  "Halishahar",
		},
		{
			name:  "空文字列は空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "イベント属性付きタグを除去",
			input: `<img src=x onerror="alert(1)">Pahartali`,
			want:  "Pahartali",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := "<i>Khulshi</i> <script>x</script>"
	once := s.Sanitize(input)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("sanitize is not idempotent: %q != %q", once, twice)
	}
}
