package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "ascii lowered", in: "Hello World", want: "hello world"},
		{name: "vietnamese diacritics", in: "nghỉ phép", want: "nghi phep"},
		{name: "lowercase dj", in: "đi họp", want: "di hop"},
		{name: "uppercase dj", in: "Đà Nẵng", want: "da nang"},
		{name: "single dj upper", in: "Đ", want: "d"},
		{name: "single dj lower", in: "đ", want: "d"},
		{name: "mixed sentence", in: "Quy Định NGHỈ Phép", want: "quy dinh nghi phep"},
		{name: "already normalized", in: "quyet dinh so 15", want: "quyet dinh so 15"},
		{name: "accented latin", in: "café naïve", want: "cafe naive"},
		{name: "whitespace preserved", in: "  Báo  cáo  ", want: "  bao  cao  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"xin chào, cho tôi hỏi về quy định nghỉ phép",
		"Đơn xin nghỉ ĐỘT XUẤT",
		"plain ascii text",
		"ủy ban nhân dân",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
