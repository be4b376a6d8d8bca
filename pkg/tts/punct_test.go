package tts

import "testing"

func TestFixChinesePunctuation(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"你好，世界。", "你好. 世界. "},
		{"真的吗！太好了？", "真的吗! 太好了? "},
		{"“引用”", `"引用"`},
		{"等等……好", "等等. 好"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := FixChinesePunctuation(tt.in); got != tt.want {
			t.Errorf("FixChinesePunctuation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixChinesePunctuationDecimals(t *testing.T) {
	got := FixChinesePunctuation("圆周率是3.14159")
	want := "圆周率是3点14159"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsChineseModel(t *testing.T) {
	if !isChineseModel("zh_CN-huayan-medium") {
		t.Error("zh_CN model not detected")
	}
	if isChineseModel("en_US-ryan-low") {
		t.Error("en_US model detected as Chinese")
	}
}
