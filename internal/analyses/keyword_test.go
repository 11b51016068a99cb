package analyses

import "testing"

func TestFilterByKeyword(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		keyword string
		want    string
	}{
		{name: "empty keyword", text: "Good food. Bad service.", keyword: "", want: "Good food. Bad service."},
		{name: "single match", text: "Good food. Bad service. Great view.", keyword: "service", want: " Bad service"},
		{name: "case insensitive", text: "Bitcoin rose. ETH fell. bitcoin dipped", keyword: "BITCOIN", want: "Bitcoin rose. bitcoin dipped"},
		{name: "no match", text: "Good food. Bad service.", keyword: "price", want: ""},
		{name: "substring inside word", text: "Unserviceable parts. Fine.", keyword: "service", want: "Unserviceable parts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterByKeyword(tt.text, tt.keyword); got != tt.want {
				t.Fatalf("FilterByKeyword(%q, %q) = %q, want %q", tt.text, tt.keyword, got, tt.want)
			}
		})
	}
}

func TestPreviewFor(t *testing.T) {
	short := "short text"
	if got := previewFor(short); got != short {
		t.Fatalf("expected short text unchanged, got %q", got)
	}

	long := ""
	for i := 0; i < 210; i++ {
		long += "é"
	}
	got := previewFor(long)
	want := long[:len("é")*200] + "..."
	if got != want {
		t.Fatalf("expected 200 runes plus ellipsis, got %d bytes", len(got))
	}
}
