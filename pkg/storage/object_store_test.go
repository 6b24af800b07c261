package storage

import "testing"

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"my dream.mp4":        "my_dream.mp4",
		"  spaced  ":          "spaced",
		"weird!!name??.webm":  "weird_name_.webm",
		"__leading.mov":       "leading.mov",
		"ünïcode clip.mp4":    "n_code_clip.mp4",
		"":                    "",
		"already_clean-1.mp4": "already_clean-1.mp4",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVideoKey(t *testing.T) {
	if got := VideoKey("cave-crystals", "My Cave.mp4"); got != "videos/cave-crystals/My_Cave.mp4" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := VideoKey("ocean-calm", `C:\clips\waves.mp4`); got != "videos/ocean-calm/waves.mp4" {
		t.Fatalf("windows path not stripped: %q", got)
	}
	if got := VideoKey("sky-bright", "???"); got != "videos/sky-bright/video" {
		t.Fatalf("empty name fallback: %q", got)
	}
}
