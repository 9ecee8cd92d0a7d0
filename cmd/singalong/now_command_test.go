package main

import (
	"bytes"
	"testing"

	"singalong/internal/ipc"
)

func TestPrintNow(t *testing.T) {
	tests := []struct {
		name   string
		status ipc.StatusResponse
		want   string
	}{
		{name: "silence", status: ipc.StatusResponse{}, want: "(silence)\n"},
		{name: "no lyrics", status: ipc.StatusResponse{TrackID: 7}, want: "track 7: no lyrics\n"},
		{
			name: "line",
			status: ipc.StatusResponse{
				TrackID:      42,
				ElapsedMs:    20_700,
				LyricsLoaded: true,
				Lyric:        ipc.Lyric{Current: "Line two"},
			},
			want: "[00:20.700] Line two\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printNow(&buf, &tt.status)
			if buf.String() != tt.want {
				t.Fatalf("printNow = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestLyricKeyChanges(t *testing.T) {
	base := ipc.StatusResponse{TrackID: 42, LyricsLoaded: true, Lyric: ipc.Lyric{LineIndex: 1}}
	same := base
	same.ElapsedMs = 5000
	if keyOf(&base) != keyOf(&same) {
		t.Fatal("elapsed time alone should not change the key")
	}
	next := base
	next.Lyric.LineIndex = 2
	if keyOf(&base) == keyOf(&next) {
		t.Fatal("line change should change the key")
	}
}
