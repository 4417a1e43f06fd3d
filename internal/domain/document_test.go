package domain

import "testing"

func TestContentHash_WhitespaceNormalized(t *testing.T) {
	a := ContentHash("hello   world\n\tfoo")
	b := ContentHash("hello world foo")

	if a != b {
		t.Errorf("whitespace variants hash differently: %s vs %s", a, b)
	}
	if a == ContentHash("hello world bar") {
		t.Error("different content hashed equal")
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("abc123", 4); got != "abc123:4" {
		t.Errorf("ChunkID = %q", got)
	}
}

func TestCandidateRelevance(t *testing.T) {
	cases := []struct {
		distance float64
		want     float64
	}{
		{0, 1.0},
		{1, 0.5},
		{3, 0.25},
	}
	for _, tc := range cases {
		c := Candidate{Distance: tc.distance}
		if got := c.Relevance(); got != tc.want {
			t.Errorf("Relevance(dist=%v) = %v, want %v", tc.distance, got, tc.want)
		}
	}
}
