package chat

import "testing"

func TestSplitThinking(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantThinking string
		wantAnswer   string
	}{
		{
			name:         "well formed",
			response:     "<thinking>the user asks about X</thinking>X is a thing.",
			wantThinking: "the user asks about X",
			wantAnswer:   "X is a thing.",
		},
		{
			name:         "leading whitespace before tag",
			response:     "  \n<thinking>reasoning</thinking>\nanswer",
			wantThinking: "reasoning",
			wantAnswer:   "answer",
		},
		{
			name:         "no markers",
			response:     "just a plain answer",
			wantThinking: "",
			wantAnswer:   "just a plain answer",
		},
		{
			name:         "text before opening tag",
			response:     "preamble <thinking>x</thinking> answer",
			wantThinking: "",
			wantAnswer:   "preamble <thinking>x</thinking> answer",
		},
		{
			name:         "unclosed tag",
			response:     "<thinking>never closed",
			wantThinking: "",
			wantAnswer:   "<thinking>never closed",
		},
		{
			name:         "empty thinking block",
			response:     "<thinking></thinking>answer",
			wantThinking: "",
			wantAnswer:   "answer",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			thinking, answer := SplitThinking(tc.response)
			if thinking != tc.wantThinking {
				t.Errorf("thinking = %q, want %q", thinking, tc.wantThinking)
			}
			if answer != tc.wantAnswer {
				t.Errorf("answer = %q, want %q", answer, tc.wantAnswer)
			}
		})
	}
}
