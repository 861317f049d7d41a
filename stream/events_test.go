package stream

import "testing"

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantOK   bool
		wantErr  bool
		wantType EventType
		check    func(t *testing.T, ev Event)
	}{
		{
			name:     "token",
			frame:    `data: {"type":"token","content":"Hello"}`,
			wantOK:   true,
			wantType: EventToken,
			check: func(t *testing.T, ev Event) {
				if ev.Content != "Hello" {
					t.Errorf("Content = %q, want %q", ev.Content, "Hello")
				}
			},
		},
		{
			name:     "session id",
			frame:    `data: {"type":"session_id","content":"abc-123"}`,
			wantOK:   true,
			wantType: EventSessionID,
			check: func(t *testing.T, ev Event) {
				if ev.Content != "abc-123" {
					t.Errorf("Content = %q, want %q", ev.Content, "abc-123")
				}
			},
		},
		{
			name:     "tool call start",
			frame:    `data: {"type":"tool_call_start","tool_id":"t1","tool_name":"search"}`,
			wantOK:   true,
			wantType: EventToolCallStart,
			check: func(t *testing.T, ev Event) {
				if ev.ToolID != "t1" || ev.ToolName != "search" {
					t.Errorf("tool fields = (%q, %q)", ev.ToolID, ev.ToolName)
				}
			},
		},
		{
			name:     "tool call args",
			frame:    `data: {"type":"tool_call_args","tool_id":"t1","arguments":{"q":"go"}}`,
			wantOK:   true,
			wantType: EventToolCallArgs,
			check: func(t *testing.T, ev Event) {
				if string(ev.Arguments) != `{"q":"go"}` {
					t.Errorf("Arguments = %s", ev.Arguments)
				}
			},
		},
		{
			name:     "tool call complete",
			frame:    `data: {"type":"tool_call_complete","tool_id":"t1","response":{"n":3},"success":true}`,
			wantOK:   true,
			wantType: EventToolCallComplete,
			check: func(t *testing.T, ev Event) {
				if ev.Success == nil || !*ev.Success {
					t.Error("Success not decoded as true")
				}
			},
		},
		{
			name:     "title update",
			frame:    `data: {"type":"title_update","title":"Trip planning"}`,
			wantOK:   true,
			wantType: EventTitleUpdate,
			check: func(t *testing.T, ev Event) {
				if ev.Title != "Trip planning" {
					t.Errorf("Title = %q", ev.Title)
				}
			},
		},
		{
			name:     "end",
			frame:    `data: {"type":"end"}`,
			wantOK:   true,
			wantType: EventEnd,
		},
		{
			name:     "error",
			frame:    `data: {"type":"error","content":"backend unavailable"}`,
			wantOK:   true,
			wantType: EventError,
		},
		{
			name:     "unknown type passes through as unhandled",
			frame:    `data: {"type":"usage_report","tokens":12}`,
			wantOK:   true,
			wantType: EventUnhandled,
			check: func(t *testing.T, ev Event) {
				if ev.RawType != "usage_report" {
					t.Errorf("RawType = %q, want %q", ev.RawType, "usage_report")
				}
			},
		},
		{
			name:   "keep-alive comment is not an event",
			frame:  ": keep-alive",
			wantOK: false,
		},
		{
			name:   "unprefixed line is not an event",
			frame:  "retry: 3000",
			wantOK: false,
		},
		{
			name:    "malformed json on data frame",
			frame:   `data: {"type":`,
			wantErr: true,
		},
		{
			name:    "data frame without type",
			frame:   `data: {"content":"x"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok, err := DecodeFrame(tt.frame)
			if tt.wantErr {
				if err == nil {
					t.Fatal("DecodeFrame() = nil error, want decode failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("DecodeFrame() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", ev.Type, tt.wantType)
			}
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}
