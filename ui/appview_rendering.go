package ui

import (
	"fmt"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"

	"loom/config"
	"loom/model"
	"loom/stream"
)

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.dataModel.Messages) == 0 {
		a.viewport.SetContent("No messages yet. Start chatting!")
		return
	}

	var content strings.Builder

	for i, msg := range a.dataModel.Messages {
		// The streaming placeholder is rendered by updateStreamingMessage
		if a.dataModel.Streaming && i == len(a.dataModel.Messages)-1 && msg.Role == "assistant" {
			content.WriteString(a.renderLiveReply())
			continue
		}

		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		var roleStyle = DimStyle
		var roleName string
		switch msg.Role {
		case "user":
			roleStyle = UserStyle
			roleName = "You"
		case "assistant":
			roleStyle = AssistantStyle
			roleName = "Assistant"
		default:
			roleStyle = DimStyle
			roleName = "System"
		}

		role := roleStyle.Render(roleName)

		if msg.Role == "user" {
			content.WriteString(formatUserMessage(timestamp, role, msg.Rendered))
			continue
		}

		// Assistant messages show their tool invocations above the text.
		var body strings.Builder
		for _, tc := range msg.ToolCalls {
			body.WriteString(a.renderToolCallBlock(tc))
			body.WriteString("\n")
		}
		body.WriteString(msg.Rendered)

		content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, body.String()))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// updateStreamingMessage refreshes the viewport while a reply streams.
func (a *AppView) updateStreamingMessage() {
	a.updateViewportContent(true)
}

// renderLiveReply renders the in-flight reply from the latest composed view:
// text and completed tool calls interleaved in arrival order, with a cursor
// after the trailing text.
func (a *AppView) renderLiveReply() string {
	timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
	role := AssistantStyle.Render("Assistant")

	var body strings.Builder
	if len(a.streamView.Segments) == 0 {
		body.WriteString(a.loadingSpinner.View())
	} else {
		for _, seg := range a.streamView.Segments {
			switch seg.Kind {
			case stream.SegmentText:
				body.WriteString(seg.Text)
			case stream.SegmentToolCall:
				if seg.ToolCall != nil {
					body.WriteString("\n")
					body.WriteString(a.renderToolCallBlock(*seg.ToolCall))
					body.WriteString("\n")
				}
			}
		}
		body.WriteString("▋")
	}

	return fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, body.String())
}

// renderToolCallBlock draws one completed tool invocation as a bordered
// summary line with truncated argument and response previews.
func (a *AppView) renderToolCallBlock(tc stream.ToolCallRecord) string {
	width := a.width - 8
	if width < 20 {
		width = 20
	}

	status := DimStyle.Render("…")
	if tc.Success != nil {
		if *tc.Success {
			status = UserStyle.Render("✓")
		} else {
			status = ErrorStyle.Render("✗")
		}
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("🔧 %s %s", ToolNameStyle.Render(tc.Name), status))
	if len(tc.Arguments) > 0 {
		lines = append(lines, DimStyle.Render(truncateLine("args: "+string(tc.Arguments), width)))
	}
	if len(tc.Response) > 0 {
		lines = append(lines, DimStyle.Render(truncateLine("result: "+string(tc.Response), width)))
	}

	return ToolBlockStyle.Render(strings.Join(lines, "\n"))
}

// truncateLine collapses whitespace and cuts the line at the display width,
// counting double-width runes correctly.
func truncateLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}

func formatUserMessage(timestamp, role, content string) string {
	greenBold := "\x1b[32;1m"
	reset := "\x1b[0m"
	bar := greenBold + "┃" + reset

	lines := strings.Split(content, "\n")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range lines {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

func (a AppView) renderMarkdownAsync(messageIndex int, content string) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		start := time.Now()

		// Render with go-term-markdown. Autolink stays disabled so the
		// terminal emulator handles URL detection itself.
		defaultExt := markdown.Extensions()
		customExt := defaultExt &^ parser.Autolink
		p := parser.NewWithExtensions(customExt)
		r := markdown.NewRenderer(width-4, 0)
		doc := p.Parse([]byte(content))
		rendered := gomarkdown.Render(doc, r)

		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Markdown rendered for message %d in %v", messageIndex, time.Since(start))
		}

		return model.MarkdownRenderedMsg{
			MessageIndex: messageIndex,
			Rendered:     strings.TrimRight(string(rendered), "\n"),
		}
	}
}
