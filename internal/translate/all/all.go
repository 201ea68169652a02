// Package all exists purely to pull in every converter package's init()
// registration as a side effect, the same role the teacher's
// `_ "github.com/router-for-me/CLIProxyAPI/v6/internal/translator"` blank
// import plays in cmd/server/main.go.
package all

import (
	_ "github.com/llmproxy/claude-proxy-router/internal/translate/claudegemini"
	_ "github.com/llmproxy/claude-proxy-router/internal/translate/claudeopenai"
	_ "github.com/llmproxy/claude-proxy-router/internal/translate/openaigemini"
)
