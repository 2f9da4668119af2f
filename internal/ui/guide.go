package ui

import (
	"strings"

	"github.com/klemjul/studybuddy/internal/format"
)

const GUIDE = `## 📖 User Guide

**Study Buddy can help you with:**
- 📝 Explaining subject concepts
- 🧮 Solving math problems
- 💬 Practicing language learning
- 🔬 Understanding scientific principles
- 📚 Providing study advice

**Tips for best results:**
- Ask specific and clear questions
- Request examples for better understanding
- Ask for simpler explanations if needed
`

func renderGuide(width int) string {
	out, err := format.FormatMarkdownWidth(GUIDE, width)
	if err != nil {
		return GUIDE
	}
	return strings.TrimSpace(out)
}
