package devserver

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Generate handles POST /generate with a canned, deterministic response so
// title suggestion and summarization work offline. The first words of the
// prompt's quoted content seed the output.
func (s *Server) Generate(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondStatus(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return respondStatus(c, fiber.StatusBadRequest, "A prompt is required")
	}

	var text string
	if strings.Contains(req.Prompt, "suggest a short, catchy title") {
		text = cannedTitle(req.Prompt)
	} else {
		text = cannedSummary(req.Prompt)
	}
	return c.JSON(fiber.Map{"text": text})
}

func cannedTitle(prompt string) string {
	words := strings.Fields(contentOf(prompt))
	if len(words) > 6 {
		words = words[:6]
	}
	if len(words) == 0 {
		return "Campus Update"
	}
	return strings.Join(words, " ")
}

func cannedSummary(prompt string) string {
	content := contentOf(prompt)
	if len(content) > 120 {
		content = content[:120] + "..."
	}
	if content == "" {
		return "A post on the campus feed."
	}
	return "In short: " + content
}

// contentOf extracts the user content between the prompt's delimiters, or
// after the last colon when no delimiters are present.
func contentOf(prompt string) string {
	if _, after, ok := strings.Cut(prompt, "---\n"); ok {
		if inner, _, ok := strings.Cut(after, "\n---"); ok {
			return strings.TrimSpace(inner)
		}
	}
	if idx := strings.LastIndex(prompt, "Content:"); idx >= 0 {
		return strings.TrimSpace(prompt[idx+len("Content:"):])
	}
	return strings.TrimSpace(prompt)
}
