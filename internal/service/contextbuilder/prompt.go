package contextbuilder

import (
	"fmt"
	"strings"

	"ambient-assistant/internal/models"
	"ambient-assistant/internal/service/llm"
)

const normalPrompt = `You are an ambient assistant that answers questions appearing on the user's screen.
Answer the question directly and concisely. Use the screen content and earlier conversation only when they are relevant.
Prefer efficient, idiomatic code and state time and space complexity when you give an algorithm.`

const suggesterPrompt = `You are a patient programming teacher. Guide the user toward the answer instead of handing over a finished solution.
Break the problem into small steps, explain why each step is needed, and illustrate steps with short code snippets.
Compare approaches from brute force to optimal and point out their time and space complexity.`

const solverPrompt = `You are an expert programmer who delivers complete, working solutions.
Structure the answer as: problem analysis, approach, step-by-step implementation, complete code, and testing notes.
Keep any required function or class signature exactly as given, handle every example and edge case, and state the complexity of the solution.`

var modePrompts = map[models.Mode]string{
	models.ModeNormal:    normalPrompt,
	models.ModeSuggester: suggesterPrompt,
	models.ModeSolver:    solverPrompt,
}

var contentHints = map[string]string{
	"code":          "The screen shows source code. Look for bugs and inefficiencies in the visible code.",
	"documentation": "The screen shows documentation. Relate the answer to the documented API.",
	"design":        "The screen shows a design or diagram. Describe structure before details.",
}

var codeInstructions = map[models.Mode]string{
	models.ModeNormal:    "If you provide any code, comment each non-obvious line.",
	models.ModeSuggester: "Explain every code concept you use.",
	models.ModeSolver:    "Add a comment to each line of code explaining its purpose.",
}

// SystemPrompt returns the system prompt for a mode and content type.
func SystemPrompt(mode models.Mode, contentType, language string) string {
	prompt, ok := modePrompts[mode]
	if !ok {
		prompt = normalPrompt
	}
	if hint, ok := contentHints[contentType]; ok {
		prompt += "\n" + hint
		if contentType == "code" && language != "" {
			prompt += fmt.Sprintf(" The code appears to be %s.", language)
		}
	}
	return prompt
}

// Render turns a packet into chat messages: the system prompt, the thread's
// earlier exchanges, then one user message carrying retrieved memory, the
// screen excerpt and the question.
func Render(p models.ContextPacket) []llm.Message {
	msgs := []llm.Message{{Role: llm.RoleSystem, Content: SystemPrompt(p.Mode, p.ContentType, p.Language)}}

	for _, t := range p.ThreadTurns {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: t.Question},
			llm.Message{Role: llm.RoleAssistant, Content: t.Answer},
		)
	}

	var sb strings.Builder
	if len(p.RetrievedTurns) > 0 {
		sb.WriteString("Relevant earlier conversation:\n")
		for _, t := range p.RetrievedTurns {
			fmt.Fprintf(&sb, "Q: %s\nA: %s\n", t.Question, t.Answer)
		}
		sb.WriteString("\n")
	}
	if p.ScreenExcerpt != "" {
		sb.WriteString("Current screen content:\n")
		sb.WriteString(p.ScreenExcerpt)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(p.Query)
	if strings.Contains(strings.ToLower(p.Query), "code") {
		if instr, ok := codeInstructions[p.Mode]; ok {
			sb.WriteString("\n\n")
			sb.WriteString(instr)
		}
	}

	return append(msgs, llm.Message{Role: llm.RoleUser, Content: sb.String()})
}
