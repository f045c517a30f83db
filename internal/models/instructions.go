package models

import (
	"strings"
	"unicode"
)

// ParseInstructions splits an exercise's how-to text (or its description
// when there is no how-to) into steps. Paragraph breaks and sentence ends
// followed by a capital letter separate steps, leading "1." or "2)"
// numbering is dropped, and fragments of five characters or fewer are
// discarded.
func ParseInstructions(description, howTo string) []string {
	source := howTo
	if strings.TrimSpace(source) == "" {
		source = description
	}
	if strings.TrimSpace(source) == "" {
		return []string{}
	}

	var steps []string
	for _, s := range splitSteps(source) {
		s = strings.TrimSpace(stripNumbering(s))
		if len(s) > 5 {
			steps = append(steps, s)
		}
	}
	if len(steps) > 1 {
		return steps
	}

	steps = steps[:0]
	for _, s := range splitSentences(source) {
		s = strings.TrimSuffix(strings.TrimSpace(s), ".")
		if len(s) > 5 {
			steps = append(steps, s)
		}
	}
	if steps == nil {
		return []string{}
	}
	return steps
}

// splitSteps breaks on runs of two or more newlines, and on a period
// followed by whitespace and an upper-case letter. The period is consumed.
func splitSteps(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	runes := []rune(text)

	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		switch {
		case runes[i] == '\n':
			j := i
			for j < len(runes) && runes[j] == '\n' {
				j++
			}
			if j-i >= 2 {
				out = append(out, string(runes[start:i]))
				start = j
			}
			i = j - 1
		case runes[i] == '.':
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j > i+1 && j < len(runes) && unicode.IsUpper(runes[j]) {
				out = append(out, string(runes[start:i]))
				start = j
				i = j - 1
			}
		}
	}
	return append(out, string(runes[start:]))
}

func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j > i+1 {
			out = append(out, string(runes[start:i]))
			start = j
			i = j - 1
		}
	}
	return append(out, string(runes[start:]))
}

func stripNumbering(s string) string {
	t := strings.TrimLeft(s, " \t\n")
	i := 0
	for i < len(t) && t[i] >= '0' && t[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(t) || (t[i] != '.' && t[i] != ')') {
		return s
	}
	return strings.TrimLeft(t[i+1:], " \t\n")
}
