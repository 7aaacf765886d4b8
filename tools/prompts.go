package tools

import (
	"fmt"
	"strings"
)

type SermonPrompt struct {
	Theme     string `json:"theme" form:"theme"`
	BibleText string `json:"bible_text" form:"bible_text"`
	Audience  string `json:"audience" form:"audience"`
	Style     string `json:"style" form:"style"`
	Minutes   int    `json:"minutes" form:"minutes"`
}

func (p SermonPrompt) MissingFields() string {
	if strings.TrimSpace(p.Theme) == "" && strings.TrimSpace(p.BibleText) == "" {
		return "theme"
	}
	return ""
}

// Build monta o pedido enviado ao modelo.
func (p SermonPrompt) Build() string {
	var sb strings.Builder
	sb.WriteString("Escreva um sermão completo com título, introdução, tópicos desenvolvidos, aplicação prática e conclusão.\n")
	if p.Theme != "" {
		fmt.Fprintf(&sb, "Tema: %s\n", p.Theme)
	}
	if p.BibleText != "" {
		fmt.Fprintf(&sb, "Texto bíblico base: %s\n", p.BibleText)
	}
	if p.Audience != "" {
		fmt.Fprintf(&sb, "Público: %s\n", p.Audience)
	}
	if p.Style != "" {
		fmt.Fprintf(&sb, "Estilo: %s\n", p.Style)
	}
	if p.Minutes > 0 {
		fmt.Fprintf(&sb, "Duração aproximada: %d minutos\n", p.Minutes)
	}
	sb.WriteString("A primeira linha da resposta deve ser apenas o título.")
	return sb.String()
}

type BibleStudyPrompt struct {
	BibleText string `json:"bible_text" form:"bible_text"`
	Focus     string `json:"focus" form:"focus"`
	Lessons   int    `json:"lessons" form:"lessons"`
}

func (p BibleStudyPrompt) MissingFields() string {
	if strings.TrimSpace(p.BibleText) == "" {
		return "bible_text"
	}
	return ""
}

func (p BibleStudyPrompt) Build() string {
	var sb strings.Builder
	sb.WriteString("Prepare um estudo bíblico com contexto histórico, explicação versículo a versículo, perguntas para discussão e aplicação.\n")
	fmt.Fprintf(&sb, "Texto: %s\n", p.BibleText)
	if p.Focus != "" {
		fmt.Fprintf(&sb, "Foco: %s\n", p.Focus)
	}
	if p.Lessons > 0 {
		fmt.Fprintf(&sb, "Divida em %d lições.\n", p.Lessons)
	}
	sb.WriteString("A primeira linha da resposta deve ser apenas o título.")
	return sb.String()
}

// SplitTitle separa a primeira linha (título) do restante do texto gerado.
func SplitTitle(text, fallback string) (string, string) {
	text = strings.TrimSpace(text)
	line, rest, found := strings.Cut(text, "\n")
	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "#*"))
	if !found || title == "" {
		return fallback, text
	}
	if r := []rune(title); len(r) > 200 {
		title = string(r[:200])
	}
	return title, strings.TrimSpace(rest)
}
