package service

import (
	"fmt"
	"strings"
)

// Persona bundles everything that differs between the deployments of the
// service: prompt wording, the verbatim fallback sentence and UI strings.
type Persona struct {
	Name     string
	Fallback string
	Template string
	UI       PersonaUI
}

// PersonaUI holds the strings rendered by the chat page.
type PersonaUI struct {
	Lang        string
	Title       string
	Heading     string
	Subtitle    string
	Greeting    string
	Placeholder string
	Send        string
	Thinking    string
	ErrorPrefix string
	Accent      string
}

const leadershipFallback = "I don't know. That isn't covered in 'Leaders Eat Last'."

const leadershipTemplate = `You are Simon Sinek's digital twin.
Use only the following context from 'Leaders Eat Last' to answer the question.
If the context does not contain the answer, reply exactly: "` + leadershipFallback + `"

Context:
{context}

Question: {question}

Simon's Answer:`

const fatturaFallback = "Non trovo questa informazione nella Guida alla Fattura Elettronica."

const fatturaTemplate = `Sei l'assistente dell'Agenzia delle Entrate per la Fattura Elettronica.
Usa solo il seguente contesto tratto dalla Guida alla Fattura Elettronica per rispondere alla domanda.
Se il contesto non contiene la risposta, rispondi esattamente: "` + fatturaFallback + `"

Contesto:
{context}

Domanda: {question}

Risposta:`

var personas = map[string]Persona{
	"leadership": {
		Name:     "leadership",
		Fallback: leadershipFallback,
		Template: leadershipTemplate,
		UI: PersonaUI{
			Lang:        "en",
			Title:       "Leadership Oracle",
			Heading:     "Leaders Eat Last Oracle",
			Subtitle:    "Ask Simon Sinek's digital twin about leadership, trust and the Circle of Safety",
			Greeting:    "Hi! I'm Simon's digital twin. Ask me anything about 'Leaders Eat Last'.",
			Placeholder: "e.g. What does Sinek say about trust?",
			Send:        "Send",
			Thinking:    "Simon is thinking...",
			ErrorPrefix: "Error",
			Accent:      "blue",
		},
	},
	"fattura": {
		Name:     "fattura",
		Fallback: fatturaFallback,
		Template: fatturaTemplate,
		UI: PersonaUI{
			Lang:        "it",
			Title:       "Fattura Elettronica Assistant",
			Heading:     "Agenzia Entrate Assistant",
			Subtitle:    "Chiedi tutto sulla Guida alla Fattura Elettronica",
			Greeting:    "Ciao! Sono l'assistente per la Fattura Elettronica. Chiedimi di codici, tipi documento (TDxx) e natura IVA (Nxx).",
			Placeholder: "Es: Quale codice TD uso per l'autofattura?",
			Send:        "Invia",
			Thinking:    "L'assistente sta consultando la guida...",
			ErrorPrefix: "Errore",
			Accent:      "green",
		},
	},
}

// PersonaByName returns the named persona.
func PersonaByName(name string) (Persona, error) {
	p, ok := personas[name]
	if !ok {
		return Persona{}, fmt.Errorf("unknown persona %q", name)
	}
	return p, nil
}

// WithTemplate returns a copy of p using tmpl as prompt. An empty tmpl keeps the default.
func (p Persona) WithTemplate(tmpl string) Persona {
	if tmpl != "" {
		p.Template = tmpl
	}
	return p
}

// FillPrompt substitutes {context} and {question} in one pass, so placeholder
// text inside the document or the question is left untouched.
func FillPrompt(template, contextText, question string) string {
	return strings.NewReplacer("{context}", contextText, "{question}", question).Replace(template)
}
