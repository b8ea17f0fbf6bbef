// Package flashcard parses the Q:/A: study deck text format.
//
// A deck file looks like this:
//
//	Q: What is the capital of France?
//	A: Paris
//
//	Q: Name the four chambers
//	of the heart.
//	A: Left atrium
//	Right atrium
//	Left ventricle
//	Right ventricle
//
// Lines that don't start a question or an answer continue whichever side is
// currently being accumulated.
package flashcard

import "strings"

// Card is one question/answer pair.
type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Parse scans deck text line by line. A line starting with "Q:" (or "q:")
// begins a new card, a line starting with "A:" (or "a:") begins the answer,
// and any other non-blank line is appended, newline separated, to whichever
// side is open. A card missing either side is dropped, never emitted with an
// empty half. Card order matches file order.
func Parse(content string) []Card {
	cards := []Card{}
	question := ""
	answer := ""
	readingAnswer := false

	flush := func() {
		q := strings.TrimSpace(question)
		a := strings.TrimSpace(answer)
		if q != "" && a != "" {
			cards = append(cards, Card{Question: q, Answer: a})
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		marker := ""
		if len(line) >= 2 {
			marker = strings.ToLower(line[:2])
		}
		switch {
		case marker == "q:":
			flush()
			question = strings.TrimSpace(line[2:])
			answer = ""
			readingAnswer = false
		case marker == "a:":
			answer = strings.TrimSpace(line[2:])
			readingAnswer = true
		case readingAnswer && line != "":
			answer += "\n" + line
		case !readingAnswer && line != "" && question != "":
			question += "\n" + line
		}
	}
	flush()
	return cards
}

// Serialize renders cards back into deck format. Parse(Serialize(cards))
// returns the same cards.
func Serialize(cards []Card) string {
	b := strings.Builder{}
	for _, c := range cards {
		b.WriteString("Q: ")
		b.WriteString(c.Question)
		b.WriteString("\nA: ")
		b.WriteString(c.Answer)
		b.WriteString("\n")
	}
	return b.String()
}

// Shuffle permutes cards in place with a uniform Fisher-Yates shuffle.
// intn must return a uniform random integer in [0, n), eg math/rand.Intn.
func Shuffle(cards []Card, intn func(n int) int) {
	for i := len(cards) - 1; i > 0; i-- {
		j := intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
