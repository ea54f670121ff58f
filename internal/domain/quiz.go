package domain

// QuizQuestion is the shape the quiz modal works with.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// IsCorrect reports whether option index answers the question.
func (q QuizQuestion) IsCorrect(option int) bool {
	return option == q.CorrectAnswer
}

// QuizDocument is the quiz file format written by the generator and served
// by GET /api/quiz/{videoId}.
type QuizDocument struct {
	Questions []QuizDocumentQuestion `json:"questions"`
}

// QuizDocumentQuestion is one question in generator format.
type QuizDocumentQuestion struct {
	Question     string   `json:"question"`
	Choices      []string `json:"choices"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
}

// correct returns the answer index, defaulting to the first choice, and
// whether it addresses one of the choices.
func (q QuizDocumentQuestion) correct() (int, bool) {
	idx := 0
	if q.CorrectIndex != nil {
		idx = *q.CorrectIndex
	}
	return idx, len(q.Choices) > 0 && idx >= 0 && idx < len(q.Choices)
}

// ToQuestions maps the document into modal questions. Questions without
// choices or whose correct index is out of range are dropped and counted.
func (d QuizDocument) ToQuestions() (questions []QuizQuestion, dropped int) {
	questions = make([]QuizQuestion, 0, len(d.Questions))
	for _, q := range d.Questions {
		idx, ok := q.correct()
		if !ok {
			dropped++
			continue
		}
		questions = append(questions, QuizQuestion{
			Question:      q.Question,
			Options:       append([]string(nil), q.Choices...),
			CorrectAnswer: idx,
			Explanation:   q.Explanation,
		})
	}
	return questions, dropped
}

// Sanitized returns the document without the questions ToQuestions would drop.
func (d QuizDocument) Sanitized() QuizDocument {
	out := QuizDocument{Questions: make([]QuizDocumentQuestion, 0, len(d.Questions))}
	for _, q := range d.Questions {
		if _, ok := q.correct(); ok {
			out.Questions = append(out.Questions, q)
		}
	}
	return out
}

// QuizPoints converts a quiz result into leaderboard points (0-100).
func QuizPoints(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	if score > total {
		score = total
	}
	return (score*100 + total/2) / total
}
