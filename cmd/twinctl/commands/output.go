package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

var choiceLabels = []string{"①", "②", "③", "④", "⑤"}

func printClassification(w io.Writer, c *models.Classification) {
	if c == nil {
		return
	}
	fmt.Fprintf(w, "과목: %s | 학년: %s | 단원: %s", c.Subject, c.Grade, c.Topic)
	if c.SubTopic != "" {
		fmt.Fprintf(w, " > %s", c.SubTopic)
	}
	fmt.Fprintf(w, " | 유형: %s | 난이도: %s\n\n", c.Type, c.Difficulty)
}

func printVariant(w io.Writer, number int, v models.ProblemVariant) {
	fmt.Fprintf(w, "%d. %s\n", number, strings.TrimSpace(v.Question))
	for i, choice := range v.Choices {
		label := fmt.Sprintf("(%d)", i+1)
		if i < len(choiceLabels) {
			label = choiceLabels[i]
		}
		fmt.Fprintf(w, "   %s %s\n", label, choice)
	}
	fmt.Fprintf(w, "   정답: %d번\n", v.Answer)
	if v.Explanation != "" {
		fmt.Fprintf(w, "   해설: %s\n", v.Explanation)
	}
	fmt.Fprintln(w)
}

func printSaved(w io.Writer, problems []models.SavedProblem) {
	if len(problems) == 0 {
		fmt.Fprintln(w, "저장된 문제가 없습니다.")
		return
	}
	for _, p := range problems {
		question := strings.Join(strings.Fields(p.Question), " ")
		if r := []rune(question); len(r) > 60 {
			question = string(r[:60]) + "…"
		}
		fmt.Fprintf(w, "%s  %s  %-6s %-4s %s\n",
			p.ID, p.CreatedAt.Local().Format("2006-01-02"), p.Subject(), p.Difficulty, question)
	}
}
