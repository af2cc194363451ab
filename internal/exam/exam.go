package exam

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/twinsgen/twin-problem-service/internal/models"
)

// ErrNoProblems is returned when a sheet has nothing to print
var ErrNoProblems = errors.New("exam sheet has no problems")

const defaultSubject = "수학"

var circled = []string{"①", "②", "③", "④", "⑤"}

// Sheet is the content of one printable exam
type Sheet struct {
	Subject     string
	Date        time.Time
	Problems    []models.ProblemVariant
	ShowAnswers bool
}

// Renderer writes exam sheets as printable HTML
type Renderer struct {
	pointsPerProblem decimal.Decimal
	totalPoints      decimal.Decimal
}

// NewRenderer parses the configured points. TotalPoints, when set, wins over
// PointsPerProblem and is split across the problems.
func NewRenderer(cfg models.ExamConfig) (*Renderer, error) {
	r := &Renderer{pointsPerProblem: decimal.NewFromInt(5)}

	if s := strings.TrimSpace(cfg.PointsPerProblem); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid points_per_problem %q: %w", s, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("points_per_problem must be positive, got %s", s)
		}
		r.pointsPerProblem = d
	}
	if s := strings.TrimSpace(cfg.TotalPoints); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid total_points %q: %w", s, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("total_points must be positive, got %s", s)
		}
		r.totalPoints = d
	}
	return r, nil
}

// Points returns the score of each of n problems. With a total configured every
// problem gets the total divided by n truncated to 2 decimals, and the last
// problem absorbs the remainder so the sum is exact.
func (r *Renderer) Points(n int) []decimal.Decimal {
	points := make([]decimal.Decimal, n)
	if n == 0 {
		return points
	}
	if r.totalPoints.IsZero() {
		for i := range points {
			points[i] = r.pointsPerProblem
		}
		return points
	}

	each := r.totalPoints.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	for i := 0; i < n-1; i++ {
		points[i] = each
	}
	points[n-1] = r.totalPoints.Sub(each.Mul(decimal.NewFromInt(int64(n - 1))))
	return points
}

type problemView struct {
	Number      int
	Points      string
	Question    string
	Choices     []choiceView
	Answer      string
	Explanation string
}

type choiceView struct {
	Label string
	Text  string
}

type sheetView struct {
	Title       string
	Date        string
	Count       int
	Total       string
	ShowAnswers bool
	Problems    []problemView
}

// Render writes the sheet as a standalone HTML page
func (r *Renderer) Render(w io.Writer, sheet Sheet) error {
	if len(sheet.Problems) == 0 {
		return ErrNoProblems
	}

	subject := strings.TrimSpace(sheet.Subject)
	if subject == "" {
		subject = defaultSubject
	}
	date := sheet.Date
	if date.IsZero() {
		date = time.Now()
	}

	points := r.Points(len(sheet.Problems))
	total := decimal.Zero
	for _, p := range points {
		total = total.Add(p)
	}

	view := sheetView{
		Title:       subject + " 유사 문제",
		Date:        KoreanDate(date),
		Count:       len(sheet.Problems),
		Total:       total.String(),
		ShowAnswers: sheet.ShowAnswers,
	}
	for i, p := range sheet.Problems {
		pv := problemView{
			Number:      i + 1,
			Points:      points[i].String(),
			Question:    p.Question,
			Explanation: p.Explanation,
			Answer:      answerLabel(p.Answer),
		}
		for j, c := range p.Choices {
			label := fmt.Sprintf("(%d)", j+1)
			if j < len(circled) {
				label = circled[j]
			}
			pv.Choices = append(pv.Choices, choiceView{Label: label, Text: c})
		}
		view.Problems = append(view.Problems, pv)
	}

	return sheetTemplate.Execute(w, view)
}

// KoreanDate formats t as "2026년 3월 1일"
func KoreanDate(t time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
}

func answerLabel(answer int) string {
	if answer >= 1 && answer <= len(circled) {
		return fmt.Sprintf("%s %d번", circled[answer-1], answer)
	}
	return fmt.Sprintf("%d번", answer)
}

var sheetTemplate = template.Must(template.New("exam").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Noto Serif KR", serif; max-width: 210mm; margin: 0 auto; padding: 16mm; color: #000; }
.exam-header { border-bottom: 2px solid #000; padding-bottom: 12px; margin-bottom: 24px; }
.exam-head { display: flex; justify-content: space-between; align-items: flex-start; }
.examinee { border: 1px solid #000; padding: 8px; font-size: 0.9em; min-width: 140px; }
.notice { background: #f7f7f7; border: 1px solid #ccc; padding: 8px 12px; font-size: 0.8em; margin-top: 12px; }
.exam-problem { margin-bottom: 28px; page-break-inside: avoid; }
.problem-head { display: flex; justify-content: space-between; }
.question { padding-left: 24px; white-space: pre-wrap; line-height: 1.6; }
.choices { list-style: none; padding-left: 24px; }
.choices li { margin: 4px 0; }
.choices .label { display: inline-block; min-width: 24px; }
.answer { margin: 12px 0 0 24px; padding: 8px 12px; border-left: 4px solid #3b82f6; background: #eff6ff; }
.exam-footer { text-align: center; font-size: 0.85em; color: #666; border-top: 1px solid #ccc; padding-top: 12px; margin-top: 32px; }
</style>
</head>
<body>
<div class="exam-header">
  <div class="exam-head">
    <div>
      <h1>{{.Title}}</h1>
      <p>{{.Date}}</p>
    </div>
    <div class="examinee">
      <div>수험번호:</div>
      <div>성&nbsp;&nbsp;&nbsp;&nbsp;명:</div>
    </div>
  </div>
  <div class="notice">
    <p><strong>※ 유의사항</strong></p>
    <ul>
      <li>문제지는 총 {{.Count}}문항입니다. (총점 {{.Total}}점)</li>
      <li>각 문항의 정답을 선택지에서 골라 답안을 작성하시기 바랍니다.</li>
      <li>문제는 AI가 생성한 유사 문제입니다.</li>
    </ul>
  </div>
</div>
<div class="exam-content">
{{- range .Problems}}
  <div class="exam-problem">
    <div class="problem-head"><h3>{{.Number}}.</h3><span>[{{.Points}}점]</span></div>
    <div class="question">{{.Question}}</div>
    <ul class="choices">
    {{- range .Choices}}
      <li><span class="label">{{.Label}}</span> {{.Text}}</li>
    {{- end}}
    </ul>
    {{- if $.ShowAnswers}}
    <div class="answer">
      <p><strong>정답: {{.Answer}}</strong></p>
      <p><strong>해설: </strong>{{.Explanation}}</p>
    </div>
    {{- end}}
  </div>
{{- end}}
</div>
<div class="exam-footer"><p>총 {{.Count}}문항 중 {{.Count}}문항</p></div>
</body>
</html>
`))
