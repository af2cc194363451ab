package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/twinsgen/twin-problem-service/internal/ai"
	"github.com/twinsgen/twin-problem-service/internal/exam"
	"github.com/twinsgen/twin-problem-service/internal/models"
	"github.com/twinsgen/twin-problem-service/internal/ocr"
	"github.com/twinsgen/twin-problem-service/internal/pipeline"
	"github.com/twinsgen/twin-problem-service/internal/store"
)

var (
	genMore     []string
	genSave     bool
	genExamPath string
	genAnswers  bool
	genProvider string
	genModel    string
	genJSON     bool
)

// newServices builds the OCR engine and analyzer for a generate run
var newServices = func(cfg *models.Config, log zerolog.Logger) (pipeline.Extractor, pipeline.Analyzer, error) {
	provider, err := ai.NewProvider(cfg.AI, genProvider, genModel)
	if err != nil {
		return nil, nil, err
	}
	engine, err := ocr.NewEngine(cfg.OCR, provider, log)
	if err != nil {
		return nil, nil, err
	}
	return engine, ai.NewAnalyzer(provider, log), nil
}

var generateCmd = &cobra.Command{
	Use:   "generate IMAGE",
	Short: "Generate twin problems from a problem photo",
	Long: `Run OCR on IMAGE, classify the problem and generate one twin problem.
Each --more adds problems: twin adds one, similar adds two. If a --more round
fails, the problems generated so far are still printed, saved and written to
the exam sheet, and the command exits with the error.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringSliceVar(&genMore, "more", nil, "extra rounds after the first problem (twin|similar, repeatable)")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "save every generated problem to the bank")
	generateCmd.Flags().StringVar(&genExamPath, "exam", "", "write an HTML exam sheet to this file")
	generateCmd.Flags().BoolVar(&genAnswers, "answers", false, "include answers and explanations in the exam sheet")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "AI provider (gemini, openai, ollama)")
	generateCmd.Flags().StringVar(&genModel, "model", "", "model name for the provider")
	generateCmd.Flags().BoolVar(&genJSON, "json", false, "print the run as JSON")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	for _, m := range genMore {
		if !models.Mode(m).Valid() {
			return fmt.Errorf("unknown mode %q for --more: use twin or similar", m)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := cliLogger(cfg)

	timeout := time.Duration(cfg.Pipeline.RunTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout*time.Duration(1+len(genMore)))
	defer cancel()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	in := models.ImageInput{Data: data, Filename: filepath.Base(args[0])}

	extractor, analyzer, err := newServices(cfg, log)
	if err != nil {
		return err
	}
	p := pipeline.New(extractor, analyzer, pipeline.WithLogger(log))

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("텍스트 인식"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	unsubscribe := p.Subscribe(func(ev pipeline.Event) {
		switch {
		case ev.Kind == pipeline.EventProgress:
			_ = bar.Set(ev.Progress)
		case ev.State == pipeline.StateClassifying:
			_ = bar.Finish()
			fmt.Fprintln(os.Stderr, "문제 분석 중...")
		case ev.State == pipeline.StateGenerating:
			fmt.Fprintln(os.Stderr, "문제 생성 중...")
		}
	})
	defer unsubscribe()

	if err := p.Start(ctx, &in); err != nil {
		return err
	}
	var moreErr error
	for i, m := range genMore {
		if _, err := p.GenerateMore(ctx, models.Mode(m)); err != nil {
			moreErr = fmt.Errorf("--more round %d (%s): %w", i+1, m, err)
			fmt.Fprintf(os.Stderr, "추가 생성 실패, 지금까지 생성된 문제만 사용합니다: %v\n", err)
			break
		}
	}

	snap := p.Snapshot()
	out := cmd.OutOrStdout()
	if genJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}
	} else {
		printClassification(out, snap.Classification)
		for i, v := range snap.Variants {
			printVariant(out, i+1, v)
		}
	}

	if genSave {
		if err := saveVariants(ctx, cfg, snap); err != nil {
			return err
		}
	}
	if genExamPath != "" {
		if err := writeExam(cfg.Exam, genExamPath, snap); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "시험지 저장: %s\n", genExamPath)
	}
	return moreErr
}

func saveVariants(ctx context.Context, cfg *models.Config, snap pipeline.Snapshot) error {
	problems, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer problems.Close()

	for i, v := range snap.Variants {
		saved, err := problems.Save(ctx, store.SaveRequest{Variant: v, Classification: snap.Classification})
		if err != nil {
			return fmt.Errorf("save problem %d: %w", i+1, err)
		}
		fmt.Fprintf(os.Stderr, "저장됨: %s\n", saved.ID)
	}
	return nil
}

func writeExam(examCfg models.ExamConfig, path string, snap pipeline.Snapshot) error {
	renderer, err := exam.NewRenderer(examCfg)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create exam file: %w", err)
	}
	sheet := exam.Sheet{
		Date:        time.Now(),
		Problems:    snap.Variants,
		ShowAnswers: genAnswers,
	}
	if snap.Classification != nil {
		sheet.Subject = snap.Classification.Subject
	}
	if err := renderer.Render(f, sheet); err != nil {
		f.Close()
		return fmt.Errorf("render exam: %w", err)
	}
	return f.Close()
}
