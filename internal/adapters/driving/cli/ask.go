package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pagewise/internal/core/domain"
)

var (
	askJSON    bool
	askURL     string
	askContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed pages",
	Long: `Retrieves the chunks most similar to the question and asks the language
model to answer from them alone, in at most three sentences.

The question may be given as arguments or piped on stdin. Use --url to
ingest a page first in the same run.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().StringVarP(&askURL, "url", "u", "", "ingest this page before asking")
	askCmd.Flags().BoolVar(&askContext, "show-context", false, "print the retrieved chunks")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question, err := readQuestion(cmd, args)
	if err != nil {
		return err
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if askURL != "" {
		if _, err := rt.Pipeline.Ingest(cmd.Context(), askURL); err != nil {
			return err
		}
	}

	answer, err := rt.Pipeline.Answer(cmd.Context(), question)
	if err != nil {
		return err
	}

	if askJSON {
		return outputJSON(cmd, answerJSON(answer))
	}

	cmd.Println(answer.Text)
	if sources := answer.Sources(); len(sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range sources {
			cmd.Printf("  - %s\n", s)
		}
	}
	if askContext {
		cmd.Println()
		for i, m := range answer.Matches {
			cmd.Printf("[%d] %.3f %s\n%s\n\n", i+1, m.Score, m.Source(), m.Text)
		}
	}
	return nil
}

// readQuestion joins args, or reads stdin when it is not a terminal.
func readQuestion(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		q := strings.TrimSpace(strings.Join(args, " "))
		if q == "" {
			return "", errors.New("question is empty")
		}
		return q, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("a question is required")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading question from stdin: %w", err)
	}
	q := strings.TrimSpace(string(data))
	if q == "" {
		return "", errors.New("a question is required")
	}
	return q, nil
}

type askOutput struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Unknown  bool          `json:"unknown"`
	Sources  []string      `json:"sources"`
	Matches  []matchOutput `json:"matches"`
}

type matchOutput struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
	Text   string  `json:"text"`
}

func answerJSON(a *domain.Answer) askOutput {
	out := askOutput{
		Question: a.Question,
		Answer:   a.Text,
		Unknown:  a.Unknown,
		Sources:  a.Sources(),
		Matches:  make([]matchOutput, 0, len(a.Matches)),
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	for _, m := range a.Matches {
		out.Matches = append(out.Matches, matchOutput{ID: m.ID, Score: m.Score, Source: m.Source(), Text: m.Text})
	}
	return out
}
