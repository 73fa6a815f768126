package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"edu-quiz-service/internal/app"
	"edu-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs one quiz session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var name string
	var want domain.SessionDescriptor

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a timed quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rt, err := loadRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			p := &player{
				quiz:  rt.quiz,
				setup: rt.setup,
				in:    bufio.NewReader(cmd.InOrStdin()),
				out:   cmd.OutOrStdout(),
			}
			return p.run(ctx, name, want)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "player name (prompted when unset)")
	cmd.Flags().StringVar(&want.SubjectID, "subject", "", "subject id (defaults to the first subject)")
	cmd.Flags().StringVar(&want.LevelID, "level", "", "level id (defaults to the first level of the subject)")
	cmd.Flags().StringVar(&want.TopicID, "topic", "", "topic id (defaults to the first topic of the level)")
	return cmd
}

type player struct {
	quiz  *app.QuizService
	setup *app.SetupService
	in    *bufio.Reader
	out   io.Writer
}

func (p *player) run(ctx context.Context, name string, want domain.SessionDescriptor) error {
	if err := p.ensurePlayer(ctx, name); err != nil {
		return err
	}

	cat, err := p.setup.Catalog(ctx, want)
	if err != nil {
		return err
	}
	view, err := p.quiz.Start(ctx, cat.Selected)
	if errors.Is(err, domain.ErrMissingScope) {
		return fmt.Errorf("nothing to play: add a subject, level and topic first")
	}
	if err != nil {
		return err
	}
	defer p.quiz.Close(context.Background(), view.SessionID)

	fmt.Fprintf(p.out, "%s, playing %s / %s / %s\n", cat.PlayerName,
		nameOf(cat.Subjects, cat.Selected.SubjectID, func(v domain.Subject) (string, string) { return v.ID, v.Name }),
		nameOf(cat.Levels, cat.Selected.LevelID, func(v domain.Level) (string, string) { return v.ID, v.Name }),
		nameOf(cat.Topics, cat.Selected.TopicID, func(v domain.Topic) (string, string) { return v.ID, v.Name }),
	)

	updates, cancel, err := p.quiz.Subscribe(ctx, view.SessionID)
	if err != nil {
		return err
	}
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := p.in.ReadString('\n')
			if line = strings.TrimSpace(line); line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	r := renderer{out: p.out, lastIndex: -1}
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(p.out, "\nquiz abandoned, no result recorded")
			return nil
		case v, ok := <-updates:
			if !ok {
				return nil
			}
			r.render(v)
			if v.Phase == app.PhaseEmpty || v.Phase == app.PhaseFinished {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			n, err := strconv.Atoi(line)
			if err != nil {
				fmt.Fprintln(p.out, "enter an option number")
				continue
			}
			if _, err := p.quiz.Select(ctx, view.SessionID, n-1); err != nil {
				fmt.Fprintf(p.out, "%v\n", err)
			}
		}
	}
}

func (p *player) ensurePlayer(ctx context.Context, name string) error {
	if strings.TrimSpace(name) != "" {
		_, err := p.setup.SetPlayerName(ctx, name)
		return err
	}
	_, err := p.setup.PlayerName(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNoPlayer) {
		return err
	}
	fmt.Fprint(p.out, "Your name: ")
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return domain.ErrNoPlayer
	}
	_, err = p.setup.SetPlayerName(ctx, line)
	return err
}

// renderer prints each view change once.
type renderer struct {
	out       io.Writer
	lastIndex int
	lastPhase app.Phase
}

func (r *renderer) render(v app.View) {
	switch v.Phase {
	case app.PhaseEmpty:
		fmt.Fprintln(r.out, v.Message)
	case app.PhasePresenting:
		if v.Index != r.lastIndex || r.lastPhase != app.PhasePresenting {
			fmt.Fprintf(r.out, "\nQuestion %d/%d: %s\n", v.Index+1, v.Total, v.Question)
			for i, opt := range v.Options {
				fmt.Fprintf(r.out, "  %d) %s\n", i+1, opt.Text)
			}
		} else if v.TimeLeft <= 5 || v.TimeLeft%5 == 0 {
			fmt.Fprintf(r.out, "  %ds left\n", v.TimeLeft)
		}
	case app.PhaseLocked:
		if r.lastPhase == app.PhaseLocked && v.Index == r.lastIndex {
			break
		}
		if v.TimedOut {
			fmt.Fprintln(r.out, "  time's up!")
		}
		for i, opt := range v.Options {
			if label := markLabel(opt.Mark); label != "" {
				fmt.Fprintf(r.out, "  %d) %s  [%s]\n", i+1, opt.Text, label)
			}
		}
	case app.PhaseFinished:
		fmt.Fprintf(r.out, "\nScore: %d / %d. %s\n", v.Score, v.Total, v.Message)
		fmt.Fprintln(r.out, "Run `quiz-service play` for another topic or `quiz-service results` for history.")
	}
	r.lastIndex = v.Index
	r.lastPhase = v.Phase
}

func markLabel(mark app.OptionMark) string {
	switch mark {
	case app.MarkChosenCorrect:
		return "your answer, correct"
	case app.MarkChosenIncorrect:
		return "your answer, wrong"
	case app.MarkCorrect:
		return "correct answer"
	default:
		return ""
	}
}

func nameOf[T any](items []T, id string, key func(T) (string, string)) string {
	for _, item := range items {
		if itemID, name := key(item); itemID == id {
			return name
		}
	}
	return id
}
