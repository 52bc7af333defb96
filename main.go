package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/example/vocabsrs/internal/database"
	"github.com/example/vocabsrs/internal/engine"
	"github.com/example/vocabsrs/internal/excel"
	"github.com/example/vocabsrs/internal/scheduler"
	"github.com/example/vocabsrs/internal/srs"
	"github.com/example/vocabsrs/pkg/models"
)

const usage = `Usage: vocabsrs <command> [flags]

Commands:
  import    Import a lesson file (.csv or .xlsx) into the schedule
  lesson    List the vocabulary a lesson introduced
  review    Review the cards that are due today
  due       List the cards due today
  weak      List the weakest cards
  list      List every scheduled card
  promote   Schedule a catalogue word for review
  remove    Remove a card from the schedule
  practice  Run an ungraded practice quiz
  stats     Show collection and recent daily statistics
  remind    Run the hourly due-card reminder daemon
  reset     Delete all cards, vocabulary and statistics
`

func main() {
	// Missing .env is fine; the environment may be set directly.
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevelFromEnv(),
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	app, err := newApp(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	ctx := context.Background()

	if err := app.run(ctx, cmd, args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(2)
		}
		logger.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func logLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// app holds the wired collaborators every command works against.
type app struct {
	db     *sqlx.DB
	engine *engine.Engine
	vocab  *database.VocabularyRepository
	stats  *database.StatisticsRepository
	logger *slog.Logger
	out    *bufio.Writer
	in     *bufio.Scanner
}

func newApp(logger *slog.Logger) (*app, error) {
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		return nil, err
	}

	statsRepo := database.NewStatisticsRepository(db)
	eng := engine.New(database.NewCardRepository(db), statsRepo, logger)

	return &app{
		db:     db,
		engine: eng,
		vocab:  database.NewVocabularyRepository(db),
		stats:  statsRepo,
		logger: logger,
		out:    bufio.NewWriter(os.Stdout),
		in:     bufio.NewScanner(os.Stdin),
	}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	defer a.out.Flush()

	report := a.engine.Load(ctx)
	if report.Recovered {
		a.logger.Warn("persisted collection was unreadable, starting empty")
	}

	today := models.DateOf(time.Now())

	switch cmd {
	case "import":
		return a.cmdImport(ctx, args, today)
	case "lesson":
		return a.cmdLesson(ctx, args)
	case "review":
		return a.cmdReview(ctx, args, today)
	case "due":
		return a.cmdDue(today)
	case "weak":
		return a.cmdWeak()
	case "list":
		return a.cmdList(today)
	case "promote":
		return a.cmdPromote(ctx, args, today)
	case "remove":
		return a.cmdRemove(ctx, args)
	case "practice":
		return a.cmdPractice(args)
	case "stats":
		return a.cmdStats(ctx, args, today)
	case "remind":
		return a.cmdRemind()
	case "reset":
		return a.cmdReset(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *app) cmdImport(ctx context.Context, args []string, today time.Time) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	file := fs.String("file", "", "path to the lesson file (.csv or .xlsx)")
	lessonID := fs.String("lesson", "", "lesson identifier, e.g. lesson_03")
	level := fs.String("level", "A1", "CEFR level of the lesson")
	pair := fs.String("pair", "en_to_pt_br", "language pair")
	sheet := fs.String("sheet", "Sheet1", "worksheet name for Excel files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || *lessonID == "" {
		fs.Usage()
		return fmt.Errorf("import requires -file and -lesson")
	}

	config := excel.DefaultImportConfig()
	config.FilePath = *file
	config.SheetName = *sheet

	parsed, err := excel.ReadLesson(config)
	if err != nil {
		return err
	}

	// Every parsed entry lands in the catalogue; the schedule dedupes
	// against cards that already exist.
	for _, entry := range parsed.Entries {
		item := models.NewVocabularyItem(
			engine.CardID(*lessonID, entry.Source),
			entry.Source, entry.Target, *lessonID, *level, *pair,
			entry.Category, today,
		)
		item.Pronunciation = entry.Pronunciation
		item.ExampleSentence = entry.Example
		item.ExampleTranslation = entry.ExampleTranslation
		if err := a.vocab.Upsert(ctx, item); err != nil {
			a.logger.Warn("failed to store catalogue entry", "word_id", item.WordID, "error", err)
		}
	}

	report := a.engine.AddCardsFromLesson(ctx, *lessonID, *pair, *level, parsed.Entries, today)

	fmt.Fprintf(a.out, "Imported %s: %d added, %d already scheduled\n", *lessonID, report.Added, report.Skipped)
	for _, msg := range parsed.Errors {
		fmt.Fprintf(a.out, "  parse: %s\n", msg)
	}
	for _, msg := range report.Errors {
		fmt.Fprintf(a.out, "  skipped: %s\n", msg)
	}
	return nil
}

func (a *app) cmdLesson(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lesson", flag.ContinueOnError)
	lessonID := fs.String("lesson", "", "lesson identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *lessonID == "" {
		fs.Usage()
		return fmt.Errorf("lesson requires -lesson")
	}

	items, err := a.vocab.ByLesson(ctx, *lessonID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(a.out, "No vocabulary recorded for %s\n", *lessonID)
		return nil
	}
	for _, item := range items {
		marker := " "
		if item.InSchedule {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %-24s %-24s %s\n", marker, item.Source, item.Target, item.Category)
	}
	fmt.Fprintf(a.out, "%d words (* = scheduled)\n", len(items))
	return nil
}

func (a *app) cmdReview(ctx context.Context, args []string, today time.Time) error {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "review at most this many cards (0 = all due)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	due := a.engine.DueCards(today)
	if len(due) == 0 {
		fmt.Fprintln(a.out, "Nothing due today.")
		return nil
	}
	engine.SortByPriority(due, today)
	if *limit > 0 && *limit < len(due) {
		due = due[:*limit]
	}

	fmt.Fprintf(a.out, "%d cards to review. Grades: 1=forgot 3=hard 4=good 5=easy, q=quit\n\n", len(due))

	reviewed := 0
	for _, card := range due {
		fmt.Fprintf(a.out, "%s", card.SourceWord)
		if card.Pronunciation != "" {
			fmt.Fprintf(a.out, " [%s]", card.Pronunciation)
		}
		fmt.Fprint(a.out, "\n  (press enter to reveal) ")
		a.out.Flush()
		if !a.in.Scan() {
			break
		}

		fmt.Fprintf(a.out, "  -> %s\n", card.TargetWord)
		if card.ExampleSentence != "" {
			fmt.Fprintf(a.out, "     %s\n", card.ExampleSentence)
		}

		quality, quit := a.askQuality()
		if quit {
			break
		}

		updated, err := a.engine.Review(ctx, card.WordID, quality, today)
		if err != nil {
			a.logger.Warn("review failed", "word_id", card.WordID, "error", err)
			continue
		}
		reviewed++
		fmt.Fprintf(a.out, "  next review in %d day(s), ease %.2f\n\n", updated.Interval, updated.EaseFactor)
	}

	fmt.Fprintf(a.out, "Reviewed %d of %d due cards.\n", reviewed, len(due))
	return nil
}

func (a *app) askQuality() (srs.Quality, bool) {
	for {
		fmt.Fprint(a.out, "  grade (1/3/4/5, q=quit): ")
		a.out.Flush()
		if !a.in.Scan() {
			return 0, true
		}
		answer := strings.TrimSpace(a.in.Text())
		if answer == "q" {
			return 0, true
		}
		n, err := strconv.Atoi(answer)
		if err == nil {
			q := srs.Quality(n)
			if q.Valid() {
				return q, false
			}
		}
		fmt.Fprintln(a.out, "  enter 1, 3, 4 or 5")
	}
}

func (a *app) cmdDue(today time.Time) error {
	due := a.engine.DueCards(today)
	engine.SortByPriority(due, today)
	return a.printCards(due, today, "Nothing due today.")
}

func (a *app) cmdWeak() error {
	weak := a.engine.WeakCards()
	return a.printCards(weak, models.DateOf(time.Now()), "No weak cards.")
}

func (a *app) cmdList(today time.Time) error {
	return a.printCards(a.engine.AllCards(), today, "No cards scheduled yet.")
}

func (a *app) printCards(cards []models.ReviewCard, today time.Time, emptyMsg string) error {
	if len(cards) == 0 {
		fmt.Fprintln(a.out, emptyMsg)
		return nil
	}
	for _, card := range cards {
		due := ""
		if card.IsDue(today) {
			due = " (due)"
		}
		fmt.Fprintf(a.out, "%-32s %-20s ease %.2f  %3d reps  %-10s%s\n",
			card.WordID, card.SourceWord, card.EaseFactor, card.Repetitions, card.Mastery(), due)
	}
	fmt.Fprintf(a.out, "%d cards\n", len(cards))
	return nil
}

func (a *app) cmdPromote(ctx context.Context, args []string, today time.Time) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	wordID := fs.String("word", "", "word id of the catalogue entry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *wordID == "" {
		fs.Usage()
		return fmt.Errorf("promote requires -word")
	}

	item, err := a.vocab.Get(ctx, *wordID)
	if err != nil {
		return err
	}
	added, err := a.engine.PromoteItem(ctx, *item, today)
	if err != nil {
		return err
	}
	if !added {
		fmt.Fprintf(a.out, "%s is already scheduled\n", *wordID)
		return nil
	}
	fmt.Fprintf(a.out, "Scheduled %s (%s -> %s)\n", *wordID, item.Source, item.Target)
	return nil
}

func (a *app) cmdRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	wordID := fs.String("word", "", "word id of the card to remove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *wordID == "" {
		fs.Usage()
		return fmt.Errorf("remove requires -word")
	}

	if err := a.engine.RemoveCard(ctx, *wordID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s from the schedule\n", *wordID)
	return nil
}

func (a *app) cmdPractice(args []string) error {
	fs := flag.NewFlagSet("practice", flag.ContinueOnError)
	count := fs.Int("count", 10, "number of cards to quiz (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	session := a.engine.NewPracticeSession(*count)
	cards := session.Cards()
	if len(cards) == 0 {
		fmt.Fprintln(a.out, "No cards to practice yet.")
		return nil
	}

	fmt.Fprintf(a.out, "Practice session, %d cards. Answers are not graded for scheduling.\n\n", len(cards))

	for _, card := range cards {
		fmt.Fprintf(a.out, "%s\n  (press enter to reveal) ", card.SourceWord)
		a.out.Flush()
		if !a.in.Scan() {
			break
		}
		fmt.Fprintf(a.out, "  -> %s\n  got it? (y/n, q=quit): ", card.TargetWord)
		a.out.Flush()
		if !a.in.Scan() {
			break
		}
		answer := strings.ToLower(strings.TrimSpace(a.in.Text()))
		if answer == "q" {
			break
		}
		session.Record(card.WordID, answer == "y")
		fmt.Fprintln(a.out)
	}

	summary := session.Summary()
	fmt.Fprintf(a.out, "Answered %d of %d, %d correct (%.0f%%)\n",
		summary.Answered, summary.Total, summary.Correct, summary.Accuracy)
	return nil
}

func (a *app) cmdStats(ctx context.Context, args []string, today time.Time) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	days := fs.Int("days", 7, "number of recent days to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats := a.engine.Stats(today)
	fmt.Fprintf(a.out, "Cards: %d total, %d due today\n", stats.TotalCards, stats.DueToday)
	fmt.Fprintf(a.out, "  new %d, learning %d, familiar %d, proficient %d, mastered %d\n",
		stats.NewCards, stats.LearningCards, stats.FamiliarCards, stats.ProficientCards, stats.MasteredCards)
	if stats.TotalCards > 0 {
		fmt.Fprintf(a.out, "  average ease %.2f, average accuracy %.0f%%\n",
			stats.AverageEaseFactor, stats.AverageAccuracy)
	}

	from := today.AddDate(0, 0, -(*days - 1))
	daily, err := a.stats.Range(ctx, from, today)
	if err != nil {
		return err
	}
	if len(daily) > 0 {
		fmt.Fprintf(a.out, "\nLast %d days:\n", *days)
		for _, d := range daily {
			fmt.Fprintf(a.out, "  %s  %3d reviews, %3.0f%% correct, %d added\n",
				d.Day, d.Reviews, d.Accuracy(), d.CardsAdded)
		}
	}
	return nil
}

func (a *app) cmdRemind() error {
	s := scheduler.New(a.engine, consoleNotifier{out: a.out}, a.logger)
	s.Start()
	defer s.Stop()

	a.logger.Info("reminder daemon started, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	a.logger.Info("shutting down", "signal", sig.String())
	return nil
}

func (a *app) cmdReset(ctx context.Context) error {
	fmt.Fprint(a.out, "This deletes every card, catalogue entry and statistic. Type 'yes' to confirm: ")
	a.out.Flush()
	if !a.in.Scan() || strings.TrimSpace(a.in.Text()) != "yes" {
		fmt.Fprintln(a.out, "Aborted.")
		return nil
	}

	if err := a.engine.Reset(ctx); err != nil {
		return err
	}
	if err := a.vocab.DeleteAll(ctx); err != nil {
		return err
	}
	if err := a.stats.DeleteAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All data deleted.")
	return nil
}

// consoleNotifier prints reminders to stdout. It satisfies the
// scheduler's Notifier interface for the single-user CLI.
type consoleNotifier struct {
	out *bufio.Writer
}

func (n consoleNotifier) SendReminder(count int, preview []models.ReviewCard) error {
	fmt.Fprintf(n.out, "[%s] %d cards are due for review", time.Now().Format("15:04"), count)
	words := make([]string, 0, len(preview))
	for _, card := range preview {
		words = append(words, card.SourceWord)
	}
	if len(words) > 0 {
		fmt.Fprintf(n.out, ": %s", strings.Join(words, ", "))
		if count > len(words) {
			fmt.Fprint(n.out, ", ...")
		}
	}
	fmt.Fprintln(n.out)
	return n.out.Flush()
}
