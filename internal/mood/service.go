package mood

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moodlog/server/internal/ai"
	"github.com/moodlog/server/internal/model"
	"github.com/moodlog/server/internal/repo"
)

var (
	// ErrInvalidMood indicates the mood is not in the accepted list.
	ErrInvalidMood = errors.New("invalid or missing mood")
	// ErrInvalidSatisfaction indicates an unknown satisfaction level.
	ErrInvalidSatisfaction = errors.New("invalid satisfaction level")
	// ErrSatisfactionSubmitted indicates satisfaction was already recorded.
	ErrSatisfactionSubmitted = errors.New("satisfaction already submitted")
	// ErrLogNotFound indicates no log matches the ID for this user.
	ErrLogNotFound = errors.New("mood not found")
)

// satisfactionCard maps a satisfaction level to its detail-view card.
type satisfactionCard struct {
	Type string `json:"type"`
	SVG  string `json:"svg"`
}

var satisfactionCards = map[string]satisfactionCard{
	model.SatisfactionVeryGood:     {Type: "Gentle", SVG: "https://res.cloudinary.com/dbc8cfqkw/image/upload/v1756543061/Gentle_voindq.png"},
	model.SatisfactionGood:         {Type: "Balanced", SVG: "https://res.cloudinary.com/dbc8cfqkw/image/upload/v1756543062/Balanced_scieug.png"},
	model.SatisfactionNotSoGood:    {Type: "Sad", SVG: "https://res.cloudinary.com/dbc8cfqkw/image/upload/v1756543057/Sad_znewue.png"},
	model.SatisfactionNotGoodAtAll: {Type: "Restore", SVG: "https://res.cloudinary.com/dbc8cfqkw/image/upload/v1756543062/Restore_nmakev.png"},
}

const trackerGoodThreshold = 8

// Service implements mood logging, trackers and insights on top of MoodRepo.
type Service struct {
	logs repo.MoodRepo
	gen  ai.Generator
	now  func() time.Time
}

// NewService creates a new mood service
func NewService(logs repo.MoodRepo, gen ai.Generator) *Service {
	return &Service{logs: logs, gen: gen, now: time.Now}
}

// localDay converts t to the UTC-midnight representation of its local calendar day.
func localDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SubmitMood records today's mood. One log per user per day: resubmitting
// returns the existing log with existed=true instead of failing.
func (s *Service) SubmitMood(ctx context.Context, userID uuid.UUID, mood, thoughts string) (model.MoodLog, bool, error) {
	if mood == "" || !model.ValidMood(mood) {
		return model.MoodLog{}, false, ErrInvalidMood
	}

	date := localDay(s.now())

	existing, err := s.logs.GetByUserAndDate(ctx, userID, date)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return model.MoodLog{}, false, fmt.Errorf("check today's log: %w", err)
	}

	created, err := s.logs.Create(ctx, model.MoodLog{
		UserID:   userID,
		Date:     date,
		Mood:     mood,
		Thoughts: thoughts,
	})
	if err != nil {
		// Concurrent submit for the same day; hand back the winner's row.
		if errors.Is(err, repo.ErrDuplicateDate) {
			existing, gerr := s.logs.GetByUserAndDate(ctx, userID, date)
			if gerr == nil {
				return existing, true, nil
			}
		}
		return model.MoodLog{}, false, fmt.Errorf("create log: %w", err)
	}
	return created, false, nil
}

// SubmitSatisfaction records the satisfaction level for a log, once.
func (s *Service) SubmitSatisfaction(ctx context.Context, userID, logID uuid.UUID, satisfaction string) (model.MoodLog, error) {
	if !model.ValidSatisfaction(satisfaction) {
		return model.MoodLog{}, ErrInvalidSatisfaction
	}
	log, err := s.getOwned(ctx, logID, userID)
	if err != nil {
		return model.MoodLog{}, err
	}
	if log.Satisfaction != "" {
		return model.MoodLog{}, ErrSatisfactionSubmitted
	}
	if err := s.logs.UpdateSatisfaction(ctx, log.ID, satisfaction); err != nil {
		return model.MoodLog{}, fmt.Errorf("update satisfaction: %w", err)
	}
	log.Satisfaction = satisfaction
	return log, nil
}

// TrackerResult reports the stored counters plus their Good/Bad notes.
type TrackerResult struct {
	WaterGlasses int    `json:"waterGlasses"`
	WaterNote    string `json:"waterNote"`
	SleepHours   int    `json:"sleepHours"`
	SleepNote    string `json:"sleepNote"`
}

// UpdateTrackers sets water/sleep counters on a log, clamping each to 0..10.
// Nil pointers leave the current value untouched.
func (s *Service) UpdateTrackers(ctx context.Context, userID, logID uuid.UUID, waterGlasses, sleepHours *int) (TrackerResult, error) {
	log, err := s.getOwned(ctx, logID, userID)
	if err != nil {
		return TrackerResult{}, err
	}
	if waterGlasses != nil {
		log.WaterGlasses = clamp(*waterGlasses)
	}
	if sleepHours != nil {
		log.SleepHours = clamp(*sleepHours)
	}
	if err := s.logs.UpdateTrackers(ctx, log.ID, log.WaterGlasses, log.SleepHours); err != nil {
		return TrackerResult{}, fmt.Errorf("update trackers: %w", err)
	}
	return TrackerResult{
		WaterGlasses: log.WaterGlasses,
		WaterNote:    trackerNote(log.WaterGlasses),
		SleepHours:   log.SleepHours,
		SleepNote:    trackerNote(log.SleepHours),
	}, nil
}

// WeeklyEntry is one day in the weekly log view.
type WeeklyEntry struct {
	Day  string `json:"day"`
	Date string `json:"date"`
	Mood string `json:"mood"`
}

// WeeklyLogs returns the last seven days of logs, newest first, labelled
// Today / Yesterday / weekday name.
func (s *Service) WeeklyLogs(ctx context.Context, userID uuid.UUID) ([]WeeklyEntry, error) {
	now := s.now()
	since := localDay(now.AddDate(0, 0, -7))
	logs, err := s.logs.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	today := localDay(now)
	entries := make([]WeeklyEntry, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, WeeklyEntry{
			Day:  dayLabel(log.Date, today),
			Date: log.Date.Format("2006-01-02"),
			Mood: log.Mood,
		})
	}
	return entries, nil
}

// WeeklyOverview aggregates the week's moods.
type WeeklyOverview struct {
	TotalDays  int            `json:"totalDays"`
	MoodCounts map[string]int `json:"moodCounts"`
	TopMood    TopMood        `json:"topMood"`
}

// TopMood is the most frequent mood of the window.
type TopMood struct {
	Mood  string `json:"mood"`
	Count int    `json:"count"`
}

// AverageWeeklyMood returns mood counts and the top mood for the last seven
// days, or nil when the week has no logs.
func (s *Service) AverageWeeklyMood(ctx context.Context, userID uuid.UUID) (*WeeklyOverview, error) {
	since := localDay(s.now().AddDate(0, 0, -7))
	logs, err := s.logs.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, log := range logs {
		counts[log.Mood]++
	}
	var top TopMood
	for mood, count := range counts {
		if count > top.Count {
			top = TopMood{Mood: mood, Count: count}
		}
	}
	return &WeeklyOverview{TotalDays: len(logs), MoodCounts: counts, TopMood: top}, nil
}

// TrackerSnapshot is today's water/sleep reading.
type TrackerSnapshot struct {
	WaterGlasses int `json:"waterGlasses"`
	SleepHours   int `json:"sleepHours"`
}

// TodayTrackers returns today's water/sleep counters, or found=false when no
// log was created today.
func (s *Service) TodayTrackers(ctx context.Context, userID uuid.UUID) (TrackerSnapshot, bool, error) {
	now := s.now()
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)

	log, err := s.logs.GetCreatedBetween(ctx, userID, start, end)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TrackerSnapshot{}, false, nil
		}
		return TrackerSnapshot{}, false, err
	}
	return TrackerSnapshot{WaterGlasses: log.WaterGlasses, SleepHours: log.SleepHours}, true, nil
}

// AllMoods returns every log for the user, newest first.
func (s *Service) AllMoods(ctx context.Context, userID uuid.UUID) ([]model.MoodLog, error) {
	return s.logs.ListAll(ctx, userID)
}

// Details is the enriched detail view of a single log.
type Details struct {
	model.MoodLog
	Title       string            `json:"title"`
	Motivation  string            `json:"motivation"`
	DetailsType *satisfactionCard `json:"detailsType"`
	Water       WaterReading      `json:"water"`
	Sleep       SleepReading      `json:"sleep"`
}

// WaterReading pairs the water counter with its note.
type WaterReading struct {
	Glasses int    `json:"glasses"`
	Note    string `json:"note"`
}

// SleepReading pairs the sleep counter with its note.
type SleepReading struct {
	Hours int    `json:"hours"`
	Note  string `json:"note"`
}

// MoodDetails returns the log enriched with generated title and motivation,
// the satisfaction card and tracker notes.
func (s *Service) MoodDetails(ctx context.Context, userID, logID uuid.UUID) (Details, error) {
	log, err := s.getOwned(ctx, logID, userID)
	if err != nil {
		return Details{}, err
	}
	motivation, err := s.gen.Motivation(ctx, log.Mood)
	if err != nil {
		return Details{}, err
	}
	title, err := s.gen.Title(ctx, log.Mood, log.Satisfaction)
	if err != nil {
		return Details{}, err
	}

	var card *satisfactionCard
	if c, ok := satisfactionCards[log.Satisfaction]; ok {
		card = &c
	}
	return Details{
		MoodLog:     log,
		Title:       title,
		Motivation:  motivation,
		DetailsType: card,
		Water:       WaterReading{Glasses: log.WaterGlasses, Note: trackerNote(log.WaterGlasses)},
		Sleep:       SleepReading{Hours: log.SleepHours, Note: trackerNote(log.SleepHours)},
	}, nil
}

// DateEntry is a log ID with its date only.
type DateEntry struct {
	ID   uuid.UUID `json:"_id"`
	Date string    `json:"date"`
}

// MoodDates returns the date of the identified log.
func (s *Service) MoodDates(ctx context.Context, userID, logID uuid.UUID) ([]DateEntry, error) {
	log, err := s.getOwned(ctx, logID, userID)
	if err != nil {
		if errors.Is(err, ErrLogNotFound) {
			return []DateEntry{}, nil
		}
		return nil, err
	}
	return []DateEntry{{ID: log.ID, Date: log.Date.Format("2006-01-02")}}, nil
}

// Insights aggregates a window of logs.
type Insights struct {
	Days               int            `json:"days"`
	LoggedDays         int            `json:"loggedDays"`
	MoodCounts         map[string]int `json:"moodCounts"`
	TopMood            TopMood        `json:"topMood"`
	SatisfactionCounts map[string]int `json:"satisfactionCounts"`
	AvgWaterGlasses    float64        `json:"avgWaterGlasses"`
	AvgSleepHours      float64        `json:"avgSleepHours"`
}

// SevenDayInsights aggregates the last seven days.
func (s *Service) SevenDayInsights(ctx context.Context, userID uuid.UUID) (Insights, error) {
	return s.insightsWindow(ctx, userID, 7)
}

// MonthlyInsights aggregates the last thirty days.
func (s *Service) MonthlyInsights(ctx context.Context, userID uuid.UUID) (Insights, error) {
	return s.insightsWindow(ctx, userID, 30)
}

func (s *Service) insightsWindow(ctx context.Context, userID uuid.UUID, days int) (Insights, error) {
	since := localDay(s.now().AddDate(0, 0, -days))
	logs, err := s.logs.ListSince(ctx, userID, since)
	if err != nil {
		return Insights{}, err
	}

	out := Insights{
		Days:               days,
		LoggedDays:         len(logs),
		MoodCounts:         make(map[string]int),
		SatisfactionCounts: make(map[string]int),
	}
	if len(logs) == 0 {
		return out, nil
	}

	var water, sleep int
	for _, log := range logs {
		out.MoodCounts[log.Mood]++
		if log.Satisfaction != "" {
			out.SatisfactionCounts[log.Satisfaction]++
		}
		water += log.WaterGlasses
		sleep += log.SleepHours
	}
	for mood, count := range out.MoodCounts {
		if count > out.TopMood.Count {
			out.TopMood = TopMood{Mood: mood, Count: count}
		}
	}
	out.AvgWaterGlasses = float64(water) / float64(len(logs))
	out.AvgSleepHours = float64(sleep) / float64(len(logs))
	return out, nil
}

func (s *Service) getOwned(ctx context.Context, logID, userID uuid.UUID) (model.MoodLog, error) {
	log, err := s.logs.GetByID(ctx, logID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.MoodLog{}, ErrLogNotFound
		}
		return model.MoodLog{}, fmt.Errorf("lookup log: %w", err)
	}
	return log, nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func trackerNote(v int) string {
	if v >= trackerGoodThreshold {
		return "Good"
	}
	return "Bad"
}

func dayLabel(date, today time.Time) string {
	switch {
	case date.Equal(today):
		return "Today"
	case date.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return date.Weekday().String()
	}
}
