// Package progress derives sprint statistics from task and commit state.
// Every function is pure; snapshots are recomputed on each read and never stored.
package progress

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"sprint-tracker/internal/domain"
)

type Health string

const (
	HealthOnTrack  Health = "ON_TRACK"
	HealthAtRisk   Health = "AT_RISK"
	HealthOffTrack Health = "OFF_TRACK"
)

// riskThreshold applies to both the elapsed-time ratio and the completion ratio.
const riskThreshold = 0.5

type Input struct {
	Sprint  domain.Sprint
	Tasks   []domain.Task
	Commits domain.CommitCounts
	Now     time.Time
	// Today is the calendar day Now falls on in the scheduler's time zone.
	Today time.Time
}

type BurndownPoint struct {
	Date  time.Time
	Ideal float64
	// Actual is nil for days that have not happened yet.
	Actual *int
}

type Snapshot struct {
	SprintID  string
	Name      string
	Status    domain.SprintStatus
	StartDate time.Time
	EndDate   time.Time

	TotalTasks     int
	DoneTasks      int
	RemainingTasks int
	TasksByStatus  map[domain.TaskStatus]int

	PlannedPoints   int
	CompletedPoints int

	CompletionPercentage float64
	ElapsedDays          int
	TotalDays            int
	RemainingDays        int
	Velocity             float64

	EstimatedCompletionDate *time.Time

	IsAtRisk  bool
	IsOverdue bool
	Health    Health

	Commits  domain.CommitCounts
	Burndown []BurndownPoint

	GeneratedAt time.Time
}

func Compute(in Input) Snapshot {
	s := in.Sprint
	today := domain.Date(in.Today)
	tasks := in.Tasks

	done := lo.Filter(tasks, func(t domain.Task, _ int) bool { return t.Status == domain.TaskDone })

	snap := Snapshot{
		SprintID:        s.ID,
		Name:            s.Name,
		Status:          s.Status,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		TotalTasks:      len(tasks),
		DoneTasks:       len(done),
		RemainingTasks:  len(tasks) - len(done),
		TasksByStatus:   countByStatus(tasks),
		PlannedPoints:   lo.SumBy(tasks, func(t domain.Task) int { return t.Points() }),
		CompletedPoints: lo.SumBy(done, func(t domain.Task) int { return t.Points() }),
		Commits:         in.Commits,
		GeneratedAt:     in.Now,
	}

	snap.CompletionPercentage = CompletionPercentage(snap.DoneTasks, snap.TotalTasks)
	snap.TotalDays = max(domain.DaysBetween(s.StartDate, s.EndDate), 0)
	snap.ElapsedDays = min(max(domain.DaysBetween(s.StartDate, today), 0), snap.TotalDays)
	snap.RemainingDays = max(domain.DaysBetween(today, s.EndDate), 0)
	snap.Velocity = Velocity(snap.DoneTasks, snap.ElapsedDays)
	snap.EstimatedCompletionDate = EstimatedCompletion(in.Now, snap.RemainingTasks, snap.Velocity)
	snap.IsAtRisk = AtRisk(snap.ElapsedDays, snap.TotalDays, snap.CompletionPercentage)
	snap.IsOverdue = today.After(domain.Date(s.EndDate))
	snap.Health = HealthOf(snap.IsAtRisk, snap.IsOverdue, snap.CompletionPercentage)
	snap.Burndown = Burndown(s, tasks, today)

	return snap
}

// CompletionPercentage is done/total*100 rounded to two decimals, 0 for an empty sprint.
func CompletionPercentage(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(done) / float64(total) * 100)
}

// Velocity is tasks done per elapsed day.
func Velocity(done, elapsedDays int) float64 {
	if elapsedDays == 0 {
		return 0
	}
	return float64(done) / float64(elapsedDays)
}

func EstimatedCompletion(now time.Time, remaining int, velocity float64) *time.Time {
	if velocity == 0 {
		return nil
	}
	days := int(math.Ceil(float64(remaining) / velocity))
	eta := now.AddDate(0, 0, days)
	return &eta
}

// AtRisk flags a sprint that has used at least half its time with less than
// half its work done.
func AtRisk(elapsedDays, totalDays int, completionPercentage float64) bool {
	if totalDays == 0 {
		return false
	}
	elapsed := float64(elapsedDays) / float64(totalDays)
	return elapsed >= riskThreshold && completionPercentage/100 < riskThreshold
}

func HealthOf(atRisk, overdue bool, completionPercentage float64) Health {
	switch {
	case overdue && completionPercentage < 100:
		return HealthOffTrack
	case atRisk:
		return HealthAtRisk
	default:
		return HealthOnTrack
	}
}

// Burndown returns one point per sprint day: the ideal straight line from the
// task count down to zero, and the actual open-task count for days up to today.
func Burndown(s domain.Sprint, tasks []domain.Task, today time.Time) []BurndownPoint {
	start, end := domain.Date(s.StartDate), domain.Date(s.EndDate)
	totalDays := domain.DaysBetween(start, end)
	if totalDays < 0 {
		return nil
	}

	total := len(tasks)
	points := make([]BurndownPoint, 0, totalDays+1)
	for d := 0; d <= totalDays; d++ {
		day := start.AddDate(0, 0, d)

		ideal := 0.0
		if totalDays > 0 {
			ideal = round2(float64(total) * (1 - float64(d)/float64(totalDays)))
		}

		p := BurndownPoint{Date: day, Ideal: ideal}
		if !day.After(today) {
			open := total - lo.CountBy(tasks, func(t domain.Task) bool { return doneBy(t, day, today) })
			p.Actual = &open
		}
		points = append(points, p)
	}
	return points
}

type VelocityPoint struct {
	SprintID        string
	Name            string
	EndDate         time.Time
	CompletedTasks  int
	CompletedPoints int
}

// VelocityTrend lists completed sprints in end-date order with the work they
// finished.
func VelocityTrend(sprints []domain.Sprint, tasksBySprint map[string][]domain.Task) []VelocityPoint {
	completed := lo.Filter(sprints, func(s domain.Sprint, _ int) bool {
		return s.Status == domain.SprintCompleted
	})
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].EndDate.Before(completed[j].EndDate)
	})

	trend := make([]VelocityPoint, 0, len(completed))
	for _, s := range completed {
		done := lo.Filter(tasksBySprint[s.ID], func(t domain.Task, _ int) bool { return t.Status == domain.TaskDone })
		trend = append(trend, VelocityPoint{
			SprintID:        s.ID,
			Name:            s.Name,
			EndDate:         s.EndDate,
			CompletedTasks:  len(done),
			CompletedPoints: lo.SumBy(done, func(t domain.Task) int { return t.Points() }),
		})
	}
	return trend
}

func countByStatus(tasks []domain.Task) map[domain.TaskStatus]int {
	counts := map[domain.TaskStatus]int{
		domain.TaskBacklog:    0,
		domain.TaskTodo:       0,
		domain.TaskInProgress: 0,
		domain.TaskDone:       0,
	}
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}

// doneBy reports whether t was finished by the end of day. Done tasks without a
// completion stamp count from today.
func doneBy(t domain.Task, day, today time.Time) bool {
	if t.Status != domain.TaskDone {
		return false
	}
	if t.CompletedAt == nil {
		return !day.Before(today)
	}
	return !domain.Date(*t.CompletedAt).After(day)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
