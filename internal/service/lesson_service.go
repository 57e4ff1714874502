package service

import (
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/util"
	"strings"
	"time"
)

// SequencedLesson is one entry of a course's lesson ladder: the lesson
// plus the user's standing on it.
type SequencedLesson struct {
	Lesson    model.Lesson `json:"lesson"`
	Completed bool         `json:"completed"`
	Reachable bool         `json:"reachable"`
}

// QuizResult is the graded outcome of one attempt.
type QuizResult struct {
	Score        float64 `json:"score"`
	Passed       bool    `json:"passed"`
	PassingScore int     `json:"passingScore"`
	Correct      int     `json:"correct"`
	Total        int     `json:"total"`
}

// LessonService sequences lessons and records progress. Reachability is
// a strict prefix: lesson N is reachable only when lessons 1..N-1 are
// all completed, in the canonical course order.
type LessonService struct {
	Lessons  LessonStore
	Progress ProgressStore
	Quizzes  QuizStore
}

func NewLessonService(lessons LessonStore, progress ProgressStore, quizzes QuizStore) *LessonService {
	return &LessonService{Lessons: lessons, Progress: progress, Quizzes: quizzes}
}

// Sequence returns the course's lessons in canonical order with
// completion and reachability computed. For an anonymous user only the
// first lesson is reachable.
func (s *LessonService) Sequence(userID, courseID uint) ([]SequencedLesson, error) {
	lessons, err := s.Lessons.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}

	completed := map[uint]bool{}
	if userID != 0 {
		completed, err = s.Progress.CompletedLessonIDs(userID, courseID)
		if err != nil {
			return nil, err
		}
	}

	out := make([]SequencedLesson, 0, len(lessons))
	prefixComplete := true
	for _, lesson := range lessons {
		done := completed[lesson.ID]
		out = append(out, SequencedLesson{
			Lesson:    lesson,
			Completed: done,
			Reachable: prefixComplete,
		})
		prefixComplete = prefixComplete && done
	}
	return out, nil
}

// FirstUnreached returns the next lesson the user should take: the first
// incomplete lesson in order. With every lesson complete it returns nil.
func (s *LessonService) FirstUnreached(userID, courseID uint) (*model.Lesson, error) {
	seq, err := s.Sequence(userID, courseID)
	if err != nil {
		return nil, err
	}
	for i := range seq {
		if !seq[i].Completed {
			lesson := seq[i].Lesson
			return &lesson, nil
		}
	}
	return nil, nil
}

// IsReachable answers whether a single lesson can be opened given the
// user's progress.
func (s *LessonService) IsReachable(userID, courseID, lessonID uint) (bool, error) {
	seq, err := s.Sequence(userID, courseID)
	if err != nil {
		return false, err
	}
	for i := range seq {
		if seq[i].Lesson.ID == lessonID {
			return seq[i].Reachable, nil
		}
	}
	return false, util.ErrLessonNotFound
}

// CompleteLesson marks a lesson completed. When the lesson carries a
// required quiz the user must have a passing attempt first; otherwise
// the write is rejected with ErrQuizRequired. Completing an
// already-completed lesson is a no-op.
func (s *LessonService) CompleteLesson(userID, lessonID uint) (*model.UserProgress, error) {
	lesson, err := s.Lessons.FindByID(lessonID)
	if err != nil {
		return nil, util.ErrLessonNotFound
	}

	if err := s.requireQuizPassed(userID, lesson.ID); err != nil {
		return nil, err
	}

	progress, err := s.Progress.Find(userID, lessonID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if progress == nil {
		progress = &model.UserProgress{
			UserID:                   userID,
			LessonID:                 lessonID,
			StartedAt:                &now,
			VideoCompletionThreshold: model.DefaultVideoCompletionThreshold,
		}
	}
	if progress.Completed {
		return progress, nil
	}

	progress.Completed = true
	progress.Status = model.ProgressCompleted
	progress.CompletedAt = &now
	if progress.StartedAt == nil {
		progress.StartedAt = &now
	}
	if err := s.Progress.Save(progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// requireQuizPassed enforces the quiz gate on completion writes.
func (s *LessonService) requireQuizPassed(userID, lessonID uint) error {
	quiz, err := s.Quizzes.FindByLesson(lessonID)
	if err != nil {
		return err
	}
	if quiz == nil || !quiz.IsRequired {
		return nil
	}
	passed, err := s.Quizzes.HasPassedAttempt(userID, quiz.ID)
	if err != nil {
		return err
	}
	if !passed {
		return util.ErrQuizRequired
	}
	return nil
}

// SubmitQuizAttempt grades answers against the quiz's questions and
// records the attempt. Answers map question id to the chosen option
// letter; unanswered or unknown questions count as wrong. Score is
// percent correct, passing at the quiz's own threshold.
func (s *LessonService) SubmitQuizAttempt(userID, lessonID uint, answers map[uint]string) (*QuizResult, error) {
	quiz, err := s.Quizzes.FindByLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, util.ErrQuizNotFound
	}
	if len(quiz.Questions) == 0 {
		return nil, util.ErrQuizNotFound
	}

	correct := 0
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answer), q.CorrectOption) {
			correct++
		}
	}

	total := len(quiz.Questions)
	score := float64(correct) / float64(total) * 100
	passed := score >= float64(quiz.PassingScore)

	attempt := &model.LessonQuizAttempt{
		UserID:      userID,
		QuizID:      quiz.ID,
		Score:       score,
		Passed:      passed,
		CompletedAt: time.Now(),
	}
	if err := s.Quizzes.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	return &QuizResult{
		Score:        score,
		Passed:       passed,
		PassingScore: quiz.PassingScore,
		Correct:      correct,
		Total:        total,
	}, nil
}

// UpdateVideoProgress records how far the user has watched. Watch
// percentage is monotonic per lesson. Crossing the completion threshold
// auto-completes the lesson, except when a required quiz is still
// unpassed: the progress then stays in_progress until the quiz is.
func (s *LessonService) UpdateVideoProgress(userID, lessonID uint, watchPercentage, lastTimestamp float64) (*model.UserProgress, error) {
	lesson, err := s.Lessons.FindByID(lessonID)
	if err != nil {
		return nil, util.ErrLessonNotFound
	}

	progress, err := s.Progress.Find(userID, lesson.ID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if progress == nil {
		progress = &model.UserProgress{
			UserID:                   userID,
			LessonID:                 lesson.ID,
			StartedAt:                &now,
			VideoCompletionThreshold: model.DefaultVideoCompletionThreshold,
		}
	}

	if watchPercentage > progress.VideoWatchPercentage {
		progress.VideoWatchPercentage = watchPercentage
	}
	progress.LastWatchedTimestamp = lastTimestamp

	if !progress.Completed &&
		progress.VideoWatchPercentage >= progress.VideoCompletionThreshold {
		if err := s.requireQuizPassed(userID, lesson.ID); err == util.ErrQuizRequired {
			progress.Status = model.ProgressInProgress
			if progress.StartedAt == nil {
				progress.StartedAt = &now
			}
			if err := s.Progress.Save(progress); err != nil {
				return nil, err
			}
			return progress, nil
		} else if err != nil {
			return nil, err
		}
	}

	progress.RefreshStatus(now)
	if err := s.Progress.Save(progress); err != nil {
		return nil, err
	}
	return progress, nil
}
