package service

import (
	"context"
	"coursehub_backend/internal/model"
	"coursehub_backend/internal/repository"
	"coursehub_backend/internal/util"
	"coursehub_backend/pkg/logger"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"
)

// ContentService handles course and lesson media uploads.
type ContentService struct {
	Courses *repository.CourseRepository
	Lessons *repository.LessonRepository
	Storage *StorageService
}

func NewContentService(courses *repository.CourseRepository, lessons *repository.LessonRepository, storage *StorageService) *ContentService {
	return &ContentService{Courses: courses, Lessons: lessons, Storage: storage}
}

// UploadCourseThumbnail stores the image and points the course at it.
func (s *ContentService) UploadCourseThumbnail(ctx context.Context, courseID uint, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		return "", util.ErrCourseNotFound
	}

	objectName := fmt.Sprintf("courses/%d/thumbnail%s", courseID, filepath.Ext(filename))
	url, err := s.Storage.Upload(ctx, objectName, reader, size, contentType)
	if err != nil {
		return "", err
	}

	course.Thumbnail = url
	if err := s.Courses.Update(course); err != nil {
		return "", err
	}
	return url, nil
}

// UploadLessonVideo stores the video, probes its duration and updates
// the lesson. The file must already be on local disk (gin saves
// multipart uploads to a temp file) so ffprobe can read it.
func (s *ContentService) UploadLessonVideo(ctx context.Context, lessonID uint, localPath, filename, contentType string) (*model.Lesson, error) {
	lesson, err := s.Lessons.FindByID(lessonID)
	if err != nil {
		return nil, util.ErrLessonNotFound
	}

	info, err := util.ProbeVideo(localPath)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("lessons/%d/video%s", lessonID, filepath.Ext(filename))
	url, err := s.Storage.UploadFile(ctx, objectName, localPath, contentType)
	if err != nil {
		return nil, err
	}

	lesson.VideoURL = url
	lesson.VideoDuration = int(info.Duration)
	if err := s.Lessons.Update(lesson); err != nil {
		return nil, err
	}

	logger.Log.Info("lesson video uploaded",
		zap.Uint("lesson", lessonID),
		zap.Int("duration", lesson.VideoDuration),
		zap.Int64("size", info.Size))
	return lesson, nil
}
