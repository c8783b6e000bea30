package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/card-number-reader/internal/assembler"
	apperrors "github.com/anime-shed/card-number-reader/internal/errors"
	"github.com/anime-shed/card-number-reader/internal/evaluation"
	"github.com/anime-shed/card-number-reader/internal/logger"
	"github.com/anime-shed/card-number-reader/internal/observer"
	"github.com/anime-shed/card-number-reader/internal/ocr"
	"github.com/anime-shed/card-number-reader/internal/preprocess"
	"github.com/anime-shed/card-number-reader/internal/repository"
	"github.com/anime-shed/card-number-reader/pkg/models"
)

// Image sources recorded on predictions
const (
	SourceUpload = "upload"
	SourceURL    = "url"
	SourceBlob   = "blob"
	SourceFile   = "file"
)

// MsgCardNotFound is the client-facing message when no number was read
const MsgCardNotFound = "No valid card number found in the image"

// CardNumberService reads card numbers from images
type CardNumberService interface {
	ExtractFromImage(ctx context.Context, img image.Image, opts ExtractOptions) (*models.CardNumberResponse, error)
	ExtractFromReader(ctx context.Context, r io.Reader, opts ExtractOptions) (*models.CardNumberResponse, error)
	ExtractFromURL(ctx context.Context, imageURL string, opts ExtractOptions) (*models.CardNumberResponse, error)
	ExtractFromBlob(ctx context.Context, containerName, blobName string, opts ExtractOptions) (*models.CardNumberResponse, error)
	GetPrediction(ctx context.Context, id string) (*repository.PredictionRecord, error)
}

// ExtractOptions carries per-request settings
type ExtractOptions struct {
	RequestID string
	// When set, the read number is scored against it
	ExpectedNumber string
	// Source and SourceRef label the audit record; the Extract method
	// fills Source when it is empty.
	Source    string
	SourceRef string
}

// Options configures the pipeline
type Options struct {
	AnalysisTimeout time.Duration
	Preprocess      preprocess.Options
	Quality         preprocess.QualityThresholds
}

func DefaultOptions() Options {
	return Options{
		AnalysisTimeout: 20 * time.Second,
		Preprocess:      preprocess.DefaultOptions(),
		Quality:         preprocess.DefaultQualityThresholds(),
	}
}

type cardNumberService struct {
	imageRepo   repository.ImageRepository
	predictions repository.PredictionRepository
	recognizer  ocr.Recognizer
	engine      *assembler.Engine
	events      observer.Subject
	opts        Options
	now         func() time.Time
}

// NewCardNumberService wires the pipeline. imageRepo may be nil when only
// in-process images are read.
func NewCardNumberService(
	imageRepo repository.ImageRepository,
	predictions repository.PredictionRepository,
	recognizer ocr.Recognizer,
	engine *assembler.Engine,
	events observer.Subject,
	opts Options,
) CardNumberService {
	return &cardNumberService{
		imageRepo:   imageRepo,
		predictions: predictions,
		recognizer:  recognizer,
		engine:      engine,
		events:      events,
		opts:        opts,
		now:         time.Now,
	}
}

func (s *cardNumberService) ExtractFromReader(ctx context.Context, r io.Reader, opts ExtractOptions) (*models.CardNumberResponse, error) {
	img, err := preprocess.Decode(r)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid image file", err)
	}
	if opts.Source == "" {
		opts.Source = SourceUpload
	}
	return s.ExtractFromImage(ctx, img, opts)
}

func (s *cardNumberService) ExtractFromURL(ctx context.Context, imageURL string, opts ExtractOptions) (*models.CardNumberResponse, error) {
	opts.Source, opts.SourceRef = SourceURL, imageURL

	if err := s.imageRepo.ValidateImageURL(imageURL); err != nil {
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}

	img, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		s.publishFetchFailed(ctx, opts, err)
		return nil, apperrors.NewNetworkError("failed to fetch image", err)
	}
	s.publish(ctx, observer.PredictionEvent{EventType: observer.ImageFetched, RequestID: opts.RequestID, Source: opts.Source})

	return s.ExtractFromImage(ctx, img, opts)
}

func (s *cardNumberService) ExtractFromBlob(ctx context.Context, containerName, blobName string, opts ExtractOptions) (*models.CardNumberResponse, error) {
	opts.Source, opts.SourceRef = SourceBlob, containerName+"/"+blobName

	if containerName == "" || blobName == "" {
		return nil, apperrors.NewValidationError("container and blob are required", nil)
	}

	img, err := s.imageRepo.FetchBlob(ctx, containerName, blobName)
	if err != nil {
		if errors.Is(err, repository.ErrBlobStorageDisabled) {
			return nil, apperrors.NewUnavailableError("blob storage is not configured", err)
		}
		s.publishFetchFailed(ctx, opts, err)
		return nil, apperrors.NewNetworkError("failed to fetch blob", err)
	}
	s.publish(ctx, observer.PredictionEvent{EventType: observer.ImageFetched, RequestID: opts.RequestID, Source: opts.Source})

	return s.ExtractFromImage(ctx, img, opts)
}

func (s *cardNumberService) ExtractFromImage(ctx context.Context, img image.Image, opts ExtractOptions) (*models.CardNumberResponse, error) {
	if opts.Source == "" {
		opts.Source = SourceUpload
	}
	start := s.now()
	s.publish(ctx, observer.PredictionEvent{EventType: observer.PredictionStarted, RequestID: opts.RequestID, Source: opts.Source})

	quality := preprocess.AssessQuality(img, s.opts.Quality)
	norm := preprocess.Normalize(img, s.opts.Preprocess)

	ocrCtx, cancel := context.WithTimeout(ctx, s.opts.AnalysisTimeout)
	tokens, err := s.recognizer.Recognize(ocrCtx, norm.Image)
	cancel()
	if err != nil {
		return nil, s.fail(ctx, opts, start, recognitionError(err))
	}

	logger.WithFields(logrus.Fields{
		"request_id":  opts.RequestID,
		"token_count": len(tokens),
		"scale":       norm.Scale,
	}).Debug("Text recognized")

	tokens = toSourceCoordinates(tokens, norm)

	result, err := s.engine.Assemble(tokens)
	if err != nil {
		return nil, s.fail(ctx, opts, start, apperrors.NewProcessingError("recognizer returned malformed tokens", err))
	}

	elapsed := s.now().Sub(start)
	record := &repository.PredictionRecord{
		ID:                uuid.NewString(),
		Source:            opts.Source,
		SourceRef:         opts.SourceRef,
		Found:             result.Found,
		Reason:            string(result.Reason),
		TokenCount:        len(tokens),
		Sharpness:         quality.LaplacianVar,
		Brightness:        quality.Brightness,
		QualityIssues:     quality.Issues,
		ProcessingTimeSec: elapsed.Seconds(),
		CreatedAt:         start.UTC(),
	}

	var accuracy *models.Accuracy
	if opts.ExpectedNumber != "" {
		score := evaluation.Compare(opts.ExpectedNumber, result.Number.Digits)
		accuracy = &models.Accuracy{
			ExpectedNumber: opts.ExpectedNumber,
			ExactMatch:     score.ExactMatch,
			CER:            score.CER,
			WER:            score.WER,
		}
		record.Accuracy = &repository.Accuracy{ExactMatch: score.ExactMatch, CER: score.CER, WER: score.WER}
	}

	if !result.Found {
		s.save(ctx, opts, record)
		s.publish(ctx, observer.PredictionEvent{
			EventType:      observer.CardNumberNotFound,
			RequestID:      opts.RequestID,
			Source:         opts.Source,
			ProcessingTime: elapsed,
			Metadata: map[string]interface{}{
				"prediction_id": record.ID,
				"reason":        string(result.Reason),
				"token_count":   len(tokens),
				"quality":       quality.Issues,
			},
		})
		return nil, apperrors.NewCardNotFoundError(MsgCardNotFound).WithDetails(notFoundDetails(result.Reason, quality))
	}

	number := result.Number
	bbox := polygonToBBox(number.Polygon)
	record.Method = string(result.Method)
	record.MaskedNumber = logger.MaskCardNumber(number.Digits)
	record.Confidence = number.Confidence
	record.BBox = bbox
	s.save(ctx, opts, record)

	logger.WithFields(logrus.Fields{
		"request_id":    opts.RequestID,
		"prediction_id": record.ID,
		"card_number":   record.MaskedNumber,
		"method":        record.Method,
		"confidence":    number.Confidence,
	}).Info("Card number extracted")

	s.publish(ctx, observer.PredictionEvent{
		EventType:      observer.CardNumberFound,
		RequestID:      opts.RequestID,
		Source:         opts.Source,
		ProcessingTime: elapsed,
		Method:         record.Method,
		Metadata:       map[string]interface{}{"prediction_id": record.ID},
	})

	return &models.CardNumberResponse{
		ID:                record.ID,
		CardNumber:        number.Digits,
		BBox:              bbox,
		Confidence:        number.Confidence,
		Method:            record.Method,
		ProcessingTimeSec: elapsed.Seconds(),
		Accuracy:          accuracy,
		QualityIssues:     quality.Issues,
	}, nil
}

func (s *cardNumberService) GetPrediction(ctx context.Context, id string) (*repository.PredictionRecord, error) {
	rec, err := s.predictions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPredictionNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("prediction %s not found", id), err)
		}
		if errors.Is(err, repository.ErrRepositoryUnavailable) {
			return nil, apperrors.NewUnavailableError("prediction store is unavailable", err)
		}
		return nil, apperrors.NewInternalError("failed to load prediction", err)
	}
	return rec, nil
}

// save stores the audit record. A storage failure is logged and does not
// fail the prediction.
func (s *cardNumberService) save(ctx context.Context, opts ExtractOptions, record *repository.PredictionRecord) {
	if s.predictions == nil {
		return
	}
	if err := s.predictions.Save(ctx, record); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id":    opts.RequestID,
			"prediction_id": record.ID,
		}).Warn("Failed to store prediction record")
	}
}

func (s *cardNumberService) fail(ctx context.Context, opts ExtractOptions, start time.Time, err *apperrors.AppError) error {
	s.publish(ctx, observer.PredictionEvent{
		EventType:      observer.PredictionFailed,
		RequestID:      opts.RequestID,
		Source:         opts.Source,
		ProcessingTime: s.now().Sub(start),
		ErrorMessage:   err.Error(),
	})
	return err
}

func (s *cardNumberService) publishFetchFailed(ctx context.Context, opts ExtractOptions, err error) {
	s.publish(ctx, observer.PredictionEvent{
		EventType:    observer.ImageFetchFailed,
		RequestID:    opts.RequestID,
		Source:       opts.Source,
		ErrorMessage: err.Error(),
	})
}

func (s *cardNumberService) publish(ctx context.Context, event observer.PredictionEvent) {
	if s.events == nil {
		return
	}
	event.Timestamp = s.now()
	s.events.NotifyObservers(ctx, event)
}

// notFoundDetails names the exhausted strategy and any quality problems
// that likely caused it.
func notFoundDetails(reason assembler.Reason, q preprocess.Quality) string {
	if len(q.Issues) == 0 {
		return string(reason)
	}
	return string(reason) + ": " + strings.Join(q.Issues, ", ")
}

func recognitionError(err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("text recognition timed out", err)
	}
	if errors.Is(err, ocr.ErrPoolClosed) {
		return apperrors.NewUnavailableError("text recognizer is shutting down", err)
	}
	return apperrors.NewProcessingError("text recognition failed", err)
}
