// internal/workers/analyze-app-reviews/handler.go
package analyzeappreviews

import (
	"context"
	"encoding/json"

	"review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/common/validation"
	"review-sentiment/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "analyze-app-reviews"

// Service runs an analysis for a free-text app name.
type Service interface {
	Analyze(ctx context.Context, appName string) (*models.AnalysisResponse, error)
}

type Handler struct {
	config       *Config
	service      Service
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Service, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		validator:    validation.MustValidator(validation.AnalyzeRequestSchema),
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.decodeInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// decodeInput validates the job variables against the request schema.
func (h *Handler) decodeInput(variables string) (*Input, error) {
	result := h.validator.Validate([]byte(variables))
	if !result.Valid {
		return nil, errors.NewInvalidRequestError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	resp, err := h.service.Analyze(ctx, input.AppName)
	if err != nil {
		return nil, err
	}

	h.logger.Info("app reviews analyzed", map[string]interface{}{
		"appName":          input.AppName,
		"reviewsAnalyzed":  resp.ReviewsAnalyzed,
		"averageSentiment": resp.AverageSentiment,
	})

	return &Output{
		AppName:          input.AppName,
		AverageSentiment: resp.AverageSentiment,
		ReviewsAnalyzed:  resp.ReviewsAnalyzed,
		SampleReviews:    resp.SampleReviews,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
