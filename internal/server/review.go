package server

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/rx-intake/internal/common"
	"github.com/joseph-ayodele/rx-intake/internal/core/pipeline"
	"github.com/joseph-ayodele/rx-intake/internal/entity"
	"github.com/joseph-ayodele/rx-intake/internal/review"
)

// ReviewService exposes the review queue and intake over gRPC.
type ReviewService struct {
	queue    *review.Queue
	exporter *review.Exporter
	intake   *pipeline.Intake
	logger   *slog.Logger
}

var _ ReviewServiceServer = (*ReviewService)(nil)

func NewReviewService(queue *review.Queue, exporter *review.Exporter, intake *pipeline.Intake, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{queue: queue, exporter: exporter, intake: intake, logger: logger}
}

func (s *ReviewService) Enqueue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var record entity.ValidatedRecord
	if err := fromValue(req.GetFields()["record"], &record); err != nil {
		return nil, common.InvalidArgumentErrorf("record: %v", err)
	}
	if record.Draft.Medications == nil {
		record.Draft.Medications = []entity.MedicationLine{}
	}

	id, err := s.queue.Enqueue(ctx, record)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{"review_id": id})
}

func (s *ReviewService) ListPending(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	items, err := s.queue.ListPending(ctx)
	if err != nil {
		s.logger.Error("list pending failed", "error", err)
		return nil, common.ToStatus(err)
	}
	v, err := toValue(items)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"items": v}}, nil
}

func (s *ReviewService) Approve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := strings.TrimSpace(stringField(req, "review_id"))
	v := common.NewValidator().Field("review_id", id, common.Required, common.ReviewID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	corrections, err := stringMapField(req, "corrections")
	if err != nil {
		return nil, common.InvalidArgumentErrorf("%v", err)
	}
	if reviewer := stringField(req, "reviewer"); reviewer != "" {
		ctx = common.WithReviewer(ctx, reviewer)
	}

	item, err := s.queue.Approve(ctx, id, corrections)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	iv, err := toValue(item)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"item": iv}}, nil
}

func (s *ReviewService) ProcessIntake(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := strings.TrimSpace(stringField(req, "path"))
	if path == "" {
		return nil, common.InvalidArgumentError("path is required")
	}
	if s.intake == nil {
		return nil, common.ToStatus(common.ErrRecognitionUnavailable)
	}

	s.logger.Info("starting intake", "path", path, "request_id", common.RequestIDFromContext(ctx))
	res, err := s.intake.Handle(ctx, path)
	if err != nil {
		s.logger.Error("intake failed", "path", path, "error", err)
		return nil, common.ToStatus(err)
	}

	rv, err := toValue(res.Record)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"record":              rv,
		"review_id":           structpb.NewStringValue(res.Outcome.ReviewID),
		"requires_validation": structpb.NewBoolValue(res.Outcome.RequiresValidation),
		"prescription_id":     structpb.NewStringValue(res.Outcome.Receipt.PrescriptionID),
		"quote_id":            structpb.NewStringValue(res.Outcome.Receipt.QuoteID),
	}}, nil
}

func (s *ReviewService) ExportPending(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	xlsx, err := s.exporter.PendingXLSX(ctx)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return wrapperspb.Bytes(xlsx), nil
}
