package payload

import (
	"context"
	"errors"
	"fmt"

	"mhdb/internal/logger"
	"mhdb/internal/models"
	"mhdb/pkg/digest"
)

// ErrNothingToImport is returned when Import is given no institutions.
var ErrNothingToImport = errors.New("no institutions to import")

// Uploader reconciles a snapshot with the store.
type Uploader struct {
	client Client
	logger *logger.Logger
}

// NewUploader creates an uploader backed by a StoreClient.
func NewUploader(opts StoreOptions) *Uploader {
	return &Uploader{
		client: NewStoreClient(opts),
		logger: opts.Logger,
	}
}

// NewUploaderWithClient creates a new uploader with a custom client (useful for testing).
func NewUploaderWithClient(client Client, log *logger.Logger) *Uploader {
	return &Uploader{
		client: client,
		logger: log,
	}
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Message string
	Digest  string
	// Sent counts what was submitted; Colleges and Resources are read back from the store.
	SentColleges  int
	SentResources int
	Colleges      int
	Resources     int
}

// Import checks the store is reachable, submits insts as one bulk upsert and
// reads the store back for verification counts. Nothing is written when the
// health check fails.
func (u *Uploader) Import(ctx context.Context, insts []models.Institution) (*ImportResult, error) {
	if len(insts) == 0 {
		return nil, ErrNothingToImport
	}

	u.logger.Info("🔍 Checking store health...")

	if !u.client.HealthCheck(ctx) {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("import interrupted: %w", ctx.Err())
		}

		return nil, fmt.Errorf("%w: health check failed", ErrStoreUnreachable)
	}

	colleges := MapColleges(insts)

	result := &ImportResult{SentColleges: len(colleges)}
	for _, c := range colleges {
		result.SentResources += len(c.Resources)
	}

	sum, err := digest.Of(colleges)
	if err != nil {
		return nil, fmt.Errorf("failed to digest payload: %w", err)
	}

	result.Digest = sum

	u.logger.Info(fmt.Sprintf("📤 Importing %d colleges with %d resources...", result.SentColleges, result.SentResources),
		"digest", sum)

	bulk, err := u.client.BulkUpsert(ctx, colleges)
	if err != nil {
		return nil, fmt.Errorf("bulk upsert failed: %w", err)
	}

	result.Message = bulk.Message
	u.logger.Info("✅ " + bulk.Message)

	stored, err := u.client.ListAll(ctx)
	if err != nil {
		return result, fmt.Errorf("verification failed: %w", err)
	}

	result.Colleges = len(stored)
	for _, c := range stored {
		result.Resources += len(c.Resources)
	}

	u.logger.Info(fmt.Sprintf("📊 Store now holds %d colleges and %d resources", result.Colleges, result.Resources))

	return result, nil
}
