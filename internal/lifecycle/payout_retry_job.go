package lifecycle

import (
	"context"
	"fmt"

	"github.com/betchat/betchat-backend/pkg/logger"
)

const defaultPayoutBatch = 100

type payoutDisburser interface {
	DisbursePending(ctx context.Context, limit int) (int, error)
}

// PayoutRetryJobParams configure the pending payout retrier.
type PayoutRetryJobParams struct {
	Logger     *logger.Logger
	Settlement payoutDisburser
	Batch      int
}

// NewPayoutRetryJob builds the job that re-attempts pending payout and refund
// rows left behind by a partial disbursement.
func NewPayoutRetryJob(params PayoutRetryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultPayoutBatch
	}
	return &payoutRetryJob{
		logg:       params.Logger,
		settlement: params.Settlement,
		batch:      batch,
	}, nil
}

type payoutRetryJob struct {
	logg       *logger.Logger
	settlement payoutDisburser
	batch      int
}

func (j *payoutRetryJob) Name() string { return "payout-retry" }

func (j *payoutRetryJob) Run(ctx context.Context) error {
	paid, err := j.settlement.DisbursePending(ctx, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{"paid": paid})
	if err != nil {
		j.logg.Info(logCtx, "payout retry sweep finished with failures")
		return err
	}
	j.logg.Info(logCtx, "payout retry sweep complete")
	return nil
}
