// Package relay composes validation, archival and ledger submission
// into the request pipeline.
package relay

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sensorledger/relay-backend/internal/archive"
	"github.com/sensorledger/relay-backend/internal/ledger"
	"github.com/sensorledger/relay-backend/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Archiver stores the reading payload and reports the resulting CID.
	Archiver interface {
		Pin(ctx context.Context, payload archive.Payload) archive.Result
	}

	// Submitter commits a reading to the ledger.
	Submitter interface {
		Submit(ctx context.Context, reading model.Reading, cid string) (model.Receipt, error)
	}

	// Metrics records pipeline outcomes.
	Metrics interface {
		Observe(result string, started time.Time)
	}
)

// Service runs the relay pipeline for inbound readings.
type Service struct {
	archiver  Archiver
	submitter Submitter
	metrics   Metrics
	logger    *zap.Logger
}

// NewService builds a Service with its collaborators.
func NewService(archiver Archiver, submitter Submitter, metrics Metrics, logger *zap.Logger) (*Service, error) {
	if archiver == nil {
		return nil, errors.New("archiver is required")
	}
	if submitter == nil {
		return nil, errors.New("submitter is required")
	}
	if metrics == nil {
		return nil, errors.New("relay metrics is required")
	}

	return &Service{
		archiver:  archiver,
		submitter: submitter,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Handle validates the raw payload, archives it and commits it to the
// ledger. The archive outcome is an argument of the ledger transaction,
// so archival always finishes (or degrades to an empty CID) before the
// submission starts.
func (s *Service) Handle(ctx context.Context, raw map[string]any) (model.RelayResult, error) {
	started := time.Now()

	reading, err := model.ParseReading(raw)
	if err != nil {
		s.metrics.Observe(ErrorKind(err), started)
		return model.RelayResult{}, err
	}

	res := s.archiver.Pin(ctx, archive.Payload{
		DeviceID:        reading.DeviceID,
		TemperatureC:    reading.TemperatureC,
		HumidityPercent: reading.HumidityPct,
		TimestampMs:     reading.TimestampMs,
	})

	// A broadcast transaction cannot be retracted, so the submission must
	// run to completion even if the caller disconnects. The ledger client
	// bounds its own confirmation wait.
	receipt, err := s.submitter.Submit(context.WithoutCancel(ctx), reading, res.CID)
	if err != nil {
		s.metrics.Observe(ErrorKind(err), started)
		return model.RelayResult{}, err
	}

	s.metrics.Observe("ok", started)
	s.logger.Info("reading relayed",
		zap.String("device_id", reading.DeviceID),
		zap.String("tx_hash", receipt.TxHash),
		zap.Uint64("block", receipt.BlockNumber),
		zap.String("cid", res.CID),
	)
	return model.RelayResult{
		Status: "ok",
		TxHash: receipt.TxHash,
		Block:  receipt.BlockNumber,
		CID:    res.CID,
	}, nil
}

// ErrorKind names the failure class for responses and metrics labels.
func ErrorKind(err error) string {
	var fieldErr *model.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return "validation"
	case errors.Is(err, ledger.ErrNonceConflict):
		return "nonce_conflict"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrConfirmationTimeout):
		return "confirmation_timeout"
	case errors.Is(err, ledger.ErrReverted):
		return "reverted"
	case errors.Is(err, ledger.ErrRPCUnavailable):
		return "rpc_unavailable"
	default:
		return "internal"
	}
}
