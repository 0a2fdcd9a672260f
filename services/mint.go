package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ceramicnetwork/go-mint/common/utils"
	"github.com/ceramicnetwork/go-mint/models"
)

const maxOutcomeMessageLen = 240

type MintServiceOpts struct {
	ConfirmTimeout time.Duration
	// Optional collaborators. A nil value disables the corresponding side effect.
	AttemptDb    models.AttemptRepository
	Archive      models.KeyValueRepository
	Notifier     models.Notifier
	OnTransition func(attemptId uuid.UUID, state models.MintState)
}

// MintService runs mint attempts: pin the image, pin the metadata document that references it, mint the token and
// wait for the transaction to be confirmed. It keeps no per-attempt state, so concurrent calls are independent.
type MintService struct {
	pinner         models.ContentPinner
	minter         models.Minter
	metricService  models.MetricService
	logger         models.Logger
	confirmTimeout time.Duration
	attemptDb      models.AttemptRepository
	archive        models.KeyValueRepository
	notifier       models.Notifier
	onTransition   func(uuid.UUID, models.MintState)
}

func NewMintService(logger models.Logger, pinner models.ContentPinner, minter models.Minter, metricService models.MetricService, opts MintServiceOpts) *MintService {
	confirmTimeout := opts.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = models.DefaultConfirmTimeout
	}
	return &MintService{
		pinner:         pinner,
		minter:         minter,
		metricService:  metricService,
		logger:         logger,
		confirmTimeout: confirmTimeout,
		attemptDb:      opts.AttemptDb,
		archive:        opts.Archive,
		notifier:       opts.Notifier,
		onTransition:   opts.OnTransition,
	}
}

// Mint runs one attempt to a terminal state. Every failure is reported through the returned outcome, tagged with the
// stage that failed; nothing is retried and nothing already pinned is rolled back.
func (m *MintService) Mint(ctx context.Context, req models.MintRequest) models.MintOutcome {
	now := time.Now().UTC()
	attempt := &models.MintAttempt{
		Id:        uuid.New(),
		Recipient: req.RecipientAddress,
		State:     models.MintState_Idle.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.metricService.Count(ctx, models.MetricName_MintAttempt, 1)

	outcome := m.mint(ctx, attempt, req)

	m.metricService.Distribution(ctx, models.MetricName_MintDurationMs, int(time.Since(now).Milliseconds()))
	if outcome.Succeeded() {
		m.metricService.Count(ctx, models.MetricName_MintSucceeded, 1)
		m.logger.Infof("mint: attempt %s succeeded: tx=%s, metadata=%s", attempt.Id, outcome.TxHash, attempt.MetadataUri)
	} else {
		m.metricService.Count(ctx, models.MetricName_MintFailed, 1)
		m.logger.Errorf("mint: attempt %s failed: %s", attempt.Id, outcome.FailureMessage())
		m.alert(attempt, outcome)
	}
	return outcome
}

func (m *MintService) mint(ctx context.Context, attempt *models.MintAttempt, req models.MintRequest) models.MintOutcome {
	m.transition(ctx, attempt, models.MintState_Validating)
	if err := validateRequest(req); err != nil {
		return m.fail(ctx, attempt, models.MintStage_Validate, err)
	}

	m.transition(ctx, attempt, models.MintState_PinningImage)
	imagePin, err := m.pinner.PinBinary(ctx, req.Image)
	if err = checkPin(imagePin, err); err != nil {
		return m.fail(ctx, attempt, models.MintStage_PinImage, err)
	}
	attempt.ImageCid = imagePin.Cid

	m.transition(ctx, attempt, models.MintState_BuildingMetadata)
	metadata := BuildMetadata(req.Form, attempt.ImageCid)

	m.transition(ctx, attempt, models.MintState_PinningMetadata)
	metadataPin, err := m.pinner.PinJson(ctx, metadata)
	if err = checkPin(metadataPin, err); err != nil {
		return m.fail(ctx, attempt, models.MintStage_PinMetadata, err)
	}
	attempt.MetadataCid = metadataPin.Cid
	attempt.MetadataUri = models.IpfsUri(attempt.MetadataCid)

	m.transition(ctx, attempt, models.MintState_Minting)
	txHash, err := m.minter.Mint(ctx, models.TokenMint{RecipientAddress: req.RecipientAddress, MetadataUri: attempt.MetadataUri})
	if err != nil {
		return m.fail(ctx, attempt, models.MintStage_Mint, err)
	}
	attempt.TxHash = txHash

	m.transition(ctx, attempt, models.MintState_Confirming)
	if err = m.confirm(ctx, txHash); err != nil {
		return m.fail(ctx, attempt, models.MintStage_Confirm, err)
	}

	m.archiveMetadata(ctx, attempt, metadata)
	m.transition(ctx, attempt, models.MintState_Succeeded)
	return models.MintOutcome{
		AttemptId:   attempt.Id,
		State:       models.MintState_Succeeded,
		TxHash:      txHash,
		ImageCid:    attempt.ImageCid,
		MetadataCid: attempt.MetadataCid,
	}
}

func (m *MintService) confirm(ctx context.Context, txHash string) error {
	confirmCtx, confirmCancel := context.WithTimeout(ctx, m.confirmTimeout)
	defer confirmCancel()

	err := m.minter.WaitConfirmed(confirmCtx, txHash)
	if err == nil {
		return nil
	}
	// Only our own bound is reported as a timeout. A caller abandoning the attempt surfaces as-is.
	var timeoutErr *models.ConfirmationTimeoutError
	if !errors.As(err, &timeoutErr) && ctx.Err() == nil && errors.Is(confirmCtx.Err(), context.DeadlineExceeded) {
		return &models.ConfirmationTimeoutError{TxHash: txHash, Timeout: m.confirmTimeout, Err: err}
	}
	return err
}

func (m *MintService) fail(ctx context.Context, attempt *models.MintAttempt, stage models.MintStage, err error) models.MintOutcome {
	attempt.Stage = string(stage)
	attempt.Message = outcomeMessage(err)
	m.transition(ctx, attempt, models.MintState_Failed)
	return models.MintOutcome{
		AttemptId:   attempt.Id,
		State:       models.MintState_Failed,
		Stage:       stage,
		Message:     attempt.Message,
		TxHash:      attempt.TxHash,
		ImageCid:    attempt.ImageCid,
		MetadataCid: attempt.MetadataCid,
		Err:         err,
	}
}

func (m *MintService) transition(ctx context.Context, attempt *models.MintAttempt, state models.MintState) {
	attempt.State = state.String()
	attempt.UpdatedAt = time.Now().UTC()
	m.logger.Debugf("mint: attempt %s -> %s", attempt.Id, attempt.State)
	if m.onTransition != nil {
		m.onTransition(attempt.Id, state)
	}
	if m.attemptDb != nil {
		if err := m.attemptDb.StoreAttempt(ctx, attempt); err != nil {
			m.logger.Errorf("mint: error recording attempt %s in state %s: %v", attempt.Id, attempt.State, err)
		}
	}
}

func (m *MintService) archiveMetadata(ctx context.Context, attempt *models.MintAttempt, metadata models.NftMetadata) {
	if m.archive == nil {
		return
	}
	key := fmt.Sprintf("metadata/%s/%s.json", attempt.Id, attempt.MetadataCid)
	if err := m.archive.Store(ctx, key, metadata); err != nil {
		m.logger.Errorf("mint: error archiving metadata for attempt %s: %v", attempt.Id, err)
	}
}

func (m *MintService) alert(attempt *models.MintAttempt, outcome models.MintOutcome) {
	// Validation failures are user input errors, not incidents
	if m.notifier == nil || outcome.Stage == models.MintStage_Validate {
		return
	}
	alertText := fmt.Sprintf(
		models.AlertFmt_MintFailed,
		models.AlertDesc_MintFailed,
		attempt.Id,
		attempt.Recipient,
		outcome.Stage,
		outcome.Message,
	)
	if err := m.notifier.SendAlert(models.AlertTitle, alertText); err != nil {
		m.logger.Errorf("mint: error sending alert for attempt %s: %v", attempt.Id, err)
	}
}

func validateRequest(req models.MintRequest) error {
	if missing := req.Form.MissingFields(); len(missing) > 0 {
		return &models.ValidationError{Field: missing[0], Message: missing[0] + " is required"}
	}
	if len(req.Image.Payload) == 0 {
		return &models.ValidationError{Field: "image", Message: "image is required"}
	}
	if len(strings.TrimSpace(req.RecipientAddress)) == 0 {
		return &models.ValidationError{Field: "recipient", Message: "recipient address is required"}
	}
	return nil
}

// checkPin treats a pin without a CID as a failed pin so that no placeholder ever reaches a metadata document.
func checkPin(pin *models.PinResult, err error) error {
	if err != nil {
		return err
	} else if (pin == nil) || (len(pin.Cid) == 0) {
		return &models.RemoteServiceError{Service: "pinner", Message: "missing cid in pin result"}
	}
	return nil
}

func outcomeMessage(err error) string {
	msg := err.Error()
	if len(msg) > maxOutcomeMessageLen {
		return utils.TruncateUtf8(msg, maxOutcomeMessageLen) + "..."
	}
	return msg
}
