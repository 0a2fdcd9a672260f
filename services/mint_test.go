package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ceramicnetwork/go-mint/common/loggers"
	"github.com/ceramicnetwork/go-mint/models"
)

const testRecipient = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
const testTxHash = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"

func exampleRequest() models.MintRequest {
	return models.MintRequest{
		Form: models.MintForm{
			Name:        "Old Market",
			Description: "1920s market photo",
			Writer:      "Jane",
			Repro:       "",
			Kategori:    "Market",
			Tahun:       "1925",
			Lokasi:      "Jakarta",
			Periode:     "Colonial",
			Tokoh:       "",
			Tag:         "market,history",
		},
		Image:            models.UploadRequest{Payload: []byte{0xff, 0xd8, 0xff}, Filename: "pasar.jpg"},
		RecipientAddress: testRecipient,
	}
}

func TestMintExampleScenario(t *testing.T) {
	pinner := &MockPinner{binaryCids: []string{"bafkImg1"}, jsonCids: []string{"bafkMeta1"}}
	minter := &MockMinter{txHash: testTxHash}
	attemptDb := &MockAttemptRepository{}
	archive := &MockKeyValueRepository{}
	notifier := &MockNotifier{}
	metricService := &MockMetricService{}
	var transitions []models.MintState
	mintService := NewMintService(loggers.NewTestLogger(), pinner, minter, metricService, MintServiceOpts{
		ConfirmTimeout: time.Second,
		AttemptDb:      attemptDb,
		Archive:        archive,
		Notifier:       notifier,
		OnTransition: func(attemptId uuid.UUID, state models.MintState) {
			transitions = append(transitions, state)
		},
	})

	outcome := mintService.Mint(context.Background(), exampleRequest())
	if !outcome.Succeeded() {
		t.Fatalf("mint should have succeeded: %s", outcome.FailureMessage())
	}
	Assert(t, testTxHash, outcome.TxHash, "incorrect tx hash")
	Assert(t, "bafkImg1", outcome.ImageCid, "incorrect image cid")
	Assert(t, "bafkMeta1", outcome.MetadataCid, "incorrect metadata cid")
	Assert(t, "", outcome.FailureMessage(), "success should not carry a failure message")

	expectedMetadata := models.NftMetadata{
		Name:        "Old Market",
		Description: "1920s market photo",
		Writer:      "Jane",
		Repro:       "",
		Image:       "ipfs://bafkImg1",
		Attributes: []models.NftAttribute{
			{TraitType: "Kategori", Value: "Market"},
			{TraitType: "Tahun", Value: "1925"},
			{TraitType: "Lokasi", Value: "Jakarta"},
			{TraitType: "Periode", Value: "Colonial"},
			{TraitType: "Tokoh Terkait", Value: ""},
			{TraitType: "Tag", Value: "market,history"},
		},
	}
	if len(pinner.pinnedDocs) != 1 || !reflect.DeepEqual(pinner.pinnedDocs[0], expectedMetadata) {
		t.Errorf("incorrect metadata pinned: %+v", pinner.pinnedDocs)
	}
	if len(pinner.pinnedUploads) != 1 || pinner.pinnedUploads[0].Filename != "pasar.jpg" {
		t.Errorf("incorrect image pinned: %+v", pinner.pinnedUploads)
	}
	expectedCall := models.TokenMint{RecipientAddress: testRecipient, MetadataUri: "ipfs://bafkMeta1"}
	if len(minter.mintCalls) != 1 || minter.mintCalls[0] != expectedCall {
		t.Errorf("incorrect mint calls: %+v", minter.mintCalls)
	}
	if len(minter.confirmCalls) != 1 || minter.confirmCalls[0] != testTxHash {
		t.Errorf("incorrect confirmation calls: %+v", minter.confirmCalls)
	}

	expectedTransitions := []models.MintState{
		models.MintState_Validating,
		models.MintState_PinningImage,
		models.MintState_BuildingMetadata,
		models.MintState_PinningMetadata,
		models.MintState_Minting,
		models.MintState_Confirming,
		models.MintState_Succeeded,
	}
	if !reflect.DeepEqual(transitions, expectedTransitions) {
		t.Errorf("incorrect transitions: %v", transitions)
	}
	stored := attemptDb.latest[outcome.AttemptId.String()]
	Assert(t, models.MintState_Succeeded.String(), stored.State, "incorrect stored state")
	Assert(t, "ipfs://bafkMeta1", stored.MetadataUri, "incorrect stored metadata uri")
	Assert(t, testTxHash, stored.TxHash, "incorrect stored tx hash")
	Assert(t, len(expectedTransitions), len(attemptDb.states), "incorrect number of stored transitions")

	archiveKey := fmt.Sprintf("metadata/%s/bafkMeta1.json", outcome.AttemptId)
	if !reflect.DeepEqual(archive.values[archiveKey], expectedMetadata) {
		t.Errorf("metadata not archived under %s: %v", archiveKey, archive.values)
	}
	Assert(t, 0, len(notifier.alerts), "no alert should have been sent")
	Assert(t, 1, metricService.count(models.MetricName_MintSucceeded), "incorrect success count")
	Assert(t, 0, metricService.count(models.MetricName_MintFailed), "incorrect failure count")
}

func TestMintValidation(t *testing.T) {
	tests := map[string]struct {
		modify        func(req *models.MintRequest)
		expectedField string
	}{
		"missing name": {
			modify:        func(req *models.MintRequest) { req.Form.Name = "" },
			expectedField: models.FormKey_Name,
		},
		"blank name": {
			modify:        func(req *models.MintRequest) { req.Form.Name = " \t\n" },
			expectedField: models.FormKey_Name,
		},
		"missing description": {
			modify:        func(req *models.MintRequest) { req.Form.Description = "" },
			expectedField: models.FormKey_Description,
		},
		"missing name is reported before description": {
			modify: func(req *models.MintRequest) {
				req.Form.Name = ""
				req.Form.Description = ""
			},
			expectedField: models.FormKey_Name,
		},
		"missing image": {
			modify:        func(req *models.MintRequest) { req.Image = models.UploadRequest{} },
			expectedField: "image",
		},
		"empty image": {
			modify:        func(req *models.MintRequest) { req.Image.Payload = []byte{} },
			expectedField: "image",
		},
		"missing recipient": {
			modify:        func(req *models.MintRequest) { req.RecipientAddress = "" },
			expectedField: "recipient",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			pinner := &MockPinner{binaryCids: []string{"bafkImg1"}, jsonCids: []string{"bafkMeta1"}}
			minter := &MockMinter{txHash: testTxHash}
			notifier := &MockNotifier{}
			mintService := NewMintService(loggers.NewTestLogger(), pinner, minter, &MockMetricService{}, MintServiceOpts{Notifier: notifier})

			req := exampleRequest()
			test.modify(&req)
			outcome := mintService.Mint(context.Background(), req)

			if outcome.Succeeded() {
				t.Fatalf("mint should have failed")
			}
			Assert(t, models.MintStage_Validate, outcome.Stage, "incorrect failure stage")
			var validationErr *models.ValidationError
			if !errors.As(outcome.Err, &validationErr) {
				t.Fatalf("expected validation error, got %v", outcome.Err)
			}
			Assert(t, test.expectedField, validationErr.Field, "incorrect field reported")
			if !strings.HasPrefix(outcome.FailureMessage(), "validate: ") {
				t.Errorf("failure message should name the stage: %s", outcome.FailureMessage())
			}
			Assert(t, 0, pinner.binaryCalls, "no image pin should have been made")
			Assert(t, 0, pinner.jsonCalls, "no metadata pin should have been made")
			Assert(t, 0, minter.numMints(), "no mint should have been made")
			Assert(t, 0, len(notifier.alerts), "validation failures should not alert")
		})
	}
}

func TestMintStageFailures(t *testing.T) {
	remoteErr := &models.RemoteServiceError{Service: "pinata", StatusCode: 500, Message: "Pinata upload failed"}
	tests := map[string]struct {
		pinner               *MockPinner
		minter               *MockMinter
		confirmTimeout       time.Duration
		expectedStage        models.MintStage
		expectedJsonCalls    int
		expectedMints        int
		expectedConfirms     int
		expectedMessagePart  string
		expectedTimeoutError bool
	}{
		"image pin failure halts before metadata": {
			pinner:              &MockPinner{binaryErr: remoteErr},
			minter:              &MockMinter{txHash: testTxHash},
			expectedStage:       models.MintStage_PinImage,
			expectedMessagePart: "Pinata upload failed",
		},
		"image pin without cid is a failure": {
			pinner:              &MockPinner{binaryCids: []string{""}, jsonCids: []string{"bafkMeta1"}},
			minter:              &MockMinter{txHash: testTxHash},
			expectedStage:       models.MintStage_PinImage,
			expectedMessagePart: "missing cid",
		},
		"long multi-byte diagnostic is truncated on a character boundary": {
			pinner:              &MockPinner{binaryErr: &models.RemoteServiceError{Service: "pinata", StatusCode: 500, Message: strings.Repeat("é", 200)}},
			minter:              &MockMinter{txHash: testTxHash},
			expectedStage:       models.MintStage_PinImage,
			expectedMessagePart: "éé",
		},
		"metadata pin failure halts before mint": {
			pinner:              &MockPinner{binaryCids: []string{"bafkImg1"}, jsonErr: remoteErr},
			minter:              &MockMinter{txHash: testTxHash},
			expectedStage:       models.MintStage_PinMetadata,
			expectedJsonCalls:   1,
			expectedMessagePart: "Pinata upload failed",
		},
		"mint rejection halts before confirmation": {
			pinner:              &MockPinner{binaryCids: []string{"bafkImg1"}, jsonCids: []string{"bafkMeta1"}},
			minter:              &MockMinter{mintErr: &models.ContractError{Op: "safeMint", Err: errors.New("insufficient funds for gas * price + value")}},
			expectedStage:       models.MintStage_Mint,
			expectedJsonCalls:   1,
			expectedMints:       1,
			expectedMessagePart: "insufficient funds",
		},
		"reverted transaction fails confirmation": {
			pinner:              &MockPinner{binaryCids: []string{"bafkImg1"}, jsonCids: []string{"bafkMeta1"}},
			minter:              &MockMinter{txHash: testTxHash, confirmErr: &models.ContractError{Op: "confirm", Err: errors.New("transaction reverted")}},
			expectedStage:       models.MintStage_Confirm,
			expectedJsonCalls:   1,
			expectedMints:       1,
			expectedConfirms:    1,
			expectedMessagePart: "transaction reverted",
		},
		"unconfirmed transaction times out": {
			pinner:               &MockPinner{binaryCids: []string{"bafkImg1"}, jsonCids: []string{"bafkMeta1"}},
			minter:               &MockMinter{txHash: testTxHash, blockConfirm: true},
			confirmTimeout:       50 * time.Millisecond,
			expectedStage:        models.MintStage_Confirm,
			expectedJsonCalls:    1,
			expectedMints:        1,
			expectedConfirms:     1,
			expectedMessagePart:  "not confirmed within 50ms",
			expectedTimeoutError: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			notifier := &MockNotifier{}
			metricService := &MockMetricService{}
			attemptDb := &MockAttemptRepository{}
			mintService := NewMintService(loggers.NewTestLogger(), test.pinner, test.minter, metricService, MintServiceOpts{
				ConfirmTimeout: test.confirmTimeout,
				AttemptDb:      attemptDb,
				Notifier:       notifier,
			})

			outcome := mintService.Mint(context.Background(), exampleRequest())
			if outcome.Succeeded() {
				t.Fatalf("mint should have failed")
			}
			Assert(t, test.expectedStage, outcome.Stage, "incorrect failure stage")
			Assert(t, 1, test.pinner.binaryCalls, "image should have been pinned once")
			Assert(t, test.expectedJsonCalls, test.pinner.jsonCalls, "incorrect number of metadata pins")
			Assert(t, test.expectedMints, test.minter.numMints(), "incorrect number of mints")
			Assert(t, test.expectedConfirms, len(test.minter.confirmCalls), "incorrect number of confirmations")
			if !strings.Contains(outcome.Message, test.expectedMessagePart) {
				t.Errorf("message %q should contain %q", outcome.Message, test.expectedMessagePart)
			}
			if !utf8.ValidString(outcome.Message) || !utf8.ValidString(outcome.FailureMessage()) {
				t.Errorf("message is not valid utf-8: %q", outcome.Message)
			}
			if len(outcome.Message) > maxOutcomeMessageLen+len("...") {
				t.Errorf("message too long: %d", len(outcome.Message))
			}
			var timeoutErr *models.ConfirmationTimeoutError
			Assert(t, test.expectedTimeoutError, errors.As(outcome.Err, &timeoutErr), "incorrect timeout classification")

			Assert(t, 1, len(notifier.alerts), "failure should have alerted")
			if !strings.Contains(notifier.alerts[0], string(test.expectedStage)) {
				t.Errorf("alert should name the stage: %s", notifier.alerts[0])
			}
			Assert(t, 1, metricService.count(models.MetricName_MintFailed), "incorrect failure count")
			stored := attemptDb.latest[outcome.AttemptId.String()]
			Assert(t, models.MintState_Failed.String(), stored.State, "incorrect stored state")
			Assert(t, string(test.expectedStage), stored.Stage, "incorrect stored stage")
		})
	}
}

func TestMintCallerCancellationIsNotATimeout(t *testing.T) {
	pinner := &MockPinner{binaryCids: []string{"bafkImg1"}, jsonCids: []string{"bafkMeta1"}}
	minter := &MockMinter{txHash: testTxHash, blockConfirm: true}
	mintService := NewMintService(loggers.NewTestLogger(), pinner, minter, &MockMetricService{}, MintServiceOpts{ConfirmTimeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	outcome := mintService.Mint(ctx, exampleRequest())

	Assert(t, models.MintStage_Confirm, outcome.Stage, "incorrect failure stage")
	var timeoutErr *models.ConfirmationTimeoutError
	if errors.As(outcome.Err, &timeoutErr) {
		t.Errorf("caller cancellation should not be reported as a confirmation timeout")
	}
	// The orphaned pins are kept on the outcome for the caller to inspect
	Assert(t, "bafkMeta1", outcome.MetadataCid, "incorrect metadata cid")
}

func TestMintRecordingFailuresDoNotChangeOutcome(t *testing.T) {
	pinner := &MockPinner{binaryCids: []string{"bafkImg1"}, jsonCids: []string{"bafkMeta1"}}
	minter := &MockMinter{txHash: testTxHash}
	mintService := NewMintService(loggers.NewTestLogger(), pinner, minter, &MockMetricService{}, MintServiceOpts{
		AttemptDb: &MockAttemptRepository{shouldFail: true},
	})

	outcome := mintService.Mint(context.Background(), exampleRequest())
	if !outcome.Succeeded() {
		t.Fatalf("mint should have succeeded: %s", outcome.FailureMessage())
	}
}

// EchoPinner derives CIDs from the pinned content so that concurrent attempts can be told apart.
type EchoPinner struct{}

func (EchoPinner) PinBinary(ctx context.Context, upload models.UploadRequest) (*models.PinResult, error) {
	return &models.PinResult{Cid: "img-" + upload.Filename}, nil
}

func (EchoPinner) PinJson(ctx context.Context, document any) (*models.PinResult, error) {
	metadata := document.(models.NftMetadata)
	return &models.PinResult{Cid: "meta-" + strings.TrimPrefix(metadata.Image, models.IpfsScheme)}, nil
}

func TestConcurrentMintsDoNotShareCids(t *testing.T) {
	minter := &MockMinter{txHash: testTxHash}
	mintService := NewMintService(loggers.NewTestLogger(), EchoPinner{}, minter, &MockMetricService{}, MintServiceOpts{})

	numAttempts := 8
	outcomes := make([]models.MintOutcome, numAttempts)
	var wg sync.WaitGroup
	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			req := exampleRequest()
			req.Image.Filename = fmt.Sprintf("photo-%d.jpg", idx)
			outcomes[idx] = mintService.Mint(context.Background(), req)
		}(i)
	}
	wg.Wait()

	attemptIds := make(map[uuid.UUID]bool)
	for idx, outcome := range outcomes {
		if !outcome.Succeeded() {
			t.Fatalf("attempt %d failed: %s", idx, outcome.FailureMessage())
		}
		expectedImageCid := fmt.Sprintf("img-photo-%d.jpg", idx)
		Assert(t, expectedImageCid, outcome.ImageCid, "image cid leaked across attempts")
		Assert(t, "meta-"+expectedImageCid, outcome.MetadataCid, "metadata references another attempt's image")
		attemptIds[outcome.AttemptId] = true
	}
	Assert(t, numAttempts, len(attemptIds), "attempt ids should be unique")
	Assert(t, numAttempts, minter.numMints(), "incorrect number of mints")
}
