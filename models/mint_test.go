package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestMintOutcomeJson(t *testing.T) {
	attemptId := uuid.MustParse("7d1c1d6e-3a43-4f0e-9a51-3a0f3c2b5e11")
	tests := map[string]struct {
		outcome  MintOutcome
		expected string
	}{
		"success states its state": {
			outcome:  MintOutcome{AttemptId: attemptId, State: MintState_Succeeded, TxHash: "0xabc", ImageCid: "bafkImg1", MetadataCid: "bafkMeta1"},
			expected: `{"attemptId":"7d1c1d6e-3a43-4f0e-9a51-3a0f3c2b5e11","state":"succeeded","txHash":"0xabc","imageCid":"bafkImg1","metadataCid":"bafkMeta1"}`,
		},
		"failure states its state and stage": {
			outcome:  MintOutcome{AttemptId: attemptId, State: MintState_Failed, Stage: MintStage_PinImage, Message: "pinata: Pin upload failed"},
			expected: `{"attemptId":"7d1c1d6e-3a43-4f0e-9a51-3a0f3c2b5e11","state":"failed","stage":"pin-image","message":"pinata: Pin upload failed"}`,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			encoded, err := json.Marshal(test.outcome)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(encoded) != test.expected {
				t.Errorf("expected %s, got %s", test.expected, encoded)
			}
		})
	}
}

func TestMintStateText(t *testing.T) {
	text, err := MintState_PinningMetadata.MarshalText()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(text) != "pinning_metadata" {
		t.Errorf("incorrect state text: %s", text)
	}
	if MintState(200).String() != "unknown" {
		t.Errorf("out of range state should be unknown")
	}
}
