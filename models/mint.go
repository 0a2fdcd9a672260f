package models

import (
	"time"

	"github.com/google/uuid"
)

const IpfsScheme = "ipfs://"

// IpfsUri builds the content address embedded in metadata documents and minted tokens.
func IpfsUri(cid string) string {
	return IpfsScheme + cid
}

type UploadRequest struct {
	Payload  []byte
	Filename string
}

type PinResult struct {
	Cid string `json:"IpfsHash"`
}

type NftAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type NftMetadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Writer      string         `json:"writer"`
	Repro       string         `json:"repro"`
	Image       string         `json:"image"`
	Attributes  []NftAttribute `json:"attributes"`
}

// MintRequest is an immutable snapshot of one mint attempt's input. Callers own any mutable draft state and must
// build a fresh request per attempt.
type MintRequest struct {
	Form             MintForm
	Image            UploadRequest
	RecipientAddress string
}

// TokenMint is the contract call derived from a pinned metadata document.
type TokenMint struct {
	RecipientAddress string
	MetadataUri      string
}

type MintStage string

const (
	MintStage_Validate    MintStage = "validate"
	MintStage_PinImage    MintStage = "pin-image"
	MintStage_PinMetadata MintStage = "pin-metadata"
	MintStage_Mint        MintStage = "mint"
	MintStage_Confirm     MintStage = "confirm"
)

type MintState uint8

const (
	MintState_Idle MintState = iota
	MintState_Validating
	MintState_PinningImage
	MintState_BuildingMetadata
	MintState_PinningMetadata
	MintState_Minting
	MintState_Confirming
	MintState_Succeeded
	MintState_Failed
)

var mintStateNames = [...]string{
	"idle",
	"validating",
	"pinning_image",
	"building_metadata",
	"pinning_metadata",
	"minting",
	"confirming",
	"succeeded",
	"failed",
}

func (s MintState) String() string {
	if int(s) < len(mintStateNames) {
		return mintStateNames[s]
	}
	return "unknown"
}

func (s MintState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s MintState) Terminal() bool {
	return s == MintState_Succeeded || s == MintState_Failed
}

// MintOutcome is the single terminal result of a mint attempt. Stage and Message are only set for failures, TxHash
// only for successes.
type MintOutcome struct {
	AttemptId   uuid.UUID `json:"attemptId"`
	State       MintState `json:"state"`
	TxHash      string    `json:"txHash,omitempty"`
	Stage       MintStage `json:"stage,omitempty"`
	Message     string    `json:"message,omitempty"`
	ImageCid    string    `json:"imageCid,omitempty"`
	MetadataCid string    `json:"metadataCid,omitempty"`
	Err         error     `json:"-"`
}

func (o MintOutcome) Succeeded() bool {
	return o.State == MintState_Succeeded
}

// FailureMessage returns the one user-facing message for a failed attempt, naming the stage that failed.
func (o MintOutcome) FailureMessage() string {
	if o.Succeeded() {
		return ""
	}
	return string(o.Stage) + ": " + o.Message
}

type MintAttempt struct {
	Id          uuid.UUID `dynamodbav:"id"`
	Recipient   string    `dynamodbav:"rcp"`
	State       string    `dynamodbav:"st"`
	Stage       string    `dynamodbav:"stg,omitempty"`
	Message     string    `dynamodbav:"msg,omitempty"`
	ImageCid    string    `dynamodbav:"icid,omitempty"`
	MetadataCid string    `dynamodbav:"mcid,omitempty"`
	MetadataUri string    `dynamodbav:"uri,omitempty"`
	TxHash      string    `dynamodbav:"tx,omitempty"`
	CreatedAt   time.Time `dynamodbav:"cts"`
	UpdatedAt   time.Time `dynamodbav:"uts"`
}
