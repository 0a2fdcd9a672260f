package ddb

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ceramicnetwork/go-mint"
	"github.com/ceramicnetwork/go-mint/common"
	"github.com/ceramicnetwork/go-mint/models"
)

var _ models.AttemptRepository = &AttemptDatabase{}

// AttemptDatabase keeps the latest state of every mint attempt, keyed by attempt id.
type AttemptDatabase struct {
	client       dynamoDbApi
	attemptTable string
	logger       models.Logger
}

func NewAttemptDb(ctx context.Context, logger models.Logger, client *dynamodb.Client) (*AttemptDatabase, error) {
	attemptTable := "photo-mint-" + os.Getenv(mint.Env_Env) + "-attempt"
	adb := AttemptDatabase{client, attemptTable, logger}
	if err := adb.createAttemptTable(ctx); err != nil {
		return nil, err
	}
	return &adb, nil
}

func (adb *AttemptDatabase) createAttemptTable(ctx context.Context) error {
	createTableInput := dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: "S",
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       "HASH",
			},
		},
		TableName: aws.String(adb.attemptTable),
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
	}
	return createTable(ctx, adb.logger, adb.client, &createTableInput)
}

// StoreAttempt overwrites the attempt's item. Writes for one attempt happen in transition order, so the item always
// holds the most recent state.
func (adb *AttemptDatabase) StoreAttempt(ctx context.Context, attempt *models.MintAttempt) error {
	attributeValues, err := attributevalue.MarshalMapWithOptions(attempt, func(options *attributevalue.EncoderOptions) {
		options.EncodeTime = func(time time.Time) (types.AttributeValue, error) {
			return &types.AttributeValueMemberN{Value: strconv.FormatInt(time.UnixMilli(), 10)}, nil
		}
	})
	if err != nil {
		return err
	}
	// Store the id in its canonical string form rather than as raw bytes
	attributeValues["id"] = &types.AttributeValueMemberS{Value: attempt.Id.String()}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	_, err = adb.client.PutItem(httpCtx, &dynamodb.PutItemInput{
		TableName: aws.String(adb.attemptTable),
		Item:      attributeValues,
	})
	return err
}
