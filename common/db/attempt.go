package db

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"

	"github.com/ceramicnetwork/go-mint/models"
)

const createAttemptTable = `CREATE TABLE IF NOT EXISTS mint_attempt (
	id UUID PRIMARY KEY,
	recipient TEXT NOT NULL,
	state TEXT NOT NULL,
	stage TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	image_cid TEXT NOT NULL DEFAULT '',
	metadata_cid TEXT NOT NULL DEFAULT '',
	metadata_uri TEXT NOT NULL DEFAULT '',
	tx_hash TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

const upsertAttempt = `INSERT INTO mint_attempt
	(id, recipient, state, stage, message, image_cid, metadata_cid, metadata_uri, tx_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE SET
	state = EXCLUDED.state,
	stage = EXCLUDED.stage,
	message = EXCLUDED.message,
	image_cid = EXCLUDED.image_cid,
	metadata_cid = EXCLUDED.metadata_cid,
	metadata_uri = EXCLUDED.metadata_uri,
	tx_hash = EXCLUDED.tx_hash,
	updated_at = EXCLUDED.updated_at`

var _ models.AttemptRepository = &AttemptDatabase{}

type AttemptDatabase struct {
	opts   AttemptDbOpts
	logger models.Logger
}

type AttemptDbOpts struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func NewAttemptDb(ctx context.Context, logger models.Logger, opts AttemptDbOpts) (*AttemptDatabase, error) {
	adb := &AttemptDatabase{opts, logger}
	if err := adb.exec(ctx, createAttemptTable); err != nil {
		return nil, err
	}
	return adb, nil
}

func (adb *AttemptDatabase) StoreAttempt(ctx context.Context, attempt *models.MintAttempt) error {
	return adb.exec(
		ctx,
		upsertAttempt,
		attempt.Id.String(),
		attempt.Recipient,
		attempt.State,
		attempt.Stage,
		attempt.Message,
		attempt.ImageCid,
		attempt.MetadataCid,
		attempt.MetadataUri,
		attempt.TxHash,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)
}

func (adb *AttemptDatabase) exec(ctx context.Context, sql string, args ...any) error {
	dbCtx, dbCancel := context.WithTimeout(ctx, models.DefaultHttpWaitTime)
	defer dbCancel()

	conn, err := pgx.Connect(dbCtx, adb.connUrl())
	if err != nil {
		adb.logger.Errorf("db: error connecting to %s:%s/%s: %v", adb.opts.Host, adb.opts.Port, adb.opts.Name, err)
		return err
	}
	defer conn.Close(context.Background())

	if _, err = conn.Exec(dbCtx, sql, args...); err != nil {
		adb.logger.Errorf("db: error executing statement: %v", err)
		return err
	}
	return nil
}

func (adb *AttemptDatabase) connUrl() string {
	connUrl := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(adb.opts.User, adb.opts.Password),
		Host:   fmt.Sprintf("%s:%s", adb.opts.Host, adb.opts.Port),
		Path:   adb.opts.Name,
	}
	return connUrl.String()
}
