package models

import "time"

const DefaultHttpWaitTime = 30 * time.Second
const DefaultConfirmTimeout = 5 * time.Minute
const DefaultConfirmPollInterval = 2 * time.Second

const ServiceName = "photo-minter"
