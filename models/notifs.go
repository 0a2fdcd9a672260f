package models

const AlertTitle = "Photo Mint Alert"

const AlertDesc_MintFailed = "Mint Failed"

const AlertFmt_MintFailed string = "%s\nattempt: %s\nrecipient: %s\nstage: %s\n%s"
