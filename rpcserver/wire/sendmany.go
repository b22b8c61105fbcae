package wire

import "github.com/sat20-labs/sendmany/sendmany"

// SendManyReq carries the request file inline.
type SendManyReq struct {
	Csv       string  `json:"csv" binding:"required"`
	FeeRate   float64 `json:"fee_rate"`
	Broadcast bool    `json:"broadcast"`
	Psbt      bool    `json:"psbt"`
}

type SendManyData struct {
	Tx   string                `json:"tx"`
	Psbt string                `json:"psbt,omitempty"`
	Plan *sendmany.PlanSummary `json:"plan"`
}

type SendManyResp struct {
	BaseResp
	// Kind and Stage are set when the build failed.
	Kind  string        `json:"kind,omitempty"`
	Stage string        `json:"stage,omitempty"`
	Data  *SendManyData `json:"data,omitempty"`
}
