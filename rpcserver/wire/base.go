package wire

type BaseResp struct {
	Code int    `json:"code" example:"0"`
	Msg  string `json:"msg" example:"ok"`
}

type HealthStatusResp struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"0.2.0"`
	Chain   string `json:"chain" example:"mainnet"`
	Height  uint64 `json:"height" example:"840000"`
}

type InscriptionLocation struct {
	Id       string `json:"inscriptionid"`
	SatPoint string `json:"satpoint"`
	Value    int64  `json:"value"`
	Locked   bool   `json:"locked"`
}

type WalletInscriptionsResp struct {
	BaseResp
	Height uint64                 `json:"height"`
	Total  int                    `json:"total"`
	Data   []*InscriptionLocation `json:"data"`
}
