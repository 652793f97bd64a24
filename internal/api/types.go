package api

import "github.com/shopspring/decimal"

// IndexPriceResponse from GET /get_index_price
type IndexPriceResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	Result  *IndexPriceResult `json:"result"`
	Error   *RPCError         `json:"error"`
	UsIn    int64             `json:"usIn"`
	UsOut   int64             `json:"usOut"`
	UsDiff  int64             `json:"usDiff"`
	Testnet bool              `json:"testnet"`
}

// IndexPriceResult is the result object of get_index_price.
type IndexPriceResult struct {
	IndexPrice             *decimal.Decimal `json:"index_price"`
	EstimatedDeliveryPrice *decimal.Decimal `json:"estimated_delivery_price"`
}
