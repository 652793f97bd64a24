// Package api provides the Deribit public REST client used to read index prices.
//
// REST endpoints:
//   - Production: https://www.deribit.com/api/v2/public
//   - Testnet: https://test.deribit.com/api/v2/public
//
// Only public/get_index_price is used. Responses are JSON-RPC 2.0 envelopes;
// failures arrive as an "error" object alongside a 4xx status.
package api
