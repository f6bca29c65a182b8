package types

import "encoding/json"

type ErrorCode string

const (
	ErrorCodeNone          ErrorCode = ""
	ErrorCodeUnauthorized  ErrorCode = "unauthorized"
	ErrorCodeInvalidNonce  ErrorCode = "invalid_nonce"
	ErrorCodeQuotaExceeded ErrorCode = "quota_exceeded"
	ErrorCodeInternal      ErrorCode = "internal"
)

type RelayState string

const (
	RelayStatePending RelayState = "pending"
	RelayStateMined   RelayState = "mined"
	RelayStateFailed  RelayState = "failed"
)

// RelayRequest asks the relayer to execute a call from Wallet inside one nonce space.
type RelayRequest struct {
	RequestID  string `json:"request_id"`
	AccessKey  string `json:"access_key,omitempty"`
	Chain      string `json:"chain"`
	Wallet     string `json:"wallet"`
	NonceSpace string `json:"nonce_space"`
	Nonce      uint64 `json:"nonce"`
	To         string `json:"to"`
	Data       []byte `json:"data"`
	Signature  []byte `json:"signature"`
}

type RelayAccepted struct {
	RequestID   string    `json:"request_id"`
	TxHash      string    `json:"tx_hash"`
	ErrorCode   ErrorCode `json:"error_code"`
	ErrorReason string    `json:"error_reason"`
}

type RelayStatusRequest struct {
	Chain  string `json:"chain"`
	TxHash string `json:"tx_hash"`
}

type RelayStatus struct {
	TxHash      string        `json:"tx_hash"`
	State       RelayState    `json:"state"`
	Receipt     *RelayReceipt `json:"receipt"`
	ErrorCode   ErrorCode     `json:"error_code"`
	ErrorReason string        `json:"error_reason"`
}

type RelayReceipt struct {
	Status  uint64 `json:"status"`
	GasUsed uint64 `json:"gas_used"`
	Block   uint64 `json:"block"`
}

func (m *RelayRequest) Raw() ([]byte, error) {
	copy := *m           // create a shallow copy
	copy.Signature = nil // modify only the copy
	copy.AccessKey = ""  // transport credential, not signed
	return json.Marshal(&copy)
}

func (m *RelayRequest) Sig() []byte {
	return m.Signature
}
