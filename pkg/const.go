package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
)

const (
	TraceId       string = "trace_id"
	RequestId     string = "request_id"
	TransactionId string = "transaction_id"
)

// TxStatus is the transaction lifecycle state. PENDING is the only
// non-terminal state; APPROVED and BLOCKED are final.
type TxStatus string

const (
	TxStatusPending  TxStatus = "PENDING"
	TxStatusApproved TxStatus = "APPROVED"
	TxStatusBlocked  TxStatus = "BLOCKED"
)

// DefaultCategory is applied when a transaction is submitted without one.
const DefaultCategory = "Other"
