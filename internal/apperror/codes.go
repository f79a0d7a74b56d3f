package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Liquidation-specific error codes
const (
	// Lending protocol errors
	CodeNotLiquidatable Code = "NOT_LIQUIDATABLE"
	CodeInvalidIndex    Code = "INVALID_INDEX"
	CodeReserveInactive Code = "RESERVE_INACTIVE"

	// Constant-product market errors
	CodeInsufficientInput     Code = "INSUFFICIENT_INPUT"
	CodeInsufficientOutput    Code = "INSUFFICIENT_OUTPUT"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeOverflow              Code = "OVERFLOW"
	CodePairNotFound          Code = "PAIR_NOT_FOUND"

	// Settlement errors
	CodeBorrowMismatch Code = "BORROW_MISMATCH"
	CodeTransferFailed Code = "TRANSFER_FAILED"
	CodePayoutFailed   Code = "PAYOUT_FAILED"

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"

	// Oracle errors
	CodeOracleQueryFailed Code = "ORACLE_QUERY_FAILED"
	CodeInvalidPrice      Code = "INVALID_PRICE"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
