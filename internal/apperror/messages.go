package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Lending protocol errors
	CodeNotLiquidatable: "Position health factor is above the liquidation threshold",
	CodeInvalidIndex:    "Reserve index out of range",
	CodeReserveInactive: "Reserve is not active",

	// Constant-product market errors
	CodeInsufficientInput:     "Swap input amount must be positive",
	CodeInsufficientOutput:    "Swap output amount must be positive",
	CodeInsufficientLiquidity: "Pair reserves cannot cover the requested amount",
	CodeOverflow:              "Arithmetic overflow",
	CodePairNotFound:          "No pair exists for the token pair",

	// Settlement errors
	CodeBorrowMismatch: "Delivered flash-borrow amount does not match balance",
	CodeTransferFailed: "Token transfer failed",
	CodePayoutFailed:   "Profit payout to initiator failed",

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeContractCallFailed:       "Contract call failed",

	// Oracle errors
	CodeOracleQueryFailed: "Price oracle query failed",
	CodeInvalidPrice:      "Oracle returned a zero or invalid price",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
