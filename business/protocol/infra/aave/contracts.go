package aave

// LendingPoolABI covers the read surface of the Aave V2 LendingPool plus
// liquidationCall. getReserveData's struct return is all static types, so it
// is declared flat and decodes identically.
const LendingPoolABI = `[
	{
		"inputs": [{"internalType": "address", "name": "user", "type": "address"}],
		"name": "getUserAccountData",
		"outputs": [
			{"internalType": "uint256", "name": "totalCollateralETH", "type": "uint256"},
			{"internalType": "uint256", "name": "totalDebtETH", "type": "uint256"},
			{"internalType": "uint256", "name": "availableBorrowsETH", "type": "uint256"},
			{"internalType": "uint256", "name": "currentLiquidationThreshold", "type": "uint256"},
			{"internalType": "uint256", "name": "ltv", "type": "uint256"},
			{"internalType": "uint256", "name": "healthFactor", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "asset", "type": "address"}],
		"name": "getReserveData",
		"outputs": [
			{"internalType": "uint256", "name": "configuration", "type": "uint256"},
			{"internalType": "uint128", "name": "liquidityIndex", "type": "uint128"},
			{"internalType": "uint128", "name": "variableBorrowIndex", "type": "uint128"},
			{"internalType": "uint128", "name": "currentLiquidityRate", "type": "uint128"},
			{"internalType": "uint128", "name": "currentVariableBorrowRate", "type": "uint128"},
			{"internalType": "uint128", "name": "currentStableBorrowRate", "type": "uint128"},
			{"internalType": "uint40", "name": "lastUpdateTimestamp", "type": "uint40"},
			{"internalType": "address", "name": "aTokenAddress", "type": "address"},
			{"internalType": "address", "name": "stableDebtTokenAddress", "type": "address"},
			{"internalType": "address", "name": "variableDebtTokenAddress", "type": "address"},
			{"internalType": "address", "name": "interestRateStrategyAddress", "type": "address"},
			{"internalType": "uint8", "name": "id", "type": "uint8"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getReservesList",
		"outputs": [{"internalType": "address[]", "name": "", "type": "address[]"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "user", "type": "address"}],
		"name": "getUserConfiguration",
		"outputs": [{"internalType": "uint256", "name": "data", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "asset", "type": "address"}],
		"name": "getConfiguration",
		"outputs": [{"internalType": "uint256", "name": "data", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "collateralAsset", "type": "address"},
			{"internalType": "address", "name": "debtAsset", "type": "address"},
			{"internalType": "address", "name": "user", "type": "address"},
			{"internalType": "uint256", "name": "debtToCover", "type": "uint256"},
			{"internalType": "bool", "name": "receiveAToken", "type": "bool"}
		],
		"name": "liquidationCall",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// PriceOracleABI is the price getter of the protocol oracle. Prices are in
// the 18-decimal reference unit.
const PriceOracleABI = `[
	{
		"inputs": [{"internalType": "address", "name": "asset", "type": "address"}],
		"name": "getAssetPrice",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// ERC20ABI is the minimal read surface of a token contract.
const ERC20ABI = `[
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "symbol",
		"outputs": [{"internalType": "string", "name": "", "type": "string"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "decimals",
		"outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	}
]`
